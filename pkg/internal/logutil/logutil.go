package logutil

import (
    "io"
    "os"
    "strings"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// Options selects the logger's level, encoding and sink.
type Options struct {
    Level  string // debug|info|warn|error, default info
    JSON   bool
    Writer io.Writer // default os.Stderr
}

// JSONFromEnv reports whether RSINIT_LOG_JSON=1 or RSINIT_LOG_FORMAT=json.
func JSONFromEnv() bool {
    return os.Getenv("RSINIT_LOG_JSON") == "1" || strings.EqualFold(os.Getenv("RSINIT_LOG_FORMAT"), "json")
}

// New builds a zap logger. Logs go to stderr by default so stdout carries only
// command output.
func New(opts Options) (*zap.Logger, error) {
    level := zap.NewAtomicLevel()
    if opts.Level != "" {
        if err := level.UnmarshalText([]byte(opts.Level)); err != nil { return nil, err }
    }
    w := opts.Writer
    if w == nil { w = os.Stderr }

    config := zap.NewProductionEncoderConfig()
    config.EncodeTime = zapcore.ISO8601TimeEncoder
    var enc zapcore.Encoder
    if opts.JSON || JSONFromEnv() {
        enc = zapcore.NewJSONEncoder(config)
    } else {
        config.EncodeLevel = zapcore.CapitalLevelEncoder
        enc = zapcore.NewConsoleEncoder(config)
    }
    core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
    return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)), nil
}
