package bootstrap

import (
    "context"
    "fmt"
    "strings"
    "time"

    "github.com/spf13/viper"
    "go.uber.org/zap"

    "github.com/amirimatin/mongo-rsinit/pkg/mongodb"
    "github.com/amirimatin/mongo-rsinit/pkg/replset"
    tlsx "github.com/amirimatin/mongo-rsinit/pkg/security/tlsconfig"
    "github.com/amirimatin/mongo-rsinit/pkg/seed"
)

// Config defines the inputs of a bootstrap run. The zero durations mean the
// defaults of the replset package (1s interval, unbounded wait).
type Config struct {
    // Connection
    URI            string
    Database       string // seed target
    ConnectTimeout time.Duration
    TLS            tlsx.Options
    // Direct skips topology discovery. Needed to reach a member that has
    // no replica-set config yet; seeding leaves it off to find the primary.
    Direct bool

    // Topology handed to replSetInitiate
    SetID   string
    Members []string

    // Wait loop
    Interval     time.Duration
    Timeout      time.Duration
    SkipInitiate bool

    // Logger (optional). If nil, a no-op logger is used.
    Logger *zap.Logger

    // OnStatus is forwarded to the wait loop (optional).
    OnStatus func(*replset.Status)
}

const (
    DefaultURI            = "mongodb://" + replset.DefaultHost
    DefaultConnectTimeout = 10 * time.Second
)

// Default returns the configuration reproducing the compose bootstrap:
// rs0 with the single member mongo:27017, polled every second forever.
func Default() Config {
    return Config{
        URI:            DefaultURI,
        Database:       seed.DefaultDatabase,
        ConnectTimeout: DefaultConnectTimeout,
        SetID:          replset.DefaultSetID,
        Members:        []string{replset.DefaultHost},
        Interval:       replset.DefaultInterval,
    }
}

// FromViper reads a Config from v. Keys match the CLI flag names.
func FromViper(v *viper.Viper) Config {
    cfg := Default()
    if s := strings.TrimSpace(v.GetString("uri")); s != "" { cfg.URI = s }
    if s := strings.TrimSpace(v.GetString("db")); s != "" { cfg.Database = s }
    if s := strings.TrimSpace(v.GetString("set")); s != "" { cfg.SetID = s }
    if v.IsSet("members") {
        cfg.Members = replset.ParseHosts(strings.Join(v.GetStringSlice("members"), ","))
    }
    if v.IsSet("connect-timeout") { cfg.ConnectTimeout = v.GetDuration("connect-timeout") }
    if v.IsSet("interval") { cfg.Interval = v.GetDuration("interval") }
    cfg.Timeout = v.GetDuration("timeout")
    cfg.TLS = tlsx.Options{
        Enable:             v.GetBool("tls"),
        CAFile:             v.GetString("tls-ca"),
        CertFile:           v.GetString("tls-cert"),
        KeyFile:            v.GetString("tls-key"),
        InsecureSkipVerify: v.GetBool("tls-skip-verify"),
        ServerName:         v.GetString("tls-server-name"),
    }
    return cfg
}

// ValidateWait checks the poll settings. Only commands that wait call it.
func (c Config) ValidateWait() error {
    if c.Interval <= 0 {
        return fmt.Errorf("bootstrap: interval must be positive, got %s", c.Interval)
    }
    if c.Timeout < 0 {
        return fmt.Errorf("bootstrap: timeout must not be negative, got %s", c.Timeout)
    }
    return nil
}

// Topology converts the configured set id and members into a replset.Config.
func (c Config) Topology() (replset.Config, error) {
    return replset.NewConfig(c.SetID, c.Members)
}

// Build opens the driver connection described by cfg without issuing any
// command.
func Build(ctx context.Context, cfg Config) (*mongodb.Client, error) {
    tlsCfg, err := cfg.TLS.Client()
    if err != nil { return nil, fmt.Errorf("tls client config: %w", err) }
    return mongodb.Connect(ctx, mongodb.Options{
        URI:            cfg.URI,
        Database:       cfg.Database,
        Direct:         cfg.Direct,
        ConnectTimeout: cfg.ConnectTimeout,
        TLS:            tlsCfg,
        AppName:        "rsinit",
        Logger:         cfg.Logger,
    })
}

// Run initiates the replica set (unless SkipInitiate) and blocks until its
// first member is primary, returning the final status.
func Run(ctx context.Context, admin replset.Admin, cfg Config) (*replset.Status, error) {
    if cfg.Logger == nil { cfg.Logger = zap.NewNop() }
    if err := cfg.ValidateWait(); err != nil { return nil, err }
    if !cfg.SkipInitiate {
        topo, err := cfg.Topology()
        if err != nil { return nil, err }
        if err := replset.Initiate(ctx, admin, topo, cfg.Logger); err != nil { return nil, err }
    }
    cfg.Logger.Info("waiting for primary", zap.Duration("interval", cfg.Interval), zap.Duration("timeout", cfg.Timeout))
    return replset.WaitForPrimary(ctx, admin, replset.WaitOptions{
        Interval: cfg.Interval,
        Timeout:  cfg.Timeout,
        Logger:   cfg.Logger,
        OnStatus: cfg.OnStatus,
    })
}
