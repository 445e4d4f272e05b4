package replset

import (
    "context"
    "errors"
    "fmt"

    "go.uber.org/zap"

    obsmetrics "github.com/amirimatin/mongo-rsinit/pkg/observability/metrics"
    "github.com/amirimatin/mongo-rsinit/pkg/observability/tracing"
)

// Admin is the slice of the database's administrative command surface used
// to bootstrap a replica set. Implementations translate server error codes to
// the sentinel errors of this package.
type Admin interface {
    // Initiate asks the server to initialize a replica set with cfg.
    Initiate(ctx context.Context, cfg Config) error
    // Status returns the current replica-set status document.
    Status(ctx context.Context) (*Status, error)
}

// Initiate validates cfg and sends it to the server. A server that already
// has a replica-set configuration is not an error: the caller proceeds to
// wait on whatever topology is in place.
func Initiate(ctx context.Context, admin Admin, cfg Config, logger *zap.Logger) error {
    if logger == nil { logger = zap.NewNop() }
    if err := cfg.Validate(); err != nil { return err }
    ctx, end := tracing.StartSpan(ctx, "replset.initiate")
    defer end()

    logger.Info("initiating replica set", zap.String("set", cfg.ID), zap.Strings("members", cfg.Hosts()))
    err := admin.Initiate(ctx, cfg)
    switch {
    case err == nil:
        obsmetrics.InitiateTotal.WithLabelValues("ok").Inc()
        return nil
    case errors.Is(err, ErrAlreadyInitialized):
        obsmetrics.InitiateTotal.WithLabelValues("already_initialized").Inc()
        logger.Warn("replica set already initialized, waiting on existing configuration", zap.String("set", cfg.ID))
        return nil
    default:
        obsmetrics.InitiateTotal.WithLabelValues("error").Inc()
        return fmt.Errorf("replset initiate %s: %w", cfg.ID, err)
    }
}
