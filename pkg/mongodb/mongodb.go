// Package mongodb speaks the MongoDB administrative commands used to
// bootstrap a replica set, and the collection operations used to seed it.
package mongodb

import (
    "context"
    "crypto/tls"
    "errors"
    "fmt"
    "time"

    "go.mongodb.org/mongo-driver/bson"
    "go.mongodb.org/mongo-driver/mongo"
    "go.mongodb.org/mongo-driver/mongo/options"
    "go.mongodb.org/mongo-driver/x/mongo/driver/topology"
    "go.uber.org/zap"

    "github.com/amirimatin/mongo-rsinit/pkg/replset"
)

// Server error codes this package translates.
const (
    codeAlreadyInitialized = 23
    codeNotYetInitialized  = 94
)

// Options configures the driver connection.
type Options struct {
    URI      string
    Database string // used by the seed operations
    // Direct disables topology discovery. Required to talk to a member that
    // has not been initiated yet.
    Direct         bool
    ConnectTimeout time.Duration
    TLS            *tls.Config
    AppName        string
    Logger         *zap.Logger
}

// Client wraps a driver client. It implements replset.Admin and seed.Store.
type Client struct {
    mc     *mongo.Client
    db     string
    logger *zap.Logger
}

// Connect creates the driver client. The driver connects lazily, so an
// unreachable server surfaces on the first command, not here.
func Connect(ctx context.Context, opts Options) (*Client, error) {
    if opts.URI == "" { return nil, errors.New("mongodb: empty URI") }
    if opts.Logger == nil { opts.Logger = zap.NewNop() }
    co := options.Client().ApplyURI(opts.URI).SetDirect(opts.Direct)
    if opts.AppName != "" { co.SetAppName(opts.AppName) }
    if opts.ConnectTimeout > 0 {
        co.SetConnectTimeout(opts.ConnectTimeout)
        co.SetServerSelectionTimeout(opts.ConnectTimeout)
    }
    if opts.TLS != nil { co.SetTLSConfig(opts.TLS) }
    mc, err := mongo.Connect(ctx, co)
    if err != nil { return nil, fmt.Errorf("mongodb: connect: %w", err) }
    opts.Logger.Debug("mongodb client created", zap.Bool("direct", opts.Direct), zap.String("database", opts.Database))
    return &Client{mc: mc, db: opts.Database, logger: opts.Logger}, nil
}

// Close disconnects the driver client.
func (c *Client) Close(ctx context.Context) error {
    return c.mc.Disconnect(ctx)
}

// Initiate runs replSetInitiate against the admin database.
func (c *Client) Initiate(ctx context.Context, cfg replset.Config) error {
    cmd := bson.D{{Key: "replSetInitiate", Value: cfg}}
    err := c.mc.Database("admin").RunCommand(ctx, cmd).Err()
    return translate(err)
}

// Status runs replSetGetStatus against the admin database.
func (c *Client) Status(ctx context.Context) (*replset.Status, error) {
    var st replset.Status
    res := c.mc.Database("admin").RunCommand(ctx, bson.D{{Key: "replSetGetStatus", Value: 1}})
    if err := res.Decode(&st); err != nil { return nil, translate(err) }
    return &st, nil
}

// Drop drops a collection of the configured database.
func (c *Client) Drop(ctx context.Context, coll string) error {
    return c.mc.Database(c.db).Collection(coll).Drop(ctx)
}

// InsertMany inserts docs into a collection of the configured database.
func (c *Client) InsertMany(ctx context.Context, coll string, docs []any) error {
    if len(docs) == 0 { return nil }
    _, err := c.mc.Database(c.db).Collection(coll).InsertMany(ctx, docs)
    return err
}

// Database returns the name of the database used for seeding.
func (c *Client) Database() string { return c.db }

// translate maps driver errors onto replset sentinels, keeping the original
// error in the chain.
func translate(err error) error {
    if err == nil { return nil }
    var ce mongo.CommandError
    if errors.As(err, &ce) {
        switch ce.Code {
        case codeAlreadyInitialized:
            return fmt.Errorf("%w: %v", replset.ErrAlreadyInitialized, err)
        case codeNotYetInitialized:
            return fmt.Errorf("%w: %v", replset.ErrNotYetInitialized, err)
        }
        return err
    }
    var sse topology.ServerSelectionError
    if errors.As(err, &sse) || mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
        return fmt.Errorf("%w: %v", replset.ErrUnavailable, err)
    }
    return err
}

var _ replset.Admin = (*Client)(nil)
