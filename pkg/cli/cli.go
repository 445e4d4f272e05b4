package cli

import (
    "context"
    "encoding/json"
    "fmt"
    "os"
    "os/signal"
    "strings"
    "syscall"
    "time"

    "github.com/spf13/cobra"
    "github.com/spf13/pflag"
    "github.com/spf13/viper"
    "go.uber.org/zap"

    "github.com/amirimatin/mongo-rsinit/pkg/bootstrap"
    "github.com/amirimatin/mongo-rsinit/pkg/internal/logutil"
    obsmetrics "github.com/amirimatin/mongo-rsinit/pkg/observability/metrics"
    tracing "github.com/amirimatin/mongo-rsinit/pkg/observability/tracing"
    "github.com/amirimatin/mongo-rsinit/pkg/replset"
    "github.com/amirimatin/mongo-rsinit/pkg/seed"
    httpjson "github.com/amirimatin/mongo-rsinit/pkg/transport/httpjson"
)

// InitializedMessage is printed on stdout once the first member is primary.
const InitializedMessage = "Replica set initialized."

// Client is what the commands need from a database connection.
type Client interface {
    replset.Admin
    seed.Store
    Database() string
    Close(ctx context.Context) error
}

// Connect opens the database connection for a command. Tests replace it.
var Connect = func(ctx context.Context, cfg bootstrap.Config) (Client, error) {
    c, err := bootstrap.Build(ctx, cfg)
    if err != nil { return nil, err }
    return c, nil
}

// AddAll attaches the bootstrap subcommands (initiate/wait/status/seed) to
// the provided root command.
func AddAll(root *cobra.Command) {
    root.AddCommand(NewInitiateCmd())
    root.AddCommand(NewWaitCmd())
    root.AddCommand(NewStatusCmd())
    root.AddCommand(NewSeedCmd())
}

// NewInitiateCmd returns the "initiate" command: initiate the replica set and
// wait for its first member to become primary.
func NewInitiateCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "initiate",
        Short: "Initiate the replica set and wait until its first member is primary",
        RunE: func(cmd *cobra.Command, args []string) error {
            return runWait(cmd, false)
        },
    }
    addConnFlags(cmd.Flags())
    addWaitFlags(cmd.Flags())
    cmd.Flags().StringSlice("members", []string{replset.DefaultHost}, "member hosts (host:port), first member gets _id 0")
    return cmd
}

// NewWaitCmd returns the "wait" command: wait for primary without initiating.
func NewWaitCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "wait",
        Short: "Wait until the first replica-set member is primary",
        RunE: func(cmd *cobra.Command, args []string) error {
            return runWait(cmd, true)
        },
    }
    addConnFlags(cmd.Flags())
    addWaitFlags(cmd.Flags())
    return cmd
}

// NewStatusCmd returns the "status" command.
func NewStatusCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "status",
        Short: "Print the replica-set status as JSON",
        RunE: func(cmd *cobra.Command, args []string) error {
            r, err := setup(cmd)
            if err != nil { return err }
            defer r.close()
            // status reports the addressed member's own view, before or after initiate
            r.cfg.Direct = true

            ctx, cancel := context.WithTimeout(cmd.Context(), r.cfg.ConnectTimeout+5*time.Second)
            defer cancel()
            cl, err := Connect(ctx, r.cfg)
            if err != nil { return err }
            defer cl.Close(context.Background())

            st, err := cl.Status(ctx)
            if err != nil { return fmt.Errorf("status error: %w", err) }
            enc := json.NewEncoder(cmd.OutOrStdout())
            enc.SetIndent("", "  ")
            return enc.Encode(st)
        },
    }
    addConnFlags(cmd.Flags())
    return cmd
}

// NewSeedCmd returns the "seed" command loading the fixture data set.
func NewSeedCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "seed",
        Short: "Drop and reload the users, vehicles and allocations collections",
        RunE: func(cmd *cobra.Command, args []string) error {
            r, err := setup(cmd)
            if err != nil { return err }
            defer r.close()

            ctx, cancel := signalContext(cmd.Context())
            defer cancel()
            cl, err := Connect(ctx, r.cfg)
            if err != nil { return err }
            defer cl.Close(context.Background())

            s := &seed.Seeder{Store: cl, Logger: r.logger}
            if _, err := s.Run(ctx); err != nil { return err }
            fmt.Fprintf(cmd.OutOrStdout(), "Database '%s' seeded successfully with users, vehicles, and allocations.\n", cl.Database())
            return nil
        },
    }
    addConnFlags(cmd.Flags())
    cmd.Flags().String("db", seed.DefaultDatabase, "database to seed (env MONGO_DB_NAME)")
    return cmd
}

func runWait(cmd *cobra.Command, skipInitiate bool) error {
    r, err := setup(cmd)
    if err != nil { return err }
    defer r.close()
    if err := r.cfg.ValidateWait(); err != nil { return err }
    r.cfg.SkipInitiate = skipInitiate
    r.cfg.Direct = true

    ctx, cancel := signalContext(cmd.Context())
    defer cancel()

    var tracker replset.Tracker
    r.cfg.OnStatus = tracker.Observe
    if addr := r.v.GetString("metrics-addr"); addr != "" {
        obsmetrics.Register()
        srv := httpjson.NewServer(addr, r.logger)
        if err := srv.Start(ctx, tracker.JSON, tracker.Ready); err != nil { return fmt.Errorf("progress server: %w", err) }
        defer srv.Stop(context.Background())
        r.logger.Info("progress endpoint listening (status/healthz/readyz/metrics)", zap.String("addr", srv.Addr()))
    }

    cl, err := Connect(ctx, r.cfg)
    if err != nil { return err }
    defer cl.Close(context.Background())

    st, err := bootstrap.Run(ctx, cl, r.cfg)
    if err != nil { return err }
    first, _ := st.First()
    r.logger.Info("replica set primary ready", zap.String("set", st.Set), zap.String("member", first.Name))
    fmt.Fprintln(cmd.OutOrStdout(), InitializedMessage)
    return nil
}

type run struct {
    v        *viper.Viper
    cfg      bootstrap.Config
    logger   *zap.Logger
    shutdown func(context.Context) error
}

func (r *run) close() {
    if r.shutdown != nil { _ = r.shutdown(context.Background()) }
    _ = r.logger.Sync()
}

// setup binds the command's flags into a fresh viper instance (flags, then
// RSINIT_* env, then the optional config file) and builds the logger, tracer
// and bootstrap config.
func setup(cmd *cobra.Command) (*run, error) {
    v := viper.New()
    v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
    v.SetEnvPrefix("rsinit")
    v.AutomaticEnv()
    _ = v.BindEnv("uri", "RSINIT_URI", "MONGO_URI")
    _ = v.BindEnv("db", "RSINIT_DB", "MONGO_DB_NAME")
    if err := v.BindPFlags(cmd.Flags()); err != nil { return nil, err }
    if err := v.BindPFlags(cmd.InheritedFlags()); err != nil { return nil, err }
    if f := v.GetString("config"); f != "" {
        v.SetConfigFile(f)
        if err := v.ReadInConfig(); err != nil { return nil, fmt.Errorf("read config %s: %w", f, err) }
    }

    logger, err := logutil.New(logutil.Options{Level: v.GetString("log-level"), JSON: v.GetBool("log-json"), Writer: cmd.ErrOrStderr()})
    if err != nil { return nil, fmt.Errorf("logger: %w", err) }

    shutdown, err := tracing.Setup(v.GetBool("trace"), cmd.ErrOrStderr())
    if err != nil {
        logger.Warn("tracing setup error", zap.Error(err))
        shutdown = nil
    }

    cfg := bootstrap.FromViper(v)
    cfg.Logger = logger
    return &run{v: v, cfg: cfg, logger: logger, shutdown: shutdown}, nil
}

// AddGlobalFlags registers flags shared by every command on the root.
func AddGlobalFlags(fs *pflag.FlagSet) {
    fs.String("config", "", "config file (yaml/json/toml) with flag names as keys")
    fs.String("log-level", "info", "log level: debug|info|warn|error")
    fs.Bool("log-json", false, "emit JSON logs (also RSINIT_LOG_JSON=1)")
    fs.Bool("trace", false, "enable OpenTelemetry stdout tracing (dev)")
}

func addConnFlags(fs *pflag.FlagSet) {
    fs.String("uri", bootstrap.DefaultURI, "MongoDB connection URI of the member to bootstrap (env MONGO_URI)")
    fs.Duration("connect-timeout", bootstrap.DefaultConnectTimeout, "connect and server selection timeout")
    fs.Bool("tls", false, "enable TLS for the database connection")
    fs.String("tls-ca", "", "path to CA cert (PEM)")
    fs.String("tls-cert", "", "path to client certificate (PEM)")
    fs.String("tls-key", "", "path to client private key (PEM)")
    fs.Bool("tls-skip-verify", false, "skip server cert verification (DEV ONLY)")
    fs.String("tls-server-name", "", "expected server name (for TLS validation)")
}

func addWaitFlags(fs *pflag.FlagSet) {
    fs.String("set", replset.DefaultSetID, "replica set name")
    fs.Duration("interval", replset.DefaultInterval, "pause between status polls")
    fs.Duration("timeout", 0, "give up after this long (0 waits forever)")
    fs.String("metrics-addr", "", "serve status/healthz/readyz/metrics on this address while waiting")
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
    if parent == nil { parent = context.Background() }
    return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
