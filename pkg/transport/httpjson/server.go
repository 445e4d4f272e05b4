package httpjson

import (
    "context"
    "errors"
    "fmt"
    "net"
    "net/http"
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus/promhttp"
    "go.uber.org/zap"

    "github.com/amirimatin/mongo-rsinit/pkg/observability/tracing"
)

// StatusFunc returns the JSON document served at /status.
type StatusFunc func(ctx context.Context) ([]byte, error)

// ReadyFunc reports whether /readyz should answer 200.
type ReadyFunc func() bool

// Server is a minimal HTTP server exposing bootstrap progress: status,
// liveness, readiness and Prometheus metrics. It is meant for orchestrators
// and tooling watching a running wait.
type Server struct {
    mu     sync.Mutex
    bind   string
    srv    *http.Server
    ln     net.Listener
    logger *zap.Logger
}

// NewServer binds to the given TCP address (e.g., ":9273").
func NewServer(bind string, logger *zap.Logger) *Server {
    if logger == nil { logger = zap.NewNop() }
    return &Server{bind: bind, logger: logger}
}

// Handler builds the route table backed by the provided functions.
func Handler(status StatusFunc, ready ReadyFunc) http.Handler {
    mux := http.NewServeMux()
    mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet { http.Error(w, "method not allowed", http.StatusMethodNotAllowed); return }
        ctx, end := tracing.StartSpan(r.Context(), "http.status")
        defer end()
        data, err := status(ctx)
        if err != nil { http.Error(w, fmt.Sprintf("status error: %v", err), http.StatusInternalServerError); return }
        w.Header().Set("Content-Type", "application/json")
        _, _ = w.Write(data)
    })
    mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet { http.Error(w, "method not allowed", http.StatusMethodNotAllowed); return }
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ok"))
    })
    mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet { http.Error(w, "method not allowed", http.StatusMethodNotAllowed); return }
        if ready == nil || !ready() {
            http.Error(w, "waiting for primary", http.StatusServiceUnavailable)
            return
        }
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ready"))
    })
    mux.Handle("/metrics", promhttp.Handler())
    return mux
}

// Start listens on the bind address and serves until ctx is canceled or Stop
// is called.
func (s *Server) Start(ctx context.Context, status StatusFunc, ready ReadyFunc) error {
    ln, err := net.Listen("tcp", s.bind)
    if err != nil { return err }
    srv := &http.Server{Handler: Handler(status, ready), ReadHeaderTimeout: 5 * time.Second}
    s.mu.Lock()
    s.ln, s.srv = ln, srv
    s.mu.Unlock()

    go func() {
        <-ctx.Done()
        _ = s.Stop(context.Background())
    }()
    go func() {
        if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
            s.logger.Error("httpjson: server error", zap.Error(err))
        }
    }()
    return nil
}

// Addr returns the listening address once started, else the bind address.
func (s *Server) Addr() string {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.ln != nil { return s.ln.Addr().String() }
    return s.bind
}

// Stop attempts a graceful shutdown with a short timeout.
func (s *Server) Stop(ctx context.Context) error {
    s.mu.Lock()
    srv := s.srv
    s.srv = nil
    s.mu.Unlock()
    if srv == nil { return nil }
    c, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    return srv.Shutdown(c)
}
