// Package server exposes the query pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/govai-bd/govai/internal/metrics"
	"github.com/govai-bd/govai/internal/pipeline"
	"github.com/govai-bd/govai/internal/pkg/logger"
	"github.com/govai-bd/govai/internal/pkg/middleware"
	"github.com/govai-bd/govai/internal/querylog"
)

// Service is the part of the pipeline the HTTP layer needs.
type Service interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Response, error)
	Stats(ctx context.Context, w querylog.Window, topK int) (*querylog.Stats, error)
	RecentLogs(ctx context.Context, limit int) ([]querylog.Record, error)
	Info() pipeline.Info
}

// Config configures the server.
type Config struct {
	// Host is the address to bind to.
	Host string

	// Port is the HTTP port.
	Port int

	// Version is the application version.
	Version string

	// ReadTimeout is the HTTP read timeout.
	ReadTimeout time.Duration

	// WriteTimeout is the HTTP write timeout. It must exceed the worst case
	// query latency: search timeouts plus LLM retries.
	WriteTimeout time.Duration

	// ShutdownTimeout is the graceful shutdown timeout.
	ShutdownTimeout time.Duration

	// RateLimit is the number of queries per minute per client. 0 disables it.
	RateLimit int

	// AdminToken protects the admin endpoints when set.
	AdminToken string

	// CORSOrigins lists allowed origins. Empty allows any origin.
	CORSOrigins []string
}

// DefaultConfig returns sensible server defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8000,
		Version:         "dev",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    5 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
		RateLimit:       10,
	}
}

// ParseOrigins splits a comma separated origin list.
func ParseOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Server is the HTTP front end of the query pipeline.
type Server struct {
	cfg        Config
	svc        Service
	log        *logger.Logger
	metrics    *metrics.Metrics
	limiter    *middleware.RateLimiter
	httpServer *http.Server

	mu      sync.RWMutex
	started bool
}

// New creates a server around svc. m may be nil, in which case a private
// registry backs /metrics.
func New(cfg Config, svc Service, log *logger.Logger, m *metrics.Metrics) *Server {
	def := DefaultConfig()
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if log == nil {
		log = logger.Default()
	}
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		cfg:     cfg,
		svc:     svc,
		log:     log.WithComponent("server"),
		metrics: m,
	}
	if cfg.RateLimit > 0 {
		rl := middleware.DefaultRateLimiterConfig()
		rl.RequestsPerMinute = cfg.RateLimit
		rl.Burst = cfg.RateLimit
		s.limiter = middleware.NewRateLimiter(rl)
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.routes()
	h = metrics.HTTPMiddleware(s.metrics, h)
	h = loggingMiddleware(h, s.log)
	h = middleware.RequestID(h)
	h = corsMiddleware(h, s.cfg.CORSOrigins)
	h = recoveryMiddleware(h, s.log)
	return h
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.Handle("POST /v1/query", s.rateLimited(http.HandlerFunc(s.handleQuery)))
	mux.Handle("GET /v1/admin/stats", s.adminOnly(http.HandlerFunc(s.handleStats)))
	mux.Handle("GET /v1/admin/logs", s.adminOnly(http.HandlerFunc(s.handleLogs)))

	return mux
}

func (s *Server) rateLimited(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return s.limiter.Middleware(next)
}

// Start listens on the configured address and blocks until the server stops.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	s.started = true
	srv := s.httpServer
	s.mu.Unlock()

	s.log.Info("Starting HTTP server", "addr", ln.Addr().String(), "version", s.cfg.Version)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the server, letting in-flight queries finish.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.limiter != nil {
		s.limiter.Stop()
	}
	if !s.started {
		return nil
	}

	s.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.log.Error("HTTP shutdown error", "error", err)
	}

	s.started = false
	s.log.Info("Server stopped")
	return err
}

// Health returns whether the server is accepting requests.
func (s *Server) Health() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
