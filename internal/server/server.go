package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nao1215/phishguard/internal/config"
	"github.com/nao1215/phishguard/internal/model"
	"github.com/nao1215/phishguard/internal/pipeline"
	"github.com/nao1215/phishguard/internal/threat"
)

// Store is the persistence the API needs. database.ScanDB implements it.
// A Server without a Store still analyzes URLs; user endpoints degrade as
// documented on each handler.
type Store interface {
	pipeline.ScanSaver

	Ping(ctx context.Context) error
	ListScans(ctx context.Context, userID string, limit, offset int) ([]model.ScanRecord, error)
	UserStats(ctx context.Context, userID string) (model.UserStats, error)
	DeleteScan(ctx context.Context, scanID, userID string) error
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, userID, name, email string) error
	ProtectionStatus(ctx context.Context, userID string) (bool, error)
	SetProtectionStatus(ctx context.Context, userID string, enabled bool) error
	IncrementBackgroundScans(ctx context.Context, userID string, count int) (int, error)
}

// Server serves the PhishGuard HTTP API.
type Server struct {
	engine *threat.Engine
	store  Store
	logger *slog.Logger

	version            string
	corsOrigins        []string
	rateLimitPerMinute int
	maxBulkURLs        int
	concurrency        int
	readHeaderTimeout  time.Duration
	shutdownTimeout    time.Duration

	// now is replaceable in tests.
	now func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithEngine sets the threat engine. The default uses the built-in detectors.
func WithEngine(engine *threat.Engine) Option {
	return func(s *Server) {
		s.engine = engine
	}
}

// WithStore enables persistence and the user endpoints.
func WithStore(store Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithLogger sets a custom logger for request and error logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by the index endpoint.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithConfig applies the server and analysis settings of cfg.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		s.corsOrigins = cfg.CORSOrigins
		s.rateLimitPerMinute = cfg.RateLimitPerMinute
		s.maxBulkURLs = cfg.MaxBulkURLs
		s.concurrency = cfg.BatchSize
		s.readHeaderTimeout = cfg.ReadHeaderTimeout
		s.shutdownTimeout = cfg.ShutdownTimeout
	}
}

// New creates a Server. Settings not given through options use the
// config package defaults.
func New(opts ...Option) *Server {
	s := &Server{
		version:            "dev",
		corsOrigins:        []string{"*"},
		rateLimitPerMinute: config.DefaultRateLimitPerMinute,
		maxBulkURLs:        config.DefaultMaxBulkURLs,
		concurrency:        config.DefaultBatchSize,
		readHeaderTimeout:  config.DefaultReadHeaderTimeout,
		shutdownTimeout:    config.DefaultShutdownTimeout,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = threat.NewEngine()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Router returns the API handler with all middleware applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(s.corsOrigins))
	if s.rateLimitPerMinute > 0 {
		r.Use(newIPRateLimiter(s.rateLimitPerMinute).middleware)
	}

	r.Get("/", s.index)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Post("/analyze", s.analyze)
		r.Get("/bulk-analyze", s.bulkAnalyze)

		r.Route("/user/{userID}", func(r chi.Router) {
			r.Get("/stats", s.userStats)
			r.Get("/protection", s.getProtection)
			r.Post("/protection", s.setProtection)
			r.Post("/background-scan", s.backgroundScan)
			r.Get("/scans", s.listScans)
			r.Delete("/scans/{scanID}", s.deleteScan)
			r.Get("/profile", s.getProfile)
			r.Post("/profile", s.updateProfile)
		})
	})

	return r
}

// Run listens on addr and serves until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. The listener is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: s.readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("api server started", "address", ln.Addr().String())

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	}
}

// analysisPipeline returns a factory for the per-URL pipeline.
// Results are only saved when a store is configured.
func (s *Server) analysisPipeline() func() *pipeline.Pipeline {
	var saver pipeline.ScanSaver
	if s.store != nil {
		saver = s.store
	}
	return pipeline.NewAnalysisPipeline(s.engine, saver, s.logger)
}
