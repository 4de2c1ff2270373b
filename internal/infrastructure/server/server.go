package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/coderegistry/internal/api/http"
	"github.com/GriffinCanCode/coderegistry/internal/api/middleware"
	"github.com/GriffinCanCode/coderegistry/internal/api/ws"
	"github.com/GriffinCanCode/coderegistry/internal/domain/code"
	"github.com/GriffinCanCode/coderegistry/internal/domain/genesis"
	"github.com/GriffinCanCode/coderegistry/internal/domain/ledger"
	"github.com/GriffinCanCode/coderegistry/internal/domain/loader"
	"github.com/GriffinCanCode/coderegistry/internal/domain/network"
	"github.com/GriffinCanCode/coderegistry/internal/domain/registry"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/config"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/logging"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/storage/sqlite"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/coderegistry/internal/shared/utils"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	manager *code.Manager
	chain   network.Chain
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
	events  *ws.Hub
	closers []namedCloser
}

type namedCloser struct {
	name string
	c    io.Closer
}

// NewServer creates a new server instance
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Development})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	chain := cfg.Network()
	logger.Info("Initializing code registry",
		zap.String("port", cfg.Server.Port),
		zap.Stringer("chain", chain),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("remote_loader", cfg.Loader.Enabled),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("registry", logger)

	s := &Server{
		chain:   chain,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		tracer:  tracer,
	}

	store, err := s.openStore(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}

	codeLoader, backend, err := s.openLoader()
	if err != nil {
		s.Close()
		return nil, err
	}

	publisher := registry.NewPublisher(
		chain,
		loader.Instrument(codeLoader, backend, metrics, logger),
		registry.UpgradeRules{RequireModuleRetention: cfg.Registry.RequireModuleRetention},
		logger,
	)
	s.events = ws.NewHub(ws.DefaultBuffer, logger)
	s.closers = append(s.closers, namedCloser{"event hub", s.events})
	s.manager = code.NewManager(ledger.New(store, logger), publisher, logger).
		WithMetrics(metrics).
		WithObserver(s.events)

	if cfg.Genesis.Dir != "" {
		seeder := genesis.NewSeeder(s.manager, chain, cfg.Genesis.Pattern, logger).WithMetrics(metrics)
		if _, err := seeder.Seed(ctx, cfg.Genesis.Dir); err != nil {
			s.Close()
			return nil, fmt.Errorf("genesis: %w", err)
		}
	}
	if _, err := s.manager.Stats(ctx); err != nil {
		logger.Warn("Failed to read registry state", zap.Error(err))
	}

	s.router = s.buildRouter(backend)
	s.http = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

func (s *Server) openStore(ctx context.Context) (registry.Store, error) {
	switch s.config.Storage.Driver {
	case config.StorageSQLite:
		store, err := sqlite.Open(ctx, s.config.Storage.Path, s.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open registry store: %w", err)
		}
		s.closers = append(s.closers, namedCloser{"sqlite store", store})
		return store, nil
	default:
		s.logger.Warn("Using in-memory registry store; state is lost on restart")
		return registry.NewMemoryStore(), nil
	}
}

func (s *Server) openLoader() (registry.Loader, string, error) {
	if !s.config.Loader.Enabled {
		return loader.NewMemory(), "memory", nil
	}

	client, err := loader.NewGRPCClient(s.config.Loader.Address, loader.ClientOptions{
		Timeout: s.config.Loader.Timeout,
		Tracer:  s.tracer,
	})
	if err != nil {
		return nil, "", err
	}
	s.closers = append(s.closers, namedCloser{"loader client", client})
	s.logger.Info("Using remote loader", zap.String("addr", client.Addr()))
	return client, "grpc", nil
}

func (s *Server) buildRouter(backend string) *gin.Engine {
	cfg := s.config
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(s.tracer))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}
	router.Use(middleware.JSONBody(utils.DefaultJSONValidator()))

	handlers := apihttp.NewHandlers(s.manager, s.chain, backend, s.metrics)
	apihttp.RegisterRoutes(router, handlers, apihttp.NewMetricsAggregator(s.metrics, s.manager))
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	router.GET("/registry/events", ws.NewHandler(s.events, s.logger).HandleConnection)

	return router
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Manager returns the code manager
func (s *Server) Manager() *code.Manager {
	return s.manager
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Close releases the store, loader connection and tracer
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		nc := s.closers[i]
		if err := nc.c.Close(); err != nil {
			s.logger.Error("Failed to close "+nc.name, zap.Error(err))
			errs = append(errs, fmt.Errorf("failed to close %s: %w", nc.name, err))
		}
	}
	s.closers = nil
	s.tracer.Close()

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
