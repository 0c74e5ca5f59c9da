package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alex-user-go/staysearch/internal/auth"
	"github.com/alex-user-go/staysearch/internal/config"
	"github.com/alex-user-go/staysearch/internal/handler"
	"github.com/alex-user-go/staysearch/internal/locations"
	"github.com/alex-user-go/staysearch/internal/logging"
	"github.com/alex-user-go/staysearch/internal/middleware"
	"github.com/alex-user-go/staysearch/internal/obs"
	"github.com/alex-user-go/staysearch/internal/search"
	"github.com/alex-user-go/staysearch/internal/search/availability"
	"github.com/alex-user-go/staysearch/internal/search/pricing"
	"github.com/alex-user-go/staysearch/internal/search/ratelimit"
	"github.com/alex-user-go/staysearch/internal/store/postgres"
)

// Run initializes and runs the application.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize logger
	logger, closeLog, err := logging.Setup(logging.Config{
		Level:      cfg.Log.Level,
		FilePath:   cfg.Log.FilePath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer func() {
		_ = closeLog()
	}()

	// Initialize metrics
	metrics := obs.NewMetrics(logger)

	ctx := context.Background()

	db, err := postgres.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	limitStore, closeStore, err := initRateLimitStore(ctx, cfg.RateLimit, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	limiter := ratelimit.New(limitStore, cfg.RateLimit.PerMinute, metrics, logger)

	searcher := search.NewSearcher(
		initResolver(cfg.Locations, db),
		postgres.NewListingIndex(db, cfg.Search.MaxPageSize),
		availability.NewChecker(postgres.NewBlockedDates(db), cfg.Search.BatchSize, metrics, logger),
		pricing.NewResolver(postgres.NewPricingMatrices(db), cfg.Search.BatchSize, metrics, logger),
		cfg.Search.PageSize,
		cfg.Search.Timeout,
		logger,
	)

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)
	if verifier == nil {
		logger.Info("JWT_SECRET not set, all callers are anonymous")
	}

	h := handler.New(searcher, limiter, metrics, logger)

	// Configure server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      NewRouter(h, verifier, metrics, logger, obs.Check{Name: "postgres", Probe: db.PingContext}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Search.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		logger.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

// NewRouter registers the service routes behind the shared middleware.
func NewRouter(h *handler.Handler, verifier *auth.Verifier, metrics *obs.Metrics, logger *slog.Logger, checks ...obs.Check) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recover(logger))

	r.With(auth.Middleware(verifier, logger)).Get("/search", h.SearchHandler)
	r.Get("/healthz", obs.HealthHandler(logger, checks...))
	r.Get("/metrics", metrics.MetricsHandler())
	return r
}

func initRateLimitStore(ctx context.Context, cfg config.RateLimitConfig, logger *slog.Logger) (ratelimit.Store, func(), error) {
	switch cfg.Store {
	case "memory":
		store := ratelimit.NewMemoryStore()
		return store, store.Close, nil
	case "redis":
		store, err := ratelimit.NewRedisStore(ratelimit.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := store.Ping(ctx); err != nil {
			logger.Error("rate limit store unreachable, limiter fails open until it recovers",
				"addr", cfg.RedisAddr,
				"error", err,
			)
		}
		return store, func() {
			_ = store.Close()
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported rate limit store: %s", cfg.Store)
	}
}

func initResolver(cfg config.LocationsConfig, db *sql.DB) locations.Resolver {
	if cfg.ResolverURL != "" {
		return locations.NewHTTPResolver(cfg.ResolverURL, cfg.Timeout)
	}
	return postgres.NewLocations(db)
}
