// Command locations serves a slug table over the location-resolver HTTP
// contract, for running the search service locally.
//
// LOCATIONS_FILE may point at a JSON object of slug to location id; the
// built-in Serbian table is used otherwise.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/alex-user-go/staysearch/internal/logging"
	"github.com/alex-user-go/staysearch/internal/middleware"
	"github.com/alex-user-go/staysearch/internal/obs"
)

func main() {
	if err := run(); err != nil {
		slog.Error("locations stub failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	logger, closeLog, err := logging.Setup(logging.Config{Level: os.Getenv("LOG_LEVEL")})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	slugs, err := loadSlugs(os.Getenv("LOCATIONS_FILE"))
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "9001"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           newRouter(slugs, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("locations stub listening", "addr", srv.Addr, "slugs", len(slugs))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(slugs map[string]string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recover(logger))
	r.Method(http.MethodGet, "/locations/{slug}", newDirectory(slugs, logger))
	r.Get("/healthz", obs.HealthHandler(logger))
	return r
}

func loadSlugs(path string) (map[string]string, error) {
	if path == "" {
		return defaultLocations, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations file: %w", err)
	}
	var slugs map[string]string
	if err := json.Unmarshal(raw, &slugs); err != nil {
		return nil, fmt.Errorf("parse locations file %s: %w", path, err)
	}
	if len(slugs) == 0 {
		return nil, fmt.Errorf("locations file %s is empty", path)
	}
	return slugs, nil
}
