package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alex-user-go/farescan/internal/config"
	"github.com/alex-user-go/farescan/internal/handler"
	"github.com/alex-user-go/farescan/internal/middleware"
	"github.com/alex-user-go/farescan/internal/obs"
	"github.com/alex-user-go/farescan/internal/search"
	"github.com/alex-user-go/farescan/internal/search/cache"
	"github.com/alex-user-go/farescan/internal/search/ratelimit"
	"github.com/alex-user-go/farescan/internal/store"
	"github.com/alex-user-go/farescan/internal/transport"
)

// Run initializes and runs the HTTP API until SIGINT or SIGTERM.
func Run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	metrics := obs.NewMetrics(logger)

	responses, closeStore, err := OpenStore(context.Background(), cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	pipeline := NewPipeline(cfg, responses, metrics, logger)

	fareCache := cache.NewCache(cfg.Server.CacheTTL)
	defer fareCache.Close()

	limiter := ratelimit.New(cfg.Server.RateLimit, cfg.Server.RateWindow)
	defer limiter.Close()

	h := handler.New(pipeline, fareCache, limiter, metrics, logger, handler.Defaults{
		Days:      cfg.Search.Days,
		Adults:    cfg.Search.Adults,
		MileValue: cfg.Search.MileValue,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /fares", h.FaresHandler)
	mux.HandleFunc("GET /healthz", obs.HealthHandler(logger))
	mux.HandleFunc("GET /metrics", metrics.MetricsHandler())

	// A window of dates can take several upstream timeouts to finish.
	writeTimeout := max(30*time.Second, 3*cfg.API.Timeout)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      middleware.Logging(logger)(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", srv.Addr, "api", cfg.API.URL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

// NewPipeline wires the HTTP transport and dispatcher described by cfg.
func NewPipeline(cfg config.Config, responses search.ResponseStore, metrics *obs.Metrics, logger *slog.Logger) *search.Pipeline {
	client := transport.NewHTTPTransport(cfg.API.URL, cfg.API.Headers, cfg.API.Timeout)
	dispatcher := search.NewDispatcher(client, cfg.Search.Concurrency, metrics, logger)
	return search.NewPipeline(cfg.API.Params, dispatcher, responses, metrics, logger)
}

// OpenStore returns the configured response store: Redis when a URL is set,
// otherwise a file, otherwise none. The returned func releases it.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (search.ResponseStore, func(), error) {
	switch {
	case cfg.RedisURL != "":
		rs, err := store.NewRedisStore(ctx, cfg.RedisURL, "latest", cfg.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open redis store: %w", err)
		}
		return rs, func() { _ = rs.Close() }, nil
	case cfg.Path != "":
		return store.NewFileStore(cfg.Path), func() {}, nil
	default:
		return nil, func() {}, nil
	}
}
