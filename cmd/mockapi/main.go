package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

func main() {
	port := getEnv("PORT", "9001")
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	failureRate := getEnvFloat(logger, "FAILURE_RATE", 0.1)
	malformedRate := getEnvFloat(logger, "MALFORMED_RATE", 0.05)
	maxLatency := 200 * time.Millisecond
	if v := os.Getenv("MAX_LATENCY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			logger.Error("invalid MAX_LATENCY", "value", v, "error", err)
			os.Exit(1)
		}
		maxLatency = d
	}

	api := NewFlightAPI(failureRate, malformedRate, maxLatency, logger)

	mux := http.NewServeMux()
	mux.Handle("GET /v1/airlines/search", api)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write healthz response", "error", err)
		}
	})

	addr := ":" + port
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("mock flight api listening",
			"addr", addr,
			"failure_rate", failureRate,
			"malformed_rate", malformedRate,
			"max_latency", maxLatency)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(logger *slog.Logger, key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f > 1 {
		logger.Error("invalid rate, using default", "key", key, "value", v, "default", defaultValue)
		return defaultValue
	}
	return f
}
