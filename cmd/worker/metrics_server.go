package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"contentforge/internal/handler/http/respond"
	"contentforge/internal/pkg/config"
)

// startMetricsServer serves GET /metrics for Prometheus and GET /health as a
// bare liveness probe on METRICS_PORT (default 9090). Readiness, including
// last-run status, lives on the worker health server's own port. The server
// shuts down within 5 seconds of ctx being canceled.
func startMetricsServer(ctx context.Context, logger *slog.Logger) *http.Server {
	res := config.LoadEnvInt("METRICS_PORT", 9090, func(port int) error {
		return config.ValidateIntRange(port, 1, 65535)
	})
	for _, warn := range res.Warnings {
		logger.Warn(warn)
	}
	addr := fmt.Sprintf(":%d", res.Value.(int))

	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())
	m.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.Write(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           m,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		logger.Info("metrics server listening", slog.String("addr", addr))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()

		drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			logger.Error("failed to stop metrics server", slog.Any("error", err))
			return
		}
		logger.Info("metrics server shut down")
	}()

	return srv
}
