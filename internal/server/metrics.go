package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weekrev/weekrev/internal/logging"
)

const (
	// DefaultMetricsAddr is the default listen address for the ops endpoints.
	DefaultMetricsAddr = ":9090"

	metricsReadTimeout     = 10 * time.Second
	metricsWriteTimeout    = 10 * time.Second
	metricsIdleTimeout     = 60 * time.Second
	metricsShutdownTimeout = 5 * time.Second
)

// MetricsServer exposes the Prometheus scrape endpoint and the health
// endpoints on a dedicated listener, separate from the MCP transport.
type MetricsServer struct {
	server *http.Server
	logger *slog.Logger
}

// NewMetricsServer builds the ops HTTP server. The endpoint path is where
// the Prometheus handler is mounted, typically /metrics.
func NewMetricsServer(addr, endpoint string, health *HealthChecker, logger *slog.Logger) *MetricsServer {
	if addr == "" {
		addr = DefaultMetricsAddr
	}
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle(endpoint, promhttp.Handler())
	if health != nil {
		health.Register(mux)
	}

	return &MetricsServer{
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  metricsReadTimeout,
			WriteTimeout: metricsWriteTimeout,
			IdleTimeout:  metricsIdleTimeout,
		},
		logger: logger,
	}
}

// Start begins serving in a background goroutine.
func (m *MetricsServer) Start() {
	go func() {
		m.logger.Info("metrics server listening", slog.String("addr", m.server.Addr))
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server failed", logging.Err(err))
		}
	}()
}

// Shutdown drains the server gracefully.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, metricsShutdownTimeout)
	defer cancel()

	if err := m.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return nil
}
