package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/weekrev/weekrev/internal/calendar"
	"github.com/weekrev/weekrev/internal/logging"
	"github.com/weekrev/weekrev/internal/tasks"
)

// HealthChecker serves liveness and readiness endpoints for the server.
type HealthChecker struct {
	sc     *ServerContext
	ready  atomic.Bool
	logger *slog.Logger
}

// NewHealthChecker creates a health checker bound to the server context.
func NewHealthChecker(sc *ServerContext, logger *slog.Logger) *HealthChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthChecker{sc: sc, logger: logger}
}

// SetReady marks the server as ready to accept traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Register mounts the health endpoints on the given mux.
func (h *HealthChecker) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.handleLiveness)
	mux.HandleFunc("/readyz", h.handleReadiness)
	mux.HandleFunc("/healthz/detailed", h.handleDetailed)
}

// handleLiveness reports whether the process is up at all.
func (h *HealthChecker) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if h.sc.IsShutdown() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadiness reports whether the server is ready for traffic.
func (h *HealthChecker) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() || h.sc.IsShutdown() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// detailedHealth is the response body of /healthz/detailed.
type detailedHealth struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Services  []upstreamHealth `json:"services"`
}

type upstreamHealth struct {
	ServiceStatus
	Healthy bool `json:"healthy"`
}

// handleDetailed reports per-upstream breaker state, cache occupancy, and
// reachability. Reachability checks are debounced by the health monitors so
// frequent scrapes do not hammer the upstreams.
func (h *HealthChecker) handleDetailed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	healthy := map[string]bool{
		tasks.ServiceName:    h.sc.TasksService().Healthy(ctx),
		calendar.ServiceName: h.sc.CalendarService().Healthy(ctx),
	}

	resp := detailedHealth{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	}
	for _, status := range h.sc.Status() {
		up := healthy[status.Service]
		if !up {
			resp.Status = "degraded"
		}
		resp.Services = append(resp.Services, upstreamHealth{
			ServiceStatus: status,
			Healthy:       up,
		})
	}

	code := http.StatusOK
	if h.sc.IsShutdown() {
		resp.Status = "shutting down"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("failed to encode health response", logging.Err(err))
	}
}
