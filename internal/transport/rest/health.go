package rest

import (
	"context"
	"net/http"
	"time"
)

// dbPinger is the minimal interface for store health checks.
type dbPinger interface {
	Ping(ctx context.Context) error
}

// reachabilityChecker reports whether the translation source answers.
type reachabilityChecker interface {
	IsReachable(ctx context.Context) bool
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	db          dbPinger
	translation reachabilityChecker
	version     string
}

// NewHealthHandler creates a HealthHandler. translation may be nil.
func NewHealthHandler(db dbPinger, translation reachabilityChecker, version string) *HealthHandler {
	return &HealthHandler{db: db, translation: translation, version: version}
}

// HealthResponse is the JSON response for /health and /ready.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

// Live is the liveness probe. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready is the readiness probe: 200 when the store answers, 503 otherwise.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "down",
			Timestamp: time.Now(),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Health reports every component with latency. A down store makes the
// service "down" (503); an unreachable translation source only makes it
// "degraded" (200), since candidates are still stored and can be retried.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]CompStatus)
	overall := "ok"

	start := time.Now()
	if err := h.db.Ping(ctx); err != nil {
		components["database"] = CompStatus{Status: "down"}
		overall = "down"
	} else {
		components["database"] = CompStatus{Status: "ok", Latency: time.Since(start).String()}
	}

	if h.translation != nil {
		start = time.Now()
		if h.translation.IsReachable(ctx) {
			components["translation"] = CompStatus{Status: "ok", Latency: time.Since(start).String()}
		} else {
			components["translation"] = CompStatus{Status: "unreachable"}
			if overall == "ok" {
				overall = "degraded"
			}
		}
	}

	status := http.StatusOK
	if overall == "down" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status:     overall,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}
