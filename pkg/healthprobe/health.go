// Package healthprobe exposes liveness and readiness endpoints. Liveness
// reports as long as the process runs; readiness flips on once the trade
// pipeline is wired and off again during shutdown so load balancers drain
// before the engine stops accepting work.
package healthprobe

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

// HealthChecker provides health and readiness checks.
type HealthChecker struct {
	startedAt time.Time
	ready     atomic.Bool
}

// New creates a checker that starts not-ready.
func New() *HealthChecker {
	return &HealthChecker{startedAt: time.Now()}
}

// SetReady marks the trade pipeline as ready (or not) to serve traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

type probeResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Message       string  `json:"message,omitempty"`
}

func (h *HealthChecker) write(w http.ResponseWriter, code int, resp probeResponse) {
	resp.UptimeSeconds = time.Since(h.startedAt).Seconds()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// Health returns the liveness handler. It answers 200 for as long as the
// process is up.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		h.write(w, http.StatusOK, probeResponse{Status: "healthy"})
	}
}

// Ready returns the readiness handler: 200 once the pipeline is wired,
// 503 before startup completes and again while shutting down.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !h.ready.Load() {
			h.write(w, http.StatusServiceUnavailable, probeResponse{
				Status:  "not_ready",
				Message: "trade pipeline is not accepting work",
			})
			return
		}
		h.write(w, http.StatusOK, probeResponse{Status: "ready"})
	}
}
