// Package healthprobe serves liveness and readiness for the bot loop.
package healthprobe

import (
	"net/http"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// HealthChecker provides health and readiness checks. Readiness also
// requires a recent iteration when maxSilence is set.
type HealthChecker struct {
	startTime     time.Time
	ready         atomic.Bool
	lastIteration atomic.Int64 // unix nanos, 0 before the first iteration
	maxSilence    time.Duration
	now           func() time.Time
}

// New creates a new HealthChecker. A zero maxSilence disables the overdue check.
func New(maxSilence time.Duration) *HealthChecker {
	return &HealthChecker{
		startTime:  time.Now(),
		maxSilence: maxSilence,
		now:        time.Now,
	}
}

// SetReady marks the application as ready to serve traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Beat records that an iteration finished at t.
func (h *HealthChecker) Beat(t time.Time) {
	h.lastIteration.Store(t.UnixNano())
}

// LastIteration returns when the last iteration finished, zero if none has.
func (h *HealthChecker) LastIteration() time.Time {
	n := h.lastIteration.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status        string     `json:"status"`
	Uptime        string     `json:"uptime"`
	LastIteration *time.Time `json:"lastIteration,omitempty"`
	Message       string     `json:"message,omitempty"`
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK if the process is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.response("healthy", ""))
	}
}

// Ready returns an HTTP handler for readiness checks.
// Returns 503 Service Unavailable until ready, or when the loop has gone quiet.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, h.response("not_ready", "application is starting"))
			return
		}

		if h.overdue() {
			writeJSON(w, http.StatusServiceUnavailable, h.response("stalled", "no iteration within "+h.maxSilence.String()))
			return
		}

		writeJSON(w, http.StatusOK, h.response("ready", ""))
	}
}

func (h *HealthChecker) overdue() bool {
	if h.maxSilence <= 0 {
		return false
	}
	since := h.startTime
	if last := h.LastIteration(); !last.IsZero() {
		since = last
	}
	return h.now().Sub(since) > h.maxSilence
}

func (h *HealthChecker) response(status, message string) HealthResponse {
	resp := HealthResponse{
		Status:  status,
		Uptime:  h.now().Sub(h.startTime).String(),
		Message: message,
	}
	if last := h.LastIteration(); !last.IsZero() {
		resp.LastIteration = &last
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
