package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/mylifeisrpg/keygate/internal/adapter/outbound/memory"
)

// HealthResponse is the JSON response from the /health endpoint.
type HealthResponse struct {
	Status      string            `json:"status"` // "UP" or "DOWN"
	Application string            `json:"application"`
	Version     string            `json:"version,omitempty"`
	Timestamp   string            `json:"timestamp"`
	Checks      map[string]string `json:"checks"`
}

// Pinger is implemented by credential stores backed by a database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// pingTimeout bounds the database check.
const pingTimeout = 2 * time.Second

// HealthChecker verifies component health.
type HealthChecker struct {
	application string
	version     string
	database    Pinger
	rateLimiter *memory.RateLimiter
}

// NewHealthChecker creates a HealthChecker with optional components.
// Pass nil for components that aren't available; a nil database means the
// in-memory credential store.
func NewHealthChecker(application, version string, database Pinger, rateLimiter *memory.RateLimiter) *HealthChecker {
	return &HealthChecker{
		application: application,
		version:     version,
		database:    database,
		rateLimiter: rateLimiter,
	}
}

// Check performs health checks on all components.
func (h *HealthChecker) Check(ctx context.Context) HealthResponse {
	checks := make(map[string]string)
	healthy := true

	if h.database != nil {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := h.database.Ping(ctx); err != nil {
			checks["database"] = "down: " + err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "memory"
	}

	if h.rateLimiter != nil {
		checks["rate_limiter"] = fmt.Sprintf("ok: %d keys", h.rateLimiter.Size())
	} else {
		checks["rate_limiter"] = "not configured"
	}

	checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	status := "UP"
	if !healthy {
		status = "DOWN"
	}

	return HealthResponse{
		Status:      status,
		Application: h.application,
		Version:     h.version,
		Timestamp:   timestamp(),
		Checks:      checks,
	}
}

// Handler returns an HTTP handler for the health endpoint.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := h.Check(r.Context())

		status := http.StatusOK
		if health.Status != "UP" {
			status = http.StatusServiceUnavailable
		}
		respondJSON(w, r, status, health)
	})
}
