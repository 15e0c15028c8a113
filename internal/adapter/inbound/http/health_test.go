package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mylifeisrpg/keygate/internal/adapter/outbound/memory"
)

// discardLogger returns a logger that discards all output (for tests)
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthChecker_Healthy(t *testing.T) {
	hc := NewHealthChecker("keygate", "test-version", fakePinger{}, memory.NewRateLimiter())

	health := hc.Check(context.Background())

	if health.Status != "UP" {
		t.Errorf("Status = %q, want UP", health.Status)
	}
	if health.Application != "keygate" {
		t.Errorf("Application = %q, want keygate", health.Application)
	}
	if health.Version != "test-version" {
		t.Errorf("Version = %q, want test-version", health.Version)
	}
	if health.Checks["database"] != "ok" {
		t.Errorf("database check = %q, want ok", health.Checks["database"])
	}
	if !strings.HasPrefix(health.Checks["rate_limiter"], "ok") {
		t.Errorf("rate_limiter check = %q, want ok prefix", health.Checks["rate_limiter"])
	}
	if health.Checks["goroutines"] == "" {
		t.Error("goroutines check missing")
	}
}

func TestHealthChecker_NilComponents(t *testing.T) {
	hc := NewHealthChecker("keygate", "", nil, nil)
	health := hc.Check(context.Background())

	if health.Status != "UP" {
		t.Errorf("Status = %q, want UP", health.Status)
	}
	if health.Checks["database"] != "memory" {
		t.Errorf("database = %q, want memory", health.Checks["database"])
	}
	if health.Checks["rate_limiter"] != "not configured" {
		t.Errorf("rate_limiter = %q, want 'not configured'", health.Checks["rate_limiter"])
	}
}

func TestHealthChecker_DatabaseDown(t *testing.T) {
	hc := NewHealthChecker("keygate", "", fakePinger{err: errors.New("connection refused")}, nil)
	health := hc.Check(context.Background())

	if health.Status != "DOWN" {
		t.Errorf("Status = %q, want DOWN", health.Status)
	}
	if !strings.Contains(health.Checks["database"], "connection refused") {
		t.Errorf("database = %q, want the ping error", health.Checks["database"])
	}
}

func TestHealthChecker_Handler_HTTP(t *testing.T) {
	hc := NewHealthChecker("keygate", "1.0.0", fakePinger{}, nil)

	rec := httptest.NewRecorder()
	hc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "UP" || resp.Application != "keygate" {
		t.Errorf("response = %+v, want UP keygate", resp)
	}
	if len(resp.Timestamp) != len(TimestampLayout) {
		t.Errorf("Timestamp = %q, want layout %s", resp.Timestamp, TimestampLayout)
	}
}

func TestHealthChecker_Handler_Unhealthy_503(t *testing.T) {
	hc := NewHealthChecker("keygate", "", fakePinger{err: errors.New("boom")}, nil)

	rec := httptest.NewRecorder()
	hc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
