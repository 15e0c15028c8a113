package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	var gotID string
	var gotLogger *slog.Logger
	h := RequestIDMiddleware(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = RequestIDFromContext(r.Context())
		gotLogger = LoggerFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if gotID == "" {
		t.Fatal("request ID not set in context")
	}
	if rec.Header().Get("X-Request-ID") != gotID {
		t.Errorf("X-Request-ID = %q, want %q", rec.Header().Get("X-Request-ID"), gotID)
	}
	if gotLogger == nil || gotLogger == slog.Default() {
		t.Error("enriched logger not set in context")
	}
}

func TestRequestIDMiddleware_PropagatesID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := RequestIDMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		LoggerFromContext(r.Context()).Info("inside")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "req-123" {
		t.Errorf("X-Request-ID = %q, want req-123", rec.Header().Get("X-Request-ID"))
	}
	if !strings.Contains(buf.String(), "request_id=req-123") {
		t.Errorf("log output missing request_id: %s", buf.String())
	}
}

func TestLoggerFromContext_Default(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if LoggerFromContext(req.Context()) != slog.Default() {
		t.Error("LoggerFromContext without middleware should return slog.Default()")
	}
}

func TestExtractRealIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{"remote addr", "", "", "10.0.0.1:5555", "10.0.0.1"},
		{"remote addr without port", "", "", "10.0.0.1", "10.0.0.1"},
		{"x-forwarded-for first entry", "203.0.113.5, 10.0.0.2", "", "10.0.0.1:5555", "203.0.113.5"},
		{"x-real-ip", "", " 198.51.100.7 ", "10.0.0.1:5555", "198.51.100.7"},
		{"empty xff entry falls through", " ,10.0.0.2", "198.51.100.7", "10.0.0.1:5555", "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := extractRealIP(req); got != tt.want {
				t.Errorf("extractRealIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRealIPMiddleware_StoresIP(t *testing.T) {
	var got string
	h := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIPFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.9:4000"
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "192.0.2.9" {
		t.Errorf("ClientIPFromContext() = %q, want 192.0.2.9", got)
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	h := SecurityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	want := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Referrer-Policy":           "strict-origin-when-cross-origin",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
}

func TestSecurityLogMiddleware_MasksKeyAndClassifies(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := SecurityLogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set(APIKeyHeader, "ak_0123456789abcdef0123456789abcdef")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if strings.Contains(out, "0123456789abcdef") {
		t.Errorf("security log leaked the api key: %s", out)
	}
	for _, want := range []string{"logger=security", "api_key=ak_012*", "outcome=failed", "status=401", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Errorf("security log missing %q: %s", want, out)
		}
	}
}

func TestSecurityLogMiddleware_IgnoresOtherPaths(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := SecurityLogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if buf.Len() != 0 {
		t.Errorf("unexpected security log for /health: %s", buf.String())
	}
}

func TestClassifyOutcome(t *testing.T) {
	tests := map[int]string{
		http.StatusOK:                   "success",
		http.StatusCreated:              "success",
		http.StatusUnauthorized:         "failed",
		http.StatusForbidden:            "failed",
		http.StatusConflict:             "conflict",
		http.StatusBadRequest:           "invalid",
		http.StatusUnsupportedMediaType: "invalid",
		http.StatusTooManyRequests:      "throttled",
		http.StatusInternalServerError:  "error",
	}
	for status, want := range tests {
		if got := classifyOutcome(status); got != want {
			t.Errorf("classifyOutcome(%d) = %q, want %q", status, got, want)
		}
	}
}
