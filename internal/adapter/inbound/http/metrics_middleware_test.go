package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// durationSamples returns the histogram sample count for method, or 0.
func durationSamples(t *testing.T, reg *prometheus.Registry, method string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() != "keygate_request_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "method" && lp.GetValue() == method {
					return m.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	return 0
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func serveWithMetrics(metrics *Metrics, method, path string, status int) {
	handler := MetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, nil))
}

func TestMetricsMiddleware_RecordsDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	serveWithMetrics(metrics, http.MethodPost, "/auth/register", http.StatusCreated)

	if got := durationSamples(t, reg, http.MethodPost); got != 1 {
		t.Errorf("expected 1 observation, got %d", got)
	}
}

func TestMetricsMiddleware_StatusLabels(t *testing.T) {
	tests := []struct {
		status int
		label  string
	}{
		{http.StatusOK, "ok"},
		{http.StatusCreated, "ok"},
		{http.StatusFound, "ok"},
		{http.StatusBadRequest, "error"},
		{http.StatusUnauthorized, "error"},
		{http.StatusConflict, "error"},
		{http.StatusInternalServerError, "error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			metrics := NewMetrics(prometheus.NewRegistry())
			serveWithMetrics(metrics, http.MethodPost, "/auth/login", tt.status)

			if got := counterValue(t, metrics.RequestsTotal.WithLabelValues("POST", tt.label)); got != 1 {
				t.Errorf("requests_total{status=%q} = %f, want 1", tt.label, got)
			}
		})
	}
}

func TestMetricsMiddleware_ImplicitOK(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	handler := MetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := counterValue(t, metrics.RequestsTotal.WithLabelValues("GET", "ok")); got != 1 {
		t.Errorf("requests_total{GET,ok} = %f, want 1", got)
	}
}

func TestMetricsMiddleware_SkipsProbesAndScrapes(t *testing.T) {
	for _, path := range []string{"/metrics", "/health", "/actuator/health"} {
		t.Run(path, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			metrics := NewMetrics(reg)

			serveWithMetrics(metrics, http.MethodGet, path, http.StatusOK)

			if got := durationSamples(t, reg, http.MethodGet); got != 0 {
				t.Errorf("expected 0 observations for %s, got %d", path, got)
			}
		})
	}
}

func TestStatusRecorder_FirstWriteHeaderWins(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	rec.WriteHeader(http.StatusConflict)
	rec.WriteHeader(http.StatusOK)

	if rec.status != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.status, http.StatusConflict)
	}
}
