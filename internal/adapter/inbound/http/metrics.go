package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for keygate.
// Pass to components that need to record metrics.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AuthAttempts    *prometheus.CounterVec
	Registrations   *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	RateLimited     prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "keygate",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "status"}, // status=ok/error
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "keygate",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		AuthAttempts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "keygate",
				Name:      "auth_attempts_total",
				Help:      "API key resolutions by registry strategy and result",
			},
			[]string{"strategy", "result"}, // result=success/failure
		),
		Registrations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "keygate",
				Name:      "registrations_total",
				Help:      "Registration attempts by result",
			},
			[]string{"result"}, // result=created/conflict/invalid/error
		),
		Logins: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "keygate",
				Name:      "logins_total",
				Help:      "Login attempts by result",
			},
			[]string{"result"}, // result=success/failed/invalid/error
		),
		RateLimited: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "keygate",
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the /auth rate limiter",
			},
		),
	}
}
