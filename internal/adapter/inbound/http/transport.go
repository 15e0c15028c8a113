package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mylifeisrpg/keygate/internal/domain/auth"
	"github.com/mylifeisrpg/keygate/internal/domain/ratelimit"
	"github.com/mylifeisrpg/keygate/internal/domain/validation"
	"github.com/mylifeisrpg/keygate/internal/service"
)

// Server is the inbound adapter exposing the identity service and the
// API key protected routes over HTTP.
type Server struct {
	identity  *service.IdentityService
	registry  auth.KeyRegistry
	validator *validation.RequestValidator

	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	allowedOrigins  []string
	publicPaths     []string
	application     string
	version         string
	logger          *slog.Logger

	limiter ratelimit.Limiter
	policy  ratelimit.Policy

	promRegistry  *prometheus.Registry
	metrics       *Metrics
	healthChecker *HealthChecker

	handler http.Handler
	server  *http.Server
}

// Option is a functional option for configuring Server.
type Option func(*Server)

// WithAddr sets the listen address for the HTTP server.
// Default is "127.0.0.1:8080" (localhost only).
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithTimeouts sets the http.Server read and write timeouts and the
// graceful shutdown budget. Zero values keep the defaults.
func WithTimeouts(read, write, shutdown time.Duration) Option {
	return func(s *Server) {
		if read > 0 {
			s.readTimeout = read
		}
		if write > 0 {
			s.writeTimeout = write
		}
		if shutdown > 0 {
			s.shutdownTimeout = shutdown
		}
	}
}

// WithAllowedOrigins enables CORS for the given origins.
// If empty, no CORS headers are sent.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithServerPublicPaths sets the paths exempt from API key resolution.
func WithServerPublicPaths(paths []string) Option {
	return func(s *Server) {
		if len(paths) > 0 {
			s.publicPaths = paths
		}
	}
}

// WithApplication sets the application name and version reported by the
// welcome and health endpoints.
func WithApplication(name, version string) Option {
	return func(s *Server) {
		s.application = name
		s.version = version
	}
}

// WithLogger sets the logger for the HTTP server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRateLimit throttles /auth/* per client IP.
func WithRateLimit(limiter ratelimit.Limiter, policy ratelimit.Policy) Option {
	return func(s *Server) {
		s.limiter = limiter
		s.policy = policy
	}
}

// WithHealthChecker sets the health checker for the health endpoints.
func WithHealthChecker(hc *HealthChecker) Option {
	return func(s *Server) {
		s.healthChecker = hc
	}
}

// WithPrometheusRegistry uses reg instead of a fresh registry.
func WithPrometheusRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.promRegistry = reg
	}
}

// NewServer creates the HTTP adapter. The route tree is built immediately,
// so Handler can be served before Start.
func NewServer(identity *service.IdentityService, registry auth.KeyRegistry, opts ...Option) *Server {
	s := &Server{
		identity:        identity,
		registry:        registry,
		validator:       validation.MustNewRequestValidator(),
		addr:            "127.0.0.1:8080",
		readTimeout:     10 * time.Second,
		writeTimeout:    30 * time.Second,
		shutdownTimeout: 10 * time.Second,
		publicPaths:     defaultPublicPaths,
		application:     "keygate",
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.promRegistry == nil {
		s.promRegistry = prometheus.NewRegistry()
		s.promRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	s.metrics = NewMetrics(s.promRegistry)
	if s.healthChecker == nil {
		s.healthChecker = NewHealthChecker(s.application, s.version, nil, nil)
	}

	s.handler = s.routes()
	return s
}

// Handler returns the complete route tree with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Metrics returns the server's Prometheus metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// routes builds the chi router.
//
// Middleware order (outermost first):
//  1. MetricsMiddleware - must be outermost to capture full duration
//  2. RequestID - extract/generate request ID and enrich logger
//  3. RealIP - client IP for rate limiting and security logs
//  4. Recoverer - turn handler panics into 500
//  5. SecurityHeaders, CORS
//  6. SecurityLog - /auth and /api audit trail
//  7. APIKeyAuth - resolve X-API-KEY into the request context
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(MetricsMiddleware(s.metrics))
	r.Use(RequestIDMiddleware(s.logger))
	r.Use(RealIPMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeadersMiddleware)
	if len(s.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", APIKeyHeader, "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
			MaxAge:         300,
		}))
	}
	r.Use(SecurityLogMiddleware(s.logger))
	r.Use(APIKeyAuthMiddleware(s.registry,
		WithPublicPaths(s.publicPaths),
		WithPipelineMetrics(s.metrics),
	))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondStatus(w, r, http.StatusNotFound, "No handler for "+r.Method+" "+r.URL.Path, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondStatus(w, r, http.StatusMethodNotAllowed, "Method "+r.Method+" not supported", nil)
	})

	r.Get("/", s.handleWelcome)
	r.Method(http.MethodGet, "/health", s.healthChecker.Handler())
	r.Method(http.MethodGet, "/actuator/health", s.healthChecker.Handler())
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{
		Registry: s.promRegistry,
	}))
	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/auth", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(RateLimitMiddleware(s.limiter, s.policy, "auth", s.metrics))
		}
		r.With(middleware.AllowContentType("application/json")).Post("/register", s.handleRegister)
		r.With(middleware.AllowContentType("application/json")).Post("/login", s.handleLogin)
		r.Get("/check-username", s.handleCheckUsername)
		r.With(RequireAuthenticated).Post("/regenerate-key", s.handleRegenerateKey)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/auth/test", s.handleAuthTest)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuthenticated)
			r.Get("/health", s.handleAPIHealth)
			r.Get("/auth/me", s.handleMe)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Get("/auth/admin-test", s.handleAdminTest)
				r.Get("/auth/admin/config", s.handleAdminConfig)
			})
		})
	})

	return r
}

// Start begins accepting HTTP connections.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadTimeout:       s.readTimeout,
		ReadHeaderTimeout: s.readTimeout,
		WriteTimeout:      s.writeTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("starting HTTP server", "addr", s.addr)
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, shutting down HTTP server")
		return s.shutdown()
	case err := <-errCh:
		return err
	}
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		return err
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	return s.shutdown()
}
