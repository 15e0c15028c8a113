package http

import (
	"net/http"
	"strings"

	"github.com/mylifeisrpg/keygate/internal/domain/auth"
)

// APIKeyHeader is the request header carrying the API key.
const APIKeyHeader = "X-API-KEY"

// pipeline holds APIKeyAuthMiddleware settings.
type pipeline struct {
	registry    auth.KeyRegistry
	publicPaths []string
	metrics     *Metrics
}

// PipelineOption configures APIKeyAuthMiddleware.
type PipelineOption func(*pipeline)

// WithPublicPaths replaces the exempt path list. A request path is exempt
// when it equals an entry or starts with entry + "/".
func WithPublicPaths(paths []string) PipelineOption {
	return func(p *pipeline) {
		p.publicPaths = append([]string(nil), paths...)
	}
}

// WithPipelineMetrics records every key resolution in m.
func WithPipelineMetrics(m *Metrics) PipelineOption {
	return func(p *pipeline) {
		p.metrics = m
	}
}

// defaultPublicPaths mirrors config.DefaultPublicPaths.
var defaultPublicPaths = []string{"/", "/health", "/actuator/health", "/metrics"}

// APIKeyAuthMiddleware resolves the X-API-KEY header against registry and
// installs the authenticated token in the request context.
//
// The middleware never rejects a request. Exempt paths, requests without a
// key and requests with an unknown key all continue anonymously; protected
// handlers reject them with auth.RequirePrincipal.
func APIKeyAuthMiddleware(registry auth.KeyRegistry, opts ...PipelineOption) func(http.Handler) http.Handler {
	p := &pipeline{
		registry:    registry,
		publicPaths: defaultPublicPaths,
	}
	for _, opt := range opts {
		opt(p)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p.isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			logger := LoggerFromContext(r.Context())
			tok, err := p.registry.Resolve(r.Context(), auth.NewUnauthenticatedToken(key))
			if err != nil {
				p.record("failure")
				logger.Debug("api key rejected",
					"strategy", p.registry.Strategy(),
					"api_key", auth.MaskAPIKey(key),
					"path", r.URL.Path,
				)
				next.ServeHTTP(w, r)
				return
			}

			p.record("success")
			logger.Debug("api key accepted",
				"strategy", p.registry.Strategy(),
				"api_key", auth.MaskAPIKey(key),
				"user", tok.Principal().Username,
			)
			next.ServeHTTP(w, r.WithContext(auth.WithToken(r.Context(), tok)))
		})
	}
}

func (p *pipeline) isPublic(path string) bool {
	for _, prefix := range p.publicPaths {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func (p *pipeline) record(result string) {
	if p.metrics != nil {
		p.metrics.AuthAttempts.WithLabelValues(p.registry.Strategy(), result).Inc()
	}
}

// RequireAuthenticated rejects requests without a principal with 401.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.RequirePrincipal(r.Context()); err != nil {
			respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests whose principal lacks role: 401 without a
// principal, 403 without the role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.RequireRole(r.Context(), role); err != nil {
				respondError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is RequireRole("ADMIN").
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(string(auth.RoleAdmin))(next)
}
