package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mylifeisrpg/keygate/internal/domain/auth"
)

// securityLogPrefixes are the paths whose traffic is written to the security log.
var securityLogPrefixes = []string{"/auth/", "/api/"}

// SecurityLogMiddleware logs every authentication-relevant request and its
// outcome to logger with logger=security. The API key is always masked.
func SecurityLogMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("logger", "security")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasAnyPrefix(r.URL.Path, securityLogPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", ClientIPFromContext(r.Context()),
				"user_agent", r.UserAgent(),
			}
			if id := RequestIDFromContext(r.Context()); id != "" {
				attrs = append(attrs, "request_id", id)
			}
			if key := r.Header.Get(APIKeyHeader); key != "" {
				attrs = append(attrs, "api_key", auth.MaskAPIKey(key))
			}
			logger.Debug("authentication attempt", attrs...)

			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			outcome := classifyOutcome(wrapped.status)
			attrs = append(attrs,
				"status", wrapped.status,
				"outcome", outcome,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			switch outcome {
			case "error":
				logger.Error("authentication request completed", attrs...)
			case "success":
				logger.Info("authentication request completed", attrs...)
			default:
				logger.Warn("authentication request completed", attrs...)
			}
		})
	}
}

// classifyOutcome maps a response status to a security log outcome.
func classifyOutcome(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "success"
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return "failed"
	case status == http.StatusConflict:
		return "conflict"
	case status == http.StatusTooManyRequests:
		return "throttled"
	case status >= 500:
		return "error"
	default:
		return "invalid"
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
