package http

import (
	"math"
	"net/http"
	"strconv"

	"github.com/mylifeisrpg/keygate/internal/domain/ratelimit"
)

// RateLimitMiddleware applies policy per client IP to every request it wraps.
// Rejected requests get 429 Too Many Requests with a Retry-After header.
// Limiter errors let the request through.
func RateLimitMiddleware(limiter ratelimit.Limiter, policy ratelimit.Policy, endpoint string, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIPFromContext(r.Context())
			if ip == "" {
				ip = extractRealIP(r)
			}

			key := ratelimit.Key(ratelimit.ScopeClientIP, endpoint, ip)
			decision, err := limiter.Allow(r.Context(), key, policy)
			if err != nil {
				LoggerFromContext(r.Context()).Error("rate limiter failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			if !decision.Allowed {
				if metrics != nil {
					metrics.RateLimited.Inc()
				}
				retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				respondStatus(w, r, http.StatusTooManyRequests, "Too many requests, retry later", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
