// Package http provides the HTTP adapter for keygate.
//
// It exposes the identity service (registration, login, key rotation) and
// a set of API key protected routes behind a chi router.
//
// # Usage
//
//	srv := http.NewServer(identityService, registry,
//	    http.WithAddr(":8080"),
//	    http.WithServerPublicPaths(cfg.Auth.PublicPaths),
//	    http.WithRateLimit(limiter, policy),
//	    http.WithLogger(logger),
//	)
//	err := srv.Start(ctx)
//
// # Authentication
//
// Clients send their key in the X-API-KEY header. APIKeyAuthMiddleware
// resolves it through an auth.KeyRegistry and stores the authenticated
// token in the request context. It never rejects a request itself:
// protected routes are wrapped in RequireAuthenticated or RequireAdmin,
// which answer 401 or 403.
//
// # Endpoints
//
//	GET  /                       - welcome message
//	GET  /health                 - component health (also /actuator/health)
//	GET  /metrics                - Prometheus metrics
//	POST /auth/register          - create an identity, returns its API key
//	POST /auth/login             - returns the API key for valid credentials
//	GET  /auth/check-username    - advisory availability check
//	POST /auth/regenerate-key    - rotate the caller's key
//	GET  /api/health             - authenticated health probe
//	GET  /api/auth/me            - the caller's principal
//	GET  /api/auth/test          - reports whether the caller is authenticated
//	GET  /api/auth/admin-test    - ADMIN only
//	GET  /api/auth/admin/config  - ADMIN only, registry summary
//
// # Errors
//
// Every error response has the shape
//
//	{"status": 401, "error": "Unauthorized", "message": "...", "timestamp": "2006-01-02 15:04:05"}
//
// Validation failures add an "errors" object keyed by field name.
package http
