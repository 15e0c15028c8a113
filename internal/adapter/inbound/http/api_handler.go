package http

import (
	"net/http"

	"github.com/mylifeisrpg/keygate/internal/domain/auth"
)

// userSummary is the principal view embedded in /api/auth responses.
type userSummary struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	IsAdmin  *bool    `json:"isAdmin,omitempty"`
}

func summarize(p *auth.Principal, withAdmin bool) userSummary {
	u := userSummary{ID: p.ID, Username: p.Username, Roles: p.RoleNames()}
	if withAdmin {
		isAdmin := p.IsAdmin()
		u.IsAdmin = &isAdmin
	}
	return u
}

// handleWelcome handles GET /.
func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]any{
		"message":   "Welcome to " + s.application + "!",
		"status":    "Application is running",
		"version":   s.version,
		"timestamp": timestamp(),
	})
}

// handleAPIHealth handles GET /api/health.
func (s *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	health := s.healthChecker.Check(r.Context())

	database := "connected"
	switch health.Checks["database"] {
	case "ok":
	case "memory":
		database = "in-memory"
	default:
		database = "unavailable"
	}

	status := http.StatusOK
	if health.Status != "UP" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, r, status, map[string]any{
		"status":    health.Status,
		"service":   s.application + " API",
		"timestamp": timestamp(),
		"database":  database,
	})
}

// handleMe handles GET /api/auth/me.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"userId":          p.ID,
		"username":        p.Username,
		"roles":           p.RoleNames(),
		"isAdmin":         p.IsAdmin(),
		"authenticatedAt": p.AuthenticatedAt.Format(TimestampLayout),
		"authenticated":   true,
		"timestamp":       timestamp(),
	})
}

// handleAuthTest handles GET /api/auth/test. It answers with or without
// a principal.
func (s *Server) handleAuthTest(w http.ResponseWriter, r *http.Request) {
	var user *userSummary
	if p, ok := auth.CurrentPrincipal(r.Context()); ok {
		u := summarize(p, true)
		user = &u
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"authenticated": auth.IsAuthenticated(r.Context()),
		"user":          user,
		"timestamp":     timestamp(),
	})
}

// handleAdminTest handles GET /api/auth/admin-test.
func (s *Server) handleAdminTest(w http.ResponseWriter, r *http.Request) {
	if err := auth.RequireAdmin(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	p, _ := auth.CurrentPrincipal(r.Context())
	respondJSON(w, r, http.StatusOK, map[string]any{
		"message":   "Admin access granted",
		"user":      summarize(p, false),
		"timestamp": timestamp(),
	})
}

// handleAdminConfig handles GET /api/auth/admin/config. Keys are never exposed.
func (s *Server) handleAdminConfig(w http.ResponseWriter, r *http.Request) {
	if err := auth.RequireAdmin(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}

	loaded := 0
	users := []string{}
	if static, ok := s.registry.(*auth.StaticKeyRegistry); ok {
		loaded = static.LoadedKeyCount()
		users = static.LoadedUsers()
	}

	registered, err := s.identity.UserCount(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{
		"provider":        s.registry.Strategy(),
		"loadedApiKeys":   loaded,
		"users":           users,
		"registeredUsers": registered,
		"timestamp":       timestamp(),
		"note":            "API keys themselves are not exposed for security",
	})
}
