package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mylifeisrpg/keygate/internal/domain/auth"
	"github.com/mylifeisrpg/keygate/internal/domain/validation"
)

// AuthResponse is returned by register, login and regenerate-key.
type AuthResponse struct {
	APIKey    string `json:"apiKey"`
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// UsernameCheckResponse is returned by check-username.
type UsernameCheckResponse struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// handleRegister handles POST /auth/register.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req validation.RegisterRequest
	if err := s.decodeAndValidate(w, r, &req); err != nil {
		s.metrics.Registrations.WithLabelValues("invalid").Inc()
		respondError(w, r, err)
		return
	}

	logger := LoggerFromContext(r.Context())
	logger.Info("registration attempt", "username", req.Username)

	rec, err := s.identity.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		result := "error"
		if errors.Is(err, auth.ErrUsernameTaken) {
			result = "conflict"
		}
		s.metrics.Registrations.WithLabelValues(result).Inc()
		respondError(w, r, err)
		return
	}

	s.metrics.Registrations.WithLabelValues("created").Inc()
	logger.Info("registration successful", "username", rec.Username, "user_id", rec.ID)
	respondJSON(w, r, http.StatusCreated, AuthResponse{
		APIKey:    rec.APIKey,
		UserID:    rec.ID,
		Username:  rec.Username,
		Message:   "User registered successfully",
		Timestamp: timestamp(),
	})
}

// handleLogin handles POST /auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req validation.LoginRequest
	if err := s.decodeAndValidate(w, r, &req); err != nil {
		s.metrics.Logins.WithLabelValues("invalid").Inc()
		respondError(w, r, err)
		return
	}

	logger := LoggerFromContext(r.Context())
	logger.Debug("login attempt", "username", req.Username)

	rec, err := s.identity.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		result := "error"
		if errors.Is(err, auth.ErrInvalidCredentials) {
			result = "failed"
		}
		s.metrics.Logins.WithLabelValues(result).Inc()
		respondError(w, r, err)
		return
	}

	s.metrics.Logins.WithLabelValues("success").Inc()
	logger.Debug("login successful", "username", rec.Username)
	respondJSON(w, r, http.StatusOK, AuthResponse{
		APIKey:    rec.APIKey,
		UserID:    rec.ID,
		Username:  rec.Username,
		Message:   "Login successful",
		Timestamp: timestamp(),
	})
}

// handleCheckUsername handles GET /auth/check-username?username=.
func (s *Server) handleCheckUsername(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		respondError(w, r, validation.NewFieldError("username", validation.MsgUsernameRequired))
		return
	}

	available, err := s.identity.IsUsernameAvailable(r.Context(), username)
	if err != nil {
		respondError(w, r, err)
		return
	}

	msg := "Username is available"
	if !available {
		msg = "Username is already taken"
	}
	respondJSON(w, r, http.StatusOK, UsernameCheckResponse{
		Username:  username,
		Available: available,
		Message:   msg,
		Timestamp: timestamp(),
	})
}

// handleRegenerateKey handles POST /auth/regenerate-key. Principals that
// do not exist in the credential store (static keys) get 404.
func (s *Server) handleRegenerateKey(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	rec, err := s.identity.FindByID(r.Context(), p.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	// Static principals may share an id with a stored identity.
	if rec.Username != p.Username || rec.APIKey != p.APIKey {
		respondError(w, r, auth.ErrUserNotFound)
		return
	}

	key, err := s.identity.RegenerateKey(r.Context(), rec.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	LoggerFromContext(r.Context()).Info("api key regenerated",
		"user_id", rec.ID,
		"old_key", auth.MaskAPIKey(p.APIKey),
		"new_key", auth.MaskAPIKey(key),
	)
	respondJSON(w, r, http.StatusOK, AuthResponse{
		APIKey:    key,
		UserID:    rec.ID,
		Username:  rec.Username,
		Message:   "API key regenerated successfully",
		Timestamp: timestamp(),
	})
}

// decodeAndValidate reads a JSON body into req and validates it.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) error {
	if err := readJSON(w, r, req); err != nil {
		return err
	}
	return s.validator.Validate(req)
}
