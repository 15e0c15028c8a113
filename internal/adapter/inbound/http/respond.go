package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mylifeisrpg/keygate/internal/domain/auth"
	"github.com/mylifeisrpg/keygate/internal/domain/validation"
)

// TimestampLayout is the format of every timestamp field in responses.
const TimestampLayout = "2006-01-02 15:04:05"

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// timestamp returns the current local time in TimestampLayout.
func timestamp() string {
	return time.Now().Format(TimestampLayout)
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Timestamp string            `json:"timestamp"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// respondJSON writes a JSON response with the given status code and data.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		LoggerFromContext(r.Context()).Error("failed to encode JSON response", "error", err)
	}
}

// respondStatus writes an ErrorResponse for status.
func respondStatus(w http.ResponseWriter, r *http.Request, status int, message string, fields map[string]string) {
	label := http.StatusText(status)
	if fields != nil {
		label = "Validation Failed"
	}
	respondJSON(w, r, status, ErrorResponse{
		Status:    status,
		Error:     label,
		Message:   message,
		Timestamp: timestamp(),
		Errors:    fields,
	})
}

// respondError renders err according to its kind. Unclassified errors are
// logged and answered with a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs *validation.FieldErrors
	if errors.As(err, &fieldErrs) {
		respondStatus(w, r, http.StatusBadRequest, "Request validation failed", fieldErrs.Fields)
		return
	}

	status := statusForKind(auth.KindOf(err))
	if status == http.StatusInternalServerError {
		LoggerFromContext(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		respondStatus(w, r, status, "An unexpected error occurred", nil)
		return
	}
	respondStatus(w, r, status, auth.PublicMessage(err), nil)
}

// statusForKind maps an error kind to its HTTP status.
func statusForKind(k auth.Kind) int {
	switch k {
	case auth.KindUnauthenticated, auth.KindInvalidCredential, auth.KindInvalidCredentials:
		return http.StatusUnauthorized
	case auth.KindInsufficientPermissions:
		return http.StatusForbidden
	case auth.KindUsernameTaken:
		return http.StatusConflict
	case auth.KindValidationFailed:
		return http.StatusBadRequest
	case auth.KindUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// readJSON decodes the request body into v. A body that is not valid JSON
// yields a *validation.FieldErrors so it renders as 400.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return validation.NewFieldError("body", "Malformed JSON request body")
	}
	return nil
}
