// Package validation validates identity request payloads.
// It rejects malformed registration and login bodies before they
// reach the identity service.
package validation

import (
	"fmt"
	"sort"
	"strings"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"notblank,min=3,max=50,username_chars"`
	Password string `json:"password" validate:"notblank,min=8,max=255,strong_password"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"notblank,min=3,max=50"`
	Password string `json:"password" validate:"notblank"`
}

// FieldErrors is a validation failure keyed by JSON field name.
// The messages are safe to return to clients.
type FieldErrors struct {
	Fields map[string]string
}

// Error implements the error interface.
func (e *FieldErrors) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %s", name, e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewFieldError returns a FieldErrors holding a single field message.
func NewFieldError(field, message string) *FieldErrors {
	return &FieldErrors{Fields: map[string]string{field: message}}
}
