package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mylifeisrpg/keygate/internal/domain/auth"
)

// RegisterCustomValidators registers keygate-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"auth_provider": validateAuthProvider,
		"database_url":  validateDatabaseURL,
		"public_path":   validatePublicPath,
		"duration":      validateDuration,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

func validateAuthProvider(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case ProviderDatabase, ProviderStatic:
		return true
	default:
		return false
	}
}

// validateDatabaseURL accepts memory://, postgres DSNs, and SQLite paths or
// file: URIs. Other URL schemes are rejected.
func validateDatabaseURL(fl validator.FieldLevel) bool {
	url := fl.Field().String()
	if url == MemoryDatabaseURL || url == ":memory:" || strings.HasPrefix(url, "file:") {
		return true
	}
	for _, prefix := range []string{"postgres://", "postgresql://", "unix://"} {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return !strings.Contains(url, "://")
}

func validatePublicPath(fl validator.FieldLevel) bool {
	return strings.HasPrefix(fl.Field().String(), "/")
}

func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

// Validate validates the Config using struct tags and cross-field rules.
// Returns an error with actionable messages if validation fails.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterCustomValidators(v); err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}
	return c.validateStaticProvider()
}

// validateStaticProvider requires at least one well-formed static key when
// the static provider is selected.
func (c *Config) validateStaticProvider() error {
	if c.Auth.Provider != ProviderStatic {
		return nil
	}
	// Malformed entries are reported when the registry is built; stay quiet here.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	entries := auth.ParseStaticKeys(c.Auth.APIKeys.Admin, c.Auth.APIKeys.Users, quiet)
	if len(entries) == 0 {
		return errors.New("auth.api_keys: static provider requires at least one valid key:userId:username:ROLES entry")
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "auth_provider":
		return fmt.Sprintf("%s must be 'database' or 'static'", field)
	case "database_url":
		return fmt.Sprintf("%s must be memory://, a postgres:// DSN, or a SQLite path", field)
	case "public_path":
		return fmt.Sprintf("%s must start with '/'", field)
	case "duration":
		return fmt.Sprintf("%s must be a positive duration such as 30s or 1m", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
