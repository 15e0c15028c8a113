package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RequestValidator validates request payloads with struct tags.
// It is safe for concurrent use.
type RequestValidator struct {
	v *validator.Validate
}

// NewRequestValidator creates a validator with the identity rules registered.
func NewRequestValidator() (*RequestValidator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := RegisterCustomValidators(v); err != nil {
		return nil, err
	}
	return &RequestValidator{v: v}, nil
}

// MustNewRequestValidator is NewRequestValidator that panics on error.
func MustNewRequestValidator() *RequestValidator {
	rv, err := NewRequestValidator()
	if err != nil {
		panic(err)
	}
	return rv
}

// RegisterCustomValidators registers notblank, username_chars and strong_password.
func RegisterCustomValidators(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"notblank": func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		},
		"username_chars": func(fl validator.FieldLevel) bool {
			return IsValidUsername(fl.Field().String())
		},
		"strong_password": func(fl validator.FieldLevel) bool {
			return IsStrongPassword(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

// Validate checks a request struct. Returns nil or a *FieldErrors with
// one message per failing field.
func (rv *RequestValidator) Validate(req any) error {
	err := rv.v.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fe := &FieldErrors{Fields: make(map[string]string, len(verrs))}
	for _, e := range verrs {
		if _, seen := fe.Fields[e.Field()]; seen {
			continue
		}
		fe.Fields[e.Field()] = fieldMessage(e)
	}
	return fe
}

// fieldMessage returns the client message for a single failed rule.
func fieldMessage(e validator.FieldError) string {
	if msgs, ok := fieldMessages[e.Field()]; ok {
		if msg, ok := msgs[e.Tag()]; ok {
			return msg
		}
	}
	switch e.Tag() {
	case "notblank", "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "min", "max":
		return fmt.Sprintf("%s has an invalid length", e.Field())
	default:
		return "Invalid value"
	}
}
