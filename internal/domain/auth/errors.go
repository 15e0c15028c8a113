package auth

import (
	"errors"
	"fmt"
)

// Kind classifies authentication and identity failures.
type Kind int

const (
	// KindInternal is any unexpected failure.
	KindInternal Kind = iota
	// KindUnauthenticated means a protected operation ran without a principal.
	KindUnauthenticated
	// KindInvalidCredential means a presented API key is unknown.
	KindInvalidCredential
	// KindInsufficientPermissions means the principal lacks a required role.
	KindInsufficientPermissions
	// KindUsernameTaken means registration hit an existing username.
	KindUsernameTaken
	// KindInvalidCredentials means login failed for a bad username or password.
	KindInvalidCredentials
	// KindValidationFailed means a payload failed field validation.
	KindValidationFailed
	// KindUserNotFound means the referenced identity does not exist.
	KindUserNotFound
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindInsufficientPermissions:
		return "insufficient_permissions"
	case KindUsernameTaken:
		return "username_taken"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindValidationFailed:
		return "validation_failed"
	case KindUserNotFound:
		return "user_not_found"
	default:
		return "internal"
	}
}

// Error is a classified domain error. Msg is safe to show to callers.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels compare by kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel errors. Compare with errors.Is; messages are the caller-facing defaults.
var (
	ErrUnauthenticated         = &Error{Kind: KindUnauthenticated, Msg: "Authentication required"}
	ErrInvalidCredential       = &Error{Kind: KindInvalidCredential, Msg: "Invalid API key"}
	ErrInsufficientPermissions = &Error{Kind: KindInsufficientPermissions, Msg: "Insufficient permissions"}
	ErrUsernameTaken           = &Error{Kind: KindUsernameTaken, Msg: "Username is already taken"}
	ErrInvalidCredentials      = &Error{Kind: KindInvalidCredentials, Msg: "Invalid username or password"}
	ErrUserNotFound            = &Error{Kind: KindUserNotFound, Msg: "User not found"}
)

// UsernameTakenError returns a UsernameTaken error naming the username.
func UsernameTakenError(username string, cause error) error {
	return &Error{
		Kind: KindUsernameTaken,
		Msg:  fmt.Sprintf("Username '%s' is already taken", username),
		Err:  cause,
	}
}

// InsufficientPermissionsError returns an InsufficientPermissions error naming the role.
func InsufficientPermissionsError(role string) error {
	return &Error{
		Kind: KindInsufficientPermissions,
		Msg:  fmt.Sprintf("Insufficient permissions: role %s required", NormalizeRole(role)),
	}
}

// KindOf returns the kind of the first *Error in err's chain,
// or KindInternal if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the caller-facing message of err, or "" if err is unclassified.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}
