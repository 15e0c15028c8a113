package auth

import (
	"context"
	"errors"
)

// Sentinel errors for credential store operations.
var (
	// ErrRecordNotFound is returned when no identity matches a lookup.
	ErrRecordNotFound = errors.New("identity record not found")
	// ErrDuplicateUsername is returned when an insert violates username uniqueness.
	ErrDuplicateUsername = errors.New("duplicate username")
	// ErrDuplicateAPIKey is returned when an insert or update violates api key uniqueness.
	ErrDuplicateAPIKey = errors.New("duplicate api key")
)

// CredentialStore persists identity records.
// This interface is defined in the domain to avoid circular imports.
// Implementations: in-memory (dev, tests), SQL via bun (SQLite, PostgreSQL).
//
// Username and API key uniqueness must be enforced by the store itself so
// that concurrent inserts cannot both succeed.
type CredentialStore interface {
	// FindByUsername returns the record with the exact (case-sensitive) username.
	// Returns ErrRecordNotFound if none exists.
	FindByUsername(ctx context.Context, username string) (*IdentityRecord, error)

	// FindByAPIKey returns the record owning the API key.
	// Returns ErrRecordNotFound if none exists.
	FindByAPIKey(ctx context.Context, apiKey string) (*IdentityRecord, error)

	// FindByID returns the record with the given id.
	// Returns ErrRecordNotFound if none exists.
	FindByID(ctx context.Context, id int64) (*IdentityRecord, error)

	// ExistsByUsername reports whether the username is registered.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// Insert stores a new record and sets its ID and timestamps.
	// Returns ErrDuplicateUsername or ErrDuplicateAPIKey on a uniqueness violation.
	Insert(ctx context.Context, rec *IdentityRecord) error

	// UpdateAPIKey replaces the API key of the identity and returns the
	// number of rows affected (0 when the id does not exist).
	UpdateAPIKey(ctx context.Context, id int64, apiKey string) (int64, error)

	// Count returns the number of registered identities.
	Count(ctx context.Context) (int, error)
}
