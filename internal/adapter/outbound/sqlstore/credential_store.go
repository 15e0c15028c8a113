package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/mylifeisrpg/keygate/internal/domain/auth"
)

// userModel is the users table row.
type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,type:varchar(50),notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	APIKey       string    `bun:"api_key,type:varchar(64),notnull,unique"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func (m *userModel) toRecord() *auth.IdentityRecord {
	return &auth.IdentityRecord{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		APIKey:       m.APIKey,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// CredentialStore implements auth.CredentialStore on a bun database.
type CredentialStore struct {
	db *bun.DB
}

// NewCredentialStore creates a store on db. The schema must already be migrated.
func NewCredentialStore(db *bun.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// FindByUsername returns the record or auth.ErrRecordNotFound.
func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*auth.IdentityRecord, error) {
	return s.findOne(ctx, "username = ?", username)
}

// FindByAPIKey returns the record or auth.ErrRecordNotFound.
func (s *CredentialStore) FindByAPIKey(ctx context.Context, apiKey string) (*auth.IdentityRecord, error) {
	return s.findOne(ctx, "api_key = ?", apiKey)
}

// FindByID returns the record or auth.ErrRecordNotFound.
func (s *CredentialStore) FindByID(ctx context.Context, id int64) (*auth.IdentityRecord, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *CredentialStore) findOne(ctx context.Context, where string, arg any) (*auth.IdentityRecord, error) {
	m := new(userModel)
	err := s.db.NewSelect().
		Model(m).
		Where(where, arg).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrRecordNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return m.toRecord(), nil
}

// ExistsByUsername reports whether a row with the username exists.
func (s *CredentialStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*userModel)(nil)).
		Where("username = ?", username).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

// Insert writes a new row and copies the assigned id and timestamps to rec.
func (s *CredentialStore) Insert(ctx context.Context, rec *auth.IdentityRecord) error {
	now := time.Now().UTC()
	m := &userModel{
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
		APIKey:       rec.APIKey,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return classifyUniqueViolation(err)
	}
	rec.ID = m.ID
	rec.CreatedAt = m.CreatedAt
	rec.UpdatedAt = m.UpdatedAt
	return nil
}

// UpdateAPIKey sets a new key and returns the number of rows changed.
func (s *CredentialStore) UpdateAPIKey(ctx context.Context, id int64, apiKey string) (int64, error) {
	res, err := s.db.NewUpdate().
		Model((*userModel)(nil)).
		Set("api_key = ?", apiKey).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, classifyUniqueViolation(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return n, nil
}

// Count returns the number of users.
func (s *CredentialStore) Count(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*userModel)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// Ping checks database connectivity.
func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// classifyUniqueViolation maps unique constraint failures on username or
// api_key to the domain sentinels and wraps everything else.
func classifyUniqueViolation(err error) error {
	if !isDuplicateKeyError(err) {
		return fmt.Errorf("write user: %w", err)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "username"):
		return fmt.Errorf("%w: %v", auth.ErrDuplicateUsername, err)
	case strings.Contains(msg, "api_key"):
		return fmt.Errorf("%w: %v", auth.ErrDuplicateAPIKey, err)
	default:
		return fmt.Errorf("write user: %w", err)
	}
}

// isDuplicateKeyError matches PostgreSQL (23505) and SQLite unique violations.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "23505")
}

// Compile-time interface verification.
var _ auth.CredentialStore = (*CredentialStore)(nil)
