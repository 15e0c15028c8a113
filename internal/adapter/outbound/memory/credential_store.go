// Package memory provides in-memory implementations of outbound ports.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mylifeisrpg/keygate/internal/domain/auth"
)

// CredentialStore implements auth.CredentialStore with in-memory maps.
// Uniqueness checks and inserts happen under one lock, so concurrent
// inserts of the same username cannot both succeed.
// Thread-safe for concurrent access. For development/testing only.
type CredentialStore struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]*auth.IdentityRecord
	byUsername map[string]int64
	byAPIKey   map[string]int64
}

// NewCredentialStore creates an empty in-memory credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		byID:       make(map[int64]*auth.IdentityRecord),
		byUsername: make(map[string]int64),
		byAPIKey:   make(map[string]int64),
	}
}

// FindByUsername returns a copy of the record or auth.ErrRecordNotFound.
func (s *CredentialStore) FindByUsername(_ context.Context, username string) (*auth.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(s.byUsername[username])
}

// FindByAPIKey returns a copy of the record or auth.ErrRecordNotFound.
func (s *CredentialStore) FindByAPIKey(_ context.Context, apiKey string) (*auth.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(s.byAPIKey[apiKey])
}

// FindByID returns a copy of the record or auth.ErrRecordNotFound.
func (s *CredentialStore) FindByID(_ context.Context, id int64) (*auth.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(id)
}

// ExistsByUsername reports whether the username is taken.
func (s *CredentialStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byUsername[username]
	return ok, nil
}

// Insert assigns an id and timestamps and stores a copy of rec.
func (s *CredentialStore) Insert(_ context.Context, rec *auth.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[rec.Username]; ok {
		return auth.ErrDuplicateUsername
	}
	if _, ok := s.byAPIKey[rec.APIKey]; ok {
		return auth.ErrDuplicateAPIKey
	}

	s.nextID++
	now := time.Now().UTC()
	rec.ID = s.nextID
	rec.CreatedAt = now
	rec.UpdatedAt = now

	stored := *rec
	s.byID[stored.ID] = &stored
	s.byUsername[stored.Username] = stored.ID
	s.byAPIKey[stored.APIKey] = stored.ID
	return nil
}

// UpdateAPIKey swaps the identity's key. Returns 0 when the id is unknown.
func (s *CredentialStore) UpdateAPIKey(_ context.Context, id int64, apiKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return 0, nil
	}
	if owner, taken := s.byAPIKey[apiKey]; taken && owner != id {
		return 0, auth.ErrDuplicateAPIKey
	}

	delete(s.byAPIKey, rec.APIKey)
	rec.APIKey = apiKey
	rec.UpdatedAt = time.Now().UTC()
	s.byAPIKey[apiKey] = id
	return 1, nil
}

// Count returns the number of stored identities.
func (s *CredentialStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// lookup returns a copy of the record with the id. Caller must hold s.mu.
func (s *CredentialStore) lookup(id int64) (*auth.IdentityRecord, error) {
	rec, ok := s.byID[id]
	if !ok {
		return nil, auth.ErrRecordNotFound
	}
	out := *rec
	return &out, nil
}

// Compile-time interface verification.
var _ auth.CredentialStore = (*CredentialStore)(nil)
