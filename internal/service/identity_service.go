package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mylifeisrpg/keygate/internal/domain/auth"
)

// dummyPassword is hashed once and compared against when a login names an
// unknown user, so both failure paths do the same amount of work.
const dummyPassword = "keygate-timing-equalizer"

// IdentityService registers identities, verifies passwords, and issues and
// rotates API keys. Uniqueness is settled by the credential store.
type IdentityService struct {
	store  auth.CredentialStore
	hasher auth.PasswordHasher
	logger *slog.Logger

	// keyGen is replaceable in tests.
	keyGen func() (string, error)

	dummyOnce sync.Once
	dummyHash string
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(store auth.CredentialStore, hasher auth.PasswordHasher, logger *slog.Logger) *IdentityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityService{
		store:  store,
		hasher: hasher,
		logger: logger,
		keyGen: auth.GenerateAPIKey,
	}
}

// Register creates an identity with a fresh API key. The returned record
// carries the plaintext key. A concurrent registration of the same username
// that loses the race at the store also gets ErrUsernameTaken.
func (s *IdentityService) Register(ctx context.Context, username, password string) (*auth.IdentityRecord, error) {
	username = strings.TrimSpace(username)

	exists, err := s.store.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, auth.UsernameTakenError(username, nil)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	apiKey, err := s.keyGen()
	if err != nil {
		return nil, err
	}

	rec := &auth.IdentityRecord{
		Username:     username,
		PasswordHash: hash,
		APIKey:       apiKey,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, auth.ErrDuplicateUsername) {
			s.logger.Debug("registration lost username race", "username", username)
			return nil, auth.UsernameTakenError(username, err)
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}

	s.logger.Info("identity registered",
		"user_id", rec.ID,
		"username", rec.Username,
		"api_key", auth.MaskAPIKey(rec.APIKey),
	)
	return rec, nil
}

// Authenticate verifies a username and password and returns the identity
// with its current API key. Unknown usernames and wrong passwords produce
// the same ErrInvalidCredentials.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (*auth.IdentityRecord, error) {
	username = strings.TrimSpace(username)

	rec, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, auth.ErrRecordNotFound) {
			return nil, fmt.Errorf("find identity: %w", err)
		}
		// Spend the same hashing time as a real comparison.
		_, _ = s.hasher.Verify(password, s.dummy())
		s.logger.Debug("login failed", "username", username, "reason", "unknown user")
		return nil, auth.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, rec.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password for user %d: %w", rec.ID, err)
	}
	if !ok {
		s.logger.Debug("login failed", "username", username, "reason", "bad password")
		return nil, auth.ErrInvalidCredentials
	}
	return rec, nil
}

// IsUsernameAvailable reports whether the username is unregistered.
// The answer is advisory; Register re-checks.
func (s *IdentityService) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	exists, err := s.store.ExistsByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return !exists, nil
}

// RegenerateKey replaces the API key of the identity and returns the new
// key. The old key stops resolving immediately.
func (s *IdentityService) RegenerateKey(ctx context.Context, userID int64) (string, error) {
	apiKey, err := s.keyGen()
	if err != nil {
		return "", err
	}
	n, err := s.store.UpdateAPIKey(ctx, userID, apiKey)
	if err != nil {
		return "", fmt.Errorf("update api key: %w", err)
	}
	if n == 0 {
		return "", auth.ErrUserNotFound
	}

	s.logger.Info("api key regenerated", "user_id", userID, "api_key", auth.MaskAPIKey(apiKey))
	return apiKey, nil
}

// FindByID returns the identity or ErrUserNotFound.
func (s *IdentityService) FindByID(ctx context.Context, id int64) (*auth.IdentityRecord, error) {
	return s.find(s.store.FindByID(ctx, id))
}

// FindByUsername returns the identity or ErrUserNotFound.
func (s *IdentityService) FindByUsername(ctx context.Context, username string) (*auth.IdentityRecord, error) {
	return s.find(s.store.FindByUsername(ctx, strings.TrimSpace(username)))
}

// FindByAPIKey returns the identity or ErrUserNotFound.
func (s *IdentityService) FindByAPIKey(ctx context.Context, apiKey string) (*auth.IdentityRecord, error) {
	return s.find(s.store.FindByAPIKey(ctx, apiKey))
}

// UserCount returns the number of registered identities.
func (s *IdentityService) UserCount(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return n, nil
}

func (s *IdentityService) find(rec *auth.IdentityRecord, err error) (*auth.IdentityRecord, error) {
	if errors.Is(err, auth.ErrRecordNotFound) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// dummy returns a hash of dummyPassword produced by the configured hasher.
func (s *IdentityService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Warn("failed to prepare dummy password hash", "error", err)
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
