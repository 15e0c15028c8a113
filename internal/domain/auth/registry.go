package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Registry strategy names.
const (
	StrategyStatic   = "static"
	StrategyDatabase = "database"
)

// KeyRegistry resolves an unverified token into an authenticated one.
// Any unknown key yields ErrInvalidCredential; the cause is never exposed.
type KeyRegistry interface {
	Resolve(ctx context.Context, tok UnauthenticatedToken) (AuthenticatedToken, error)
	// Strategy names the resolution strategy ("static" or "database").
	Strategy() string
}

// StaticKeyRegistry resolves keys from a fixed set loaded at startup.
// It is immutable after construction and safe for concurrent use without locks.
type StaticKeyRegistry struct {
	keys map[string]StaticKeyEntry
}

// NewStaticKeyRegistry indexes entries by key. A later entry with the
// same key replaces an earlier one and logs a warning.
func NewStaticKeyRegistry(entries []StaticKeyEntry, logger *slog.Logger) *StaticKeyRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	keys := make(map[string]StaticKeyEntry, len(entries))
	for _, e := range entries {
		if prev, ok := keys[e.APIKey]; ok {
			logger.Warn("duplicate static api key, later entry wins",
				"key", MaskAPIKey(e.APIKey),
				"previous_user", prev.Username,
				"user", e.Username,
			)
		}
		keys[e.APIKey] = e
	}
	logger.Info("static api key registry loaded", "keys", len(keys))
	return &StaticKeyRegistry{keys: keys}
}

// Resolve looks the credential up in the configured set.
func (r *StaticKeyRegistry) Resolve(_ context.Context, tok UnauthenticatedToken) (AuthenticatedToken, error) {
	e, ok := r.keys[tok.Credential()]
	if !ok {
		return AuthenticatedToken{}, ErrInvalidCredential
	}
	return tok.Authenticate(NewPrincipal(e.UserID, e.Username, e.APIKey, e.Roles)), nil
}

// Strategy returns "static".
func (r *StaticKeyRegistry) Strategy() string { return StrategyStatic }

// LoadedKeyCount returns the number of distinct configured keys.
func (r *StaticKeyRegistry) LoadedKeyCount() int { return len(r.keys) }

// LoadedUsers lists the configured identities as username(ROLE1,ROLE2),
// sorted. Keys are never included.
func (r *StaticKeyRegistry) LoadedUsers() []string {
	out := make([]string, 0, len(r.keys))
	for _, e := range r.keys {
		names := make([]string, len(e.Roles))
		for i, role := range e.Roles {
			names[i] = string(role)
		}
		out = append(out, fmt.Sprintf("%s(%s)", e.Username, strings.Join(names, ",")))
	}
	sort.Strings(out)
	return out
}

// defaultStoreRoles is the fixed role set of identities resolved from the store.
var defaultStoreRoles = []Role{RoleUser}

// StoreKeyRegistry resolves keys against a CredentialStore on every call.
type StoreKeyRegistry struct {
	store  CredentialStore
	logger *slog.Logger
}

// NewStoreKeyRegistry creates a registry backed by the store.
func NewStoreKeyRegistry(store CredentialStore, logger *slog.Logger) *StoreKeyRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreKeyRegistry{store: store, logger: logger}
}

// Resolve looks up the owner of the key. Store failures are logged and
// reported to the caller as ErrInvalidCredential.
func (r *StoreKeyRegistry) Resolve(ctx context.Context, tok UnauthenticatedToken) (AuthenticatedToken, error) {
	rec, err := r.store.FindByAPIKey(ctx, tok.Credential())
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			r.logger.Error("api key lookup failed",
				"key", MaskAPIKey(tok.Credential()),
				"error", err,
			)
		}
		return AuthenticatedToken{}, ErrInvalidCredential
	}
	return tok.Authenticate(rec.Principal(defaultStoreRoles...)), nil
}

// Strategy returns "database".
func (r *StoreKeyRegistry) Strategy() string { return StrategyDatabase }

var (
	_ KeyRegistry = (*StaticKeyRegistry)(nil)
	_ KeyRegistry = (*StoreKeyRegistry)(nil)
)
