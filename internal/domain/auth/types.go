// Package auth contains the domain types and logic for API key authentication.
package auth

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Role represents a flat authorization role. Roles are always upper-case.
type Role string

const (
	// RoleAdmin grants access to administrative endpoints.
	RoleAdmin Role = "ADMIN"
	// RoleUser is the default role of every registered identity.
	RoleUser Role = "USER"
)

// authorityPrefix is prepended to role names to form authority strings.
const authorityPrefix = "ROLE_"

// NormalizeRole trims and upper-cases a role name.
func NormalizeRole(name string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(name)))
}

// Authority returns the granted-authority form of the role (ROLE_<name>).
func (r Role) Authority() string {
	return authorityPrefix + string(r)
}

// NormalizeRoles upper-cases, deduplicates and sorts a role list.
// Blank entries are dropped.
func NormalizeRoles(roles []Role) []Role {
	seen := make(map[Role]struct{}, len(roles))
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		n := NormalizeRole(string(r))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Principal is the authenticated identity attached to a single request.
// It is never persisted and never shared between requests.
type Principal struct {
	// ID is the identity's numeric id.
	ID int64 `json:"userId"`
	// Username is the login name.
	Username string `json:"username"`
	// APIKey is the credential that produced this principal.
	APIKey string `json:"-"`
	// Roles are the normalized roles of the principal.
	Roles []Role `json:"roles"`
	// AuthenticatedAt is the moment the credential was resolved.
	AuthenticatedAt time.Time `json:"authenticatedAt"`
}

// NewPrincipal builds a principal with normalized roles, stamped with the current time.
func NewPrincipal(id int64, username, apiKey string, roles []Role) *Principal {
	return &Principal{
		ID:              id,
		Username:        username,
		APIKey:          apiKey,
		Roles:           NormalizeRoles(roles),
		AuthenticatedAt: time.Now(),
	}
}

// HasRole reports whether the principal holds the role, ignoring case.
func (p *Principal) HasRole(name string) bool {
	want := NormalizeRole(name)
	for _, r := range p.Roles {
		if r == want {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal holds the ADMIN role.
func (p *Principal) IsAdmin() bool {
	return p.HasRole(string(RoleAdmin))
}

// Authorities returns the ROLE_-prefixed authority strings for the principal's roles.
func (p *Principal) Authorities() []string {
	out := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		out[i] = r.Authority()
	}
	return out
}

// RoleNames returns the roles as plain strings.
func (p *Principal) RoleNames() []string {
	out := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		out[i] = string(r)
	}
	return out
}

// String renders the principal without its credential.
func (p *Principal) String() string {
	return fmt.Sprintf("Principal{id=%d, username=%s, roles=%v}", p.ID, p.Username, p.Roles)
}

// IdentityRecord is a persisted registered identity.
type IdentityRecord struct {
	// ID is assigned by the store on insert.
	ID int64
	// Username is unique and case-sensitive.
	Username string
	// PasswordHash is the encoded password hash; never serialized.
	PasswordHash string `json:"-"`
	// APIKey is unique and always has the ak_ format.
	APIKey string
	// CreatedAt is set on insert.
	CreatedAt time.Time
	// UpdatedAt changes on every update.
	UpdatedAt time.Time
}

// Principal converts a stored identity into a request principal with the given roles.
func (r *IdentityRecord) Principal(roles ...Role) *Principal {
	return NewPrincipal(r.ID, r.Username, r.APIKey, roles)
}
