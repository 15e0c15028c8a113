package auth

// Token is an authentication token in one of two states. The set of
// implementations is closed: UnauthenticatedToken and AuthenticatedToken.
type Token interface {
	// Credential returns the raw API key the token was built from.
	Credential() string
	// IsAuthenticated reports whether the credential has been verified.
	IsAuthenticated() bool

	sealed()
}

// UnauthenticatedToken carries a credential that has not been verified yet.
type UnauthenticatedToken struct {
	credential string
}

// NewUnauthenticatedToken wraps a raw API key.
func NewUnauthenticatedToken(apiKey string) UnauthenticatedToken {
	return UnauthenticatedToken{credential: apiKey}
}

// Credential returns the raw API key.
func (t UnauthenticatedToken) Credential() string { return t.credential }

// IsAuthenticated always returns false.
func (t UnauthenticatedToken) IsAuthenticated() bool { return false }

// Authenticate returns the verified form of the token for the given principal.
// The receiver is not modified.
func (t UnauthenticatedToken) Authenticate(p *Principal) AuthenticatedToken {
	return AuthenticatedToken{
		credential:  t.credential,
		principal:   p,
		authorities: p.Authorities(),
	}
}

func (UnauthenticatedToken) sealed() {}

// AuthenticatedToken carries a verified credential, its principal, and the
// granted authorities derived from the principal's roles.
type AuthenticatedToken struct {
	credential  string
	principal   *Principal
	authorities []string
}

// Credential returns the raw API key.
func (t AuthenticatedToken) Credential() string { return t.credential }

// IsAuthenticated always returns true.
func (t AuthenticatedToken) IsAuthenticated() bool { return true }

// Principal returns the identity the credential resolved to.
func (t AuthenticatedToken) Principal() *Principal { return t.principal }

// Authorities returns ROLE_<name> strings for every role of the principal.
func (t AuthenticatedToken) Authorities() []string {
	out := make([]string, len(t.authorities))
	copy(out, t.authorities)
	return out
}

func (AuthenticatedToken) sealed() {}

var (
	_ Token = UnauthenticatedToken{}
	_ Token = AuthenticatedToken{}
)
