package auth

import "context"

// tokenContextKey is the context key for the request's authenticated token.
type tokenContextKey struct{}

// WithToken returns a child context carrying the authenticated token.
// The identity lives exactly as long as the derived context.
func WithToken(ctx context.Context, tok AuthenticatedToken) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, tok)
}

// CurrentToken returns the authenticated token of the request, if any.
func CurrentToken(ctx context.Context) (AuthenticatedToken, bool) {
	tok, ok := ctx.Value(tokenContextKey{}).(AuthenticatedToken)
	if !ok || tok.Principal() == nil {
		return AuthenticatedToken{}, false
	}
	return tok, true
}

// CurrentPrincipal returns the principal of the request, if any.
func CurrentPrincipal(ctx context.Context) (*Principal, bool) {
	tok, ok := CurrentToken(ctx)
	if !ok {
		return nil, false
	}
	return tok.Principal(), true
}

// IsAuthenticated reports whether the request carries a principal.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := CurrentPrincipal(ctx)
	return ok
}

// RequirePrincipal returns the principal or ErrUnauthenticated.
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p, ok := CurrentPrincipal(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return p, nil
}

// HasRole reports whether the request's principal holds the role.
// Comparison ignores case. False when unauthenticated.
func HasRole(ctx context.Context, name string) bool {
	p, ok := CurrentPrincipal(ctx)
	return ok && p.HasRole(name)
}

// RequireRole fails with ErrUnauthenticated when there is no principal and
// with an InsufficientPermissions error when the role is missing.
func RequireRole(ctx context.Context, name string) error {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return err
	}
	if !p.HasRole(name) {
		return InsufficientPermissionsError(name)
	}
	return nil
}

// RequireAdmin is RequireRole(ctx, "ADMIN").
func RequireAdmin(ctx context.Context) error {
	return RequireRole(ctx, string(RoleAdmin))
}
