package domain

import "context"

// Principal identifies the caller of an MCP endpoint after bearer token
// verification.
type Principal struct {
	Subject string
	Method  string
}

// TokenVerifier is the port for one way of verifying inbound bearer tokens.
// It returns an error when the token is not acceptable to this verifier.
type TokenVerifier interface {
	Name() string
	Verify(ctx context.Context, token string) (*Principal, error)
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
