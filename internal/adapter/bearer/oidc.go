// Package bearer implements the verifiers for inbound bearer tokens on the
// MCP HTTP endpoints.
package bearer

import (
	"context"
	"crypto"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"myweight/internal/domain"
)

// OIDCVerifier accepts ID tokens signed by an OpenID Connect issuer.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDC discovers issuer and verifies tokens issued for audience. ctx is
// kept for key refreshes and must outlive the verifier.
func NewOIDC(ctx context.Context, issuer, audience string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc issuer %s: %w", issuer, err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(oidcConfig(audience))}, nil
}

// NewOIDCWithKeys verifies tokens against a fixed set of public keys
// without discovery.
func NewOIDCWithKeys(issuer, audience string, keys ...crypto.PublicKey) *OIDCVerifier {
	ks := &oidc.StaticKeySet{PublicKeys: keys}
	return &OIDCVerifier{verifier: oidc.NewVerifier(issuer, ks, oidcConfig(audience))}
}

func oidcConfig(audience string) *oidc.Config {
	if audience == "" {
		return &oidc.Config{SkipClientIDCheck: true}
	}
	return &oidc.Config{ClientID: audience}
}

// Name implements domain.TokenVerifier.
func (v *OIDCVerifier) Name() string { return "oidc" }

// Verify implements domain.TokenVerifier.
func (v *OIDCVerifier) Verify(ctx context.Context, token string) (*domain.Principal, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("oidc: %w", err)
	}
	return &domain.Principal{Subject: idToken.Subject, Method: v.Name()}, nil
}
