// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"

	"myweight/internal/domain"
)

var (
	// ErrMissingToken indicates that the request carried no bearer token.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken indicates that no configured verifier accepted the token.
	ErrInvalidToken = errors.New("invalid bearer token")
)

// AuthService authenticates callers of the network transports.
type AuthService struct {
	verifiers []domain.TokenVerifier
}

// NewAuthService creates an AuthService that tries verifiers in order.
func NewAuthService(verifiers ...domain.TokenVerifier) *AuthService {
	return &AuthService{verifiers: verifiers}
}

// Enabled reports whether any verifier is configured. Without one, the
// transports are left open.
func (s *AuthService) Enabled() bool {
	return len(s.verifiers) > 0
}

// Methods returns the names of the configured verifiers.
func (s *AuthService) Methods() []string {
	names := make([]string, 0, len(s.verifiers))
	for _, v := range s.verifiers {
		names = append(names, v.Name())
	}
	return names
}

// Authenticate returns the principal of the first verifier that accepts
// token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	for _, v := range s.verifiers {
		p, err := v.Verify(ctx, token)
		if err == nil && p != nil {
			if p.Method == "" {
				p.Method = v.Name()
			}
			return p, nil
		}
	}
	return nil, ErrInvalidToken
}
