package bearer

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"myweight/internal/domain"
)

var errNoSubject = errors.New("token has no subject")

// JWTVerifier accepts HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWT returns a verifier for secret. A non-empty issuer must match the
// token's iss claim.
func NewJWT(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

// Name implements domain.TokenVerifier.
func (v *JWTVerifier) Name() string { return "jwt" }

// Verify implements domain.TokenVerifier. Tokens must carry exp and sub.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*domain.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("jwt: %w", errNoSubject)
	}
	return &domain.Principal{Subject: claims.Subject, Method: v.Name()}, nil
}
