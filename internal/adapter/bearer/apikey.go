package bearer

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"myweight/internal/domain"
)

var errUnknownKey = errors.New("api key not recognized")

// APIKeyVerifier accepts static keys whose bcrypt hashes are configured.
type APIKeyVerifier struct {
	hashes [][]byte
}

// NewAPIKeys validates each bcrypt hash up front so a typo in configuration
// fails at startup rather than on every request.
func NewAPIKeys(hashes []string) (*APIKeyVerifier, error) {
	v := &APIKeyVerifier{hashes: make([][]byte, 0, len(hashes))}
	for i, h := range hashes {
		if _, err := bcrypt.Cost([]byte(h)); err != nil {
			return nil, fmt.Errorf("api key hash #%d: %w", i+1, err)
		}
		v.hashes = append(v.hashes, []byte(h))
	}
	return v, nil
}

// Name implements domain.TokenVerifier.
func (v *APIKeyVerifier) Name() string { return "api_key" }

// Verify implements domain.TokenVerifier. The subject is the 1-based
// position of the matching hash.
func (v *APIKeyVerifier) Verify(_ context.Context, token string) (*domain.Principal, error) {
	for i, h := range v.hashes {
		if bcrypt.CompareHashAndPassword(h, []byte(token)) == nil {
			return &domain.Principal{Subject: fmt.Sprintf("api-key-%d", i+1), Method: v.Name()}, nil
		}
	}
	return nil, errUnknownKey
}

// HashKey returns the bcrypt hash to configure for key.
func HashKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("api key must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}
	return string(hash), nil
}
