package commands

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"myweight/internal/adapter/bearer"
	"myweight/internal/adapter/healthplanet"
	"myweight/internal/app"
	"myweight/internal/config"
	"myweight/internal/domain"
)

func providerCredentials(cfg *config.Config) healthplanet.Credentials {
	p := cfg.Provider
	return healthplanet.Credentials{
		BaseURL:      p.BaseURL,
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  p.RedirectURL,
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
	}
}

// newWeightService wires the Health Planet client behind the weight use
// case. ctx bounds token refreshes.
func newWeightService(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app.WeightService, error) {
	hc := &http.Client{Timeout: cfg.Provider.Timeout}
	tokens, err := providerCredentials(cfg).TokenSource(ctx, hc)
	if err != nil {
		return nil, err
	}
	client := healthplanet.New(tokens,
		healthplanet.WithBaseURL(cfg.Provider.BaseURL),
		healthplanet.WithHTTPClient(hc),
		healthplanet.WithLogger(log.Named("healthplanet")),
	)
	return app.NewWeightService(client), nil
}

// newAuthService builds the bearer verifiers in the order they are tried:
// OIDC, shared-secret JWT, API keys.
func newAuthService(ctx context.Context, cfg *config.Config) (*app.AuthService, error) {
	if !cfg.AuthEnabled() {
		return app.NewAuthService(), nil
	}
	var verifiers []domain.TokenVerifier
	a := cfg.Auth
	if a.OIDCIssuer != "" {
		v, err := bearer.NewOIDC(ctx, a.OIDCIssuer, a.OIDCAudience)
		if err != nil {
			return nil, err
		}
		verifiers = append(verifiers, v)
	}
	if a.JWTSecret != "" {
		verifiers = append(verifiers, bearer.NewJWT(a.JWTSecret, a.JWTIssuer))
	}
	if len(a.APIKeyHashes) > 0 {
		v, err := bearer.NewAPIKeys(a.APIKeyHashes)
		if err != nil {
			return nil, err
		}
		verifiers = append(verifiers, v)
	}
	return app.NewAuthService(verifiers...), nil
}
