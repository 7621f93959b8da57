package healthplanet

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	// ScopeInnerScan grants read access to body composition data.
	ScopeInnerScan = "innerscan"
	// DefaultRedirectURL is the out-of-band page Health Planet shows the code on.
	DefaultRedirectURL = DefaultBaseURL + "/success.html"
)

// ErrNoCredentials is returned when neither an access token nor a
// refreshable grant is configured.
var ErrNoCredentials = errors.New("no Health Planet access token or refresh token configured")

// Credentials describes how the client authenticates to Health Planet.
type Credentials struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AccessToken  string
	RefreshToken string
}

// Endpoint returns the OAuth2 endpoint hosted under baseURL.
func Endpoint(baseURL string) oauth2.Endpoint {
	baseURL = strings.TrimRight(baseURL, "/")
	return oauth2.Endpoint{
		AuthURL:   baseURL + "/oauth/auth",
		TokenURL:  baseURL + "/oauth/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// OAuth2Config returns the authorization-code configuration for c.
func (c Credentials) OAuth2Config() *oauth2.Config {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	redirect := c.RedirectURL
	if redirect == "" {
		redirect = DefaultRedirectURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     Endpoint(base),
		RedirectURL:  redirect,
		Scopes:       []string{ScopeInnerScan},
	}
}

// Refreshable reports whether c can mint new access tokens.
func (c Credentials) Refreshable() bool {
	return c.RefreshToken != "" && c.ClientID != "" && c.ClientSecret != ""
}

// TokenSource returns the access token source for c. A refreshable grant
// refreshes on first use and whenever the token expires; otherwise the
// static access token is used as is. ctx must outlive every fetch because
// refreshes run under it.
func (c Credentials) TokenSource(ctx context.Context, hc *http.Client) (oauth2.TokenSource, error) {
	if c.Refreshable() {
		if hc != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
		}
		seed := &oauth2.Token{
			AccessToken:  c.AccessToken,
			RefreshToken: c.RefreshToken,
			Expiry:       time.Now(),
		}
		return c.OAuth2Config().TokenSource(ctx, seed), nil
	}
	if c.AccessToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.AccessToken}), nil
	}
	return nil, ErrNoCredentials
}

// AuthCodeURL returns the URL the user visits to grant access.
func (c Credentials) AuthCodeURL(state string) string {
	return c.OAuth2Config().AuthCodeURL(state)
}

// Exchange trades an authorization code for a token.
func (c Credentials) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.OAuth2Config().Exchange(ctx, strings.TrimSpace(code))
}
