// Package healthplanet implements the driven adapter for the Health Planet
// innerscan API.
package healthplanet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"myweight/internal/domain"
)

const (
	// DefaultBaseURL is the public Health Planet host.
	DefaultBaseURL = "https://www.healthplanet.jp"

	innerScanPath = "/status/innerscan.json"
	// dateMeasured asks the provider to filter on measurement date rather
	// than registration date.
	dateMeasured = "1"
)

// Client fetches weight measurements from Health Planet.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  oauth2.TokenSource
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the provider host, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client used for the innerscan call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New creates a Client that reads its access token from tokens.
func New(tokens oauth2.TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ domain.WeightSource = (*Client)(nil)

// FetchWeights issues one innerscan query for r and returns the weight
// records oldest first.
func (c *Client) FetchWeights(ctx context.Context, r domain.DateRange) ([]domain.WeightRecord, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, c.tokenError(err)
	}

	form := url.Values{}
	form.Set("access_token", token.AccessToken)
	form.Set("date", dateMeasured)
	form.Set("tag", domain.TagWeight)
	form.Set("from", r.From)
	form.Set("to", r.To)

	endpoint := c.baseURL + innerScanPath
	c.log.Debug("innerscan request",
		zap.String("url", endpoint),
		zap.String("params", redactedForm(form)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build innerscan request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("innerscan request failed", zap.Error(err))
		return nil, domain.ErrNetwork
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read innerscan response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error("innerscan request rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, domain.ErrUnauthorized
		}
		return nil, &domain.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	c.log.Debug("innerscan response", zap.ByteString("body", body))

	var payload innerScanResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode innerscan response: %w", err)
	}
	return toWeightRecords(payload.Data)
}

// tokenError maps a failure to obtain an access token onto the same
// taxonomy as the data endpoint. A refresh rejected with 400 or 401 means
// the grant itself is bad.
func (c *Client) tokenError(err error) error {
	c.log.Error("access token unavailable", zap.Error(err))
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		switch code := re.Response.StatusCode; {
		case code == http.StatusBadRequest, code == http.StatusUnauthorized:
			return domain.ErrUnauthorized
		case code >= 200 && code <= 299:
			// An OAuth2 error body on a 2xx status.
			return domain.ErrUnauthorized
		default:
			return &domain.StatusError{StatusCode: re.Response.StatusCode, Body: string(re.Body)}
		}
	}
	var ue *url.Error
	var ne net.Error
	if errors.As(err, &ue) || errors.As(err, &ne) {
		return domain.ErrNetwork
	}
	return fmt.Errorf("obtain access token: %w", err)
}

func redactedForm(form url.Values) string {
	safe := url.Values{}
	for k, v := range form {
		safe[k] = v
	}
	if safe.Get("access_token") != "" {
		safe.Set("access_token", "REDACTED")
	}
	return safe.Encode()
}
