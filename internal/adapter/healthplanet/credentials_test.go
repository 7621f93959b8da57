package healthplanet_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"myweight/internal/adapter/healthplanet"
)

// newTokenEndpoint fakes /oauth/token and hands the posted forms to the test.
func newTokenEndpoint(t *testing.T, response string) (*httptest.Server, func() []url.Values) {
	t.Helper()
	var (
		mu    sync.Mutex
		forms []url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/token" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		forms = append(forms, r.PostForm)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []url.Values {
		mu.Lock()
		defer mu.Unlock()
		return append([]url.Values(nil), forms...)
	}
}

func TestTokenSource_Static(t *testing.T) {
	creds := healthplanet.Credentials{AccessToken: "static-token"}
	ts, err := creds.TokenSource(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tok, err := ts.Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.AccessToken != "static-token" {
		t.Fatalf("access token = %q", tok.AccessToken)
	}
}

func TestTokenSource_NoCredentials(t *testing.T) {
	_, err := healthplanet.Credentials{ClientID: "id"}.TokenSource(context.Background(), nil)
	if !errors.Is(err, healthplanet.ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

func TestTokenSource_RefreshesOnFirstUse(t *testing.T) {
	srv, forms := newTokenEndpoint(t, `{"access_token":"fresh-token","token_type":"Bearer","expires_in":2592000,"refresh_token":"next-refresh"}`)
	creds := healthplanet.Credentials{
		BaseURL:      srv.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AccessToken:  "stale-token",
		RefreshToken: "refresh-token",
	}
	if !creds.Refreshable() {
		t.Fatal("expected credentials to be refreshable")
	}

	ts, err := creds.TokenSource(context.Background(), srv.Client())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 2; i++ {
		tok, err := ts.Token()
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		if tok.AccessToken != "fresh-token" {
			t.Fatalf("access token = %q; want fresh-token", tok.AccessToken)
		}
	}

	got := forms()
	if len(got) != 1 {
		t.Fatalf("expected one refresh, got %d", len(got))
	}
	f := got[0]
	if f.Get("grant_type") != "refresh_token" || f.Get("refresh_token") != "refresh-token" {
		t.Fatalf("unexpected refresh form: %v", f)
	}
	if f.Get("client_id") != "client-id" || f.Get("client_secret") != "client-secret" {
		t.Fatalf("client credentials should be sent in params: %v", f)
	}
}

func TestAuthCodeURL(t *testing.T) {
	creds := healthplanet.Credentials{ClientID: "client-id"}
	raw := creds.AuthCodeURL("state-1")

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	if u.Host != "www.healthplanet.jp" || u.Path != "/oauth/auth" {
		t.Fatalf("unexpected endpoint: %s", raw)
	}
	q := u.Query()
	want := map[string]string{
		"client_id":     "client-id",
		"redirect_uri":  "https://www.healthplanet.jp/success.html",
		"scope":         "innerscan",
		"response_type": "code",
		"state":         "state-1",
	}
	for k, v := range want {
		if q.Get(k) != v {
			t.Errorf("%s = %q; want %q", k, q.Get(k), v)
		}
	}
}

func TestExchange(t *testing.T) {
	srv, forms := newTokenEndpoint(t, `{"access_token":"new-access","token_type":"Bearer","expires_in":2592000,"refresh_token":"new-refresh"}`)
	creds := healthplanet.Credentials{
		BaseURL:      srv.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}

	tok, err := creds.Exchange(context.Background(), "  the-code\n")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if tok.AccessToken != "new-access" || tok.RefreshToken != "new-refresh" {
		t.Fatalf("unexpected token: %+v", tok)
	}
	got := forms()
	if len(got) != 1 || got[0].Get("grant_type") != "authorization_code" || got[0].Get("code") != "the-code" {
		t.Fatalf("unexpected exchange form: %v", got)
	}
}
