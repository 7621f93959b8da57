package adapthttp_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	adapthttp "myweight/internal/adapter/http"
	adaptmcp "myweight/internal/adapter/mcp"
	"myweight/internal/app"
	"myweight/internal/config"
	"myweight/internal/domain"
)

// ---------------------------------------------------------------------------
// Mocks (function-fields pattern)
// ---------------------------------------------------------------------------

type mockWeightSource struct {
	fetchFn func(ctx context.Context, r domain.DateRange) ([]domain.WeightRecord, error)
}

func (m *mockWeightSource) FetchWeights(ctx context.Context, r domain.DateRange) ([]domain.WeightRecord, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, r)
	}
	return nil, nil
}

type staticVerifier struct {
	token   string
	subject string
}

func (v staticVerifier) Name() string { return "static" }

func (v staticVerifier) Verify(_ context.Context, token string) (*domain.Principal, error) {
	if token != v.token {
		return nil, errors.New("no match")
	}
	return &domain.Principal{Subject: v.subject}, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newServer(t *testing.T, transport string, src domain.WeightSource, verifiers ...domain.TokenVerifier) *adapthttp.Server {
	t.Helper()
	if src == nil {
		src = &mockWeightSource{}
	}
	mcpSrv, err := adaptmcp.NewServer(app.NewWeightService(src), zap.NewNop(), "test")
	if err != nil {
		t.Fatalf("mcp server: %v", err)
	}
	s, err := adapthttp.New(mcpSrv, app.NewAuthService(verifiers...), zap.NewNop(), adapthttp.Options{
		Transport: transport,
		BaseURL:   "http://localhost:8080",
	})
	if err != nil {
		t.Fatalf("http server: %v", err)
	}
	return s
}

func rpc(id int, method string, params any) []byte {
	b, _ := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": id, "method": method, "params": params})
	return b
}

var initializeParams = map[string]any{
	"protocolVersion": "2025-03-26",
	"capabilities":    map[string]any{},
	"clientInfo":      map[string]any{"name": "test-client", "version": "1.0.0"},
}

func postMCP(t *testing.T, h http.Handler, body []byte, token, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestNew_RejectsUnknownTransport(t *testing.T) {
	mcpSrv, err := adaptmcp.NewServer(app.NewWeightService(&mockWeightSource{}), nil, "test")
	if err != nil {
		t.Fatalf("mcp server: %v", err)
	}
	if _, err := adapthttp.New(mcpSrv, nil, nil, adapthttp.Options{Transport: "stdio"}); err == nil {
		t.Fatal("expected error for stdio transport")
	}
}

func TestHealth_NoAuthRequired(t *testing.T) {
	h := newServer(t, config.TransportHTTP, nil, staticVerifier{token: "secret"}).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("body = %v", body)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("content type = %q", w.Header().Get("Content-Type"))
	}
}

func TestMCP_Unauthorized(t *testing.T) {
	h := newServer(t, config.TransportHTTP, nil, staticVerifier{token: "secret"}).Handler()

	for _, token := range []string{"", "wrong"} {
		w := postMCP(t, h, rpc(1, "initialize", initializeParams), token, "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("token %q: status = %d", token, w.Code)
		}
		if !strings.HasPrefix(w.Header().Get("WWW-Authenticate"), "Bearer") {
			t.Fatalf("missing WWW-Authenticate header: %v", w.Header())
		}
		if strings.TrimSpace(w.Body.String()) != `{"error":"unauthorized"}` {
			t.Fatalf("body = %s", w.Body.String())
		}
	}
}

func TestMCP_StreamableFetch(t *testing.T) {
	src := &mockWeightSource{
		fetchFn: func(ctx context.Context, r domain.DateRange) ([]domain.WeightRecord, error) {
			p, ok := domain.PrincipalFromContext(ctx)
			if !ok || p.Subject != "alice" {
				return nil, errors.New("principal missing from context")
			}
			return []domain.WeightRecord{{Date: "2024/01/01", Weight: 50.5}}, nil
		},
	}
	h := newServer(t, config.TransportHTTP, src, staticVerifier{token: "secret", subject: "alice"}).Handler()

	w := postMCP(t, h, rpc(1, "initialize", initializeParams), "secret", "")
	if w.Code != http.StatusOK {
		t.Fatalf("initialize status = %d body=%s", w.Code, w.Body.String())
	}
	sessionID := w.Header().Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("missing Mcp-Session-Id")
	}

	w = postMCP(t, h, rpc(2, "tools/call", map[string]any{
		"name":      "fetchInnerScanData",
		"arguments": map[string]any{"from": "20240101000000", "to": "20240131235959"},
	}), "secret", sessionID)
	if w.Code != http.StatusOK {
		t.Fatalf("tools/call status = %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v (%s)", err, w.Body.String())
	}
	if len(resp.Result.Content) != 1 {
		t.Fatalf("content = %+v", resp.Result.Content)
	}
	want := "[\n  {\n    \"date\": \"2024/01/01\",\n    \"weight\": 50.5\n  }\n]"
	if resp.Result.Content[0].Text != want {
		t.Fatalf("text = %q", resp.Result.Content[0].Text)
	}
}

func TestMCP_OpenWithoutVerifiers(t *testing.T) {
	h := newServer(t, config.TransportHTTP, nil).Handler()

	w := postMCP(t, h, rpc(1, "initialize", initializeParams), "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newServer(t, config.TransportHTTP, nil, staticVerifier{token: "secret"}).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	req.Header.Set("Origin", "https://inspector.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code == http.StatusUnauthorized {
		t.Fatal("preflight must not require auth")
	}
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("missing CORS headers: %v", w.Header())
	}
}

func TestSSE_EndpointEvent(t *testing.T) {
	s := newServer(t, config.TransportSSE, nil, staticVerifier{token: "secret"})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	// Unauthenticated stream is refused.
	resp, err := http.Get(ts.URL + "/sse")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sse", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	reader := bufio.NewReader(resp.Body)
	var data string
	for data == "" {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
	if !strings.Contains(data, "/message?sessionId=") {
		t.Fatalf("endpoint event = %q", data)
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := newServer(t, config.TransportHTTP, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(adapthttp.ShutdownTimeout):
		t.Fatal("server did not shut down")
	}
}

func TestServe_ShutdownEndsOpenStream(t *testing.T) {
	s := newServer(t, config.TransportHTTP, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	initReq, _ := http.NewRequest(http.MethodPost, base+"/mcp", bytes.NewReader(rpc(1, "initialize", initializeParams)))
	initReq.Header.Set("Content-Type", "application/json")
	initResp, err := http.DefaultClient.Do(initReq)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	_ = initResp.Body.Close()
	sessionID := initResp.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("initialize returned no session id")
	}

	streamReq, _ := http.NewRequest(http.MethodGet, base+"/mcp", nil)
	streamReq.Header.Set("Accept", "text/event-stream")
	streamReq.Header.Set("Mcp-Session-Id", sessionID)
	stream, err := http.DefaultClient.Do(streamReq)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer func() { _ = stream.Body.Close() }()
	if ct := stream.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("stream Content-Type = %q", ct)
	}

	start := time.Now()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(adapthttp.ShutdownTimeout):
		t.Fatal("server did not shut down")
	}
	if elapsed := time.Since(start); elapsed > adapthttp.ShutdownTimeout/2 {
		t.Fatalf("shutdown took %v with an open stream", elapsed)
	}
}
