package adapthttp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"myweight/internal/app"
	"myweight/internal/config"
)

// ShutdownTimeout bounds graceful shutdown after the serve context ends.
const ShutdownTimeout = 10 * time.Second

// Options configures the HTTP adapter.
type Options struct {
	// Transport is config.TransportSSE or config.TransportHTTP.
	Transport string
	// BaseURL is the public URL clients reach the server on; the SSE
	// transport advertises message endpoints under it.
	BaseURL     string
	CORSOrigins []string
}

// Server is the driving HTTP adapter that exposes the MCP server over SSE
// or streamable HTTP.
type Server struct {
	mcp  *server.MCPServer
	auth *app.AuthService
	log  *zap.Logger
	opts Options

	httpSrv *http.Server
	sse     *server.SSEServer

	// streams is cancelled at shutdown to end open event streams.
	streams     context.Context
	stopStreams context.CancelFunc
}

// New creates a Server. auth may have no verifiers, in which case the MCP
// routes are open.
func New(mcpSrv *server.MCPServer, auth *app.AuthService, log *zap.Logger, opts Options) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if auth == nil {
		auth = app.NewAuthService()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	s := &Server{mcp: mcpSrv, auth: auth, log: log, opts: opts, httpSrv: &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
	}}
	s.streams, s.stopStreams = context.WithCancel(context.Background())

	switch opts.Transport {
	case config.TransportSSE:
		s.sse = server.NewSSEServer(mcpSrv,
			server.WithBaseURL(opts.BaseURL),
			server.WithKeepAlive(true),
			server.WithHTTPServer(s.httpSrv),
		)
	case config.TransportHTTP:
	default:
		return nil, fmt.Errorf("unsupported http transport %q", opts.Transport)
	}
	s.httpSrv.Handler = s.Handler()
	return s, nil
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Mcp-Session-Id", "Last-Event-ID"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		if s.sse != nil {
			r.With(s.endOnShutdown).Get("/sse", s.sse.SSEHandler().ServeHTTP)
			r.Post("/message", s.sse.MessageHandler().ServeHTTP)
			return
		}
		streamable := server.NewStreamableHTTPServer(s.mcp)
		r.With(s.endOnShutdown).Get("/mcp", streamable.ServeHTTP)
		r.Post("/mcp", streamable.ServeHTTP)
		r.Delete("/mcp", streamable.ServeHTTP)
	})
	return r
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.auth.Enabled() {
		s.log.Warn("no bearer verifier configured; MCP endpoints are unauthenticated")
	}
	s.log.Info("http transport listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("transport", s.opts.Transport),
		zap.Strings("auth", s.auth.Methods()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	s.log.Info("shutting down http transport")
	if err := s.shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) shutdown(ctx context.Context) error {
	s.stopStreams()
	if s.sse != nil {
		// Closes open event streams, then the http.Server.
		return s.sse.Shutdown(ctx)
	}
	return s.httpSrv.Shutdown(ctx)
}

// endOnShutdown cancels the request context of a long-lived stream once the
// server starts shutting down. http.Server.Shutdown waits for handlers to
// return but never cancels them.
func (s *Server) endOnShutdown(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		stop := context.AfterFunc(s.streams, cancel)
		defer stop()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
