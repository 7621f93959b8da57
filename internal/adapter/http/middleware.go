package adapthttp

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"myweight/internal/app"
	"myweight/internal/domain"
)

// authMiddleware requires a bearer token accepted by one of the configured
// verifiers. With none configured every request passes.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := s.auth.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			if !errors.Is(err, app.ErrMissingToken) && !errors.Is(err, app.ErrInvalidToken) {
				s.log.Error("authenticate request", zap.Error(err))
			}
			s.log.Debug("rejected request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Error(err),
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="myweight"`)
			writeError(w, http.StatusUnauthorized, errUnauthorized)
			return
		}

		ctx := domain.WithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

var errUnauthorized = errors.New("unauthorized")

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// loggingMiddleware logs one line per request once the response is done.
// Event streams are logged when the client disconnects.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []zap.Field{
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		}
		if status >= http.StatusInternalServerError {
			s.log.Error("http request", fields...)
			return
		}
		s.log.Info("http request", fields...)
	})
}
