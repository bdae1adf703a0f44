package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"novai-server/internal/domain/model"
	"novai-server/internal/infra/logging"
	"novai-server/internal/infra/metrics"
)

type ctxKey string

const ctxIdentity ctxKey = "identity"

// identityFrom returns the authenticated identity placed by requireSession.
func identityFrom(ctx context.Context) (*model.Identity, bool) {
	id, ok := ctx.Value(ctxIdentity).(*model.Identity)
	return id, ok
}

// requireSession resolves the session cookie to an identity and injects it
// into the request context. Anything else is a 401 before any downstream
// state is touched.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _, err := s.sessionFrom(r)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Not authorized")
			return
		}
		ctx := context.WithValue(r.Context(), ctxIdentity, identity)
		ctx = logging.WithUsername(ctx, identity.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom reads the cookie and resolves it; the token is returned too so
// logout can destroy it.
func (s *Server) sessionFrom(r *http.Request) (*model.Identity, string, error) {
	c, err := r.Cookie(s.cookieName)
	if err != nil {
		return nil, "", err
	}
	identity, err := s.sessions.Get(r.Context(), c.Value)
	if err != nil {
		return nil, "", err
	}
	return identity, c.Value, nil
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.code = code
	rec.ResponseWriter.WriteHeader(code)
}

// requestLogger logs each request with a request id and records the HTTP
// metrics under the chi route pattern so path parameters don't explode the
// label space.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		ctx := logging.WithRequestID(r.Context(), uuid.NewString())

		next.ServeHTTP(rec, r.WithContext(ctx))

		elapsed := time.Since(start)
		path := r.URL.Path
		if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		metrics.ObserveHTTPRequest(path, r.Method, rec.code, elapsed.Milliseconds())
		logging.With(ctx, s.log).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.code).
			Dur("duration", elapsed).
			Msg("request")
	})
}
