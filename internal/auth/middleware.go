package auth

import (
	"log/slog"
	"net/http"

	"github.com/jewelms/jewelms/internal/platform/httpx"
	"github.com/jewelms/jewelms/internal/shared"
)

// Middleware resolves bearer sessions and enforces role checks.
type Middleware struct {
	logger   *slog.Logger
	sessions *shared.SessionManager
}

// NewMiddleware constructs the auth middleware.
func NewMiddleware(logger *slog.Logger, sessions *shared.SessionManager) Middleware {
	return Middleware{logger: logger, sessions: sessions}
}

// Authenticate loads the session, if any, into the request context. It
// never rejects; route groups apply RequireRole for that.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.sessions.Load(r.Context(), r)
		if err == nil {
			r = r.WithContext(shared.ContextWithSession(r.Context(), sess))
		} else if err != shared.ErrNoSession {
			m.logger.Warn("session load", slog.Any("error", err))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests whose session role is not in the allowed
// set. An absent session yields 401, a wrong role 403.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			if _, ok := allowed[sess.Role]; !ok {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
