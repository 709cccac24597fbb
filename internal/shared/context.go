package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession attaches the authenticated session to the request
// context. Handlers never see the session type directly; they go
// through ActorID or the role gate.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the request session, or nil when the
// request is anonymous.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ActorID returns the authenticated user id, or empty for anonymous.
// Audit rows and created_by columns take this value.
func ActorID(ctx context.Context) string {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return ""
	}
	return sess.UserID
}
