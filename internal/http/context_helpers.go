package httpx

import (
	"context"

	domainauth "github.com/orderdesk/orderdesk/internal/domain/auth"
)

// sessionKey keys the authenticated session in request contexts. All
// handlers and middleware in this package share it.
type sessionKey struct{}

// SetSessionInContext returns a child context carrying the given session,
// or ctx unchanged when session is nil.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetUserSessionFromContext returns the session and whether one is present.
func GetUserSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*domainauth.Session)
	return session, ok && session != nil
}

// GetSessionFromContext returns the session, or nil when absent. Prefer
// GetUserSessionFromContext when the caller branches on presence.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	session, _ := GetUserSessionFromContext(ctx)
	return session
}

// IsGuestUser reports whether the request is unauthenticated or carries a
// guest session.
func IsGuestUser(ctx context.Context) bool {
	session, ok := GetUserSessionFromContext(ctx)
	return !ok || session.IsGuest()
}
