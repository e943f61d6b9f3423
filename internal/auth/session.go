package auth

import (
	"context"
	"strings"
)

// Session is the authenticated identity attached to a request: the acting
// ledger account, the app it authorized, and the granted operation scope.
type Session struct {
	User  string
	Proxy string
	Role  string
	Scope []string
}

// SessionFromClaims builds a request session out of verified token claims.
func SessionFromClaims(claims *Claims) Session {
	return Session{
		User:  strings.TrimSpace(claims.Subject),
		Proxy: claims.Proxy,
		Role:  claims.Role,
		Scope: claims.Scope,
	}
}

type sessionContextKey struct{}

// ContextWithSession attaches the authenticated session to the context.
func ContextWithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, &session)
}

// SessionFromContext extracts the authenticated session from the context.
func SessionFromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	v, ok := ctx.Value(sessionContextKey{}).(*Session)
	if !ok || v == nil {
		return Session{}, false
	}
	return *v, true
}
