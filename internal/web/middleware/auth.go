package middleware

import (
	"context"
	"net/http"

	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/services/auth"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	sessionContextKey  contextKey = "session"
)

// GetIdentity retrieves the authenticated Discord identity from the
// request context. Returns nil if no identity is signed in.
func GetIdentity(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityContextKey).(*model.Identity)
	return identity
}

// GetSession retrieves the portal session from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// Auth returns middleware that requires a signed-in Discord identity.
// Redirects to the home page if not signed in.
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sessionFromCookie(r, authService)
			if session == nil || session.Identity == nil {
				http.Redirect(w, r, "/?next="+r.URL.Path, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
		})
	}
}

// AdminAuth returns middleware that requires an admin session.
// Redirects to the admin login page if not signed in as an admin.
func AdminAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sessionFromCookie(r, authService)
			if session == nil || !session.IsAdmin() {
				http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
		})
	}
}

// OptionalAuth returns middleware that attempts authentication but
// doesn't require it
func OptionalAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if session := sessionFromCookie(r, authService); session != nil {
				ctx = withSession(ctx, session)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func withSession(ctx context.Context, session *auth.Session) context.Context {
	ctx = context.WithValue(ctx, sessionContextKey, session)
	if session.Identity != nil {
		ctx = context.WithValue(ctx, identityContextKey, session.Identity)
	}
	return ctx
}

func sessionFromCookie(r *http.Request, authService *auth.Service) *auth.Session {
	cookie, err := r.Cookie("session")
	if err != nil {
		return nil
	}

	session, err := authService.ValidateSession(cookie.Value)
	if err != nil {
		return nil
	}

	return session
}
