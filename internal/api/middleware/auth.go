package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mkarls/gatekeeper/internal/api/apierr"
	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/services/auth"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	sessionContextKey  contextKey = "session"
)

// Auth creates authentication middleware requiring a signed-in Discord
// identity
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := validate(authService, r)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}
			if session.Identity == nil {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
		})
	}
}

// AdminAuth creates middleware requiring an admin session
func AdminAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := validate(authService, r)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}
			if !session.IsAdmin() {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
		})
	}
}

func validate(authService *auth.Service, r *http.Request) (*auth.Session, error) {
	token := extractToken(r)
	if token == "" {
		return nil, apierr.NewUnauthorizedError()
	}
	return authService.ValidateSession(token)
}

func withSession(ctx context.Context, session *auth.Session) context.Context {
	ctx = context.WithValue(ctx, sessionContextKey, session)
	if session.Identity != nil {
		ctx = context.WithValue(ctx, identityContextKey, session.Identity)
	}
	return ctx
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// Fall back to cookie
	cookie, err := r.Cookie("session")
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetIdentity returns the authenticated Discord identity from the request context
func GetIdentity(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityContextKey).(*model.Identity)
	return identity
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// MustGetIdentity returns the authenticated identity or panics
func MustGetIdentity(ctx context.Context) *model.Identity {
	identity := GetIdentity(ctx)
	if identity == nil {
		panic("no identity in context - auth middleware not applied?")
	}
	return identity
}
