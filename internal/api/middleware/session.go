package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/campusconnect/server/internal/api/problem"
	"github.com/campusconnect/server/internal/auth"
)

// SessionCookieName holds the session token issued after sign-in.
const SessionCookieName = "campusconnect_session"

const principalKey contextKey = "principal"

// SessionValidator is implemented by auth.SessionManager.
type SessionValidator interface {
	Validate(token string) (*auth.Principal, error)
}

// Session loads the principal from the session cookie or a Bearer header
// when one is present and valid. It never rejects a request.
func Session(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validator == nil {
				next.ServeHTTP(w, r)
				return
			}
			token := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			principal, err := validator.Validate(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireSession rejects requests that Session did not authenticate.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFrom(r.Context()); !ok {
			problem.Unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ContextWithPrincipal(ctx context.Context, principal *auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// PrincipalFrom returns the signed-in principal for the request, if any.
func PrincipalFrom(ctx context.Context) (*auth.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(*auth.Principal)
	return principal, ok && principal != nil
}

func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value)
	}
	if token, err := auth.TokenFromHeader(r.Header.Get("Authorization")); err == nil {
		return token
	}
	return ""
}
