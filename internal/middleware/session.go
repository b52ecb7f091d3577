package middleware

import (
	"context"
	"net/http"

	"github.com/zhouzirui/datachat/internal/service/session"
)

type sessionKey struct{}

// Session resolves the browser session from its cookie, creating a new one
// when the cookie is missing or points at an expired session.
func Session(store *session.Store, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cookieName); err == nil {
				if _, err := store.Info(r.Context(), c.Value); err == nil {
					id = c.Value
				}
			}

			if id == "" {
				info, _ := store.Create(r.Context())
				id = info.ID
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
		})
	}
}

// WithSessionID stores id in ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionID returns the session resolved by Session, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
