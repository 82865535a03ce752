package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	sessionCookie = "fm_session"
	sessionHeader = "X-Session-Id"
	sessionMaxAge = 30 * 24 * 60 * 60 // seconds
	maxSessionLen = 128
)

type sessionKey struct{}

// SessionMiddleware attaches a listening session id to the request context.
// Clients may send their own through X-Session-Id; otherwise a cookie is
// issued on first contact.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := r.Header.Get(sessionHeader)
		if sid == "" {
			if c, err := r.Cookie(sessionCookie); err == nil {
				sid = c.Value
			}
		}
		if sid == "" || len(sid) > maxSessionLen {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   sessionMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sid)))
	})
}

// SessionFromContext returns the session id set by SessionMiddleware.
func SessionFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey{}).(string)
	return sid
}
