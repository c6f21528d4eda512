package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/rsheridan/inkwell/internal/auth"
	"github.com/rsheridan/inkwell/internal/store"
)

// SessionCookieName is the admin session cookie. The value is an opaque
// random token validated against the sessions table.
const SessionCookieName = "worker_admin"

// RequireSession validates the worker_admin cookie and populates the
// request context with the admin's identity. Admin routes are JSON APIs,
// so failures answer 401 rather than redirecting.
func RequireSession(sessions *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{
				Email:        sess.Email,
				SessionToken: sess.Token,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
