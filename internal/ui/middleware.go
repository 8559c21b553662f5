package ui

import (
	"context"
	"net/http"

	"github.com/bengalcodingacademy-dev/admin/internal/session"
	"github.com/bengalcodingacademy-dev/admin/pkg/model"
)

// Context keys for session data.
type contextKey string

const (
	sessionContextKey contextKey = "session"
	userContextKey    contextKey = "user"
)

// SessionFromContext retrieves the dashboard session stored by SessionGuard.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey).(*Session)
	return sess
}

// UserFromContext retrieves the session user stored by SessionGuard.
func UserFromContext(ctx context.Context) *model.User {
	u, _ := ctx.Value(userContextKey).(*model.User)
	return u
}

// SessionGuard gates protected routes on the request's dashboard session.
// Without a session cookie, or without a user, the request is redirected to
// the login screen. While the startup check is in flight no decision is made
// and a waiting page is served.
func (ui *UI) SessionGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := ui.sessions.GetSessionFromRequest(r)
		if sess == nil {
			redirectToLogin(w, r)
			return
		}

		snap := sess.Controller.Snapshot()
		if snap.Loading {
			w.Header().Set("Retry-After", "1")
			ui.render(w, http.StatusServiceUnavailable, "loading", map[string]any{
				"Title":   "Loading - BCA Admin",
				"Refresh": 1,
			})
			return
		}
		if snap.User == nil {
			redirectToLogin(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		ctx = context.WithValue(ctx, userContextKey, snap.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", session.LoginPath)
	}
	http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
}
