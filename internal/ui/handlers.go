package ui

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bengalcodingacademy-dev/admin/internal/apiclient"
	"github.com/bengalcodingacademy-dev/admin/internal/session"
)

// proxiedHeaders are copied from the operator's request to the backend.
var proxiedHeaders = []string{"Content-Type", "Accept"}

// HandleLogin renders the login page. A dashboard session that has ended
// hands over its pending notice here and is then discarded.
func (ui *UI) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var notice string
	if sess := ui.sessions.GetSessionFromRequest(r); sess != nil {
		snap := sess.Controller.Snapshot()
		if !snap.Loading && snap.User != nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		// Already on the login screen; a pending redirect here is spent.
		sess.Flash.TakeRedirect()
		notice = sess.Flash.TakeMessage()
		if !snap.Loading {
			ui.sessions.DeleteSession(sess.ID)
			ClearSessionCookie(w)
		}
	}

	data := map[string]any{
		"Title":  "Login - BCA Admin",
		"Error":  r.URL.Query().Get("error"),
		"Notice": notice,
		"Email":  r.URL.Query().Get("email"),
	}
	ui.render(w, http.StatusOK, "login", data)
}

// HandleLoginPost performs the credential exchange in a new dashboard
// session and adopts it. The browser's previous session, if any, is dropped.
func (ui *UI) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectLoginError(w, r, "Invalid request", "")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if old := ui.sessions.GetSessionFromRequest(r); old != nil {
		ui.sessions.DeleteSession(old.ID)
	}

	sess, err := ui.sessions.CreateSession(r.Context())
	if err != nil {
		ui.logger.Error("create dashboard session", "error", err)
		ClearSessionCookie(w)
		redirectLoginError(w, r, "Login failed", email)
		return
	}

	// Nothing to restore in a fresh jar; this closes the bootstrap gate and
	// arms the failure handler before the session is adopted.
	sess.Controller.Initialize(r.Context())

	res, err := sess.Client.Login(r.Context(), email, password)
	if err == nil {
		err = sess.Controller.Login(*res)
	}
	if err != nil {
		ui.sessions.DeleteSession(sess.ID)
		ClearSessionCookie(w)
		ui.logger.Warn("login failed", "email", email, "error", err)
		redirectLoginError(w, r, loginErrorMessage(err), email)
		return
	}

	SetSessionCookie(w, sess, r.TLS != nil)
	ui.logger.Info("operator logged in", "user", res.User.DisplayName())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func redirectLoginError(w http.ResponseWriter, r *http.Request, msg, email string) {
	q := url.Values{"error": {msg}}
	if email != "" {
		q.Set("email", email)
	}
	http.Redirect(w, r, session.LoginPath+"?"+q.Encode(), http.StatusSeeOther)
}

func loginErrorMessage(err error) string {
	var se *apiclient.StatusError
	switch {
	case errors.Is(err, apiclient.ErrNotAdmin):
		return "Not an admin"
	case errors.Is(err, apiclient.ErrInvalidInput):
		return "Email and password are required"
	case errors.As(err, &se):
		if se.Message != "" && se.StatusCode < http.StatusInternalServerError {
			return se.Message
		}
		return "Login failed"
	default:
		return "Backend unavailable"
	}
}

// HandleLogout ends the browser's dashboard session and returns to the
// login page.
func (ui *UI) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := ui.sessions.GetSessionFromRequest(r); sess != nil {
		user := sess.Controller.User()
		sess.Controller.Logout(r.Context())
		ui.sessions.DeleteSession(sess.ID)
		if user != nil {
			ui.logger.Info("operator logged out", "user", user.DisplayName())
		}
	}

	ClearSessionCookie(w)
	http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
}

// HandleDashboard renders the home page with the operator summary.
func (ui *UI) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	data := map[string]any{
		"Title":     "Dashboard - BCA Admin",
		"User":      UserFromContext(r.Context()),
		"ExpiresAt": sess.Controller.ExpiresAt(),
		"Backend":   sess.Client.BaseURL(),
		"StartTime": ui.startTime,
	}
	ui.render(w, http.StatusOK, "dashboard", data)
}

// HandleAPIProxy forwards /api/* to the backend through the HTTP client, so
// authentication failures reach the session controller. Status and body are
// relayed; when the controller asked for a redirect it is passed on as an
// HX-Redirect header.
func (ui *UI) HandleAPIProxy(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	path := strings.TrimPrefix(r.URL.Path, "/api")
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	var body io.Reader
	if r.ContentLength != 0 {
		body = r.Body
	}
	req, err := sess.Client.NewRequest(r.Context(), r.Method, path, body)
	if err != nil {
		ui.renderError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, h := range proxiedHeaders {
		if v := r.Header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := sess.Client.Send(req)
	if target := sess.Flash.TakeRedirect(); target != "" {
		w.Header().Set("HX-Redirect", target)
	}

	if err != nil {
		var se *apiclient.StatusError
		if errors.As(err, &se) {
			if se.ContentType != "" {
				w.Header().Set("Content-Type", se.ContentType)
			}
			w.WriteHeader(se.StatusCode)
			w.Write(se.Body)
			return
		}
		ui.logger.Warn("backend request failed", "path", path, "error", err)
		http.Error(w, "Backend unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		ui.logger.Debug("relay response", "path", path, "error", err)
	}
}
