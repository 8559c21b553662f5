package ui

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/bengalcodingacademy-dev/admin/internal/session"
)

// UI handles the web dashboard. Every browser gets its own dashboard
// session, so operators never share backend credentials.
type UI struct {
	sessions  *SessionManager
	logger    *slog.Logger
	startTime time.Time
}

// New creates a new UI handler.
func New(sessions *SessionManager, logger *slog.Logger) *UI {
	return &UI{
		sessions:  sessions,
		logger:    logger.With("component", "ui"),
		startTime: time.Now(),
	}
}

// Sessions returns the dashboard session manager.
func (ui *UI) Sessions() *SessionManager {
	return ui.sessions
}

// ControllerFromRequest returns the session controller of the request's
// dashboard session, or nil.
func (ui *UI) ControllerFromRequest(r *http.Request) *session.Controller {
	if sess := ui.sessions.GetSessionFromRequest(r); sess != nil {
		return sess.Controller
	}
	return nil
}

func (ui *UI) render(w http.ResponseWriter, status int, name string, data map[string]any) {
	var buf bytes.Buffer
	if err := renderTemplate(&buf, name, data); err != nil {
		ui.logger.Error("template render failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (ui *UI) renderError(w http.ResponseWriter, status int, message string) {
	data := map[string]any{
		"Title":   "Error - BCA Admin",
		"Message": message,
	}
	ui.render(w, status, "error", data)
}
