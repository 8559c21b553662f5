package ui

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bengalcodingacademy-dev/admin/internal/session"
	"github.com/bengalcodingacademy-dev/admin/pkg/model"
)

const (
	// SessionCookieName is the name of the dashboard session cookie.
	SessionCookieName = "bcaadmin_session"
	// SessionDuration is the longest a dashboard session lives. A shorter
	// backend expiry hint wins.
	SessionDuration = 12 * time.Hour
)

// Client is the HTTP client one dashboard session drives: the session
// controller's backend plus what the handlers need.
type Client interface {
	session.Backend
	BaseURL() string
	Login(ctx context.Context, email, password string) (*model.LoginResult, error)
	NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error)
	Send(req *http.Request) (*http.Response, error)
}

// ClientFactory builds a client with an empty cookie jar.
type ClientFactory func(ctx context.Context) (Client, error)

// Session is one browser's dashboard session. It owns its backend
// credentials, its session controller and its pending flash.
type Session struct {
	ID         string
	Client     Client
	Controller *session.Controller
	Flash      *Flash
	CreatedAt  time.Time
}

// ExpiresAt returns when the dashboard session ends.
func (s *Session) ExpiresAt() time.Time {
	exp := s.CreatedAt.Add(SessionDuration)
	if hint := s.Controller.ExpiresAt(); !hint.IsZero() && hint.Before(exp) {
		exp = hint
	}
	return exp
}

// SessionManager keeps dashboard sessions in memory, keyed by the random ID
// carried in the session cookie.
type SessionManager struct {
	newClient ClientFactory
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates a new session manager.
func NewSessionManager(newClient ClientFactory, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		newClient: newClient,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// CreateSession starts a dashboard session with a fresh client. The session
// controller is not initialized.
func (sm *SessionManager) CreateSession(ctx context.Context) (*Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	client, err := sm.newClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}

	flash := NewFlash()
	sess := &Session{
		ID:     sessionID,
		Client: client,
		Controller: session.New(client,
			session.WithNavigator(flash),
			session.WithNotifier(flash),
			session.WithLogger(sm.logger),
		),
		Flash:     flash,
		CreatedAt: sm.now(),
	}

	sm.CleanupExpiredSessions()

	sm.mu.Lock()
	sm.sessions[sessionID] = sess
	sm.mu.Unlock()
	return sess, nil
}

// GetSession returns the session with the given ID, or nil if it does not
// exist or has expired.
func (sm *SessionManager) GetSession(sessionID string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sess, ok := sm.sessions[sessionID]
	if !ok {
		return nil
	}
	if !sm.now().Before(sess.ExpiresAt()) {
		delete(sm.sessions, sessionID)
		return nil
	}
	return sess
}

// DeleteSession forgets a session. Its backend credentials go with it.
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, sessionID)
}

// CleanupExpiredSessions removes all expired sessions and returns how many
// were removed.
func (sm *SessionManager) CleanupExpiredSessions() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := sm.now()
	removed := 0
	for id, sess := range sm.sessions {
		if !now.Before(sess.ExpiresAt()) {
			delete(sm.sessions, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}

// GetSessionFromRequest extracts the session from the request cookie.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil // No cookie, no session
	}
	return sm.GetSession(cookie.Value)
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, sess *Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  sess.ExpiresAt(),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// generateSessionID generates a cryptographically secure random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "sess_" + hex.EncodeToString(b), nil
}
