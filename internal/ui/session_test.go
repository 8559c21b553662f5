package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bengalcodingacademy-dev/admin/pkg/model"
)

func TestSessionManager_CreateAndGet(t *testing.T) {
	h := newHarness(t, "ADMIN")
	sm := h.sessions

	sess, err := sm.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if !strings.HasPrefix(sess.ID, "sess_") || len(sess.ID) != len("sess_")+64 {
		t.Errorf("unexpected session ID %q", sess.ID)
	}
	if sess.Client == nil || sess.Controller == nil || sess.Flash == nil {
		t.Fatal("session is missing its client, controller or flash")
	}
	if !sess.Controller.Loading() {
		t.Error("new session should still be loading")
	}

	if got := sm.GetSession(sess.ID); got != sess {
		t.Errorf("GetSession returned %p, want %p", got, sess)
	}

	other, err := sm.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if other.ID == sess.ID || other.Client == sess.Client {
		t.Error("sessions share an ID or a client")
	}
	if sm.Count() != 2 {
		t.Errorf("Count = %d, want 2", sm.Count())
	}
}

func TestSessionManager_GetSession_NotFound(t *testing.T) {
	h := newHarness(t, "ADMIN")
	if sess := h.sessions.GetSession("nonexistent"); sess != nil {
		t.Error("expected nil session for nonexistent ID")
	}
}

func TestSessionManager_GetSession_Expired(t *testing.T) {
	h := newHarness(t, "ADMIN")
	sm := h.sessions
	now := time.Now()
	sm.now = func() time.Time { return now }

	sess, err := sm.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	now = now.Add(SessionDuration - time.Minute)
	if sm.GetSession(sess.ID) == nil {
		t.Fatal("session expired early")
	}

	now = now.Add(2 * time.Minute)
	if sm.GetSession(sess.ID) != nil {
		t.Error("expected nil for expired session")
	}
	if sm.Count() != 0 {
		t.Errorf("expired session kept, Count = %d", sm.Count())
	}
}

func TestSessionManager_BackendExpiryWins(t *testing.T) {
	h := newHarness(t, "ADMIN")
	sm := h.sessions

	sess, err := sm.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	sess.Controller.Initialize(context.Background())
	admin := &model.User{ID: "u1", Name: "Alice", Role: model.RoleAdmin}
	if err := sess.Controller.Login(model.LoginResult{User: admin, ExpiresInSec: 60}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if sess.ExpiresAt().After(time.Now().Add(time.Minute)) {
		t.Errorf("ExpiresAt = %v, want the backend's 60s hint", sess.ExpiresAt())
	}

	later := time.Now().Add(2 * time.Minute)
	sm.now = func() time.Time { return later }
	if sm.GetSession(sess.ID) != nil {
		t.Error("session outlived the backend expiry")
	}
}

func TestSessionManager_CleanupExpiredSessions(t *testing.T) {
	h := newHarness(t, "ADMIN")
	sm := h.sessions
	now := time.Now()
	sm.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if _, err := sm.CreateSession(context.Background()); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	now = now.Add(SessionDuration + time.Second)
	if n := sm.CleanupExpiredSessions(); n != 2 {
		t.Errorf("removed %d sessions, want 2", n)
	}

	// Creating a session sweeps expired ones too.
	old, _ := sm.CreateSession(context.Background())
	now = now.Add(SessionDuration + time.Second)
	fresh, _ := sm.CreateSession(context.Background())
	if sm.Count() != 1 || sm.GetSession(old.ID) != nil || sm.GetSession(fresh.ID) == nil {
		t.Errorf("sweep on create failed, Count = %d", sm.Count())
	}
}

func TestSessionCookies(t *testing.T) {
	h := newHarness(t, "ADMIN")
	sess, err := h.sessions.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	w := httptest.NewRecorder()
	SetSessionCookie(w, sess, true)
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookieName || c.Value != sess.ID || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode {
		t.Errorf("cookie = %+v", c)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.ID})
	if got := h.sessions.GetSessionFromRequest(req); got != sess {
		t.Error("GetSessionFromRequest did not find the session")
	}
	if got := h.sessions.GetSessionFromRequest(httptest.NewRequest(http.MethodGet, "/", nil)); got != nil {
		t.Error("expected nil session without a cookie")
	}

	w = httptest.NewRecorder()
	ClearSessionCookie(w)
	cleared := w.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("cleared cookie = %+v", cleared)
	}
}
