package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bengalcodingacademy-dev/admin/internal/apiclient"
	"github.com/bengalcodingacademy-dev/admin/pkg/model"
)

// fakeBackend records the order of calls the controller makes.
type fakeBackend struct {
	mu        sync.Mutex
	user      *model.User
	whoErr    error
	logoutErr error
	whoBlock  chan struct{} // when set, WhoAmI waits for it to close
	calls     []string
	handler   apiclient.AuthFailureHandler

	// loadingAtGate records the controller's loading flag when the gate closed.
	ctrl          *Controller
	loadingAtGate bool
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeBackend) WhoAmI(context.Context) (*model.User, error) {
	f.record("whoami")
	if f.whoBlock != nil {
		<-f.whoBlock
	}
	return f.user, f.whoErr
}

func (f *fakeBackend) Logout(context.Context) error {
	f.record("logout")
	return f.logoutErr
}

func (f *fakeBackend) ResetCredentials(context.Context) error {
	f.record("reset")
	return nil
}

func (f *fakeBackend) MarkBootstrapComplete() {
	if f.ctrl != nil {
		f.loadingAtGate = f.ctrl.Loading()
	}
	f.record("bootstrap")
}

func (f *fakeBackend) RegisterAuthFailureHandler(h apiclient.AuthFailureHandler) {
	f.record("register")
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
}

func (f *fakeBackend) fail(msg string) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(model.AuthFailure{Message: msg})
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type screen struct {
	mu      sync.Mutex
	paths   []string
	notices []string
}

func (s *screen) Navigate(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
}

func (s *screen) Notify(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, msg)
}

func newTestController(b *fakeBackend) (*Controller, *screen) {
	s := &screen{}
	c := New(b, WithNavigator(s), WithNotifier(s))
	b.ctrl = c
	return c, s
}

var admin = &model.User{ID: "u1", Name: "Alice", Role: model.RoleAdmin}

func TestInitialState(t *testing.T) {
	c, _ := newTestController(&fakeBackend{})
	s := c.Snapshot()
	assert.Equal(t, model.StatusInitializing, s.Status)
	assert.True(t, s.Loading)
	assert.Nil(t, s.User)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		user       *model.User
		err        error
		wantStatus model.SessionStatus
		wantUser   bool
	}{
		{"admin", admin, nil, model.StatusAuthenticated, true},
		{"non-admin", &model.User{ID: "u2", Role: "STUDENT"}, nil, model.StatusUnauthenticated, false},
		{"unauthorized", nil, &apiclient.StatusError{StatusCode: http.StatusUnauthorized}, model.StatusUnauthenticated, false},
		{"network error", nil, errors.New("connection refused"), model.StatusUnauthenticated, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{user: tt.user, whoErr: tt.err}
			c, scr := newTestController(b)
			c.Initialize(context.Background())

			s := c.Snapshot()
			assert.Equal(t, tt.wantStatus, s.Status)
			assert.False(t, s.Loading)
			assert.Equal(t, tt.wantUser, s.User != nil)
			if s.User != nil {
				assert.True(t, s.User.IsAdmin())
			}
			assert.Equal(t, []string{"whoami", "bootstrap", "register"}, b.callLog())
			assert.False(t, b.loadingAtGate, "loading must be cleared before the gate closes")
			assert.Empty(t, scr.paths, "startup never navigates")
		})
	}
}

func TestInitializeOnce(t *testing.T) {
	b := &fakeBackend{user: admin}
	c, _ := newTestController(b)
	c.Initialize(context.Background())
	c.Initialize(context.Background())
	assert.Equal(t, []string{"whoami", "bootstrap", "register"}, b.callLog())
	require.NoError(t, c.Wait(context.Background()))
}

func TestWaitHonorsContext(t *testing.T) {
	c, _ := newTestController(&fakeBackend{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.DeadlineExceeded)
}

func TestLogin(t *testing.T) {
	b := &fakeBackend{}
	c, _ := newTestController(b)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Initialize(context.Background())

	require.NoError(t, c.Login(model.LoginResult{User: admin, ExpiresInSec: 900}))
	s := c.Snapshot()
	assert.Equal(t, model.StatusAuthenticated, s.Status)
	assert.Equal(t, "u1", s.User.ID)
	assert.Equal(t, now.Add(15*time.Minute), c.ExpiresAt())
	assert.Equal(t, []string{"whoami", "bootstrap", "register"}, b.callLog(), "login makes no backend call")
}

func TestLoginRejectsNonAdmin(t *testing.T) {
	for _, result := range []model.LoginResult{
		{User: &model.User{ID: "u2", Role: "STUDENT"}},
		{},
	} {
		b := &fakeBackend{user: admin}
		c, _ := newTestController(b)
		c.Initialize(context.Background())

		err := c.Login(result)
		assert.ErrorIs(t, err, ErrNotAdmin)
		s := c.Snapshot()
		assert.Equal(t, model.StatusAuthenticated, s.Status)
		assert.Equal(t, "u1", s.User.ID)
	}
}

func TestLogout(t *testing.T) {
	for _, backendErr := range []error{nil, errors.New("server down")} {
		b := &fakeBackend{user: admin, logoutErr: backendErr}
		c, scr := newTestController(b)
		c.Initialize(context.Background())

		c.Logout(context.Background())
		s := c.Snapshot()
		assert.Equal(t, model.StatusUnauthenticated, s.Status)
		assert.Nil(t, s.User)
		assert.Equal(t, []string{LoginPath}, scr.paths)
		assert.Equal(t, []string{"whoami", "bootstrap", "register", "logout", "reset"}, b.callLog())
	}
}

func TestLogoutIdempotent(t *testing.T) {
	b := &fakeBackend{user: admin}
	c, scr := newTestController(b)
	c.Initialize(context.Background())

	c.Logout(context.Background())
	c.Logout(context.Background())
	assert.Nil(t, c.User())
	assert.Equal(t, []string{LoginPath, LoginPath}, scr.paths)
	assert.Empty(t, scr.notices)
}

func TestAuthFailure(t *testing.T) {
	tests := []struct {
		name        string
		message     string
		wantNotices []string
	}{
		{"expired", model.SessionExpiredMessage, []string{model.SessionExpiredMessage}},
		{"revoked", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{user: admin}
			c, scr := newTestController(b)
			c.Initialize(context.Background())

			b.fail(tt.message)
			assert.Nil(t, c.User())
			assert.Equal(t, model.StatusUnauthenticated, c.Snapshot().Status)
			assert.Equal(t, []string{LoginPath}, scr.paths)
			assert.Equal(t, tt.wantNotices, scr.notices)
		})
	}
}

func TestSubscribe(t *testing.T) {
	b := &fakeBackend{user: admin}
	c, _ := newTestController(b)
	ch, cancel := c.Subscribe()

	c.Initialize(context.Background())
	got := <-ch
	assert.Equal(t, model.StatusAuthenticated, got.Status)

	b.fail("")
	got = <-ch
	assert.Equal(t, model.StatusUnauthenticated, got.Status)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
}

// Startup 401s against a real client never reach the controller; a later
// TOKEN_EXPIRED does, with the expiry notice.
func TestEndToEndWithClient(t *testing.T) {
	var mu sync.Mutex
	loggedIn := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.URL.Path {
		case "/me/summary":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"TOKEN_EXPIRED"}`))
		case "/auth/login":
			loggedIn = true
			_, _ = w.Write([]byte(`{"user":{"id":"u1","name":"Alice","role":"ADMIN"},"expiresInSec":60}`))
		case "/admin/courses":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"TOKEN_EXPIRED"}`))
		}
	}))
	defer srv.Close()

	client, err := apiclient.New(context.Background(), apiclient.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	scr := &screen{}
	c := New(client, WithNavigator(scr), WithNotifier(scr))

	c.Initialize(context.Background())
	assert.Equal(t, model.StatusUnauthenticated, c.Snapshot().Status)
	assert.Empty(t, scr.paths)
	assert.Empty(t, scr.notices)

	res, err := client.Login(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, c.Login(*res))
	assert.Equal(t, model.StatusAuthenticated, c.Snapshot().Status)

	err = client.Get(context.Background(), "/admin/courses", nil)
	assert.True(t, apiclient.IsTokenExpired(err))
	assert.Equal(t, model.StatusUnauthenticated, c.Snapshot().Status)
	assert.Equal(t, []string{LoginPath}, scr.paths)
	assert.Equal(t, []string{model.SessionExpiredMessage}, scr.notices)

	mu.Lock()
	assert.True(t, loggedIn)
	mu.Unlock()
}

func TestLoginDuringStartupCheckWins(t *testing.T) {
	for _, tt := range []struct {
		name string
		user *model.User
		err  error
	}{
		{"check fails", nil, errors.New("connection refused")},
		{"check unauthorized", nil, &apiclient.StatusError{StatusCode: http.StatusUnauthorized}},
		{"check returns another admin", &model.User{ID: "u2", Name: "Bob", Role: model.RoleAdmin}, nil},
	} {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{user: tt.user, whoErr: tt.err, whoBlock: make(chan struct{})}
			c, _ := newTestController(b)

			done := make(chan struct{})
			go func() {
				c.Initialize(context.Background())
				close(done)
			}()

			require.NoError(t, c.Login(model.LoginResult{User: admin, ExpiresInSec: 60}))
			assert.Equal(t, model.StatusAuthenticated, c.Snapshot().Status)

			close(b.whoBlock)
			<-done

			s := c.Snapshot()
			assert.Equal(t, model.StatusAuthenticated, s.Status)
			require.NotNil(t, s.User)
			assert.Equal(t, "u1", s.User.ID)
			assert.False(t, c.ExpiresAt().IsZero())
			assert.Equal(t, []string{"whoami", "bootstrap", "register"}, b.callLog())
		})
	}
}
