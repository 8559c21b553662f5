// Package session owns the operator's client-side session: the startup
// "who am I" check, login adoption, logout and recovery from authentication
// failures reported by the HTTP client.
package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bengalcodingacademy-dev/admin/internal/apiclient"
	"github.com/bengalcodingacademy-dev/admin/pkg/model"
)

// ErrNotAdmin is returned by Login for a payload without an admin user.
var ErrNotAdmin = apiclient.ErrNotAdmin

// Backend is the part of the HTTP client the controller drives.
type Backend interface {
	WhoAmI(ctx context.Context) (*model.User, error)
	Logout(ctx context.Context) error
	ResetCredentials(ctx context.Context) error
	MarkBootstrapComplete()
	RegisterAuthFailureHandler(h apiclient.AuthFailureHandler)
}

// Controller is the session state machine:
//
//	INITIALIZING --(admin user)--> AUTHENTICATED
//	INITIALIZING --(error or non-admin)--> UNAUTHENTICATED
//	AUTHENTICATED --(logout or auth failure)--> UNAUTHENTICATED
//	UNAUTHENTICATED --(login)--> AUTHENTICATED
type Controller struct {
	backend  Backend
	nav      Navigator
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	initOnce sync.Once
	ready    chan struct{}

	mu        sync.Mutex
	user      *model.User
	loading   bool
	expiresAt time.Time
	subs      map[int]chan model.SessionState
	nextSub   int
}

// Option configures a Controller.
type Option func(*Controller)

// WithNavigator sets the navigation target for redirects.
func WithNavigator(n Navigator) Option {
	return func(c *Controller) { c.nav = n }
}

// WithNotifier sets where blocking notices go.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a controller in the INITIALIZING state.
func New(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:  backend,
		nav:      nopNavigator{},
		notifier: nopNotifier{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		ready:    make(chan struct{}),
		loading:  true,
		subs:     make(map[int]chan model.SessionState),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "session")
	return c
}

// Initialize runs the startup check once. Later calls return immediately.
// When the check settles, loading is cleared, then the bootstrap gate is
// closed, then the failure handler is armed. A session adopted by Login while
// the check was in flight is kept.
func (c *Controller) Initialize(ctx context.Context) {
	c.initOnce.Do(func() {
		user, err := c.backend.WhoAmI(ctx)
		switch {
		case err != nil:
			c.logger.Debug("startup check failed", "error", err)
			user = nil
		case !user.IsAdmin():
			c.logger.Info("startup check returned a non-admin account", "role", string(user.Role))
			user = nil
		default:
			c.logger.Info("session restored", "user", user.DisplayName())
		}

		c.mu.Lock()
		adopted := !c.loading
		if !adopted {
			c.user = user
			c.loading = false
		}
		state := c.snapshotLocked()
		c.mu.Unlock()
		if adopted {
			c.logger.Debug("startup check settled after login; keeping the login")
		} else {
			c.publish(state)
		}

		c.backend.MarkBootstrapComplete()
		c.backend.RegisterAuthFailureHandler(c.handleAuthFailure)
		close(c.ready)
	})
}

// Wait blocks until Initialize has settled or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login adopts the user of a successful credential exchange without another
// round trip. A result without an admin user is rejected and the state is
// left unchanged.
func (c *Controller) Login(result model.LoginResult) error {
	if !result.User.IsAdmin() {
		return ErrNotAdmin
	}
	user := *result.User

	c.mu.Lock()
	c.user = &user
	c.loading = false
	c.expiresAt = result.ExpiresAt(c.now())
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("logged in", "user", user.DisplayName())
	c.publish(state)
	return nil
}

// Logout asks the backend to end the session, ignoring any failure, then
// clears the local session and navigates to the login screen. Safe to call
// when already logged out.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.backend.Logout(ctx); err != nil {
		c.logger.Debug("backend logout failed", "error", err)
	}
	c.clear()
	if err := c.backend.ResetCredentials(ctx); err != nil {
		c.logger.Warn("reset credentials", "error", err)
	}
	c.nav.Navigate(LoginPath)
}

// handleAuthFailure is registered with the HTTP client after startup.
func (c *Controller) handleAuthFailure(failure model.AuthFailure) {
	c.logger.Info("session ended by backend", "code", string(failure.Code))
	c.clear()
	c.nav.Navigate(LoginPath)
	if failure.Message != "" {
		c.notifier.Notify(failure.Message)
	}
}

func (c *Controller) clear() {
	c.mu.Lock()
	c.user = nil
	c.loading = false
	c.expiresAt = time.Time{}
	state := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(state)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() model.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// User returns a copy of the session user, or nil.
func (c *Controller) User() *model.User {
	return c.Snapshot().User
}

// Loading reports whether the startup check is still in flight.
func (c *Controller) Loading() bool {
	return c.Snapshot().Loading
}

// ExpiresAt returns the expiry hint of the last login, or the zero time.
func (c *Controller) ExpiresAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiresAt
}

func (c *Controller) snapshotLocked() model.SessionState {
	s := model.SessionState{Loading: c.loading}
	switch {
	case c.loading:
		s.Status = model.StatusInitializing
	case c.user != nil:
		s.Status = model.StatusAuthenticated
	default:
		s.Status = model.StatusUnauthenticated
	}
	if c.user != nil {
		u := *c.user
		s.User = &u
	}
	return s
}

// Subscribe returns a channel receiving every state change and a function
// that cancels the subscription. Slow receivers miss intermediate states.
func (c *Controller) Subscribe() (<-chan model.SessionState, func()) {
	ch := make(chan model.SessionState, 4)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}

func (c *Controller) publish(state model.SessionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- state:
		default:
		}
	}
}
