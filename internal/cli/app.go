package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/bengalcodingacademy-dev/admin/internal/apiclient"
	"github.com/bengalcodingacademy-dev/admin/internal/server"
	"github.com/bengalcodingacademy-dev/admin/internal/session"
	"github.com/bengalcodingacademy-dev/admin/internal/store"
)

// app bundles the state store, the HTTP client and the session controller
// for one command invocation.
type app struct {
	store   *store.SQLiteStore
	client  *apiclient.Client
	session *session.Controller
}

// openApp opens the state store and builds the client and controller.
// nav and notifier may be nil.
func openApp(ctx context.Context, nav session.Navigator, notifier session.Notifier) (*app, error) {
	st, err := store.NewSQLiteStore(cfg.StatePath(), logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate state: %w", err)
	}

	client, err := apiclient.New(ctx, clientOptions(st))
	if err != nil {
		st.Close()
		return nil, err
	}

	opts := []session.Option{session.WithLogger(logger)}
	if nav != nil {
		opts = append(opts, session.WithNavigator(nav))
	}
	if notifier != nil {
		opts = append(opts, session.WithNotifier(notifier))
	}

	return &app{
		store:   st,
		client:  client,
		session: session.New(client, opts...),
	}, nil
}

// clientOptions returns the client settings from the loaded config. cookies
// may be nil for an in-memory jar.
func clientOptions(cookies apiclient.CookieStore) apiclient.Options {
	return apiclient.Options{
		BaseURL:   cfg.APIBase,
		LoginPath: cfg.LoginPath,
		Timeout:   cfg.Timeout,
		UserAgent: "bcaadmin/" + server.Version,
		Cookies:   cookies,
		Logger:    logger,
	}
}

func (a *app) Close() error {
	return a.store.Close()
}

// terminal is the CLI's Navigator and Notifier. Notices are printed; a
// redirect to the login screen is remembered so the command can tell the
// operator to sign in again.
type terminal struct {
	w io.Writer

	mu         sync.Mutex
	redirected string
}

func newTerminal(w io.Writer) *terminal {
	return &terminal{w: w}
}

func (t *terminal) Navigate(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.redirected = path
	logger.Debug("navigate", "path", path)
}

func (t *terminal) Notify(message string) {
	fmt.Fprintln(t.w, message)
}

// SessionEnded reports whether the controller sent the operator to the
// login screen.
func (t *terminal) SessionEnded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.redirected == session.LoginPath
}
