package store

import (
	"context"
	"net/http"
)

// Store persists client state between bcaadmin invocations.
type Store interface {
	// Cookies set by the backend, replayed on the next run.
	LoadCookies(ctx context.Context) ([]*http.Cookie, error)
	SaveCookies(ctx context.Context, cookies []*http.Cookie) error
	ClearCookies(ctx context.Context) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
