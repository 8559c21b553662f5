package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// CookieStore persists backend cookies between processes.
type CookieStore interface {
	LoadCookies(ctx context.Context) ([]*http.Cookie, error)
	SaveCookies(ctx context.Context, cookies []*http.Cookie) error
	ClearCookies(ctx context.Context) error
}

// sessionJar is an http.CookieJar that can be swapped for a fresh one and
// mirrors cookies set by the backend into an optional CookieStore.
type sessionJar struct {
	base  *url.URL
	store CookieStore

	mu  sync.RWMutex
	jar *cookiejar.Jar
}

var _ http.CookieJar = (*sessionJar)(nil)

func newSessionJar(baseURL string, store CookieStore) (*sessionJar, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	jar, err := newJar()
	if err != nil {
		return nil, err
	}
	return &sessionJar{base: base, store: store, jar: jar}, nil
}

func newJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return jar, nil
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.jar.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}

// load seeds the jar from the store.
func (j *sessionJar) load(ctx context.Context) error {
	if j.store == nil {
		return nil
	}
	cookies, err := j.store.LoadCookies(ctx)
	if err != nil {
		return err
	}
	if len(cookies) > 0 {
		j.SetCookies(j.base, cookies)
	}
	return nil
}

// persist mirrors Set-Cookie headers of resp into the store.
func (j *sessionJar) persist(ctx context.Context, resp *http.Response) error {
	if j.store == nil {
		return nil
	}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return nil
	}
	return j.store.SaveCookies(ctx, cookies)
}

// reset replaces the jar with an empty one and clears the store.
func (j *sessionJar) reset(ctx context.Context) error {
	jar, err := newJar()
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()

	if j.store == nil {
		return nil
	}
	if err := j.store.ClearCookies(ctx); err != nil {
		return fmt.Errorf("clear stored cookies: %w", err)
	}
	return nil
}
