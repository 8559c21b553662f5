package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if dbPath == ":memory:" {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
		now:    time.Now,
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// --- Cookies ---

// LoadCookies returns the stored cookies that have not expired.
func (s *SQLiteStore) LoadCookies(ctx context.Context) ([]*http.Cookie, error) {
	s.logger.Debug("sql", "op", "select", "table", "cookies")

	now := s.now().Unix()
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value, domain, path, expires, secure, http_only, same_site
		 FROM cookies WHERE expires = 0 OR expires > ?
		 ORDER BY name, domain, path`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cookies []*http.Cookie
	for rows.Next() {
		var c http.Cookie
		var expires int64
		var secure, httpOnly, sameSite int
		if err := rows.Scan(&c.Name, &c.Value, &c.Domain, &c.Path, &expires, &secure, &httpOnly, &sameSite); err != nil {
			return nil, err
		}
		if expires > 0 {
			c.Expires = time.Unix(expires, 0).UTC()
		}
		c.Secure = secure != 0
		c.HttpOnly = httpOnly != 0
		c.SameSite = http.SameSite(sameSite)
		cookies = append(cookies, &c)
	}
	return cookies, rows.Err()
}

// SaveCookies upserts cookies keyed by name, domain and path. Cookies the
// backend deletes (negative Max-Age or an expiry in the past) are removed.
func (s *SQLiteStore) SaveCookies(ctx context.Context, cookies []*http.Cookie) error {
	s.logger.Debug("sql", "op", "upsert", "table", "cookies", "count", len(cookies))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := s.now()
	for _, c := range cookies {
		expires := cookieExpiry(c, now)
		if expires < 0 {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM cookies WHERE name = ? AND domain = ? AND path = ?`,
				c.Name, c.Domain, c.Path); err != nil {
				return fmt.Errorf("delete cookie %s: %w", c.Name, err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cookies (name, value, domain, path, expires, secure, http_only, same_site, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(name, domain, path) DO UPDATE SET
			   value = excluded.value, expires = excluded.expires, secure = excluded.secure,
			   http_only = excluded.http_only, same_site = excluded.same_site, updated_at = excluded.updated_at`,
			c.Name, c.Value, c.Domain, c.Path, expires, boolInt(c.Secure), boolInt(c.HttpOnly), int(c.SameSite),
			now.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("save cookie %s: %w", c.Name, err)
		}
	}
	return tx.Commit()
}

// ClearCookies removes every stored cookie.
func (s *SQLiteStore) ClearCookies(ctx context.Context) error {
	s.logger.Debug("sql", "op", "delete", "table", "cookies")
	_, err := s.db.ExecContext(ctx, `DELETE FROM cookies`)
	return err
}

// cookieExpiry returns the unix expiry of c: 0 for a session cookie and -1
// for a cookie that is already gone.
func cookieExpiry(c *http.Cookie, now time.Time) int64 {
	switch {
	case c.MaxAge < 0:
		return -1
	case c.MaxAge > 0:
		return now.Add(time.Duration(c.MaxAge) * time.Second).Unix()
	case c.Expires.IsZero():
		return 0
	case !c.Expires.After(now):
		return -1
	default:
		return c.Expires.Unix()
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
