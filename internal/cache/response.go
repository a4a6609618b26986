// Package cache holds the durable per-title response cache and a small
// in-memory TTL cache.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zonamobi/zonamobi/internal/database"
)

// SchemaVersion is the payload format version stored alongside every row.
// Bumping it discards the whole cache on next open; there is no partial
// migration of stored payloads.
const SchemaVersion = 1

// DefaultTTL is the entry lifetime when none is configured.
const DefaultTTL = 48 * time.Hour

// Config holds response cache settings.
type Config struct {
	TTL time.Duration
}

// Entry is one cached payload keyed by (TitleID, Season). Season 0 means
// "no season" and is used for movies and series roots.
type Entry struct {
	TitleID  string
	Season   int
	Payload  []byte
	StoredAt time.Time
}

// Option configures a ResponseCache.
type Option func(*ResponseCache)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *ResponseCache) {
		c.now = now
	}
}

// ResponseCache stores raw upstream detail payloads in SQLite.
type ResponseCache struct {
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time
	mu     sync.Mutex // serializes writers
	logger zerolog.Logger
}

// Open prepares the cache on an open database: it applies table migrations,
// enforces the schema version gate and sweeps expired rows.
func Open(ctx context.Context, db *database.DB, cfg Config, logger zerolog.Logger, opts ...Option) (*ResponseCache, error) {
	if err := db.Migrate(ctx); err != nil {
		return nil, err
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &ResponseCache{
		db:     db.Conn(),
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With().Str("component", "cache").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.Migrate(ctx); err != nil {
		return nil, err
	}
	if _, err := c.Sweep(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// TTL returns the configured entry lifetime.
func (c *ResponseCache) TTL() time.Duration {
	return c.ttl
}

// Migrate compares the stored version marker with SchemaVersion. A missing
// or different marker drops every row and rewrites the marker.
func (c *ResponseCache) Migrate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stored int
	err := c.db.QueryRowContext(ctx, `SELECT version FROM cache_version WHERE id = 1`).Scan(&stored)
	switch {
	case err == nil && stored == SchemaVersion:
		return nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to read cache version: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM details`)
	if err != nil {
		return fmt.Errorf("failed to drop stale entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_version (id, version) VALUES (1, ?)`, SchemaVersion); err != nil {
		return fmt.Errorf("failed to write cache version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache version: %w", err)
	}

	dropped, _ := res.RowsAffected()
	c.logger.Info().
		Int("from", stored).
		Int("to", SchemaVersion).
		Int64("dropped", dropped).
		Msg("Cache schema version changed, entries discarded")
	return nil
}

func (c *ResponseCache) cutoff() int64 {
	return c.now().Add(-c.ttl).UnixNano()
}

// Get returns the payload for (titleID, season). Entries older than the TTL
// are reported absent even if the sweep has not removed them yet.
func (c *ResponseCache) Get(ctx context.Context, titleID string, season int) ([]byte, bool, error) {
	var (
		payload  []byte
		storedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT data, stored_at FROM details WHERE name_id = ? AND season = ? AND schema_version = ?`,
		titleID, season, SchemaVersion).Scan(&payload, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if storedAt <= c.cutoff() {
		return nil, false, nil
	}
	return payload, true, nil
}

// Put upserts one payload, stamping the current time.
func (c *ResponseCache) Put(ctx context.Context, titleID string, season int, payload []byte) error {
	return c.PutMany(ctx, []Entry{{TitleID: titleID, Season: season, Payload: payload}})
}

// PutMany upserts entries in a single transaction. Entries without a
// StoredAt are stamped with the current time.
func (c *ResponseCache) PutMany(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO details (name_id, season, data, stored_at, schema_version) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := c.now()
	for _, e := range entries {
		storedAt := e.StoredAt
		if storedAt.IsZero() {
			storedAt = now
		}
		if _, err := stmt.ExecContext(ctx, e.TitleID, e.Season, e.Payload, storedAt.UnixNano(), SchemaVersion); err != nil {
			return fmt.Errorf("failed to store %s/%d: %w", e.TitleID, e.Season, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entries: %w", err)
	}
	return nil
}

// Sweep deletes entries older than the TTL and returns how many were removed.
func (c *ResponseCache) Sweep(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.ExecContext(ctx, `DELETE FROM details WHERE stored_at <= ?`, c.cutoff())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep cache: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		c.logger.Debug().Int64("removed", n).Msg("Swept expired cache entries")
	}
	return n, nil
}

// Clear deletes every entry.
func (c *ResponseCache) Clear(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.ExecContext(ctx, `DELETE FROM details`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Len returns the number of stored rows, expired or not.
func (c *ResponseCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM details`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}
