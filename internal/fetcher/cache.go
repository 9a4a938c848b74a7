package fetcher

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pfrederiksen/comp-scout/internal/logger"
	_ "modernc.org/sqlite"
)

// Cache stores fetched markup in SQLite so repeated runs within the TTL do
// not hit the source sites again. Only successful fetches are stored.
type Cache struct {
	db      *sql.DB
	ttl     time.Duration
	now     func() time.Time
	metrics *logger.Metrics
}

// NewCache opens (or creates) the cache database at dbPath.
func NewCache(dbPath string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS pages (
			url TEXT NOT NULL,
			kind TEXT NOT NULL,
			body TEXT NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (url, kind)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache table: %w", err)
	}

	return &Cache{db: db, ttl: ttl, now: time.Now, metrics: logger.DefaultMetrics()}, nil
}

// Get returns a fresh cached page.
func (c *Cache) Get(ctx context.Context, req Request) (string, bool) {
	var body string
	var fetchedAt int64

	err := c.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM pages WHERE url = ? AND kind = ?`,
		req.URL, string(req.Kind),
	).Scan(&body, &fetchedAt)
	if err != nil {
		return "", false
	}

	if c.now().Sub(time.Unix(fetchedAt, 0)) > c.ttl {
		return "", false
	}
	return body, true
}

// Set stores a page, replacing any older copy.
func (c *Cache) Set(ctx context.Context, req Request, body string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO pages (url, kind, body, fetched_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(url, kind)
		 DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		req.URL, string(req.Kind), body, c.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("storing %s in cache: %w", req.URL, err)
	}
	return nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Wrap returns a Fetcher that serves from the cache and fills it on a miss.
func (c *Cache) Wrap(next Fetcher) Fetcher {
	return Func(func(ctx context.Context, req Request) (string, error) {
		if body, ok := c.Get(ctx, req); ok {
			c.metrics.IncrCounter("cache.hit")
			logger.Debug("Cache hit", logger.Fields{"url": req.URL})
			return body, nil
		}
		c.metrics.IncrCounter("cache.miss")

		body, err := next.Fetch(ctx, req)
		if err != nil {
			return "", err
		}
		if err := c.Set(ctx, req, body); err != nil {
			logger.Warn("Failed to cache page", logger.Fields{"url": req.URL, "error": err.Error()})
		}
		return body, nil
	})
}
