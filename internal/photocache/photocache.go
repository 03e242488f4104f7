// Package photocache implements a SQLite-backed, content-hash-keyed
// cache of parsed photometry tables: callers compute a
// CanonicalPhotometry's Hash() after parsing and Put the table's stable
// JSON under that hash; Get returns the stored blob.
package photocache

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"luxera/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

// Cache is the photometry content-address cache interface.
type Cache interface {
	// Get returns the stable-JSON blob stored under hash, if present.
	Get(hash string) ([]byte, bool, error)
	// Put stores blob under hash, overwriting any existing entry.
	Put(hash string, blob []byte) error
	Health() map[string]string
	Close() error
	GetDB() *sql.DB
}

type cache struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite-backed cache at path and
// ensures its schema exists.
func Open(path string) (Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("photocache: open %s: %w", path, err)
	}
	c := &cache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("photocache: migrate: %w", err)
	}
	return c, nil
}

func (c *cache) migrate() error {
	_, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS photometry_cache (
		content_hash TEXT PRIMARY KEY,
		canonical_json BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func (c *cache) Get(hash string) ([]byte, bool, error) {
	var blob []byte
	err := c.db.QueryRow(`SELECT canonical_json FROM photometry_cache WHERE content_hash = ?`, hash).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("photocache: get %s: %w", hash, err)
	}
	return blob, true, nil
}

func (c *cache) Put(hash string, blob []byte) error {
	_, err := c.db.Exec(`INSERT INTO photometry_cache (content_hash, canonical_json) VALUES (?, ?)
		ON CONFLICT(content_hash) DO UPDATE SET canonical_json = excluded.canonical_json`, hash, blob)
	if err != nil {
		return fmt.Errorf("photocache: put %s: %w", hash, err)
	}
	return nil
}

func (c *cache) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	stats := make(map[string]string)
	if err := c.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		logger.Default.Errorf("photocache: db down: %v", err)
		return stats
	}
	stats["status"] = "up"
	dbStats := c.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	return stats
}

func (c *cache) Close() error {
	return c.db.Close()
}

func (c *cache) GetDB() *sql.DB {
	return c.db
}
