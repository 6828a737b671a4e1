// Package jobstore persists Job records, their event streams, and the
// idempotency (key → response) cache a server needs to satisfy spec §4.2's
// deduplication requirement. It is a reference backing store an ESRP
// service embeds; the kernel itself does not require it.
package jobstore

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// DefaultIdempotencyRetention is used when Config.IdempotencyRetention is
// left at its zero value. Spec §4.2 only requires retention of at least
// mode.timeout_ms; servers that want a longer window should set
// Config.IdempotencyRetention explicitly rather than rely on this default.
const DefaultIdempotencyRetention = 24 * time.Hour

// Config holds construction-time options for Store.
type Config struct {
	// IdempotencyRetention is how long a cached (idempotency_key →
	// response) mapping is kept before PruneExpired may remove it. The
	// spec leaves this an explicit open question (retention must be at
	// least mode.timeout_ms, but no upper bound is given); callers should
	// set this rather than rely on the package default.
	IdempotencyRetention time.Duration
}

// Store provides durable SQLite-backed storage for jobs, job events, and
// the idempotency cache.
type Store struct {
	db     *sql.DB
	config Config
}

// Open creates or opens a SQLite database at path, applying pragmas and
// schema migrations. Idempotent: safe to call multiple times against the
// same path.
func Open(path string, config Config) (*Store, error) {
	if config.IdempotencyRetention <= 0 {
		config.IdempotencyRetention = DefaultIdempotencyRetention
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("jobstore: open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("jobstore: connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("jobstore: apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("jobstore: apply schema: %w", err)
	}

	slog.Debug("jobstore opened", "path", path, "idempotency_retention", config.IdempotencyRetention)
	return &Store{db: db, config: config}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying *sql.DB for callers that need direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}
