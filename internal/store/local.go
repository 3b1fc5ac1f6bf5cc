// Package store caches extracted expansions and survey runs in SQLite.
//
// The cache is keyed by (numerator, denominator, base) exactly as requested,
// so 2/4 and 1/2 are separate rows. Every expansion read back is re-checked
// with Verify before it is returned.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, registered as "sqlite"

	"repetend/internal/logging"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var (
	// ErrNotFound is returned when the requested row is not cached.
	ErrNotFound = errors.New("not found in store")
	// ErrCorrupt is returned when a cached expansion fails verification.
	ErrCorrupt = errors.New("corrupt cache entry")
)

// LocalStore is the SQLite cache.
type LocalStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open initializes the SQLite database at path, creating the parent
// directory and schema as needed.
func Open(path string) (*LocalStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	logging.Store("Opening store at %s", path)

	if path != MemoryPath {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			logging.Get(logging.CategoryStore).Error("Failed to create directory %s: %v", dir, err)
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if path != MemoryPath {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
		}
	}

	s := &LocalStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("Store ready (schema v%d)", GetSchemaVersion(db))
	return s, nil
}

// initialize creates the current schema.
func (s *LocalStore) initialize() error {
	expansions := `
	CREATE TABLE IF NOT EXISTS expansions (
		numerator TEXT NOT NULL,
		denominator TEXT NOT NULL,
		base INTEGER NOT NULL,
		negative INTEGER NOT NULL DEFAULT 0,
		integer_part TEXT NOT NULL,
		preperiod TEXT NOT NULL,
		period TEXT NOT NULL,
		period_length INTEGER NOT NULL,
		terminates INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		hit_count INTEGER NOT NULL DEFAULT 0,
		last_accessed INTEGER,
		PRIMARY KEY (numerator, denominator, base)
	);
	CREATE INDEX IF NOT EXISTS idx_expansions_length ON expansions(base, period_length);
	`

	runs := `
	CREATE TABLE IF NOT EXISTS survey_runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		base INTEGER NOT NULL DEFAULT 10,
		params TEXT NOT NULL,
		results TEXT NOT NULL,
		result_count INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_survey_runs_started ON survey_runs(started_at);
	`

	for _, ddl := range []string{expansions, runs} {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logging.StoreDebug("Closing store %s", s.dbPath)
	return s.db.Close()
}

// Path returns the database location.
func (s *LocalStore) Path() string {
	return s.dbPath
}

// GetDB exposes the underlying handle.
func (s *LocalStore) GetDB() *sql.DB {
	return s.db
}
