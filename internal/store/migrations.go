package store

import (
	"database/sql"
	"fmt"

	"repetend/internal/logging"
)

// Schema versions:
// v1: expansions and survey_runs tables
// v2: hit_count and last_accessed on expansions, base on survey_runs
const CurrentSchemaVersion = 2

// Migration defines a column added after v1.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations handle databases whose tables predate newer columns.
var pendingMigrations = []Migration{
	{"expansions", "hit_count", "INTEGER NOT NULL DEFAULT 0"},
	{"expansions", "last_accessed", "INTEGER"},
	{"survey_runs", "base", "INTEGER NOT NULL DEFAULT 10"},
}

// RunMigrations applies pending column migrations and records the schema
// version. It is idempotent.
func RunMigrations(db *sql.DB) error {
	timer := logging.StartTimer(logging.CategoryStore, "RunMigrations")
	defer timer.Stop()

	applied := 0
	for _, m := range pendingMigrations {
		if !tableExists(db, m.Table) {
			logging.StoreDebug("Table missing, skipping migration: %s.%s", m.Table, m.Column)
			continue
		}
		if columnExists(db, m.Table, m.Column) {
			continue
		}
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		logging.StoreDebug("Executing migration: %s", query)
		if _, err := db.Exec(query); err != nil {
			logging.Get(logging.CategoryStore).Error("Migration failed: %s.%s: %v", m.Table, m.Column, err)
			return fmt.Errorf("failed to migrate %s.%s: %w", m.Table, m.Column, err)
		}
		logging.Store("Migration applied: added %s.%s", m.Table, m.Column)
		applied++
	}

	if v, ok := recordedSchemaVersion(db); !ok || v < CurrentSchemaVersion {
		if err := SetSchemaVersion(db, CurrentSchemaVersion); err != nil {
			return err
		}
	}
	logging.StoreDebug("Schema migrations complete: applied=%d", applied)
	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info.
func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		logging.StoreDebug("PRAGMA table_info(%s) failed: %v", table, err)
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}

// tableExists checks if a table exists in the database.
func tableExists(db *sql.DB, table string) bool {
	var count int
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?"
	if err := db.QueryRow(query, table).Scan(&count); err != nil {
		logging.StoreDebug("Table existence check failed for %s: %v", table, err)
		return false
	}
	return count > 0
}

// GetSchemaVersion returns the latest recorded schema version, or infers it
// from the table structure when none is recorded.
func GetSchemaVersion(db *sql.DB) int {
	if v, ok := recordedSchemaVersion(db); ok {
		return v
	}
	return inferSchemaVersion(db)
}

// recordedSchemaVersion reads the latest schema_versions row, if any.
func recordedSchemaVersion(db *sql.DB) (int, bool) {
	if !tableExists(db, "schema_versions") {
		return 0, false
	}
	var version int
	query := "SELECT version FROM schema_versions ORDER BY id DESC LIMIT 1"
	if err := db.QueryRow(query).Scan(&version); err != nil {
		return 0, false
	}
	return version, true
}

func inferSchemaVersion(db *sql.DB) int {
	if !tableExists(db, "expansions") {
		return 0
	}
	if columnExists(db, "expansions", "hit_count") && columnExists(db, "survey_runs", "base") {
		return 2
	}
	return 1
}

// SetSchemaVersion records a new schema version in the database.
func SetSchemaVersion(db *sql.DB, version int) error {
	createTable := `
		CREATE TABLE IF NOT EXISTS schema_versions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version INTEGER NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			description TEXT
		)
	`
	if _, err := db.Exec(createTable); err != nil {
		return fmt.Errorf("failed to create schema_versions table: %w", err)
	}
	desc := fmt.Sprintf("Migrated to schema version %d", version)
	if _, err := db.Exec("INSERT INTO schema_versions (version, description) VALUES (?, ?)", version, desc); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	logging.Store("Schema version set to %d", version)
	return nil
}
