package schema

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the version log in a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	Logger zerolog.Logger
}

func NewSQLiteStore(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Debug().Str("path", path).Msg("Opened SQLite version log")

	return &SQLiteStore{db: db, Logger: logger}, nil
}

func (s *SQLiteStore) Init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS _schema_versions (
			version TEXT PRIMARY KEY,
			migration_name TEXT NOT NULL,
			applied_by TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create _schema_versions table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppliedVersions() ([]AppliedVersion, error) {
	rows, err := s.db.Query(`
		SELECT version, migration_name, applied_by, applied_at
		FROM _schema_versions
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied versions: %w", err)
	}
	defer rows.Close()

	var applied []AppliedVersion
	for rows.Next() {
		var a AppliedVersion
		var appliedAt string
		if err := rows.Scan(&a.Version, &a.MigrationName, &a.AppliedBy, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan applied version: %w", err)
		}
		a.AppliedAt, _ = time.Parse(time.RFC3339, appliedAt)
		applied = append(applied, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read applied versions: %w", err)
	}

	SortApplied(applied)
	return applied, nil
}

func (s *SQLiteStore) Record(rec VersionRecord, hostname string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO _schema_versions (version, migration_name, applied_by, applied_at)
		 VALUES (?, ?, ?, ?)`,
		rec.Version, rec.MigrationName, hostname, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record version %s: %w", rec.Version, err)
	}
	return nil
}

func (s *SQLiteStore) Remove(version string) error {
	if _, err := s.db.Exec(`DELETE FROM _schema_versions WHERE version = ?`, version); err != nil {
		return fmt.Errorf("failed to remove version %s: %w", version, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
