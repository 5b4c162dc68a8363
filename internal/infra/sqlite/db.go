// Package sqlite persists pull metadata for downloaded artifacts.
// Uses WAL mode for crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/gitscribe/gitscribe/internal/domain"
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and a 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS artifacts (
			id         TEXT PRIMARY KEY,
			filename   TEXT NOT NULL,
			size_bytes INTEGER NOT NULL,
			pulled_at  INTEGER NOT NULL,
			last_used  INTEGER
		)`,
	}
	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// UpsertArtifact records a validated pull, replacing any previous row.
func (d *DB) UpsertArtifact(info domain.ArtifactInfo) error {
	_, err := d.db.Exec(`
		INSERT INTO artifacts (id, filename, size_bytes, pulled_at, last_used)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			size_bytes = excluded.size_bytes,
			pulled_at = excluded.pulled_at,
			last_used = excluded.last_used`,
		info.ID, info.Filename, info.SizeBytes, info.PulledAt.Unix(), info.LastUsed.Unix())
	return err
}

// GetArtifact returns the record for id, or nil if none exists.
func (d *DB) GetArtifact(id string) (*domain.ArtifactInfo, error) {
	row := d.db.QueryRow(
		`SELECT id, filename, size_bytes, pulled_at, COALESCE(last_used, 0) FROM artifacts WHERE id = ?`, id)

	var info domain.ArtifactInfo
	var pulledAt, lastUsed int64
	err := row.Scan(&info.ID, &info.Filename, &info.SizeBytes, &pulledAt, &lastUsed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query artifact %s: %w", id, err)
	}
	info.PulledAt = time.Unix(pulledAt, 0)
	if lastUsed > 0 {
		info.LastUsed = time.Unix(lastUsed, 0)
	}
	return &info, nil
}

// ListArtifacts returns all pull records, most recently pulled first.
func (d *DB) ListArtifacts() ([]domain.ArtifactInfo, error) {
	rows, err := d.db.Query(
		`SELECT id, filename, size_bytes, pulled_at, COALESCE(last_used, 0) FROM artifacts ORDER BY pulled_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []domain.ArtifactInfo
	for rows.Next() {
		var info domain.ArtifactInfo
		var pulledAt, lastUsed int64
		if err := rows.Scan(&info.ID, &info.Filename, &info.SizeBytes, &pulledAt, &lastUsed); err != nil {
			return nil, err
		}
		info.PulledAt = time.Unix(pulledAt, 0)
		if lastUsed > 0 {
			info.LastUsed = time.Unix(lastUsed, 0)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteArtifact removes the record for id. Deleting a missing row is not an error.
func (d *DB) DeleteArtifact(id string) error {
	_, err := d.db.Exec(`DELETE FROM artifacts WHERE id = ?`, id)
	return err
}

// TouchArtifact updates last_used to now.
func (d *DB) TouchArtifact(id string) error {
	_, err := d.db.Exec(`UPDATE artifacts SET last_used = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}
