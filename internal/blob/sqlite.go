package blob

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// schemaVersion is the current attachment database schema. The table is
// created only on the version 0 -> 1 bump, so Open stays idempotent.
const schemaVersion = 1

// SQLiteStore is a Store backed by a single local SQLite database with one
// attachments table keyed by id.
type SQLiteStore struct {
	db *sql.DB
}

// Open ensures the database file and its attachments table exist and
// returns a ready store.
func Open(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open attachment db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}

	const schema = `
CREATE TABLE IF NOT EXISTS attachments (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	data BLOB NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create attachments table: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("bump schema version: %w", err)
	}
	return nil
}

// Put stores a new record inside a write transaction and returns its
// freshly generated id.
func (s *SQLiteStore) Put(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	id := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin put: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO attachments (id, name, type, data) VALUES (?, ?, ?, ?)",
		id, name, mimeType, data,
	); err != nil {
		tx.Rollback()
		return "", fmt.Errorf("insert attachment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit put: %w", err)
	}
	return id, nil
}

// Get returns the stored record, or (nil, nil) if no record matches.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	rec := Record{ID: id}
	err := s.db.QueryRowContext(ctx,
		"SELECT name, type, data FROM attachments WHERE id = ?", id,
	).Scan(&rec.Name, &rec.Type, &rec.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	return &rec, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM attachments WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}

// IDs returns the ids of all stored records.
func (s *SQLiteStore) IDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM attachments")
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan attachment id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return ids, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
