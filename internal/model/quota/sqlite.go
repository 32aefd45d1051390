package quota

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a single-row SQLite table keyed by StorageKey.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the usage database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL keeps concurrent request handlers from tripping over each other.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS usage_records (
		storage_key TEXT PRIMARY KEY,
		day TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Load fetches the usage record, reporting ok=false when none has been written.
func (s *SQLiteStore) Load(ctx context.Context) (Record, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT day, count FROM usage_records WHERE storage_key = ?`, StorageKey)

	var rec Record
	err := row.Scan(&rec.Date, &rec.Count)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("scan usage record: %w", err)
	}
	return rec, true, nil
}

// Save upserts the single usage record.
func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	query := `
	INSERT INTO usage_records (storage_key, day, count, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(storage_key) DO UPDATE SET
		day = excluded.day,
		count = excluded.count,
		updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, StorageKey, rec.Date, rec.Count, time.Now().Unix()); err != nil {
		return fmt.Errorf("upsert usage record: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
