package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) a SQLite history database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS verifications (
		id TEXT PRIMARY KEY,
		contract_name TEXT NOT NULL,
		address TEXT NOT NULL,
		compiler_version TEXT,
		status TEXT NOT NULL,
		explorer_url TEXT,
		reason TEXT,
		attempts INTEGER NOT NULL DEFAULT 1,
		created_at TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_verifications_address ON verifications(address);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// SaveVerification records a terminal verification outcome.
func (s *SQLiteStore) SaveVerification(ctx context.Context, rec *Verification) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verifications
			(id, contract_name, address, compiler_version, status, explorer_url, reason, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ContractName, rec.Address, rec.CompilerVersion,
		rec.Status, rec.ExplorerURL, rec.Reason, rec.Attempts,
		rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving verification: %w", err)
	}
	return nil
}

// ListVerifications returns the most recent records, newest first.
func (s *SQLiteStore) ListVerifications(ctx context.Context, limit int) ([]*Verification, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contract_name, address, compiler_version, status, explorer_url, reason, attempts, created_at
		FROM verifications
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing verifications: %w", err)
	}
	defer rows.Close()

	var records []*Verification
	for rows.Next() {
		rec, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetVerification returns the latest record for an address.
func (s *SQLiteStore) GetVerification(ctx context.Context, address string) (*Verification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, contract_name, address, compiler_version, status, explorer_url, reason, attempts, created_at
		FROM verifications
		WHERE address = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, address)

	rec, err := scanVerification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVerification(row scanner) (*Verification, error) {
	var rec Verification
	var createdAt string
	err := row.Scan(&rec.ID, &rec.ContractName, &rec.Address, &rec.CompilerVersion,
		&rec.Status, &rec.ExplorerURL, &rec.Reason, &rec.Attempts, &createdAt)
	if err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		rec.CreatedAt = t
	}
	return &rec, nil
}
