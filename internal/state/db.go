// Package state persists the outcome of every dataset processed by a run in a
// small SQLite database, so earlier runs can be reviewed with `history`.
package state

import (
	"context"
	"dataset_downloader/internal/utils"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// Record statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Record is one dataset outcome as stored in the history table.
type Record struct {
	ID        string
	RunID     string
	Name      string
	FileID    string
	DestPath  string
	Status    string
	Bytes     int64
	CreatedAt time.Time
}

// Store is a handle on the history database.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS downloads (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	name TEXT NOT NULL,
	file_id TEXT NOT NULL,
	dest_path TEXT NOT NULL,
	status TEXT NOT NULL,
	size_bytes INTEGER,
	created_at INTEGER
);

CREATE INDEX IF NOT EXISTS downloads_run_id ON downloads(run_id);
`

// Open opens (creating if needed) the history database at path and ensures
// the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps writes serialized for the sqlite file.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Record stores one outcome. ID and CreatedAt are filled in when empty.
func (s *Store) Record(ctx context.Context, r Record) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO downloads (id, run_id, name, file_id, dest_path, status, size_bytes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.RunID, r.Name, r.FileID, r.DestPath, r.Status, r.Bytes, r.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
		return nil
	})
}

// List returns the most recent records first. A limit <= 0 returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `SELECT id, run_id, name, file_id, dest_path, status, size_bytes, created_at
		FROM downloads ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r       Record
			size    sql.NullInt64
			created sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.Name, &r.FileID, &r.DestPath, &r.Status, &size, &created); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		r.Bytes = size.Int64
		if created.Valid {
			r.CreatedAt = time.Unix(created.Int64, 0)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// withTx wraps a unit of work in a transaction and handles rollback/commit.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		utils.Debug("Failed to begin transaction: %v", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		utils.Debug("Transaction function error, rolling back: %v", err)
		if rbErr := tx.Rollback(); rbErr != nil {
			utils.Debug("Failed to rollback transaction: %v", rbErr)
			return fmt.Errorf("transaction error: %w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		utils.Debug("Failed to commit transaction: %v", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
