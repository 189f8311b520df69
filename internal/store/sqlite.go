package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vannot/vannot/internal/typeid"
)

// SQLite stores snapshots in a local database file.
type SQLite struct {
	conn *sql.DB
}

// NewSQLite opens (or creates) the database at path.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time
	conn.SetMaxOpenConns(1)

	s := &SQLite{conn: conn}
	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			version INTEGER NOT NULL,
			document BLOB NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (document_id, version)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_document ON snapshots(document_id, version DESC)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Latest(ctx context.Context, documentID string) (*Snapshot, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, document_id, version, document, created_at FROM snapshots
		 WHERE document_id = ? ORDER BY version DESC LIMIT 1`, documentID)

	var snap Snapshot
	err := row.Scan(&snap.ID, &snap.DocumentID, &snap.Version, &snap.Document, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return &snap, nil
}

func (s *SQLite) Save(ctx context.Context, documentID string, data []byte) (*Snapshot, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM snapshots WHERE document_id = ?`, documentID).Scan(&current)
	if err != nil {
		return nil, fmt.Errorf("get current version: %w", err)
	}

	snap := &Snapshot{
		ID:         typeid.NewSnapshotID(),
		DocumentID: documentID,
		Version:    current + 1,
		Document:   data,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, document_id, version, document, created_at) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.DocumentID, snap.Version, snap.Document, snap.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return snap, nil
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}
