package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vannot/vannot/internal/typeid"
)

// Postgres stores snapshots in a shared database.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL and creates the schema if needed.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		version INTEGER NOT NULL,
		document JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (document_id, version)
	)`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Latest(ctx context.Context, documentID string) (*Snapshot, error) {
	var snap Snapshot
	err := s.pool.QueryRow(ctx,
		`SELECT id, document_id, version, document, created_at FROM snapshots
		 WHERE document_id = $1 ORDER BY version DESC LIMIT 1`, documentID,
	).Scan(&snap.ID, &snap.DocumentID, &snap.Version, &snap.Document, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return &snap, nil
}

func (s *Postgres) Save(ctx context.Context, documentID string, data []byte) (*Snapshot, error) {
	snap := &Snapshot{
		ID:         typeid.NewSnapshotID(),
		DocumentID: documentID,
		Document:   data,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO snapshots (id, document_id, version, document)
		 SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3 FROM snapshots WHERE document_id = $2
		 RETURNING version, created_at`,
		snap.ID, documentID, data,
	).Scan(&snap.Version, &snap.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	return snap, nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
