// Package store persists annotation documents as versioned JSON snapshots.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vannot/vannot/internal/document"
)

var ErrNotFound = errors.New("document not found")

// Snapshot is one saved version of a document.
type Snapshot struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	Version    int       `json:"version"`
	Document   []byte    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store keeps the snapshot history of each document. Versions start at 1
// and increase by one per save.
type Store interface {
	Latest(ctx context.Context, documentID string) (*Snapshot, error)
	Save(ctx context.Context, documentID string, data []byte) (*Snapshot, error)
	Close() error
}

// Open returns the store for driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, sqlitePath, databaseURL string) (Store, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLite(ctx, sqlitePath)
	case "postgres":
		return NewPostgres(ctx, databaseURL)
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}

// Load returns the latest saved version of a document.
func Load(ctx context.Context, s Store, documentID string) (*document.Document, error) {
	snap, err := s.Latest(ctx, documentID)
	if err != nil {
		return nil, err
	}
	doc, err := document.Parse(snap.Document)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
	}
	return doc, nil
}

// Save normalizes a copy of doc and stores it as a new version.
func Save(ctx context.Context, s Store, documentID string, doc *document.Document) (*Snapshot, error) {
	clean, err := doc.Clone()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(clean.Normalize())
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return s.Save(ctx, documentID, data)
}
