// Package sqlite is a local document store used for dry runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/doc-seeding/internal/docstore"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS documents (
	project_id    TEXT NOT NULL,
	database_id   TEXT NOT NULL,
	collection_id TEXT NOT NULL,
	document_id   TEXT NOT NULL,
	data          TEXT NOT NULL,
	created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
	PRIMARY KEY (project_id, database_id, collection_id, document_id)
)`

// Store implements docstore.Client on a SQLite database.
type Store struct {
	db        *sql.DB
	projectID string
}

// Open opens (or creates) the database at path. Pass ":memory:" for an
// in-memory database.
func Open(path, projectID string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: ":memory:" is per-connection, and file databases would
	// otherwise fail writers with "database is locked".
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db, projectID: projectID}, nil
}

// CreateDocument inserts a row; an existing id yields docstore.ErrConflict.
func (s *Store) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (docstore.Document, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("encoding document: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (project_id, database_id, collection_id, document_id, data) VALUES (?, ?, ?, ?, ?)`,
		s.projectID, databaseID, collectionID, documentID, string(payload))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return docstore.Document{}, fmt.Errorf("creating document %s: %w", documentID, docstore.ErrConflict)
		}
		return docstore.Document{}, fmt.Errorf("creating document %s: %w", documentID, err)
	}
	return docstore.Document{ID: documentID, Data: data}, nil
}

// GetDocument reads a row back.
func (s *Store) GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (docstore.Document, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE project_id = ? AND database_id = ? AND collection_id = ? AND document_id = ?`,
		s.projectID, databaseID, collectionID, documentID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Document{}, fmt.Errorf("getting document %s: %w", documentID, docstore.ErrNotFound)
	}
	if err != nil {
		return docstore.Document{}, fmt.Errorf("getting document %s: %w", documentID, err)
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return docstore.Document{}, fmt.Errorf("decoding document %s: %w", documentID, err)
	}
	return docstore.Document{ID: documentID, Data: data}, nil
}

// Count returns the number of documents in a collection.
func (s *Store) Count(ctx context.Context, databaseID, collectionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE project_id = ? AND database_id = ? AND collection_id = ?`,
		s.projectID, databaseID, collectionID).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
