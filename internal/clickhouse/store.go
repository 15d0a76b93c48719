// Package clickhouse stores seeded documents as JSON strings in a
// ReplacingMergeTree table. ClickHouse has no unique constraint, so a repeated
// document id replaces the earlier row instead of failing.
package clickhouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/doc-seeding/internal/docstore"
)

const (
	insertSQL = `INSERT INTO documents (project_id, database_id, collection_id, document_id, data, created_at)`
	selectSQL = `SELECT data FROM documents FINAL
WHERE project_id = ? AND database_id = ? AND collection_id = ? AND document_id = ?`
)

// Store implements docstore.Client using a channel of ClickHouse connections.
type Store struct {
	ch        chan driver.Conn
	conns     []driver.Conn
	projectID string
}

// Open creates the pool and ensures the schema exists.
func Open(ctx context.Context, dsn, password, projectID string, poolSize int, logger *slog.Logger) (*Store, error) {
	opts, err := ParseOptions(dsn, password)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	if poolSize < 1 {
		poolSize = 1
	}
	logger.Info("Creating ClickHouse connection pool", "addr", opts.Addr, "clients", poolSize)
	ch, conns, err := CreatePool(ctx, opts, poolSize, logger)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	s := &Store{ch: ch, conns: conns, projectID: projectID}

	conn := <-ch
	err = InitSchema(ctx, conn)
	ch <- conn
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

// CreateDocument appends a single-row batch.
func (s *Store) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (docstore.Document, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("encoding document: %w", err)
	}

	conn := <-s.ch
	defer func() { s.ch <- conn }()

	batch, err := conn.PrepareBatch(ctx, insertSQL)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("creating document %s: %w", documentID, err)
	}
	if err := batch.Append(s.projectID, databaseID, collectionID, documentID, string(payload), time.Now().UTC()); err != nil {
		batch.Abort()
		return docstore.Document{}, fmt.Errorf("creating document %s: %w", documentID, err)
	}
	if err := batch.Send(); err != nil {
		return docstore.Document{}, fmt.Errorf("creating document %s: %w", documentID, err)
	}
	return docstore.Document{ID: documentID, Data: data}, nil
}

// GetDocument reads the latest version of a document.
func (s *Store) GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (docstore.Document, error) {
	conn := <-s.ch
	defer func() { s.ch <- conn }()

	var payload string
	err := conn.QueryRow(ctx, selectSQL, s.projectID, databaseID, collectionID, documentID).Scan(&payload)
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

// Close closes all connections.
func (s *Store) Close() error {
	for _, conn := range s.conns {
		conn.Close()
	}
	s.conns = nil
	return nil
}
