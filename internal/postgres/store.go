// Package postgres stores seeded documents as JSONB rows in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doc-seeding/internal/docstore"
)

const uniqueViolation = "23505"

// Store implements docstore.Client on a pgx pool.
type Store struct {
	pool      *pgxpool.Pool
	projectID string
}

// Open creates the pool, prewarms it and ensures the schema exists.
func Open(ctx context.Context, connStr, password, projectID string, poolSize int, logger *slog.Logger) (*Store, error) {
	logger.Info("Creating PostgreSQL connection pool", "connections", poolSize)
	pool, err := CreatePool(ctx, connStr, password, poolSize)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := PrewarmPool(ctx, pool, poolSize, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("prewarming pool: %w", err)
	}
	if err := InitSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{pool: pool, projectID: projectID}, nil
}

// CreateDocument inserts a row; an existing id yields docstore.ErrConflict.
func (s *Store) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (docstore.Document, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("encoding document: %w", err)
	}
	_, err = s.pool.Exec(ctx, insertSQL, s.projectID, databaseID, collectionID, documentID, payload)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return docstore.Document{}, fmt.Errorf("creating document %s: %w", documentID, docstore.ErrConflict)
		}
		return docstore.Document{}, fmt.Errorf("creating document %s: %w", documentID, err)
	}
	return docstore.Document{ID: documentID, Data: data}, nil
}

// GetDocument reads a row back.
func (s *Store) GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (docstore.Document, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, selectSQL, s.projectID, databaseID, collectionID, documentID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return docstore.Document{}, fmt.Errorf("getting document %s: %w", documentID, docstore.ErrNotFound)
	}
	if err != nil {
		return docstore.Document{}, fmt.Errorf("getting document %s: %w", documentID, err)
	}
	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		return docstore.Document{}, fmt.Errorf("decoding document %s: %w", documentID, err)
	}
	return docstore.Document{ID: documentID, Data: data}, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
