// Package backend opens the document store named by a run's endpoint URL.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/doc-seeding/internal/appwrite"
	"github.com/doc-seeding/internal/clickhouse"
	"github.com/doc-seeding/internal/config"
	"github.com/doc-seeding/internal/docstore"
	"github.com/doc-seeding/internal/postgres"
	"github.com/doc-seeding/internal/sqlite"
)

// Kind identifies a backend implementation.
type Kind string

const (
	KindAppwrite   Kind = "appwrite"
	KindPostgres   Kind = "postgres"
	KindClickHouse Kind = "clickhouse"
	KindSQLite     Kind = "sqlite"
)

// Detect returns the backend for an endpoint by its URL scheme.
func Detect(endpoint string) (Kind, error) {
	scheme, _, ok := strings.Cut(endpoint, "://")
	if !ok {
		return "", fmt.Errorf("endpoint %q has no scheme", endpoint)
	}
	switch strings.ToLower(scheme) {
	case "http", "https":
		return KindAppwrite, nil
	case "postgres", "postgresql":
		return KindPostgres, nil
	case "clickhouse":
		return KindClickHouse, nil
	case "sqlite":
		return KindSQLite, nil
	}
	return "", fmt.Errorf("unsupported endpoint scheme %q", scheme)
}

// PoolSize is the connection count for the SQL backends: two per insert
// worker, raised to the verification cap when that is larger.
func PoolSize(cfg config.Config) int {
	return max(cfg.Level.Workers()*2, cfg.VerifyWorkers)
}

// Open connects to the backend for cfg.Endpoint.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (docstore.Client, error) {
	kind, err := Detect(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	logger.Info("Opening document store", "backend", string(kind))

	var client docstore.Client
	switch kind {
	case KindAppwrite:
		client = appwrite.New(cfg.Endpoint, cfg.ProjectID, cfg.APIKey, appwrite.WithTimeout(cfg.HTTPTimeout))
	case KindPostgres:
		s, err := postgres.Open(ctx, cfg.Endpoint, cfg.APIKey, cfg.ProjectID, PoolSize(cfg), logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		client = s
	case KindClickHouse:
		s, err := clickhouse.Open(ctx, cfg.Endpoint, cfg.APIKey, cfg.ProjectID, PoolSize(cfg), logger)
		if err != nil {
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		client = s
	case KindSQLite:
		path := cfg.Endpoint[len("sqlite://"):]
		if path == "" {
			return nil, fmt.Errorf("sqlite endpoint needs a path or :memory:")
		}
		s, err := sqlite.Open(path, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		client = s
	}
	return client, nil
}
