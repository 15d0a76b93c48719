package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS documents (
    project_id TEXT NOT NULL,
    database_id TEXT NOT NULL,
    collection_id TEXT NOT NULL,
    document_id TEXT NOT NULL,
    data JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (project_id, database_id, collection_id, document_id)
);
`

const (
	insertSQL = `INSERT INTO documents (project_id, database_id, collection_id, document_id, data)
VALUES ($1, $2, $3, $4, $5)`
	selectSQL = `SELECT data FROM documents
WHERE project_id = $1 AND database_id = $2 AND collection_id = $3 AND document_id = $4`
)

// CreatePool creates a pgx connection pool from a postgres:// URL. password is
// used only when the URL carries none.
func CreatePool(ctx context.Context, connStr, password string, size int) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, err
	}
	if cfg.ConnConfig.Password == "" {
		cfg.ConnConfig.Password = password
	}
	if size > 0 {
		cfg.MaxConns = int32(size)
		cfg.MinConns = int32(size)
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}

// PrewarmPool acquires and pings each connection once.
func PrewarmPool(ctx context.Context, pool *pgxpool.Pool, size int, logger *slog.Logger) error {
	conns := make([]*pgxpool.Conn, 0, size)
	defer func() {
		for _, c := range conns {
			c.Release()
		}
	}()
	for i := 0; i < size; i++ {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return err
		}
		conns = append(conns, conn)
		if err := conn.Ping(ctx); err != nil {
			return err
		}
	}
	logger.Info("Prewarmed PostgreSQL connection pool", "connections", size)
	return nil
}

// InitSchema creates the documents table if it does not exist.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, createTableSQL)
	return err
}
