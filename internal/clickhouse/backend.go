package clickhouse

import (
	"context"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/doc-seeding/internal/config"
)

// ParseOptions parses a clickhouse:// URL. password is used only when the URL
// carries none.
func ParseOptions(dsn, password string) (*clickhouse.Options, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	if opts.Auth.Password == "" {
		opts.Auth.Password = password
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 10 * time.Second
	}
	return opts, nil
}

// CreatePool opens size separate connections and hands them out through a channel.
func CreatePool(ctx context.Context, opts *clickhouse.Options, size int, logger *slog.Logger) (chan driver.Conn, []driver.Conn, error) {
	ch := make(chan driver.Conn, size)
	var conns []driver.Conn
	closeAll := func() {
		for _, c := range conns {
			c.Close()
		}
	}
	for i := 0; i < size; i++ {
		conn, err := clickhouse.Open(opts)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		if err := conn.Ping(ctx); err != nil {
			conn.Close()
			closeAll()
			return nil, nil, err
		}
		conns = append(conns, conn)
		ch <- conn
	}
	logger.Info("Prewarmed ClickHouse connection pool", "clients", size)
	return ch, conns, nil
}

// CreateTableSQL returns the DDL for the documents table.
func CreateTableSQL(policy string) string {
	sql := `CREATE TABLE IF NOT EXISTS documents (
		project_id String, database_id String, collection_id String, document_id String,
		data String, created_at DateTime64(3)
	) ENGINE = ReplacingMergeTree(created_at)
	ORDER BY (project_id, database_id, collection_id, document_id)`
	if policy != "" {
		sql += ` SETTINGS storage_policy = '` + policy + `'`
	}
	return sql
}

// InitSchema creates the documents table if it does not exist.
func InitSchema(ctx context.Context, conn driver.Conn) error {
	return conn.Exec(ctx, CreateTableSQL(config.ClickHouseStoragePolicy()))
}
