package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

type PoolConfig struct {
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetimeS int
	ConnMaxIdleTimeS int
}

func NewPostgresDB(ctx context.Context, databaseURL string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresDB: open: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeS) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("NewPostgresDB: ping: %w", err)
	}

	return db, nil
}

// NewPostgresStore expects the ledger_documents table from migrations/.
func NewPostgresStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, d: dialect{
		load: `SELECT key, version, data, updated_at FROM ledger_documents WHERE key = $1`,
		insert: `INSERT INTO ledger_documents (key, version, data, updated_at)
		VALUES ($1, $2, $3, $4)`,
		update: `UPDATE ledger_documents SET data = $1, version = $2, updated_at = $3
		WHERE key = $4 AND version = $5`,
		// pq sends []byte as bytea, which JSONB rejects.
		data: func(b []byte) any { return string(b) },
		duplicateKey: func(err error) bool {
			var pqErr *pq.Error
			return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
		},
	}}
}
