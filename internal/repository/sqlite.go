package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ledger_documents (
	key TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	data TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);`

// NewSQLiteStore opens the database file at path and creates the document
// table if needed.
func NewSQLiteStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteStore: open: %w", err)
	}
	// A single connection serialises writers and keeps the version check
	// and update on one connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode = WAL;", sqliteSchema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("NewSQLiteStore: init: %w", err)
		}
	}

	return &SQLStore{db: db, d: dialect{
		load:   `SELECT key, version, data, updated_at FROM ledger_documents WHERE key = ?`,
		insert: `INSERT INTO ledger_documents (key, version, data, updated_at) VALUES (?, ?, ?, ?)`,
		update: `UPDATE ledger_documents SET data = ?, version = ?, updated_at = ? WHERE key = ? AND version = ?`,
		data:   func(b []byte) any { return string(b) },
		duplicateKey: func(err error) bool {
			var sqlErr sqlite3.Error
			return errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint
		},
	}}, nil
}
