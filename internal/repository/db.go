package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

// dialect holds the statements and driver error classification that differ
// between SQL backends.
type dialect struct {
	load   string
	insert string
	update string
	// data converts the JSON body into the value the driver binds.
	data func([]byte) any
	// duplicateKey reports a primary key violation on insert.
	duplicateKey func(error) bool
}

// SQLStore stores documents in a ledger_documents table. The first save of a
// key inserts; every later save is an UPDATE guarded by the previous version.
type SQLStore struct {
	db *sql.DB
	d  dialect
}

func (s *SQLStore) Conn() *sql.DB {
	return s.db
}

func (s *SQLStore) Load(ctx context.Context, key string) (*Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx, s.d.load, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Load: %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Load: %w", err)
	}
	return doc, nil
}

func (s *SQLStore) Save(ctx context.Context, doc *Document) error {
	if doc.Version == 1 {
		_, err := s.db.ExecContext(ctx, s.d.insert, doc.Key, doc.Version, s.d.data(doc.Data), doc.UpdatedAt)
		if err != nil {
			if s.d.duplicateKey(err) {
				return fmt.Errorf("Save: %s already exists: %w", doc.Key, domain.ErrVersionConflict)
			}
			return fmt.Errorf("Save: insert: %w", err)
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx, s.d.update, s.d.data(doc.Data), doc.Version, doc.UpdatedAt, doc.Key, doc.Version-1)
	if err != nil {
		return fmt.Errorf("Save: update: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Save: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Save: %s not at version %d: %w", doc.Key, doc.Version-1, domain.ErrVersionConflict)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func scanDocument(row scanner) (*Document, error) {
	var doc Document
	if err := row.Scan(&doc.Key, &doc.Version, &doc.Data, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	return &doc, nil
}
