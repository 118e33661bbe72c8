// Package mysql implements the document store on a single MySQL table.
// Rows are keyed by (collection, doc_id); the auto-increment seq column
// provides insertion order and the version column backs conditional writes.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/library-seat-reservation/internal/docstore"
)

const (
	errDuplicateEntry = 1062
	errLockDeadlock   = 1213
)

const schema = `CREATE TABLE IF NOT EXISTS documents (
  seq        BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  collection VARCHAR(64)     NOT NULL,
  doc_id     VARCHAR(255)    NOT NULL,
  version    BIGINT UNSIGNED NOT NULL,
  body       JSON            NOT NULL,
  created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  UNIQUE KEY uq_documents_collection_doc (collection, doc_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// Store keeps documents in the documents table.
type Store struct {
	db *sql.DB
}

// New binds a store to an open database handle.
func New(db *sql.DB) *Store { return &Store{db: db} }

// Ensure Store implements the interface
var _ docstore.Store = (*Store)(nil)

// Migrate creates the documents table when it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

func (s *Store) ReadAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT doc_id, version, seq, body FROM documents WHERE collection=? ORDER BY seq",
		collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]docstore.Document, 0)
	for rows.Next() {
		var d docstore.Document
		var body []byte
		if err := rows.Scan(&d.ID, &d.Version, &d.Seq, &body); err != nil {
			return nil, err
		}
		d.Data = json.RawMessage(body)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) ReadOne(ctx context.Context, collection, id string) (docstore.Document, error) {
	var d docstore.Document
	var body []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT doc_id, version, seq, body FROM documents WHERE collection=? AND doc_id=? LIMIT 1",
		collection, id).Scan(&d.ID, &d.Version, &d.Seq, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Document{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Document{}, err
	}
	d.Data = json.RawMessage(body)
	return d, nil
}

func (s *Store) WriteIfAbsent(ctx context.Context, collection, id string, data json.RawMessage) (docstore.Document, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO documents (collection, doc_id, version, body) VALUES (?,?,1,?)",
		collection, id, string(data))
	if err != nil {
		if mysqlErrNumber(err) == errDuplicateEntry {
			return docstore.Document{}, docstore.ErrAlreadyExists
		}
		return docstore.Document{}, err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{ID: id, Version: 1, Seq: seq, Data: data}, nil
}

func (s *Store) ConditionalUpdate(ctx context.Context, collection, id string, expectedVersion int64, data json.RawMessage) (docstore.Document, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE documents SET version=version+1, body=? WHERE collection=? AND doc_id=? AND version=?",
		string(data), collection, id, expectedVersion)
	if err != nil {
		if mysqlErrNumber(err) == errLockDeadlock {
			return docstore.Document{}, docstore.ErrVersionMismatch
		}
		return docstore.Document{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return docstore.Document{}, err
	}

	// seq never changes, so reading it after the update is safe.
	var seq int64
	err = s.db.QueryRowContext(ctx,
		"SELECT seq FROM documents WHERE collection=? AND doc_id=? LIMIT 1",
		collection, id).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Document{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Document{}, err
	}
	if n == 0 {
		return docstore.Document{}, docstore.ErrVersionMismatch
	}
	return docstore.Document{ID: id, Version: expectedVersion + 1, Seq: seq, Data: data}, nil
}

func (s *Store) Commit(ctx context.Context, writes ...docstore.Write) error {
	if len(writes) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, w := range writes {
		if err := applyTx(ctx, tx, w); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		if mysqlErrNumber(err) == errLockDeadlock {
			return docstore.ErrVersionMismatch
		}
		return err
	}
	return nil
}

// applyTx performs one write of a commit.  A lost precondition, a duplicate
// key or a deadlock all surface as ErrVersionMismatch so callers retry.
func applyTx(ctx context.Context, tx *sql.Tx, w docstore.Write) error {
	if w.ExpectedVersion == 0 {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO documents (collection, doc_id, version, body) VALUES (?,?,1,?)",
			w.Collection, w.ID, string(w.Data))
		switch mysqlErrNumber(err) {
		case 0:
			return err
		case errDuplicateEntry, errLockDeadlock:
			return docstore.ErrVersionMismatch
		default:
			return err
		}
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE documents SET version=version+1, body=? WHERE collection=? AND doc_id=? AND version=?",
		string(w.Data), w.Collection, w.ID, w.ExpectedVersion)
	if err != nil {
		if mysqlErrNumber(err) == errLockDeadlock {
			return docstore.ErrVersionMismatch
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return docstore.ErrVersionMismatch
	}
	return nil
}

// mysqlErrNumber extracts the server error number, or 0 when err is not a
// MySQL server error.
func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
