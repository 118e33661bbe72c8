package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-reservation/internal/docstore"
)

var docColumns = []string{"doc_id", "version", "seq", "body"}

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return New(db), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestMigrate(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(q("CREATE TABLE IF NOT EXISTS documents")).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, s.Migrate(context.Background()))
}

func TestReadAllOrdersBySeq(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(q("SELECT doc_id, version, seq, body FROM documents WHERE collection=? ORDER BY seq")).
		WithArgs("seats").
		WillReturnRows(sqlmock.NewRows(docColumns).
			AddRow("S1", 1, 1, `{"id":"S1"}`).
			AddRow("S2", 4, 2, `{"id":"S2"}`))

	docs, err := s.ReadAll(context.Background(), "seats")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "S2", docs[1].ID)
	require.Equal(t, int64(4), docs[1].Version)
	require.JSONEq(t, `{"id":"S2"}`, string(docs[1].Data))
}

func TestReadOneMissing(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(q("FROM documents WHERE collection=? AND doc_id=?")).
		WithArgs("seats", "S9").
		WillReturnRows(sqlmock.NewRows(docColumns))

	_, err := s.ReadOne(context.Background(), "seats", "S9")
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestWriteIfAbsent(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(q("INSERT INTO documents (collection, doc_id, version, body) VALUES (?,?,1,?)")).
		WithArgs("seats", "S1", `{"id":"S1"}`).
		WillReturnResult(sqlmock.NewResult(7, 1))

	doc, err := s.WriteIfAbsent(context.Background(), "seats", "S1", json.RawMessage(`{"id":"S1"}`))
	require.NoError(t, err)
	require.Equal(t, int64(1), doc.Version)
	require.Equal(t, int64(7), doc.Seq)
}

func TestWriteIfAbsentDuplicate(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(q("INSERT INTO documents")).
		WillReturnError(&mysql.MySQLError{Number: errDuplicateEntry, Message: "Duplicate entry"})

	_, err := s.WriteIfAbsent(context.Background(), "seats", "S1", json.RawMessage(`{}`))
	require.ErrorIs(t, err, docstore.ErrAlreadyExists)
}

func TestConditionalUpdate(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(q("UPDATE documents SET version=version+1, body=? WHERE collection=? AND doc_id=? AND version=?")).
		WithArgs(`{"occupied":true}`, "seats", "S1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("SELECT seq FROM documents")).
		WithArgs("seats", "S1").
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(5))

	doc, err := s.ConditionalUpdate(context.Background(), "seats", "S1", 3, json.RawMessage(`{"occupied":true}`))
	require.NoError(t, err)
	require.Equal(t, int64(4), doc.Version)
	require.Equal(t, int64(5), doc.Seq)
}

func TestConditionalUpdateMismatch(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(q("UPDATE documents")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("SELECT seq FROM documents")).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(5))

	_, err := s.ConditionalUpdate(context.Background(), "seats", "S1", 3, json.RawMessage(`{}`))
	require.ErrorIs(t, err, docstore.ErrVersionMismatch)
}

func TestConditionalUpdateMissing(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(q("UPDATE documents")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("SELECT seq FROM documents")).WillReturnRows(sqlmock.NewRows([]string{"seq"}))

	_, err := s.ConditionalUpdate(context.Background(), "seats", "S1", 3, json.RawMessage(`{}`))
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestCommit(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE documents")).
		WithArgs(`{"occupied":true}`, "seats", "S1", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO documents")).
		WithArgs("seat_holders", "alice", `{"seat_id":"S1"}`).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	err := s.Commit(context.Background(),
		docstore.Write{Collection: "seats", ID: "S1", ExpectedVersion: 1, Data: json.RawMessage(`{"occupied":true}`)},
		docstore.Write{Collection: "seat_holders", ID: "alice", Data: json.RawMessage(`{"seat_id":"S1"}`)},
	)
	require.NoError(t, err)
}

func TestCommitRollsBackOnStaleVersion(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE documents")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.Commit(context.Background(),
		docstore.Write{Collection: "seats", ID: "S1", ExpectedVersion: 1, Data: json.RawMessage(`{}`)},
		docstore.Write{Collection: "seat_holders", ID: "alice", Data: json.RawMessage(`{}`)},
	)
	require.ErrorIs(t, err, docstore.ErrVersionMismatch)
}

func TestCommitDuplicateHolderIsMismatch(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO documents")).
		WillReturnError(&mysql.MySQLError{Number: errDuplicateEntry})
	mock.ExpectRollback()

	err := s.Commit(context.Background(),
		docstore.Write{Collection: "seat_holders", ID: "alice", Data: json.RawMessage(`{}`)},
	)
	require.ErrorIs(t, err, docstore.ErrVersionMismatch)
}

func TestTransportErrorPassesThrough(t *testing.T) {
	s, mock := newMock(t)
	boom := errors.New("connection refused")
	mock.ExpectQuery(q("FROM documents")).WillReturnError(boom)

	_, err := s.ReadAll(context.Background(), "seats")
	require.ErrorIs(t, err, boom)
	require.False(t, docstore.IsContractError(err))
}
