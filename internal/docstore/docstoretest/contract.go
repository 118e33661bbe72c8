// Package docstoretest holds the behavioural suite every docstore driver
// must pass.  Driver packages run it from their own _test files.
package docstoretest

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/iliyamo/library-seat-reservation/internal/docstore"
)

// ContractSuite exercises a docstore.Store through its public contract.
type ContractSuite struct {
	suite.Suite

	// NewStore returns a fresh, empty store for each test.
	NewStore func(t *testing.T) docstore.Store

	store docstore.Store
	ctx   context.Context
}

func (s *ContractSuite) SetupTest() {
	s.store = s.NewStore(s.T())
	s.ctx = context.Background()
}

func body(v string) json.RawMessage { return json.RawMessage(v) }

func (s *ContractSuite) TestReadOneMissing() {
	_, err := s.store.ReadOne(s.ctx, "seats", "S1")
	s.ErrorIs(err, docstore.ErrNotFound)
}

func (s *ContractSuite) TestReadAllEmpty() {
	docs, err := s.store.ReadAll(s.ctx, "seats")
	s.Require().NoError(err)
	s.Empty(docs)
}

func (s *ContractSuite) TestWriteIfAbsentCreatesVersionOne() {
	doc, err := s.store.WriteIfAbsent(s.ctx, "seats", "S1", body(`{"id":"S1"}`))
	s.Require().NoError(err)
	s.Equal("S1", doc.ID)
	s.Equal(int64(1), doc.Version)

	got, err := s.store.ReadOne(s.ctx, "seats", "S1")
	s.Require().NoError(err)
	s.Equal(int64(1), got.Version)
	s.JSONEq(`{"id":"S1"}`, string(got.Data))
}

func (s *ContractSuite) TestWriteIfAbsentRejectsExisting() {
	_, err := s.store.WriteIfAbsent(s.ctx, "seats", "S1", body(`{"n":1}`))
	s.Require().NoError(err)

	_, err = s.store.WriteIfAbsent(s.ctx, "seats", "S1", body(`{"n":2}`))
	s.ErrorIs(err, docstore.ErrAlreadyExists)

	got, err := s.store.ReadOne(s.ctx, "seats", "S1")
	s.Require().NoError(err)
	s.JSONEq(`{"n":1}`, string(got.Data))
}

func (s *ContractSuite) TestReadAllKeepsInsertionOrder() {
	for _, id := range []string{"S3", "S1", "S10", "S2"} {
		_, err := s.store.WriteIfAbsent(s.ctx, "seats", id, body(`{}`))
		s.Require().NoError(err)
	}
	_, err := s.store.WriteIfAbsent(s.ctx, "users", "a@example.com", body(`{}`))
	s.Require().NoError(err)

	docs, err := s.store.ReadAll(s.ctx, "seats")
	s.Require().NoError(err)
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	s.Equal([]string{"S3", "S1", "S10", "S2"}, ids)
}

func (s *ContractSuite) TestConditionalUpdate() {
	_, err := s.store.WriteIfAbsent(s.ctx, "seats", "S1", body(`{"occupied":false}`))
	s.Require().NoError(err)

	doc, err := s.store.ConditionalUpdate(s.ctx, "seats", "S1", 1, body(`{"occupied":true}`))
	s.Require().NoError(err)
	s.Equal(int64(2), doc.Version)

	_, err = s.store.ConditionalUpdate(s.ctx, "seats", "S1", 1, body(`{"occupied":false}`))
	s.ErrorIs(err, docstore.ErrVersionMismatch)

	got, err := s.store.ReadOne(s.ctx, "seats", "S1")
	s.Require().NoError(err)
	s.Equal(int64(2), got.Version)
	s.JSONEq(`{"occupied":true}`, string(got.Data))
}

func (s *ContractSuite) TestConditionalUpdateMissing() {
	_, err := s.store.ConditionalUpdate(s.ctx, "seats", "nope", 1, body(`{}`))
	s.ErrorIs(err, docstore.ErrNotFound)
}

func (s *ContractSuite) TestCommitAppliesAllWrites() {
	_, err := s.store.WriteIfAbsent(s.ctx, "seats", "S1", body(`{"occupied":false}`))
	s.Require().NoError(err)

	err = s.store.Commit(s.ctx,
		docstore.Write{Collection: "seats", ID: "S1", ExpectedVersion: 1, Data: body(`{"occupied":true}`)},
		docstore.Write{Collection: "seat_holders", ID: "alice", ExpectedVersion: 0, Data: body(`{"seat_id":"S1"}`)},
	)
	s.Require().NoError(err)

	seat, err := s.store.ReadOne(s.ctx, "seats", "S1")
	s.Require().NoError(err)
	s.Equal(int64(2), seat.Version)
	s.JSONEq(`{"occupied":true}`, string(seat.Data))

	holder, err := s.store.ReadOne(s.ctx, "seat_holders", "alice")
	s.Require().NoError(err)
	s.Equal(int64(1), holder.Version)
}

func (s *ContractSuite) TestCommitIsAllOrNothing() {
	_, err := s.store.WriteIfAbsent(s.ctx, "seats", "S1", body(`{"occupied":false}`))
	s.Require().NoError(err)
	_, err = s.store.WriteIfAbsent(s.ctx, "seat_holders", "alice", body(`{"seat_id":null}`))
	s.Require().NoError(err)

	// Second write expects a stale version, so the first must not land.
	err = s.store.Commit(s.ctx,
		docstore.Write{Collection: "seats", ID: "S1", ExpectedVersion: 1, Data: body(`{"occupied":true}`)},
		docstore.Write{Collection: "seat_holders", ID: "alice", ExpectedVersion: 7, Data: body(`{"seat_id":"S1"}`)},
	)
	s.ErrorIs(err, docstore.ErrVersionMismatch)

	seat, err := s.store.ReadOne(s.ctx, "seats", "S1")
	s.Require().NoError(err)
	s.Equal(int64(1), seat.Version)
	s.JSONEq(`{"occupied":false}`, string(seat.Data))
}

func (s *ContractSuite) TestCommitCreateOnExistingFails() {
	_, err := s.store.WriteIfAbsent(s.ctx, "seat_holders", "alice", body(`{"seat_id":null}`))
	s.Require().NoError(err)

	err = s.store.Commit(s.ctx,
		docstore.Write{Collection: "seat_holders", ID: "alice", ExpectedVersion: 0, Data: body(`{"seat_id":"S1"}`)},
	)
	s.ErrorIs(err, docstore.ErrVersionMismatch)
}

func (s *ContractSuite) TestCommitUpdateOnMissingFails() {
	err := s.store.Commit(s.ctx,
		docstore.Write{Collection: "seats", ID: "ghost", ExpectedVersion: 3, Data: body(`{}`)},
	)
	s.ErrorIs(err, docstore.ErrVersionMismatch)

	_, err = s.store.ReadOne(s.ctx, "seats", "ghost")
	s.ErrorIs(err, docstore.ErrNotFound)
}

func (s *ContractSuite) TestConcurrentConditionalUpdateHasOneWinner() {
	_, err := s.store.WriteIfAbsent(s.ctx, "seats", "S1", body(`{}`))
	s.Require().NoError(err)

	const workers = 16
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.store.ConditionalUpdate(s.ctx, "seats", "S1", 1, body(`{"w":true}`)); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}

func (s *ContractSuite) TestConcurrentWriteIfAbsentHasOneWinner() {
	const workers = 16
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.store.WriteIfAbsent(s.ctx, "seats", "S1", body(`{}`)); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())

	docs, err := s.store.ReadAll(s.ctx, "seats")
	s.Require().NoError(err)
	s.Len(docs, 1)
}
