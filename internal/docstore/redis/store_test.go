package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/iliyamo/library-seat-reservation/internal/docstore"
	"github.com/iliyamo/library-seat-reservation/internal/docstore/docstoretest"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "test"), mini
}

func TestContract(t *testing.T) {
	suite.Run(t, &docstoretest.ContractSuite{
		NewStore: func(t *testing.T) docstore.Store {
			s, _ := newTestStore(t)
			return s
		},
	})
}

func TestKeyLayout(t *testing.T) {
	s, mini := newTestStore(t)
	ctx := context.Background()

	_, err := s.WriteIfAbsent(ctx, "seats", "S1", json.RawMessage(`{"id":"S1"}`))
	require.NoError(t, err)

	require.True(t, mini.Exists("test:doc:seats:S1"))
	require.Equal(t, "1", mini.HGet("test:doc:seats:S1", "v"))
	require.Equal(t, `{"id":"S1"}`, mini.HGet("test:doc:seats:S1", "d"))

	members, err := mini.ZMembers("test:idx:seats")
	require.NoError(t, err)
	require.Equal(t, []string{"S1"}, members)
}

func TestDefaultPrefix(t *testing.T) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer client.Close()

	s := New(client, "")
	_, err := s.WriteIfAbsent(context.Background(), "seats", "S1", json.RawMessage(`{}`))
	require.NoError(t, err)
	require.True(t, mini.Exists("{seats}:doc:seats:S1"))
	require.True(t, mini.Exists("{seats}:idx:seats"))
	require.True(t, mini.Exists("{seats}:seq:seats"))
}

func TestServerDownIsNotAContractError(t *testing.T) {
	s, mini := newTestStore(t)
	mini.Close()

	_, err := s.ReadAll(context.Background(), "seats")
	require.Error(t, err)
	require.False(t, docstore.IsContractError(err))
}
