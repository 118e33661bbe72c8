// Package redis implements the document store on Redis.  Each document is a
// hash with fields v (version), d (JSON body) and s (insertion sequence).
// A sorted set per collection keeps insertion order.  Every conditional
// operation runs as a Lua script so the check and the write are atomic on
// the server.  Commit touches several keys; on Redis Cluster all of them
// must hash to the same slot.  DefaultPrefix is a hash tag for that reason,
// and a custom prefix must be one too (for example "{library}") to run on a
// cluster.  A prefix without braces only works against a single node.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/library-seat-reservation/internal/docstore"
)

var writeIfAbsentScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 1 then
		return 0
	end
	local seq = redis.call('INCR', KEYS[3])
	redis.call('HMSET', KEYS[1], 'v', 1, 'd', ARGV[2], 's', seq)
	redis.call('ZADD', KEYS[2], seq, ARGV[1])
	return seq
`)

var conditionalUpdateScript = redis.NewScript(`
	local v = redis.call('HGET', KEYS[1], 'v')
	if not v then
		return {-1, 0}
	end
	if tonumber(v) ~= tonumber(ARGV[1]) then
		return {0, 0}
	end
	local nv = tonumber(v) + 1
	redis.call('HMSET', KEYS[1], 'v', nv, 'd', ARGV[2])
	return {nv, tonumber(redis.call('HGET', KEYS[1], 's'))}
`)

// KEYS and ARGV come in triplets: (doc, index, seq) and (id, expected, data).
var commitScript = redis.NewScript(`
	local n = #ARGV / 3
	for i = 1, n do
		local base = (i - 1) * 3
		local expected = tonumber(ARGV[base + 2])
		local v = redis.call('HGET', KEYS[base + 1], 'v')
		if expected == 0 then
			if v then return 0 end
		else
			if (not v) or tonumber(v) ~= expected then return 0 end
		end
	end
	for i = 1, n do
		local base = (i - 1) * 3
		local expected = tonumber(ARGV[base + 2])
		if expected == 0 then
			local seq = redis.call('INCR', KEYS[base + 3])
			redis.call('HMSET', KEYS[base + 1], 'v', 1, 'd', ARGV[base + 3], 's', seq)
			redis.call('ZADD', KEYS[base + 2], seq, ARGV[base + 1])
		else
			redis.call('HMSET', KEYS[base + 1], 'v', expected + 1, 'd', ARGV[base + 3])
		end
	end
	return 1
`)

// Store is a Redis-backed document store.
type Store struct {
	client *redis.Client
	prefix string
}

// New wraps an existing client.  An empty prefix selects DefaultPrefix.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Ensure Store implements the interface
var _ docstore.Store = (*Store)(nil)

func (s *Store) ReadAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	ids, err := s.client.ZRange(ctx, indexKey(s.prefix, collection), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]docstore.Document, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.SliceCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HMGet(ctx, docKey(s.prefix, collection, id), "v", "d", "s")
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	for i, cmd := range cmds {
		doc, ok, err := decodeHash(ids[i], cmd.Val())
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *Store) ReadOne(ctx context.Context, collection, id string) (docstore.Document, error) {
	vals, err := s.client.HMGet(ctx, docKey(s.prefix, collection, id), "v", "d", "s").Result()
	if err != nil {
		return docstore.Document{}, err
	}
	doc, ok, err := decodeHash(id, vals)
	if err != nil {
		return docstore.Document{}, err
	}
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return doc, nil
}

func (s *Store) WriteIfAbsent(ctx context.Context, collection, id string, data json.RawMessage) (docstore.Document, error) {
	keys := []string{docKey(s.prefix, collection, id), indexKey(s.prefix, collection), seqKey(s.prefix, collection)}
	seq, err := writeIfAbsentScript.Run(ctx, s.client, keys, id, string(data)).Int64()
	if err != nil {
		return docstore.Document{}, err
	}
	if seq == 0 {
		return docstore.Document{}, docstore.ErrAlreadyExists
	}
	return docstore.Document{ID: id, Version: 1, Seq: seq, Data: data}, nil
}

func (s *Store) ConditionalUpdate(ctx context.Context, collection, id string, expectedVersion int64, data json.RawMessage) (docstore.Document, error) {
	res, err := conditionalUpdateScript.Run(ctx, s.client, []string{docKey(s.prefix, collection, id)}, expectedVersion, string(data)).Slice()
	if err != nil {
		return docstore.Document{}, err
	}
	if len(res) != 2 {
		return docstore.Document{}, fmt.Errorf("redis docstore: unexpected script result %#v", res)
	}
	switch v := asInt64(res[0]); v {
	case -1:
		return docstore.Document{}, docstore.ErrNotFound
	case 0:
		return docstore.Document{}, docstore.ErrVersionMismatch
	default:
		return docstore.Document{ID: id, Version: v, Seq: asInt64(res[1]), Data: data}, nil
	}
}

func (s *Store) Commit(ctx context.Context, writes ...docstore.Write) error {
	if len(writes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(writes)*3)
	args := make([]interface{}, 0, len(writes)*3)
	for _, w := range writes {
		keys = append(keys, docKey(s.prefix, w.Collection, w.ID), indexKey(s.prefix, w.Collection), seqKey(s.prefix, w.Collection))
		args = append(args, w.ID, w.ExpectedVersion, string(w.Data))
	}
	ok, err := commitScript.Run(ctx, s.client, keys, args...).Int64()
	if err != nil {
		return err
	}
	if ok != 1 {
		return docstore.ErrVersionMismatch
	}
	return nil
}

// decodeHash turns an HMGET v d s reply into a document.  The bool is false
// when the hash does not exist.
func decodeHash(id string, vals []interface{}) (docstore.Document, bool, error) {
	if len(vals) != 3 || vals[0] == nil {
		return docstore.Document{}, false, nil
	}
	data, ok := vals[1].(string)
	if !ok {
		return docstore.Document{}, false, errors.New("redis docstore: malformed document body")
	}
	return docstore.Document{
		ID:      id,
		Version: asInt64(vals[0]),
		Seq:     asInt64(vals[2]),
		Data:    json.RawMessage(data),
	}, true, nil
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
