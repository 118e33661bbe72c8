package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/iliyamo/library-seat-reservation/internal/docstore"
)

type key struct {
	collection string
	id         string
}

// Store is an in-memory implementation of the document store contract.
// It is used by tests and by the "memory" store driver in development.
type Store struct {
	mu   sync.Mutex
	docs map[key]docstore.Document
	seq  map[string]int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		docs: make(map[key]docstore.Document),
		seq:  make(map[string]int64),
	}
}

// Ensure Store implements the interface
var _ docstore.Store = (*Store)(nil)

func (s *Store) ReadAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]docstore.Document, 0)
	for k, d := range s.docs {
		if k.collection == collection {
			out = append(out, clone(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (s *Store) ReadOne(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.docs[key{collection, id}]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return clone(d), nil
}

func (s *Store) WriteIfAbsent(ctx context.Context, collection, id string, data json.RawMessage) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[key{collection, id}]; ok {
		return docstore.Document{}, docstore.ErrAlreadyExists
	}
	return clone(s.insertLocked(collection, id, data)), nil
}

func (s *Store) ConditionalUpdate(ctx context.Context, collection, id string, expectedVersion int64, data json.RawMessage) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{collection, id}
	d, ok := s.docs[k]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	if d.Version != expectedVersion {
		return docstore.Document{}, docstore.ErrVersionMismatch
	}
	d.Version++
	d.Data = copyBytes(data)
	s.docs[k] = d
	return clone(d), nil
}

func (s *Store) Commit(ctx context.Context, writes ...docstore.Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check every precondition before touching anything.
	for _, w := range writes {
		d, ok := s.docs[key{w.Collection, w.ID}]
		switch {
		case w.ExpectedVersion == 0 && ok:
			return docstore.ErrVersionMismatch
		case w.ExpectedVersion != 0 && (!ok || d.Version != w.ExpectedVersion):
			return docstore.ErrVersionMismatch
		}
	}
	for _, w := range writes {
		k := key{w.Collection, w.ID}
		if w.ExpectedVersion == 0 {
			s.insertLocked(w.Collection, w.ID, w.Data)
			continue
		}
		d := s.docs[k]
		d.Version++
		d.Data = copyBytes(w.Data)
		s.docs[k] = d
	}
	return nil
}

// Len returns the number of documents in a collection.
func (s *Store) Len(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.docs {
		if k.collection == collection {
			n++
		}
	}
	return n
}

func (s *Store) insertLocked(collection, id string, data json.RawMessage) docstore.Document {
	s.seq[collection]++
	d := docstore.Document{
		ID:      id,
		Version: 1,
		Seq:     s.seq[collection],
		Data:    copyBytes(data),
	}
	s.docs[key{collection, id}] = d
	return d
}

func clone(d docstore.Document) docstore.Document {
	d.Data = copyBytes(d.Data)
	return d
}

func copyBytes(b []byte) json.RawMessage {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
