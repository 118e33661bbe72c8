// Package docstore defines the document store contract consumed by the
// booking core.  A store holds JSON documents grouped into collections.
// Every document carries a monotonically increasing version that backs the
// conditional (compare-and-swap) writes the reservation protocol relies on.
// Drivers live in the memory, mysql and redis subpackages.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrAlreadyExists is returned by WriteIfAbsent when the id is taken.
var ErrAlreadyExists = errors.New("document already exists")

// ErrVersionMismatch is returned when a conditional write finds a stored
// version different from the expected one.
var ErrVersionMismatch = errors.New("document version mismatch")

// Document is a stored JSON document.
//
// Fields:
//
//	ID      – id unique within its collection.
//	Version – starts at 1 on insert and grows by one on every update.
//	Seq     – insertion sequence within the collection; ReadAll orders by it.
//	Data    – the JSON body.
type Document struct {
	ID      string
	Version int64
	Seq     int64
	Data    json.RawMessage
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	return json.Unmarshal(d.Data, v)
}

// Write is one element of an atomic Commit.  ExpectedVersion 0 means the
// document must not exist yet and is created by the commit; any other value
// must equal the stored version.
type Write struct {
	Collection      string
	ID              string
	ExpectedVersion int64
	Data            json.RawMessage
}

// Store is the minimal document store contract.  Implementations must be
// safe for concurrent use; conditional operations must be atomic per
// document and Commit must be atomic across all of its writes.
type Store interface {
	// ReadAll returns every document of a collection in insertion order.
	ReadAll(ctx context.Context, collection string) ([]Document, error)
	// ReadOne returns a single document or ErrNotFound.
	ReadOne(ctx context.Context, collection, id string) (Document, error)
	// WriteIfAbsent creates a document at version 1 or fails with
	// ErrAlreadyExists.
	WriteIfAbsent(ctx context.Context, collection, id string, data json.RawMessage) (Document, error)
	// ConditionalUpdate replaces the body only when the stored version
	// equals expectedVersion.  It returns ErrNotFound or ErrVersionMismatch.
	ConditionalUpdate(ctx context.Context, collection, id string, expectedVersion int64, data json.RawMessage) (Document, error)
	// Commit applies all writes or none of them.  A failed precondition
	// yields ErrVersionMismatch.
	Commit(ctx context.Context, writes ...Write) error
}

// Marshal is a small helper that turns a value into a document body.
func Marshal(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// IsContractError reports whether err is one of the contract outcomes
// (not found, already exists, version mismatch) rather than a transport or
// backend failure.
func IsContractError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrVersionMismatch)
}
