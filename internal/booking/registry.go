// Package booking implements the seat reservation core: the seat registry,
// the toggle protocol that keeps one seat per person and one person per
// seat, and the per-viewer projection of the seat map.
package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/library-seat-reservation/internal/docstore"
	"github.com/iliyamo/library-seat-reservation/internal/identity"
	"github.com/iliyamo/library-seat-reservation/internal/model"
)

const (
	seatsCollection   = "seats"
	holdersCollection = "seat_holders"
	metaCollection    = "registry_meta"
	seedMarkerID      = "seed"
)

// seedMarker is written once the whole seat list is stored.
type seedMarker struct {
	Seats int `json:"seats"`
}

// seatDoc is the stored shape of a seat.
type seatDoc struct {
	ID       string  `json:"id"`
	CX       float64 `json:"cx"`
	CY       float64 `json:"cy"`
	R        float64 `json:"r"`
	Occupied bool    `json:"occupied"`
	UserID   *string `json:"user_id"`
}

// holderDoc records which seat an identity holds.  Its version changes on
// every book or unbook by that identity, which lets a commit detect a
// concurrent toggle by the same person on another seat.
type holderDoc struct {
	SeatID *string `json:"seat_id"`
}

func toDoc(s model.Seat) seatDoc {
	d := seatDoc{
		ID:       s.ID,
		CX:       s.Position.CX,
		CY:       s.Position.CY,
		R:        s.Position.R,
		Occupied: s.Occupied,
	}
	if !s.OwnerID.IsAnonymous() {
		owner := string(s.OwnerID)
		d.UserID = &owner
	}
	return d
}

func (d seatDoc) seat() model.Seat {
	s := model.Seat{
		ID:       d.ID,
		Position: model.Position{CX: d.CX, CY: d.CY, R: d.R},
		Occupied: d.Occupied,
	}
	if d.UserID != nil {
		s.OwnerID = identity.Identity(*d.UserID)
	}
	return s
}

// versionedSeat is a seat together with the document version it was read at.
type versionedSeat struct {
	model.Seat
	version int64
}

// Registry is the authoritative list of seats.  It exposes reads and
// seeding only; occupancy changes go through the Coordinator.
type Registry struct {
	store docstore.Store
}

// NewRegistry returns a registry backed by store.
func NewRegistry(store docstore.Store) *Registry {
	return &Registry{store: store}
}

// GetAll returns every seat in seed order.
func (r *Registry) GetAll(ctx context.Context) ([]model.Seat, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Seat, len(snap))
	for i, vs := range snap {
		out[i] = vs.Seat
	}
	return out, nil
}

// Get returns one seat or ErrSeatNotFound.
func (r *Registry) Get(ctx context.Context, id string) (model.Seat, error) {
	vs, err := r.read(ctx, id)
	if err != nil {
		return model.Seat{}, err
	}
	return vs.Seat, nil
}

// HeldBy returns the seat held by id, if any.
func (r *Registry) HeldBy(ctx context.Context, id identity.Identity) (model.Seat, bool, error) {
	if id.IsAnonymous() {
		return model.Seat{}, false, nil
	}
	snap, err := r.snapshot(ctx)
	if err != nil {
		return model.Seat{}, false, err
	}
	for _, vs := range snap {
		if vs.HeldBy(id) {
			return vs.Seat, true, nil
		}
	}
	return model.Seat{}, false, nil
}

// Seed writes the initial seat list.  It fails with ErrAlreadySeeded when
// the store already holds seats.  Each seat is written with write-if-absent,
// so a concurrent seeder can never produce a second document for an id.
func (r *Registry) Seed(ctx context.Context, seats []model.Seat) error {
	if err := validateSeed(seats); err != nil {
		return err
	}
	existing, err := r.store.ReadAll(ctx, seatsCollection)
	if err != nil {
		return unavailable(err)
	}
	if len(existing) > 0 {
		return ErrAlreadySeeded
	}
	if _, err := r.writeSeats(ctx, seats); err != nil {
		return err
	}
	_, err = r.markSeeded(ctx, len(seats))
	return err
}

// SeedIfEmpty seeds on first run and reports whether it wrote anything.
// A seed that stopped partway leaves no completion marker; the next call
// writes the missing seats and then sets the marker.
func (r *Registry) SeedIfEmpty(ctx context.Context, seats []model.Seat) (bool, error) {
	if err := validateSeed(seats); err != nil {
		return false, err
	}
	_, err := r.store.ReadOne(ctx, metaCollection, seedMarkerID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return false, unavailable(err)
	}
	wrote, err := r.writeSeats(ctx, seats)
	if err != nil {
		return false, err
	}
	marked, err := r.markSeeded(ctx, len(seats))
	if err != nil {
		return false, err
	}
	return wrote > 0 || marked, nil
}

// writeSeats creates every seat, and the holder record of every owned seat,
// that is not stored yet.  It returns how many seat documents it created.
func (r *Registry) writeSeats(ctx context.Context, seats []model.Seat) (int, error) {
	var wrote int
	for _, s := range seats {
		data, err := docstore.Marshal(toDoc(s))
		if err != nil {
			return wrote, err
		}
		_, err = r.store.WriteIfAbsent(ctx, seatsCollection, s.ID, data)
		switch {
		case err == nil:
			wrote++
		case errors.Is(err, docstore.ErrAlreadyExists):
			continue
		default:
			return wrote, unavailable(err)
		}
		if s.OwnerID.IsAnonymous() {
			continue
		}
		seatID := s.ID
		hd, err := docstore.Marshal(holderDoc{SeatID: &seatID})
		if err != nil {
			return wrote, err
		}
		if _, err := r.store.WriteIfAbsent(ctx, holdersCollection, string(s.OwnerID), hd); err != nil && !errors.Is(err, docstore.ErrAlreadyExists) {
			return wrote, unavailable(err)
		}
	}
	return wrote, nil
}

// markSeeded records that every seat has been written.
func (r *Registry) markSeeded(ctx context.Context, count int) (bool, error) {
	data, err := docstore.Marshal(seedMarker{Seats: count})
	if err != nil {
		return false, err
	}
	_, err = r.store.WriteIfAbsent(ctx, metaCollection, seedMarkerID, data)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, docstore.ErrAlreadyExists):
		return false, nil
	}
	return false, unavailable(err)
}

func validateSeed(seats []model.Seat) error {
	if len(seats) == 0 {
		return fmt.Errorf("%w: no seats", ErrInvalidSeed)
	}
	ids := make(map[string]bool, len(seats))
	owners := make(map[identity.Identity]string)
	for i, s := range seats {
		if s.ID == "" {
			return fmt.Errorf("%w: seat %d has no id", ErrInvalidSeed, i)
		}
		if ids[s.ID] {
			return fmt.Errorf("%w: duplicate seat id %q", ErrInvalidSeed, s.ID)
		}
		ids[s.ID] = true
		if !s.Consistent() {
			return fmt.Errorf("%w: seat %q occupied flag disagrees with owner", ErrInvalidSeed, s.ID)
		}
		if s.OwnerID.IsAnonymous() {
			continue
		}
		if other, ok := owners[s.OwnerID]; ok {
			return fmt.Errorf("%w: %q holds both %q and %q", ErrInvalidSeed, s.OwnerID, other, s.ID)
		}
		owners[s.OwnerID] = s.ID
	}
	return nil
}

func (r *Registry) snapshot(ctx context.Context) ([]versionedSeat, error) {
	docs, err := r.store.ReadAll(ctx, seatsCollection)
	if err != nil {
		return nil, unavailable(err)
	}
	out := make([]versionedSeat, 0, len(docs))
	for _, doc := range docs {
		vs, err := decodeSeat(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, vs)
	}
	return out, nil
}

func (r *Registry) read(ctx context.Context, id string) (versionedSeat, error) {
	doc, err := r.store.ReadOne(ctx, seatsCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return versionedSeat{}, ErrSeatNotFound
	}
	if err != nil {
		return versionedSeat{}, unavailable(err)
	}
	return decodeSeat(doc)
}

// holderVersion returns the version of id's holder document, 0 when absent.
func (r *Registry) holderVersion(ctx context.Context, id identity.Identity) (int64, error) {
	doc, err := r.store.ReadOne(ctx, holdersCollection, string(id))
	if errors.Is(err, docstore.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable(err)
	}
	return doc.Version, nil
}

// commit writes the seat's next state together with the actor's holder
// document.  Both are conditioned on the versions read earlier; a lost race
// surfaces as docstore.ErrVersionMismatch.
func (r *Registry) commit(ctx context.Context, prev versionedSeat, next model.Seat, actor identity.Identity, holderVersion int64) error {
	sd, err := docstore.Marshal(toDoc(next))
	if err != nil {
		return err
	}
	var held holderDoc
	if next.HeldBy(actor) {
		seatID := next.ID
		held.SeatID = &seatID
	}
	hd, err := docstore.Marshal(held)
	if err != nil {
		return err
	}

	err = r.store.Commit(ctx,
		docstore.Write{Collection: seatsCollection, ID: prev.ID, ExpectedVersion: prev.version, Data: sd},
		docstore.Write{Collection: holdersCollection, ID: string(actor), ExpectedVersion: holderVersion, Data: hd},
	)
	if err == nil || docstore.IsContractError(err) {
		return err
	}
	return unavailable(err)
}

func decodeSeat(doc docstore.Document) (versionedSeat, error) {
	var d seatDoc
	if err := doc.Decode(&d); err != nil {
		return versionedSeat{}, fmt.Errorf("decode seat %q: %w", doc.ID, err)
	}
	if d.ID == "" {
		d.ID = doc.ID
	}
	return versionedSeat{Seat: d.seat(), version: doc.Version}, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
