package booking

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iliyamo/library-seat-reservation/internal/docstore"
	"github.com/iliyamo/library-seat-reservation/internal/identity"
	"github.com/iliyamo/library-seat-reservation/internal/model"
)

// DefaultMaxAttempts bounds how often a toggle is retried after losing a
// concurrent write.
const DefaultMaxAttempts = 3

// Coordinator runs the toggle protocol.  It keeps no state between calls and
// is safe for concurrent use; all coordination happens through the store's
// conditional commit.
type Coordinator struct {
	registry    *Registry
	maxAttempts int
	logger      *slog.Logger
}

// NewCoordinator creates a coordinator.  maxAttempts below 1 selects
// DefaultMaxAttempts.
func NewCoordinator(registry *Registry, maxAttempts int, logger *slog.Logger) *Coordinator {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Coordinator{
		registry:    registry,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Toggle books the target seat when the actor holds nothing, or releases it
// when the actor already holds it.  It returns the seat's new state.
func (c *Coordinator) Toggle(ctx context.Context, action model.ReservationAction) (model.Seat, error) {
	if action.ActorID.IsAnonymous() {
		c.logger.Info("toggle rejected",
			slog.String("seat_id", action.SeatID),
			slog.String("reason", Reason(ErrUnauthenticated)),
		)
		return model.Seat{}, ErrUnauthenticated
	}

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		next, err := c.attempt(ctx, action)
		switch {
		case err == nil:
			c.logger.Info("seat toggled",
				slog.String("actor", action.ActorID.String()),
				slog.String("seat_id", next.ID),
				slog.Bool("occupied", next.Occupied),
				slog.Int("attempt", attempt),
			)
			return next, nil
		case errors.Is(err, docstore.ErrVersionMismatch):
			c.logger.Debug("toggle lost a concurrent write",
				slog.String("actor", action.ActorID.String()),
				slog.String("seat_id", action.SeatID),
				slog.Int("attempt", attempt),
			)
		default:
			level := slog.LevelInfo
			if errors.Is(err, ErrStoreUnavailable) {
				level = slog.LevelError
			}
			c.logger.Log(ctx, level, "toggle rejected",
				slog.String("actor", action.ActorID.String()),
				slog.String("seat_id", action.SeatID),
				slog.String("reason", Reason(err)),
				slog.String("error", err.Error()),
			)
			return model.Seat{}, err
		}
	}

	c.logger.Warn("toggle gave up",
		slog.String("actor", action.ActorID.String()),
		slog.String("seat_id", action.SeatID),
		slog.Int("attempts", c.maxAttempts),
	)
	return model.Seat{}, ErrConflict
}

// attempt runs one read-decide-commit round.
func (c *Coordinator) attempt(ctx context.Context, action model.ReservationAction) (model.Seat, error) {
	actor := action.ActorID

	// The holder version must be read before the scan: a toggle by the same
	// actor that lands after this read bumps it and fails our commit.
	holderVersion, err := c.registry.holderVersion(ctx, actor)
	if err != nil {
		return model.Seat{}, err
	}
	target, err := c.registry.read(ctx, action.SeatID)
	if err != nil {
		return model.Seat{}, err
	}
	snap, err := c.registry.snapshot(ctx)
	if err != nil {
		return model.Seat{}, err
	}

	var held *versionedSeat
	for i := range snap {
		if snap[i].HeldBy(actor) {
			held = &snap[i]
			break
		}
	}

	next := target.Seat
	switch {
	case target.HeldBy(actor):
		next.Occupied = false
		next.OwnerID = identity.Anonymous
	case held != nil && held.ID != target.ID:
		return model.Seat{}, ErrAlreadyHoldingSeat
	case target.Occupied:
		return model.Seat{}, ErrSeatTaken
	default:
		next.Occupied = true
		next.OwnerID = actor
	}

	if err := c.registry.commit(ctx, target, next, actor, holderVersion); err != nil {
		return model.Seat{}, err
	}
	return next, nil
}
