package booking

import "errors"

// Booking outcomes.  Every rejection carries its own sentinel so callers can
// render a specific message.
var (
	// ErrUnauthenticated is returned for toggles by an anonymous caller.
	ErrUnauthenticated = errors.New("sign in to book a seat")
	// ErrAlreadyHoldingSeat is returned when the actor holds a different
	// seat.  The old seat is never released implicitly.
	ErrAlreadyHoldingSeat = errors.New("you already hold another seat; release it first")
	// ErrSeatTaken is returned when someone else holds the target seat.
	ErrSeatTaken = errors.New("seat is taken")
	// ErrConflict is returned when every attempt lost a concurrent write.
	ErrConflict = errors.New("seat changed while booking; try again")
	// ErrSeatNotFound is returned for unknown seat ids.
	ErrSeatNotFound = errors.New("seat not found")
	// ErrAlreadySeeded is returned by Seed when seats already exist.
	ErrAlreadySeeded = errors.New("seat registry already seeded")
	// ErrInvalidSeed is returned when a seed list breaks the seat invariants.
	ErrInvalidSeed = errors.New("invalid seed data")
	// ErrStoreUnavailable wraps transport and backend failures.
	ErrStoreUnavailable = errors.New("seat store unavailable")
)

var reasons = []struct {
	err  error
	code string
}{
	{ErrUnauthenticated, "unauthenticated"},
	{ErrAlreadyHoldingSeat, "already_holding_seat"},
	{ErrSeatTaken, "seat_taken"},
	{ErrConflict, "conflict"},
	{ErrSeatNotFound, "seat_not_found"},
	{ErrAlreadySeeded, "already_seeded"},
	{ErrInvalidSeed, "invalid_seed"},
	{ErrStoreUnavailable, "store_unavailable"},
}

// Reason maps a booking error to a stable machine-readable code.  Unknown
// errors map to "internal".
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.code
		}
	}
	return "internal"
}
