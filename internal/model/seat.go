package model

import "github.com/iliyamo/library-seat-reservation/internal/identity"

// Position is the seat's placement on the floor plan.  It is set when the
// registry is seeded and never changes afterwards.
type Position struct {
	CX float64 `json:"cx" yaml:"cx"` // circle centre x
	CY float64 `json:"cy" yaml:"cy"` // circle centre y
	R  float64 `json:"r" yaml:"r"`   // circle radius
}

// Seat is the unit of allocation.
//
// Fields:
//
//	ID       – stable identifier (S1, S2, ...), unique within the registry.
//	Position – floor-plan geometry, immutable.
//	Occupied – true iff OwnerID is set.
//	OwnerID  – identity holding the seat, Anonymous when free.
type Seat struct {
	ID       string
	Position Position
	Occupied bool
	OwnerID  identity.Identity
}

// HeldBy reports whether id currently holds the seat.  Anonymous never
// holds anything.
func (s Seat) HeldBy(id identity.Identity) bool {
	return !id.IsAnonymous() && s.OwnerID == id
}

// Consistent reports whether Occupied and OwnerID agree.
func (s Seat) Consistent() bool {
	return s.Occupied == !s.OwnerID.IsAnonymous()
}

// ReservationAction is a toggle request: book the seat if the actor holds
// nothing, unbook it if the actor already holds it.
type ReservationAction struct {
	ActorID identity.Identity
	SeatID  string
}

// SeatRole is the seat's relation to the viewer.
type SeatRole string

const (
	RoleAvailable       SeatRole = "available"
	RoleOccupiedBySelf  SeatRole = "occupied_by_self"
	RoleOccupiedByOther SeatRole = "occupied_by_other"
)

// SeatView is the per-viewer rendering of a seat.  It never carries the
// owner id; a viewer only learns whether the seat is theirs.
type SeatView struct {
	ID       string   `json:"id"`
	CX       float64  `json:"cx"`
	CY       float64  `json:"cy"`
	R        float64  `json:"r"`
	Occupied bool     `json:"occupied"`
	Role     SeatRole `json:"role"`
	Label    string   `json:"label"`  // Available, Occupied, Booked by you
	Fill     string   `json:"fill"`   // circle fill colour
	Stroke   string   `json:"stroke"` // circle outline colour
	Action   string   `json:"action"` // book, unbook or empty when disabled
}
