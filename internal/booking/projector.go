package booking

import (
	"github.com/iliyamo/library-seat-reservation/internal/identity"
	"github.com/iliyamo/library-seat-reservation/internal/model"
)

// Floor-plan colours.
const (
	fillFree      = "#6ee7b7"
	fillTaken     = "#fb7185"
	strokeOwn     = "#2563eb"
	strokeDefault = "#e5e7eb"
)

// Project derives what viewer sees for each seat, in input order.
func Project(seats []model.Seat, viewer identity.Identity) []model.SeatView {
	out := make([]model.SeatView, len(seats))
	for i, s := range seats {
		out[i] = ProjectOne(s, viewer)
	}
	return out
}

// ProjectOne derives a single seat view.
func ProjectOne(s model.Seat, viewer identity.Identity) model.SeatView {
	v := model.SeatView{
		ID:       s.ID,
		CX:       s.Position.CX,
		CY:       s.Position.CY,
		R:        s.Position.R,
		Occupied: s.Occupied,
	}
	switch {
	case !s.Occupied:
		v.Role = model.RoleAvailable
		v.Label = "Available"
		v.Fill = fillFree
		v.Stroke = strokeDefault
		if !viewer.IsAnonymous() {
			v.Action = "book"
		}
	case s.HeldBy(viewer):
		v.Role = model.RoleOccupiedBySelf
		v.Label = "Booked by you"
		v.Fill = fillFree
		v.Stroke = strokeOwn
		v.Action = "unbook"
	default:
		v.Role = model.RoleOccupiedByOther
		v.Label = "Occupied"
		v.Fill = fillTaken
		v.Stroke = strokeDefault
	}
	return v
}
