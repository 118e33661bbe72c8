package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/library-seat-reservation/internal/identity"
	"github.com/iliyamo/library-seat-reservation/internal/model"
)

func TestProjectOne(t *testing.T) {
	free := model.Seat{ID: "S1", Position: model.Position{CX: 1, CY: 2, R: 3}}
	mine := model.Seat{ID: "S2", Occupied: true, OwnerID: "alice"}
	theirs := model.Seat{ID: "S3", Occupied: true, OwnerID: "bob"}

	tests := []struct {
		name   string
		seat   model.Seat
		viewer identity.Identity
		role   model.SeatRole
		label  string
		fill   string
		stroke string
		action string
	}{
		{"free for user", free, "alice", model.RoleAvailable, "Available", fillFree, strokeDefault, "book"},
		{"free for anonymous", free, identity.Anonymous, model.RoleAvailable, "Available", fillFree, strokeDefault, ""},
		{"own seat", mine, "alice", model.RoleOccupiedBySelf, "Booked by you", fillFree, strokeOwn, "unbook"},
		{"other's seat", theirs, "alice", model.RoleOccupiedByOther, "Occupied", fillTaken, strokeDefault, ""},
		{"anonymous sees occupied", mine, identity.Anonymous, model.RoleOccupiedByOther, "Occupied", fillTaken, strokeDefault, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ProjectOne(tt.seat, tt.viewer)
			assert.Equal(t, tt.seat.ID, v.ID)
			assert.Equal(t, tt.role, v.Role)
			assert.Equal(t, tt.label, v.Label)
			assert.Equal(t, tt.fill, v.Fill)
			assert.Equal(t, tt.stroke, v.Stroke)
			assert.Equal(t, tt.action, v.Action)
			assert.Equal(t, tt.seat.Occupied, v.Occupied)
		})
	}
}

func TestProjectKeepsOrderAndGeometry(t *testing.T) {
	seats := []model.Seat{
		{ID: "S2", Position: model.Position{CX: 5, CY: 6, R: 7}},
		{ID: "S1", Occupied: true, OwnerID: "bob"},
	}
	views := Project(seats, "alice")
	assert.Len(t, views, 2)
	assert.Equal(t, "S2", views[0].ID)
	assert.Equal(t, 5.0, views[0].CX)
	assert.Equal(t, 6.0, views[0].CY)
	assert.Equal(t, 7.0, views[0].R)
	assert.Equal(t, "S1", views[1].ID)
}

func TestProjectIsDeterministic(t *testing.T) {
	seats := []model.Seat{{ID: "S1"}, {ID: "S2", Occupied: true, OwnerID: "alice"}}
	assert.Equal(t, Project(seats, "alice"), Project(seats, "alice"))
	assert.Empty(t, Project(nil, "alice"))
}
