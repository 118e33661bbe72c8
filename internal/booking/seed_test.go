package booking

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-reservation/internal/identity"
	"github.com/iliyamo/library-seat-reservation/internal/model"
)

const seatJSON = `[
  {"id": "S1", "occupied": false, "userId": null, "cx": 101.5, "cy": 40, "r": 9},
  {"id": "S2", "occupied": true, "userId": "u-7", "cx": 130, "cy": 40, "r": 9}
]`

const seatYAML = `
- id: S1
  occupied: false
  cx: 101.5
  cy: 40
  r: 9
- id: S2
  occupied: true
  userId: u-7
  cx: 130
  cy: 40
  r: 9
`

func TestParseSeats(t *testing.T) {
	want := []model.Seat{
		{ID: "S1", Position: model.Position{CX: 101.5, CY: 40, R: 9}},
		{ID: "S2", Position: model.Position{CX: 130, CY: 40, R: 9}, Occupied: true, OwnerID: identity.Identity("u-7")},
	}

	fromJSON, err := ParseSeats([]byte(seatJSON), false)
	require.NoError(t, err)
	require.Equal(t, want, fromJSON)

	fromYAML, err := ParseSeats([]byte(seatYAML), true)
	require.NoError(t, err)
	require.Equal(t, want, fromYAML)
}

func TestParseSeatsRejectsGarbage(t *testing.T) {
	_, err := ParseSeats([]byte(`{"not":"a list"}`), false)
	require.ErrorIs(t, err, ErrInvalidSeed)
}

func TestLoadSeatsPicksFormatByExtension(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "seats.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(seatYAML), 0o600))
	jsonPath := filepath.Join(dir, "seat-data.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(seatJSON), 0o600))

	seats, err := LoadSeats(yamlPath)
	require.NoError(t, err)
	require.Len(t, seats, 2)

	seats, err = LoadSeats(jsonPath)
	require.NoError(t, err)
	require.Len(t, seats, 2)

	_, err = LoadSeats(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}
