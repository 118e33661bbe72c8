package booking

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/library-seat-reservation/internal/identity"
	"github.com/iliyamo/library-seat-reservation/internal/model"
)

// seedRecord is one entry of a seat geometry file as written by the floor
// plan extraction script.
type seedRecord struct {
	ID       string  `json:"id" yaml:"id"`
	Occupied bool    `json:"occupied" yaml:"occupied"`
	UserID   *string `json:"userId" yaml:"userId"`
	CX       float64 `json:"cx" yaml:"cx"`
	CY       float64 `json:"cy" yaml:"cy"`
	R        float64 `json:"r" yaml:"r"`
}

// LoadSeats reads a seat geometry file.  Files ending in .yaml or .yml are
// parsed as YAML, everything else as JSON.
func LoadSeats(path string) ([]model.Seat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seat data: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return ParseSeats(data, ext == ".yaml" || ext == ".yml")
}

// ParseSeats decodes a seat list from JSON, or YAML when asYAML is set.
func ParseSeats(data []byte, asYAML bool) ([]model.Seat, error) {
	var records []seedRecord
	var err error
	if asYAML {
		err = yaml.Unmarshal(data, &records)
	} else {
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}

	seats := make([]model.Seat, 0, len(records))
	for _, rec := range records {
		s := model.Seat{
			ID:       rec.ID,
			Position: model.Position{CX: rec.CX, CY: rec.CY, R: rec.R},
			Occupied: rec.Occupied,
		}
		if rec.UserID != nil {
			s.OwnerID = identity.Identity(*rec.UserID)
		}
		seats = append(seats, s)
	}
	return seats, nil
}
