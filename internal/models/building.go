package models

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrDuplicateFloor  = errors.New("floor already exists")
	ErrUnknownFloor    = errors.New("unknown floor")
	ErrInvalidBuilding = errors.New("invalid building")
)

// Floor describes one served floor.
type Floor struct {
	Number       FloorID `json:"number" mapstructure:"number"`
	Name         string  `json:"name" mapstructure:"name"`
	DisplayOrder int     `json:"display_order" mapstructure:"display_order"`
}

func (f Floor) String() string {
	return fmt.Sprintf("%s (%d)", f.Name, f.Number)
}

// Building is the set of floors the elevator serves.
type Building struct {
	floors []Floor
}

// DefaultBuilding returns the two-floor layout.
func DefaultBuilding() *Building {
	return &Building{floors: []Floor{
		{Number: 0, Name: "Ground Floor", DisplayOrder: 0},
		{Number: 1, Name: "First Floor", DisplayOrder: 1},
	}}
}

// NewBuilding builds a validated building from a floor list.
func NewBuilding(floors []Floor) (*Building, error) {
	b := &Building{}
	for _, f := range floors {
		if err := b.AddFloor(f); err != nil {
			return nil, err
		}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// AddFloor registers a floor; numbers must be unique.
func (b *Building) AddFloor(f Floor) error {
	if _, ok := b.lookup(f.Number); ok {
		return fmt.Errorf("%w: %d", ErrDuplicateFloor, f.Number)
	}
	if f.Name == "" {
		f.Name = fmt.Sprintf("Floor %d", f.Number)
	}
	b.floors = append(b.floors, f)
	return nil
}

// RemoveFloor drops a floor by number.
func (b *Building) RemoveFloor(n FloorID) error {
	for i, f := range b.floors {
		if f.Number == n {
			b.floors = append(b.floors[:i], b.floors[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownFloor, n)
}

// Validate checks that the building is non-empty and has no gaps between
// its lowest and highest floor, so a range check is enough to validate a request.
func (b *Building) Validate() error {
	if len(b.floors) == 0 {
		return fmt.Errorf("%w: no floors configured", ErrInvalidBuilding)
	}
	lo, hi := b.Min(), b.Max()
	if int(hi-lo)+1 != len(b.floors) {
		return fmt.Errorf("%w: floors %d..%d are not contiguous", ErrInvalidBuilding, lo, hi)
	}
	return nil
}

// Contains reports whether n is a served floor.
func (b *Building) Contains(n FloorID) bool {
	_, ok := b.lookup(n)
	return ok
}

// FloorName returns the configured name, or "Floor N" for unknown floors.
func (b *Building) FloorName(n FloorID) string {
	if f, ok := b.lookup(n); ok {
		return f.Name
	}
	return fmt.Sprintf("Floor %d", n)
}

// Floors returns a copy of the floors sorted by display order.
func (b *Building) Floors() []Floor {
	out := make([]Floor, len(b.floors))
	copy(out, b.floors)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out
}

func (b *Building) Min() FloorID {
	var lo FloorID
	for i, f := range b.floors {
		if i == 0 || f.Number < lo {
			lo = f.Number
		}
	}
	return lo
}

func (b *Building) Max() FloorID {
	var hi FloorID
	for i, f := range b.floors {
		if i == 0 || f.Number > hi {
			hi = f.Number
		}
	}
	return hi
}

func (b *Building) lookup(n FloorID) (Floor, bool) {
	for _, f := range b.floors {
		if f.Number == n {
			return f, true
		}
	}
	return Floor{}, false
}
