// Package filter narrows the idea list of a matrix down to the ideas matching
// a filter state.
package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"impactmatrix/api/internal/grid"
	"impactmatrix/api/internal/store"
)

// Range is a closed interval [Lo, Hi]. It is encoded as a two element array.
type Range struct {
	Lo float64
	Hi float64
}

// FullRange is the neutral range covering every score.
var FullRange = Range{Lo: grid.MinScore, Hi: grid.MaxScore}

func (r Range) Contains(v int) bool {
	f := float64(v)
	return f >= r.Lo && f <= r.Hi
}

// Active reports whether the range excludes any valid score.
func (r Range) Active() bool {
	return r.Lo > grid.MinScore || r.Hi < grid.MaxScore
}

func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{r.Lo, r.Hi})
}

func (r *Range) UnmarshalJSON(data []byte) error {
	var bounds []float64
	if err := json.Unmarshal(data, &bounds); err != nil {
		return fmt.Errorf("range must be a [lo, hi] array: %w", err)
	}
	if len(bounds) != 2 {
		return fmt.Errorf("range must have exactly two bounds, got %d", len(bounds))
	}
	r.Lo, r.Hi = bounds[0], bounds[1]
	return nil
}

// State is the full set of filter criteria. Empty sets mean "no constraint".
type State struct {
	CategoryIDs      []string           `json:"categoryIds"`
	Statuses         []store.IdeaStatus `json:"statuses"`
	Quadrants        []grid.Quadrant    `json:"quadrants"`
	OriginalEffort   Range              `json:"originalEffort"`
	OriginalValue    Range              `json:"originalValue"`
	OriginalWeight   Range              `json:"originalWeight"`
	PositionedEffort Range              `json:"positionedEffort"`
	PositionedValue  Range              `json:"positionedValue"`
	OnlyWithDrift    bool               `json:"onlyWithDrift"`
}

// Default returns the state that matches every idea.
func Default() State {
	return State{
		CategoryIDs:      []string{},
		Statuses:         []store.IdeaStatus{},
		Quadrants:        []grid.Quadrant{},
		OriginalEffort:   FullRange,
		OriginalValue:    FullRange,
		OriginalWeight:   FullRange,
		PositionedEffort: FullRange,
		PositionedValue:  FullRange,
	}
}

// ErrInvalidState wraps every validation failure of a filter state.
var ErrInvalidState = errors.New("invalid filter state")

// Parse decodes a serialized state. Missing fields keep their defaults,
// unknown fields are rejected and the result is validated.
func Parse(data []byte) (State, error) {
	state := Default()
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&state); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	state.normalize()
	if err := state.Validate(); err != nil {
		return State{}, err
	}
	return state, nil
}

// Marshal encodes the state in its canonical form.
func (s State) Marshal() ([]byte, error) {
	s.normalize()
	return json.Marshal(s)
}

func (s *State) normalize() {
	if s.CategoryIDs == nil {
		s.CategoryIDs = []string{}
	}
	if s.Statuses == nil {
		s.Statuses = []store.IdeaStatus{}
	}
	if s.Quadrants == nil {
		s.Quadrants = []grid.Quadrant{}
	}
}

// Validate checks every dimension against the current schema.
func (s State) Validate() error {
	for _, id := range s.CategoryIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: category ids must not be blank", ErrInvalidState)
		}
	}
	for _, status := range s.Statuses {
		if !status.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrInvalidState, status)
		}
	}
	for _, q := range s.Quadrants {
		if !q.Valid() {
			return fmt.Errorf("%w: unknown quadrant %q", ErrInvalidState, q)
		}
	}
	ranges := []struct {
		name string
		r    Range
	}{
		{"originalEffort", s.OriginalEffort},
		{"originalValue", s.OriginalValue},
		{"originalWeight", s.OriginalWeight},
		{"positionedEffort", s.PositionedEffort},
		{"positionedValue", s.PositionedValue},
	}
	for _, item := range ranges {
		if item.r.Lo > item.r.Hi {
			return fmt.Errorf("%w: %s lower bound exceeds upper bound", ErrInvalidState, item.name)
		}
		if item.r.Lo < grid.MinScore || item.r.Hi > grid.MaxScore {
			return fmt.Errorf("%w: %s must stay within [%d, %d]", ErrInvalidState, item.name, grid.MinScore, grid.MaxScore)
		}
	}
	return nil
}
