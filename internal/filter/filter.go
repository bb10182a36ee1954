package filter

import (
	"slices"

	"impactmatrix/api/internal/grid"
	"impactmatrix/api/internal/store"
)

// DefaultWeight stands in for ideas stored without a weight.
const DefaultWeight = 5

// Ideas returns the ideas that satisfy every active criterion, in input order.
// Criteria are ANDed together; the category, status and quadrant sets are ORs
// of their members and an empty set matches everything.
func Ideas(ideas []store.Idea, state State) []store.Idea {
	matched := make([]store.Idea, 0, len(ideas))
	for _, idea := range ideas {
		if Match(idea, state) {
			matched = append(matched, idea)
		}
	}
	return matched
}

// Match evaluates a single idea against the state.
func Match(idea store.Idea, state State) bool {
	if len(state.CategoryIDs) > 0 {
		if idea.CategoryID == nil || !slices.Contains(state.CategoryIDs, *idea.CategoryID) {
			return false
		}
	}

	if len(state.Statuses) > 0 && !slices.Contains(state.Statuses, idea.Status) {
		return false
	}

	if !state.OriginalEffort.Contains(idea.Effort) ||
		!state.OriginalValue.Contains(idea.BusinessValue) ||
		!state.OriginalWeight.Contains(Weight(idea)) {
		return false
	}

	effective := EffectiveScore(idea)
	if !state.PositionedEffort.Contains(effective.Effort) ||
		!state.PositionedValue.Contains(effective.BusinessValue) {
		return false
	}

	if len(state.Quadrants) > 0 {
		quadrant := grid.Classify(effective.Effort, effective.BusinessValue)
		if !slices.Contains(state.Quadrants, quadrant) {
			return false
		}
	}

	if state.OnlyWithDrift && !grid.HasPositionDrift(idea.PositionX, idea.PositionY, idea.Effort, idea.BusinessValue) {
		return false
	}

	return true
}

// Weight returns the idea weight, defaulting unset weights.
func Weight(idea store.Idea) int {
	if idea.Weight == 0 {
		return DefaultWeight
	}
	return idea.Weight
}

// EffectiveScore is the score derived from the custom position when one is
// set, and the stored score otherwise.
func EffectiveScore(idea store.Idea) grid.Score {
	if idea.HasCustomPosition() {
		return grid.PixelToScore(*idea.PositionX, *idea.PositionY)
	}
	return grid.Score{Effort: idea.Effort, BusinessValue: idea.BusinessValue}
}

// CountActive returns how many of the nine dimensions differ from their
// neutral value.
func CountActive(state State) int {
	count := 0
	if len(state.CategoryIDs) > 0 {
		count++
	}
	if len(state.Statuses) > 0 {
		count++
	}
	if len(state.Quadrants) > 0 {
		count++
	}
	for _, r := range []Range{
		state.OriginalEffort,
		state.OriginalValue,
		state.OriginalWeight,
		state.PositionedEffort,
		state.PositionedValue,
	} {
		if r.Active() {
			count++
		}
	}
	if state.OnlyWithDrift {
		count++
	}
	return count
}
