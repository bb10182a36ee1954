package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impactmatrix/api/internal/grid"
	"impactmatrix/api/internal/store"
)

func strPtr(v string) *string { return &v }

func fPtr(v float64) *float64 { return &v }

func idea(id string, effort, value int, opts ...func(*store.Idea)) store.Idea {
	i := store.Idea{ID: id, Title: id, Effort: effort, BusinessValue: value, Weight: 5, Status: store.StatusDraft}
	for _, opt := range opts {
		opt(&i)
	}
	return i
}

func inCategory(id string) func(*store.Idea) {
	return func(i *store.Idea) { i.CategoryID = strPtr(id) }
}

func withStatus(status store.IdeaStatus) func(*store.Idea) {
	return func(i *store.Idea) { i.Status = status }
}

func withWeight(weight int) func(*store.Idea) {
	return func(i *store.Idea) { i.Weight = weight }
}

func placedAt(effort, value int) func(*store.Idea) {
	return func(i *store.Idea) {
		p := grid.ScoreToPixel(effort, value)
		i.PositionX, i.PositionY = fPtr(p.X), fPtr(p.Y)
	}
}

func ids(ideas []store.Idea) []string {
	out := make([]string, 0, len(ideas))
	for _, i := range ideas {
		out = append(out, i.ID)
	}
	return out
}

func TestDefaultStateIsIdentity(t *testing.T) {
	ideas := []store.Idea{
		idea("a", 1, 1),
		idea("b", 10, 10, inCategory("cat-a"), withStatus(store.StatusArchived)),
		idea("c", 5, 6, placedAt(9, 2), withWeight(0)),
	}
	got := Ideas(ideas, Default())
	assert.Equal(t, ideas, got)
	assert.Equal(t, 0, CountActive(Default()))
}

func TestEmptySetsDoNotConstrain(t *testing.T) {
	ideas := []store.Idea{idea("a", 2, 8), idea("b", 8, 2, inCategory("cat-a"))}

	state := Default()
	state.CategoryIDs = nil
	state.Statuses = nil
	state.Quadrants = nil
	assert.Len(t, Ideas(ideas, state), 2)
}

func TestCategoryFilterIsOrWithinSet(t *testing.T) {
	ideas := []store.Idea{
		idea("a", 2, 8, inCategory("cat-a")),
		idea("b", 3, 3, inCategory("cat-b")),
		idea("c", 4, 4, inCategory("cat-c")),
		idea("none", 4, 4),
	}
	state := Default()
	state.CategoryIDs = []string{"cat-a", "cat-b"}
	assert.Equal(t, []string{"a", "b"}, ids(Ideas(ideas, state)))
}

func TestCriteriaAreAnded(t *testing.T) {
	ideas := []store.Idea{
		idea("a", 2, 8, inCategory("cat-a"), withStatus(store.StatusDraft)),
		idea("b", 2, 8, inCategory("cat-a"), withStatus(store.StatusCompleted)),
		idea("c", 2, 8, inCategory("cat-b"), withStatus(store.StatusDraft)),
	}
	state := Default()
	state.CategoryIDs = []string{"cat-a"}
	state.Statuses = []store.IdeaStatus{store.StatusDraft}
	assert.Equal(t, []string{"a"}, ids(Ideas(ideas, state)))
}

func TestOriginalRangesAreInclusive(t *testing.T) {
	ideas := []store.Idea{
		idea("low", 3, 5),
		idea("mid", 5, 5),
		idea("high", 7, 5),
		idea("out", 8, 5),
	}
	state := Default()
	state.OriginalEffort = Range{Lo: 3, Hi: 7}
	assert.Equal(t, []string{"low", "mid", "high"}, ids(Ideas(ideas, state)))
}

func TestMissingWeightCountsAsDefault(t *testing.T) {
	ideas := []store.Idea{idea("unset", 5, 5, withWeight(0)), idea("heavy", 5, 5, withWeight(9))}
	state := Default()
	state.OriginalWeight = Range{Lo: 4, Hi: 6}
	assert.Equal(t, []string{"unset"}, ids(Ideas(ideas, state)))
}

func TestPositionedRangesUseEffectiveScore(t *testing.T) {
	ideas := []store.Idea{
		idea("stored-low", 2, 8),
		idea("moved-high", 2, 8, placedAt(9, 8)),
	}
	state := Default()
	state.PositionedEffort = Range{Lo: 6, Hi: 10}
	assert.Equal(t, []string{"moved-high"}, ids(Ideas(ideas, state)))

	state = Default()
	state.OriginalEffort = Range{Lo: 6, Hi: 10}
	assert.Empty(t, Ideas(ideas, state), "original ranges ignore the custom position")
}

func TestQuadrantUsesEffectiveScore(t *testing.T) {
	ideas := []store.Idea{
		idea("quick", 2, 8),
		idea("dragged", 2, 8, placedAt(8, 8)),
		idea("fill", 3, 3),
	}
	state := Default()
	state.Quadrants = []grid.Quadrant{grid.MajorProjects}
	assert.Equal(t, []string{"dragged"}, ids(Ideas(ideas, state)))

	state.Quadrants = []grid.Quadrant{grid.QuickWins, grid.FillIns}
	assert.Equal(t, []string{"quick", "fill"}, ids(Ideas(ideas, state)))
}

func TestOnlyWithDrift(t *testing.T) {
	ideas := []store.Idea{
		idea("plain", 2, 8),
		idea("drifted", 2, 8, placedAt(8, 8)),
		idea("pinned", 4, 4, placedAt(4, 4)),
	}
	state := Default()
	state.OnlyWithDrift = true
	assert.Equal(t, []string{"drifted"}, ids(Ideas(ideas, state)))
}

func TestIdeasPreservesOrderAndInput(t *testing.T) {
	ideas := []store.Idea{idea("c", 1, 1), idea("a", 9, 9), idea("b", 1, 1)}
	state := Default()
	state.OriginalEffort = Range{Lo: 1, Hi: 1}
	got := Ideas(ideas, state)
	assert.Equal(t, []string{"c", "b"}, ids(got))
	assert.Len(t, ideas, 3)
	assert.Equal(t, "a", ideas[1].ID)
}

func TestCountActive(t *testing.T) {
	state := Default()
	steps := []func(*State){
		func(s *State) { s.CategoryIDs = []string{"cat-a"} },
		func(s *State) { s.Statuses = []store.IdeaStatus{store.StatusDraft} },
		func(s *State) { s.Quadrants = []grid.Quadrant{grid.QuickWins} },
		func(s *State) { s.OriginalEffort = Range{Lo: 2, Hi: 10} },
		func(s *State) { s.OriginalValue = Range{Lo: 1, Hi: 9} },
		func(s *State) { s.OriginalWeight = Range{Lo: 3, Hi: 4} },
		func(s *State) { s.PositionedEffort = Range{Lo: 1, Hi: 5} },
		func(s *State) { s.PositionedValue = Range{Lo: 6, Hi: 10} },
		func(s *State) { s.OnlyWithDrift = true },
	}
	for i, step := range steps {
		step(&state)
		assert.Equal(t, i+1, CountActive(state), "after step %d", i)
	}
}

func TestParseDefaultsMissingFields(t *testing.T) {
	state, err := Parse([]byte(`{"statuses":["DRAFT","IN_PROGRESS"],"originalEffort":[2,6]}`))
	require.NoError(t, err)
	assert.Equal(t, []store.IdeaStatus{store.StatusDraft, store.StatusInProgress}, state.Statuses)
	assert.Equal(t, Range{Lo: 2, Hi: 6}, state.OriginalEffort)
	assert.Equal(t, FullRange, state.PositionedValue)
	assert.Equal(t, []string{}, state.CategoryIDs)
	assert.Equal(t, 2, CountActive(state))
}

func TestParseRejectsInvalidPayloads(t *testing.T) {
	tests := map[string]string{
		"malformed":        `{"statuses":`,
		"unknown field":    `{"colour":"red"}`,
		"unknown status":   `{"statuses":["DONE"]}`,
		"unknown quadrant": `{"quadrants":["easy-wins"]}`,
		"inverted range":   `{"originalValue":[8,2]}`,
		"out of bounds":    `{"positionedEffort":[0,10]}`,
		"short range":      `{"originalWeight":[3]}`,
		"blank category":   `{"categoryIds":[" "]}`,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(payload))
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	state := Default()
	state.Quadrants = []grid.Quadrant{grid.ThanklessTasks}
	state.OriginalValue = Range{Lo: 3, Hi: 9}
	state.OnlyWithDrift = true

	data, err := state.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"originalValue":[3,9]`)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, state, parsed)
}
