package grid

import (
	"fmt"
	"math"
	"strings"
)

// DriftTolerance is the per-axis pixel deviation allowed before a custom
// position counts as drifted.
const DriftTolerance = 10.0

// HasPositionDrift reports whether a stored custom position strays from the
// cell of the idea's scores by more than DriftTolerance on either axis.
func HasPositionDrift(positionX, positionY *float64, effort, businessValue int) bool {
	return HasPositionDriftWithin(positionX, positionY, effort, businessValue, DriftTolerance)
}

// HasPositionDriftWithin is HasPositionDrift with an explicit tolerance.
func HasPositionDriftWithin(positionX, positionY *float64, effort, businessValue int, tolerance float64) bool {
	if positionX == nil || positionY == nil {
		return false
	}
	expected := ScoreToPixel(effort, businessValue)
	return math.Abs(*positionX-expected.X) > tolerance || math.Abs(*positionY-expected.Y) > tolerance
}

// DriftDistance is the straight line pixel distance between (x, y) and the
// canonical position of the scores.
func DriftDistance(x, y float64, effort, businessValue int) float64 {
	expected := ScoreToPixel(effort, businessValue)
	return math.Hypot(x-expected.X, y-expected.Y)
}

// DriftDelta expresses the drift in score units: the scores of the cell at
// (x, y) minus the stored scores.
func DriftDelta(x, y float64, effort, businessValue int) Score {
	positioned := PixelToScore(x, y)
	return Score{
		Effort:        positioned.Effort - ClampScore(effort),
		BusinessValue: positioned.BusinessValue - ClampScore(businessValue),
	}
}

// FormatDriftDelta renders a delta such as "effort +3, value -1".
func FormatDriftDelta(delta Score) string {
	var parts []string
	if delta.Effort != 0 {
		parts = append(parts, fmt.Sprintf("effort %+d", delta.Effort))
	}
	if delta.BusinessValue != 0 {
		parts = append(parts, fmt.Sprintf("value %+d", delta.BusinessValue))
	}
	if len(parts) == 0 {
		return "no drift"
	}
	return strings.Join(parts, ", ")
}

// Placement is where an idea is drawn and how it is classified.
type Placement struct {
	Position         Point    `json:"position"`
	EffectiveScore   Score    `json:"effectiveScore"`
	Quadrant         Quadrant `json:"quadrant"`
	CustomPosition   bool     `json:"customPosition"`
	HasDrift         bool     `json:"hasDrift"`
	DriftDistance    float64  `json:"driftDistance"`
	DriftDescription string   `json:"driftDescription,omitempty"`
}

// Locate resolves the effective placement of an idea. A custom position wins
// over the stored scores when both coordinates are present.
func Locate(positionX, positionY *float64, effort, businessValue int) Placement {
	if positionX == nil || positionY == nil {
		score := Score{Effort: ClampScore(effort), BusinessValue: ClampScore(businessValue)}
		return Placement{
			Position:       ScoreToPixel(effort, businessValue),
			EffectiveScore: score,
			Quadrant:       Classify(score.Effort, score.BusinessValue),
		}
	}

	x, y := *positionX, *positionY
	score := PixelToScore(x, y)
	placement := Placement{
		Position:       Point{X: x, Y: y},
		EffectiveScore: score,
		Quadrant:       Classify(score.Effort, score.BusinessValue),
		CustomPosition: true,
		HasDrift:       HasPositionDrift(positionX, positionY, effort, businessValue),
		DriftDistance:  DriftDistance(x, y, effort, businessValue),
	}
	if placement.HasDrift {
		placement.DriftDescription = FormatDriftDelta(DriftDelta(x, y, effort, businessValue))
	}
	return placement
}
