// Package grid maps idea scores onto the fixed pixel canvas of an impact matrix
// and classifies them into quadrants.
package grid

import "math"

const (
	// GridSize is the number of cells per axis.
	GridSize = 10
	// CellWidth is the pixel width of one effort step.
	CellWidth = 120
	// CellHeight is the pixel height of one business value step.
	CellHeight = 65

	GridWidth  = GridSize * CellWidth
	GridHeight = GridSize * CellHeight

	MinScore = 1
	MaxScore = GridSize
)

// Point is a pixel position on the canvas. Y grows downwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Score is an (effort, business value) pair.
type Score struct {
	Effort        int `json:"effort"`
	BusinessValue int `json:"businessValue"`
}

// ClampScore forces a score into [MinScore, MaxScore].
func ClampScore(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// ValidScore reports whether v is an acceptable stored score.
func ValidScore(v int) bool {
	return v >= MinScore && v <= MaxScore
}

// ScoreToPixel returns the center of the cell for the given scores. Effort 1
// is the leftmost column; business value 10 is the top row.
func ScoreToPixel(effort, businessValue int) Point {
	effort = ClampScore(effort)
	businessValue = ClampScore(businessValue)
	return Point{
		X: float64(effort-1)*CellWidth + CellWidth/2.0,
		Y: float64(GridSize-businessValue)*CellHeight + CellHeight/2.0,
	}
}

// PixelToScore returns the scores of the cell whose center is nearest to
// (x, y), so ScoreToPixel output maps back to the same cell. Rounding x/W
// directly would shift cell centers by one column. The result is always
// inside the grid.
func PixelToScore(x, y float64) Score {
	column := roundHalfUp((x - CellWidth/2.0) / CellWidth)
	row := roundHalfUp((y - CellHeight/2.0) / CellHeight)
	return Score{
		Effort:        clampFloat(column + 1),
		BusinessValue: clampFloat(GridSize - row),
	}
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func clampFloat(v float64) int {
	if math.IsNaN(v) || v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return int(v)
}
