package grid

import "fmt"

// Quadrant is one of the four fixed regions of the matrix.
type Quadrant string

const (
	QuickWins      Quadrant = "quick-wins"
	MajorProjects  Quadrant = "major-projects"
	FillIns        Quadrant = "fill-ins"
	ThanklessTasks Quadrant = "thankless-tasks"
)

// Midpoint is the last score still considered "low" on either axis.
const Midpoint = 5

// QuadrantInfo describes how a quadrant is presented.
type QuadrantInfo struct {
	ID          Quadrant `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
}

var quadrants = map[Quadrant]QuadrantInfo{
	QuickWins: {
		ID:          QuickWins,
		Label:       "Quick Wins",
		Description: "Low effort, high value - prioritize these!",
		Color:       "#22c55e",
	},
	MajorProjects: {
		ID:          MajorProjects,
		Label:       "Major Projects",
		Description: "High effort, high value - plan carefully",
		Color:       "#3b82f6",
	},
	FillIns: {
		ID:          FillIns,
		Label:       "Fill-Ins",
		Description: "Low effort, low value - do when you have time",
		Color:       "#eab308",
	},
	ThanklessTasks: {
		ID:          ThanklessTasks,
		Label:       "Thankless Tasks",
		Description: "High effort, low value - avoid or eliminate",
		Color:       "#ef4444",
	},
}

// Quadrants lists every quadrant in display order.
func Quadrants() []Quadrant {
	return []Quadrant{QuickWins, MajorProjects, FillIns, ThanklessTasks}
}

// Classify returns the quadrant for the given scores. A score equal to the
// midpoint counts as low on its axis.
func Classify(effort, businessValue int) Quadrant {
	highEffort := effort > Midpoint
	highValue := businessValue > Midpoint

	switch {
	case highValue && !highEffort:
		return QuickWins
	case highValue && highEffort:
		return MajorProjects
	case !highValue && !highEffort:
		return FillIns
	default:
		return ThanklessTasks
	}
}

// Valid reports whether q is a known quadrant.
func (q Quadrant) Valid() bool {
	_, ok := quadrants[q]
	return ok
}

// Info returns the presentation details of q.
func (q Quadrant) Info() QuadrantInfo {
	return quadrants[q]
}

// Label returns the human readable name of q.
func (q Quadrant) Label() string {
	return quadrants[q].Label
}

// ParseQuadrant converts an id such as "quick-wins" into a Quadrant.
func ParseQuadrant(raw string) (Quadrant, error) {
	q := Quadrant(raw)
	if !q.Valid() {
		return "", fmt.Errorf("unknown quadrant %q", raw)
	}
	return q, nil
}
