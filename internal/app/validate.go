package app

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"impactmatrix/api/internal/grid"
	"impactmatrix/api/internal/store"
)

const (
	defaultScore = 5
	defaultColor = "#3b82f6"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func requireText(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", validationError(field+" is required", map[string]any{"field": field})
	}
	return trimmed, nil
}

func requireID(field, value string) (string, error) {
	return requireText(field, value)
}

func validScore(field string, value int) (int, error) {
	if !grid.ValidScore(value) {
		return 0, validationError(
			fmt.Sprintf("%s must be an integer between %d and %d", field, grid.MinScore, grid.MaxScore),
			map[string]any{"field": field, "value": value},
		)
	}
	return value, nil
}

// scoreOrDefault validates an optional score, defaulting to 5.
func scoreOrDefault(field string, value *int) (int, error) {
	if value == nil {
		return defaultScore, nil
	}
	return validScore(field, *value)
}

func validStatus(value string) (store.IdeaStatus, error) {
	status := store.IdeaStatus(strings.TrimSpace(value))
	if !status.Valid() {
		return "", validationError("status must be one of DRAFT, IN_PROGRESS, COMPLETED, ARCHIVED",
			map[string]any{"field": "status", "value": value})
	}
	return status, nil
}

func statusOrDefault(value string) (store.IdeaStatus, error) {
	if strings.TrimSpace(value) == "" {
		return store.StatusDraft, nil
	}
	return validStatus(value)
}

func validColor(value string) (string, error) {
	color := strings.TrimSpace(value)
	if !hexColor.MatchString(color) {
		return "", validationError("color must be a valid hex color", map[string]any{"field": "color", "value": value})
	}
	return color, nil
}

func colorOrDefault(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return defaultColor, nil
	}
	return validColor(value)
}

func finiteCoordinate(field string, value *float64) (float64, error) {
	if value == nil {
		return 0, validationError(field+" is required", map[string]any{"field": field})
	}
	if math.IsNaN(*value) || math.IsInf(*value, 0) {
		return 0, validationError(field+" must be a finite number", map[string]any{"field": field})
	}
	return *value, nil
}

// optionalText applies a nullable text patch: null clears, absent keeps.
func optionalText(current string, patch Optional[string]) string {
	if !patch.Set {
		return current
	}
	if patch.Null {
		return ""
	}
	return strings.TrimSpace(patch.Value)
}
