package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"impactmatrix/api/internal/archive"
	"impactmatrix/api/internal/export"
	"impactmatrix/api/internal/filter"
	"impactmatrix/api/internal/grid"
	"impactmatrix/api/internal/search"
	"impactmatrix/api/internal/store"
	"impactmatrix/api/internal/viewstate"
)

// PlacedIdea is an idea with the placement the matrix canvas renders.
type PlacedIdea struct {
	store.Idea
	Placement grid.Placement `json:"placement"`
}

// MatrixView is the filtered content of one matrix.
type MatrixView struct {
	Matrix            store.ImpactMatrix    `json:"matrix"`
	Categories        []store.Category      `json:"categories"`
	Filters           filter.State          `json:"filters"`
	PresetID          string                `json:"presetId,omitempty"`
	ActiveFilterCount int                   `json:"activeFilterCount"`
	TotalIdeas        int                   `json:"totalIdeas"`
	Ideas             []PlacedIdea          `json:"ideas"`
	QuadrantCounts    map[grid.Quadrant]int `json:"quadrantCounts"`
}

// WorkingFilters is the filter state a client last applied to a matrix.
type WorkingFilters struct {
	MatrixID          string       `json:"impactMatrixId"`
	Filters           filter.State `json:"filters"`
	ActiveFilterCount int          `json:"activeFilterCount"`
	Saved             bool         `json:"saved"`
	UpdatedAt         *time.Time   `json:"updatedAt"`
}

type ExportInput struct {
	MatrixID             string `json:"-"`
	Format               string `json:"format"`
	IncludeFilterPresets bool   `json:"includeFilterPresets"`
	Archive              bool   `json:"archive"`
}

// ExportOutcome is a generated file and, when archived, where it was stored.
type ExportOutcome struct {
	Result   *export.Result
	Archived *archive.Object
}

// ViewMatrix runs the filter engine over the matrix ideas (newest first) and
// annotates each survivor with its placement.
func (s *Service) ViewMatrix(ctx context.Context, matrixID string, state filter.State) (MatrixView, error) {
	if err := state.Validate(); err != nil {
		return MatrixView{}, err
	}
	matrix, err := s.store.GetMatrix(ctx, matrixID)
	if err != nil {
		return MatrixView{}, err
	}

	ideas := matrix.Ideas
	categories := matrix.Categories
	if categories == nil {
		categories = []store.Category{}
	}
	matrix.Ideas = nil
	matrix.Categories = nil

	visible := filter.Ideas(ideas, state)
	view := MatrixView{
		Matrix:            matrix,
		Categories:        categories,
		Filters:           state,
		ActiveFilterCount: filter.CountActive(state),
		TotalIdeas:        len(ideas),
		Ideas:             make([]PlacedIdea, 0, len(visible)),
		QuadrantCounts:    make(map[grid.Quadrant]int, 4),
	}
	for _, q := range grid.Quadrants() {
		view.QuadrantCounts[q] = 0
	}
	for _, idea := range visible {
		placement := grid.Locate(idea.PositionX, idea.PositionY, idea.Effort, idea.BusinessValue)
		view.QuadrantCounts[placement.Quadrant]++
		view.Ideas = append(view.Ideas, PlacedIdea{Idea: idea, Placement: placement})
	}
	return view, nil
}

// ViewMatrixWithPreset applies a stored preset. The preset must belong to
// the matrix and its filters must still parse.
func (s *Service) ViewMatrixWithPreset(ctx context.Context, matrixID, presetID string) (MatrixView, error) {
	preset, err := s.store.GetFilterPreset(ctx, presetID)
	if err != nil {
		return MatrixView{}, err
	}
	if preset.MatrixID != matrixID {
		return MatrixView{}, validationError("filter preset belongs to a different matrix",
			map[string]any{"field": "presetId", "value": presetID})
	}
	state, err := filter.Parse(preset.Filters)
	if err != nil {
		return MatrixView{}, validationError("filter preset no longer matches the filter schema",
			map[string]any{"presetId": presetID, "reason": err.Error()})
	}
	view, err := s.ViewMatrix(ctx, matrixID, state)
	if err != nil {
		return MatrixView{}, err
	}
	view.PresetID = preset.ID
	return view, nil
}

func requireClientID(clientID string) (string, error) {
	id := strings.TrimSpace(clientID)
	if id == "" {
		return "", validationError("X-Client-ID header is required", map[string]any{"field": "clientId"})
	}
	return id, nil
}

// GetWorkingFilters returns the stored state, or the defaults when the client
// has none.
func (s *Service) GetWorkingFilters(ctx context.Context, matrixID, clientID string) (WorkingFilters, error) {
	clientID, err := requireClientID(clientID)
	if err != nil {
		return WorkingFilters{}, err
	}
	if _, err := s.store.GetMatrixHeader(ctx, matrixID); err != nil {
		return WorkingFilters{}, err
	}
	entry, err := s.filters.Get(ctx, matrixID, clientID)
	if errors.Is(err, viewstate.ErrNotFound) {
		return WorkingFilters{MatrixID: matrixID, Filters: filter.Default()}, nil
	}
	if err != nil {
		return WorkingFilters{}, err
	}
	return workingFilters(matrixID, entry), nil
}

func (s *Service) SaveWorkingFilters(ctx context.Context, matrixID, clientID string, state filter.State) (WorkingFilters, error) {
	clientID, err := requireClientID(clientID)
	if err != nil {
		return WorkingFilters{}, err
	}
	if err := state.Validate(); err != nil {
		return WorkingFilters{}, err
	}
	if _, err := s.store.GetMatrixHeader(ctx, matrixID); err != nil {
		return WorkingFilters{}, err
	}
	entry, err := s.filters.Save(ctx, matrixID, clientID, state)
	if err != nil {
		return WorkingFilters{}, err
	}
	return workingFilters(matrixID, entry), nil
}

func (s *Service) ClearWorkingFilters(ctx context.Context, matrixID, clientID string) error {
	clientID, err := requireClientID(clientID)
	if err != nil {
		return err
	}
	return s.filters.Clear(ctx, matrixID, clientID)
}

func workingFilters(matrixID string, entry viewstate.Entry) WorkingFilters {
	updatedAt := entry.UpdatedAt
	return WorkingFilters{
		MatrixID:          matrixID,
		Filters:           entry.State,
		ActiveFilterCount: filter.CountActive(entry.State),
		Saved:             true,
		UpdatedAt:         &updatedAt,
	}
}

// Export generates the matrix file. With Archive set the file is also stored
// in the export bucket.
func (s *Service) Export(ctx context.Context, input ExportInput) (ExportOutcome, error) {
	format, err := export.ParseFormat(input.Format)
	if err != nil {
		return ExportOutcome{}, err
	}
	if input.Archive && s.archive == nil {
		return ExportOutcome{}, domainError(http.StatusServiceUnavailable, "ARCHIVE_DISABLED", "Export archival is not configured", nil)
	}

	started := time.Now()
	result, err := s.exports.Export(ctx, export.Request{
		MatrixID:             input.MatrixID,
		Format:               format,
		IncludeFilterPresets: input.IncludeFilterPresets,
	})
	if err != nil {
		s.metrics.countExport(string(format), "error")
		return ExportOutcome{}, err
	}
	s.metrics.countExport(string(format), "ok")
	s.logger.Info().
		Str("matrix_id", input.MatrixID).
		Str("format", string(format)).
		Int("bytes", len(result.Data)).
		Int64("duration_ms", time.Since(started).Milliseconds()).
		Msg("matrix exported")

	outcome := ExportOutcome{Result: result}
	if input.Archive {
		object, err := s.archive.Upload(ctx, input.MatrixID, result.Filename, result.MimeType, result.Data)
		if err != nil {
			return ExportOutcome{}, err
		}
		outcome.Archived = &object
	}
	return outcome, nil
}

// Search looks ideas up by text. A blank query matches nothing.
func (s *Service) Search(ctx context.Context, query search.Query) search.Response {
	query.Text = strings.TrimSpace(query.Text)
	if query.Text == "" || s.search == nil {
		return search.Response{Results: []search.Result{}, Query: query.Text, Backend: "none"}
	}
	return s.search.Search(ctx, query)
}
