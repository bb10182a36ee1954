package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"impactmatrix/api/internal/filter"
	"impactmatrix/api/internal/store"
)

// DataStore defines the interface for data access
type DataStore interface {
	LoadMatrixExport(ctx context.Context, matrixID string, includePresets bool) (store.MatrixExport, error)
}

// PDFRenderer turns a self-contained HTML page into PDF bytes.
type PDFRenderer func(ctx context.Context, html string) ([]byte, error)

// Service provides matrix export functionality
type Service struct {
	store     DataStore
	logger    zerolog.Logger
	now       func() time.Time
	renderPDF PDFRenderer
}

// NewService creates a new export service
func NewService(store DataStore, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		logger:    logger.With().Str("component", "export").Logger(),
		now:       time.Now,
		renderPDF: chromePDF,
	}
}

// WithClock overrides the export timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithPDFRenderer overrides the headless Chrome renderer.
func (s *Service) WithPDFRenderer(renderer PDFRenderer) *Service {
	s.renderPDF = renderer
	return s
}

// Export loads the matrix and generates the requested format. A missing
// matrix fails before any output is built.
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	format, err := ParseFormat(string(req.Format))
	if err != nil {
		return nil, err
	}

	data, err := s.store.LoadMatrixExport(ctx, req.MatrixID, req.IncludeFilterPresets && format == FormatXLSX)
	if err != nil {
		return nil, fmt.Errorf("load matrix: %w", err)
	}

	exportedAt := s.now().UTC()
	switch format {
	case FormatPDF:
		html, err := RenderMatrixHTML(NewReportData(data, exportedAt))
		if err != nil {
			return nil, fmt.Errorf("render template: %w", err)
		}
		pdf, err := s.renderPDF(ctx, html)
		if err != nil {
			return nil, err
		}
		return &Result{
			Data:     pdf,
			Filename: Filename(data.Matrix.Name, exportedAt, FormatPDF),
			MimeType: MimeTypePDF,
		}, nil
	default:
		presets := s.validPresets(data.FilterPresets)
		workbook, err := BuildWorkbook(data, presets, exportedAt)
		if err != nil {
			return nil, fmt.Errorf("build workbook: %w", err)
		}
		return &Result{
			Data:     workbook,
			Filename: Filename(data.Matrix.Name, exportedAt, FormatXLSX),
			MimeType: MimeTypeXLSX,
		}, nil
	}
}

// validPresets drops presets whose stored filters no longer parse and
// returns the rest with their filters in canonical form.
func (s *Service) validPresets(presets []store.FilterPreset) []store.FilterPreset {
	valid := make([]store.FilterPreset, 0, len(presets))
	for _, preset := range presets {
		state, err := filter.Parse(preset.Filters)
		if err != nil {
			s.logger.Warn().Err(err).Str("preset_id", preset.ID).Msg("skipping filter preset with invalid filters")
			continue
		}
		canonical, err := state.Marshal()
		if err != nil {
			s.logger.Warn().Err(err).Str("preset_id", preset.ID).Msg("skipping filter preset")
			continue
		}
		preset.Filters = json.RawMessage(canonical)
		valid = append(valid, preset)
	}
	return valid
}
