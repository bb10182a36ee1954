package app

import (
	"context"

	"github.com/rs/zerolog"

	"impactmatrix/api/internal/archive"
	"impactmatrix/api/internal/export"
	"impactmatrix/api/internal/search"
	"impactmatrix/api/internal/store"
	"impactmatrix/api/internal/viewstate"
)

type dataStore interface {
	Ping(ctx context.Context) error

	ListOrganizations(context.Context) ([]store.Organization, error)
	GetOrganization(context.Context, string) (store.Organization, error)
	CreateOrganization(context.Context, store.Organization) (store.Organization, error)
	UpdateOrganization(context.Context, store.Organization) (store.Organization, error)
	DeleteOrganization(context.Context, string) error

	ListProjects(context.Context, string) ([]store.Project, error)
	GetProject(context.Context, string) (store.Project, error)
	CreateProject(context.Context, store.Project) (store.Project, error)
	UpdateProject(context.Context, store.Project) (store.Project, error)
	DeleteProject(context.Context, string) error
	DuplicateProject(context.Context, string) (store.Project, error)

	ListMatrices(context.Context, string) ([]store.ImpactMatrix, error)
	GetMatrixHeader(context.Context, string) (store.ImpactMatrix, error)
	GetMatrix(context.Context, string) (store.ImpactMatrix, error)
	CreateMatrix(context.Context, store.ImpactMatrix) (store.ImpactMatrix, error)
	UpdateMatrix(context.Context, store.ImpactMatrix) (store.ImpactMatrix, error)
	DeleteMatrix(context.Context, string) error
	DuplicateMatrix(context.Context, string) (store.ImpactMatrix, error)
	ResetMatrixPositions(context.Context, string) (int64, error)

	ListCategories(context.Context, string) ([]store.Category, error)
	GetCategory(context.Context, string) (store.Category, error)
	CreateCategory(context.Context, store.Category) (store.Category, error)
	UpdateCategory(context.Context, store.Category) (store.Category, error)
	DeleteCategory(context.Context, string) error

	ListIdeas(context.Context, store.IdeaQuery) ([]store.Idea, error)
	GetIdea(context.Context, string) (store.Idea, error)
	CreateIdea(context.Context, store.Idea) (store.Idea, error)
	UpdateIdea(context.Context, store.Idea) (store.Idea, error)
	UpdateIdeaScores(context.Context, string, int, int) (store.Idea, error)
	SetIdeaPosition(context.Context, string, *float64, *float64) (store.Idea, error)
	DeleteIdea(context.Context, string) error

	ListFilterPresets(context.Context, string) ([]store.FilterPreset, error)
	GetFilterPreset(context.Context, string) (store.FilterPreset, error)
	CreateFilterPreset(context.Context, store.FilterPreset) (store.FilterPreset, error)
	DeleteFilterPreset(context.Context, string) error

	LoadMatrixExport(context.Context, string, bool) (store.MatrixExport, error)
}

type searchIndex interface {
	Search(context.Context, search.Query) search.Response
	IndexIdea(search.IdeaRecord)
	IndexIdeas([]search.IdeaRecord)
	DeleteIdea(string)
	DeleteIdeas([]string)
}

type exporter interface {
	Export(context.Context, export.Request) (*export.Result, error)
}

type archiver interface {
	Upload(ctx context.Context, matrixID, filename, contentType string, data []byte) (archive.Object, error)
}

type Service struct {
	store   dataStore
	search  searchIndex
	exports exporter
	archive archiver
	filters viewstate.Store
	metrics *Metrics
	logger  zerolog.Logger
}

// New wires a service over dataStore. Search is disabled, working filters are
// kept in memory and archival is off until the With* options are applied.
func New(dataStore dataStore, logger zerolog.Logger) *Service {
	return &Service{
		store:   dataStore,
		exports: export.NewService(dataStore, logger),
		filters: viewstate.NewMemoryStore(viewstate.DefaultTTL),
		logger:  logger.With().Str("component", "app").Logger(),
	}
}

func (s *Service) WithSearch(index searchIndex) *Service {
	s.search = index
	return s
}

func (s *Service) WithExporter(exports exporter) *Service {
	s.exports = exports
	return s
}

func (s *Service) WithArchive(objects archiver) *Service {
	s.archive = objects
	return s
}

func (s *Service) WithFilterStore(filters viewstate.Store) *Service {
	s.filters = filters
	return s
}

func (s *Service) WithMetrics(metrics *Metrics) *Service {
	s.metrics = metrics
	return s
}

// Ping checks the database.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// PingFilterStore checks the working filter store.
func (s *Service) PingFilterStore(ctx context.Context) error {
	return s.filters.Ping(ctx)
}

func ideaRecord(idea store.Idea) search.IdeaRecord {
	record := search.IdeaRecord{
		ID:            idea.ID,
		Title:         idea.Title,
		Description:   idea.Description,
		MatrixID:      idea.MatrixID,
		CategoryName:  idea.CategoryName(),
		Status:        string(idea.Status),
		Effort:        idea.Effort,
		BusinessValue: idea.BusinessValue,
	}
	if idea.CategoryID != nil {
		record.CategoryID = *idea.CategoryID
	}
	return record
}

func (s *Service) indexIdeas(ideas []store.Idea) {
	if s.search == nil || len(ideas) == 0 {
		return
	}
	records := make([]search.IdeaRecord, 0, len(ideas))
	for _, idea := range ideas {
		records = append(records, ideaRecord(idea))
	}
	s.search.IndexIdeas(records)
}

// ideasUnder lists the ideas a cascading delete is about to remove so they
// can be dropped from the search index afterwards.
func (s *Service) ideasUnder(ctx context.Context, query store.IdeaQuery) []string {
	if s.search == nil {
		return nil
	}
	ideas, err := s.store.ListIdeas(ctx, query)
	if err != nil {
		s.logger.Warn().Err(err).Msg("list ideas for index cleanup")
		return nil
	}
	ids := make([]string, 0, len(ideas))
	for _, idea := range ideas {
		ids = append(ids, idea.ID)
	}
	return ids
}

func (s *Service) dropFromIndex(ids []string) {
	if s.search != nil {
		s.search.DeleteIdeas(ids)
	}
}

// reindexWhere refreshes the index entries for every idea matching query.
func (s *Service) reindexWhere(ctx context.Context, query store.IdeaQuery) {
	if s.search == nil {
		return
	}
	ideas, err := s.store.ListIdeas(ctx, query)
	if err != nil {
		s.logger.Warn().Err(err).Msg("list ideas for reindex")
		return
	}
	s.indexIdeas(ideas)
}
