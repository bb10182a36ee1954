package app

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"impactmatrix/api/internal/archive"
	"impactmatrix/api/internal/export"
	"impactmatrix/api/internal/search"
	"impactmatrix/api/internal/store"
)

type fakeStore struct {
	pingFn func(context.Context) error

	getOrganizationFn    func(context.Context, string) (store.Organization, error)
	createOrganizationFn func(context.Context, store.Organization) (store.Organization, error)
	updateOrganizationFn func(context.Context, store.Organization) (store.Organization, error)
	deleteOrganizationFn func(context.Context, string) error

	getProjectFn    func(context.Context, string) (store.Project, error)
	createProjectFn func(context.Context, store.Project) (store.Project, error)
	deleteProjectFn func(context.Context, string) error

	getMatrixHeaderFn      func(context.Context, string) (store.ImpactMatrix, error)
	getMatrixFn            func(context.Context, string) (store.ImpactMatrix, error)
	createMatrixFn         func(context.Context, store.ImpactMatrix) (store.ImpactMatrix, error)
	duplicateMatrixFn      func(context.Context, string) (store.ImpactMatrix, error)
	resetMatrixPositionsFn func(context.Context, string) (int64, error)

	getCategoryFn    func(context.Context, string) (store.Category, error)
	createCategoryFn func(context.Context, store.Category) (store.Category, error)
	updateCategoryFn func(context.Context, store.Category) (store.Category, error)
	deleteCategoryFn func(context.Context, string) error

	listIdeasFn        func(context.Context, store.IdeaQuery) ([]store.Idea, error)
	getIdeaFn          func(context.Context, string) (store.Idea, error)
	createIdeaFn       func(context.Context, store.Idea) (store.Idea, error)
	updateIdeaFn       func(context.Context, store.Idea) (store.Idea, error)
	updateIdeaScoresFn func(context.Context, string, int, int) (store.Idea, error)
	setIdeaPositionFn  func(context.Context, string, *float64, *float64) (store.Idea, error)
	deleteIdeaFn       func(context.Context, string) error

	getFilterPresetFn    func(context.Context, string) (store.FilterPreset, error)
	createFilterPresetFn func(context.Context, store.FilterPreset) (store.FilterPreset, error)
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

func (f *fakeStore) ListOrganizations(context.Context) ([]store.Organization, error) {
	return []store.Organization{}, nil
}
func (f *fakeStore) GetOrganization(ctx context.Context, id string) (store.Organization, error) {
	if f.getOrganizationFn != nil {
		return f.getOrganizationFn(ctx, id)
	}
	return store.Organization{}, store.ErrNotFound
}
func (f *fakeStore) CreateOrganization(ctx context.Context, org store.Organization) (store.Organization, error) {
	if f.createOrganizationFn != nil {
		return f.createOrganizationFn(ctx, org)
	}
	org.ID = "org-1"
	return org, nil
}
func (f *fakeStore) UpdateOrganization(ctx context.Context, org store.Organization) (store.Organization, error) {
	if f.updateOrganizationFn != nil {
		return f.updateOrganizationFn(ctx, org)
	}
	return org, nil
}
func (f *fakeStore) DeleteOrganization(ctx context.Context, id string) error {
	if f.deleteOrganizationFn != nil {
		return f.deleteOrganizationFn(ctx, id)
	}
	return nil
}

func (f *fakeStore) ListProjects(context.Context, string) ([]store.Project, error) {
	return []store.Project{}, nil
}
func (f *fakeStore) GetProject(ctx context.Context, id string) (store.Project, error) {
	if f.getProjectFn != nil {
		return f.getProjectFn(ctx, id)
	}
	return store.Project{}, store.ErrNotFound
}
func (f *fakeStore) CreateProject(ctx context.Context, project store.Project) (store.Project, error) {
	if f.createProjectFn != nil {
		return f.createProjectFn(ctx, project)
	}
	project.ID = "project-1"
	return project, nil
}
func (f *fakeStore) UpdateProject(_ context.Context, project store.Project) (store.Project, error) {
	return project, nil
}
func (f *fakeStore) DeleteProject(ctx context.Context, id string) error {
	if f.deleteProjectFn != nil {
		return f.deleteProjectFn(ctx, id)
	}
	return nil
}
func (f *fakeStore) DuplicateProject(_ context.Context, id string) (store.Project, error) {
	return store.Project{ID: id + "-copy"}, nil
}

func (f *fakeStore) ListMatrices(context.Context, string) ([]store.ImpactMatrix, error) {
	return []store.ImpactMatrix{}, nil
}
func (f *fakeStore) GetMatrixHeader(ctx context.Context, id string) (store.ImpactMatrix, error) {
	if f.getMatrixHeaderFn != nil {
		return f.getMatrixHeaderFn(ctx, id)
	}
	return store.ImpactMatrix{}, store.ErrNotFound
}
func (f *fakeStore) GetMatrix(ctx context.Context, id string) (store.ImpactMatrix, error) {
	if f.getMatrixFn != nil {
		return f.getMatrixFn(ctx, id)
	}
	return store.ImpactMatrix{}, store.ErrNotFound
}
func (f *fakeStore) CreateMatrix(ctx context.Context, matrix store.ImpactMatrix) (store.ImpactMatrix, error) {
	if f.createMatrixFn != nil {
		return f.createMatrixFn(ctx, matrix)
	}
	matrix.ID = "matrix-1"
	return matrix, nil
}
func (f *fakeStore) UpdateMatrix(_ context.Context, matrix store.ImpactMatrix) (store.ImpactMatrix, error) {
	return matrix, nil
}
func (f *fakeStore) DeleteMatrix(context.Context, string) error { return nil }
func (f *fakeStore) DuplicateMatrix(ctx context.Context, id string) (store.ImpactMatrix, error) {
	if f.duplicateMatrixFn != nil {
		return f.duplicateMatrixFn(ctx, id)
	}
	return store.ImpactMatrix{}, store.ErrNotFound
}
func (f *fakeStore) ResetMatrixPositions(ctx context.Context, id string) (int64, error) {
	if f.resetMatrixPositionsFn != nil {
		return f.resetMatrixPositionsFn(ctx, id)
	}
	return 0, nil
}

func (f *fakeStore) ListCategories(context.Context, string) ([]store.Category, error) {
	return []store.Category{}, nil
}
func (f *fakeStore) GetCategory(ctx context.Context, id string) (store.Category, error) {
	if f.getCategoryFn != nil {
		return f.getCategoryFn(ctx, id)
	}
	return store.Category{}, store.ErrNotFound
}
func (f *fakeStore) CreateCategory(ctx context.Context, category store.Category) (store.Category, error) {
	if f.createCategoryFn != nil {
		return f.createCategoryFn(ctx, category)
	}
	category.ID = "category-1"
	return category, nil
}
func (f *fakeStore) UpdateCategory(ctx context.Context, category store.Category) (store.Category, error) {
	if f.updateCategoryFn != nil {
		return f.updateCategoryFn(ctx, category)
	}
	return category, nil
}
func (f *fakeStore) DeleteCategory(ctx context.Context, id string) error {
	if f.deleteCategoryFn != nil {
		return f.deleteCategoryFn(ctx, id)
	}
	return nil
}

func (f *fakeStore) ListIdeas(ctx context.Context, query store.IdeaQuery) ([]store.Idea, error) {
	if f.listIdeasFn != nil {
		return f.listIdeasFn(ctx, query)
	}
	return []store.Idea{}, nil
}
func (f *fakeStore) GetIdea(ctx context.Context, id string) (store.Idea, error) {
	if f.getIdeaFn != nil {
		return f.getIdeaFn(ctx, id)
	}
	return store.Idea{}, store.ErrNotFound
}
func (f *fakeStore) CreateIdea(ctx context.Context, idea store.Idea) (store.Idea, error) {
	if f.createIdeaFn != nil {
		return f.createIdeaFn(ctx, idea)
	}
	idea.ID = "idea-1"
	return idea, nil
}
func (f *fakeStore) UpdateIdea(ctx context.Context, idea store.Idea) (store.Idea, error) {
	if f.updateIdeaFn != nil {
		return f.updateIdeaFn(ctx, idea)
	}
	return idea, nil
}
func (f *fakeStore) UpdateIdeaScores(ctx context.Context, id string, effort, businessValue int) (store.Idea, error) {
	if f.updateIdeaScoresFn != nil {
		return f.updateIdeaScoresFn(ctx, id, effort, businessValue)
	}
	return store.Idea{}, store.ErrNotFound
}
func (f *fakeStore) SetIdeaPosition(ctx context.Context, id string, x, y *float64) (store.Idea, error) {
	if f.setIdeaPositionFn != nil {
		return f.setIdeaPositionFn(ctx, id, x, y)
	}
	return store.Idea{}, store.ErrNotFound
}
func (f *fakeStore) DeleteIdea(ctx context.Context, id string) error {
	if f.deleteIdeaFn != nil {
		return f.deleteIdeaFn(ctx, id)
	}
	return nil
}

func (f *fakeStore) ListFilterPresets(context.Context, string) ([]store.FilterPreset, error) {
	return []store.FilterPreset{}, nil
}
func (f *fakeStore) GetFilterPreset(ctx context.Context, id string) (store.FilterPreset, error) {
	if f.getFilterPresetFn != nil {
		return f.getFilterPresetFn(ctx, id)
	}
	return store.FilterPreset{}, store.ErrNotFound
}
func (f *fakeStore) CreateFilterPreset(ctx context.Context, preset store.FilterPreset) (store.FilterPreset, error) {
	if f.createFilterPresetFn != nil {
		return f.createFilterPresetFn(ctx, preset)
	}
	preset.ID = "preset-1"
	return preset, nil
}
func (f *fakeStore) DeleteFilterPreset(context.Context, string) error { return nil }

func (f *fakeStore) LoadMatrixExport(context.Context, string, bool) (store.MatrixExport, error) {
	return store.MatrixExport{}, store.ErrNotFound
}

// fakeSearch records index traffic synchronously.
type fakeSearch struct {
	mu      sync.Mutex
	indexed []search.IdeaRecord
	deleted []string
	queries []search.Query
}

func (f *fakeSearch) Search(_ context.Context, q search.Query) search.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return search.Response{Results: []search.Result{{Type: search.ResultIdea, ID: "idea-1"}}, Total: 1, Query: q.Text, Backend: "fake"}
}

func (f *fakeSearch) IndexIdea(record search.IdeaRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, record)
}

func (f *fakeSearch) IndexIdeas(records []search.IdeaRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, records...)
}

func (f *fakeSearch) DeleteIdea(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
}

func (f *fakeSearch) DeleteIdeas(ids []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ids...)
}

type fakeExporter struct {
	exportFn func(context.Context, export.Request) (*export.Result, error)
}

func (f *fakeExporter) Export(ctx context.Context, req export.Request) (*export.Result, error) {
	if f.exportFn != nil {
		return f.exportFn(ctx, req)
	}
	return &export.Result{
		Data:     []byte("workbook"),
		Filename: "Roadmap_2026-10-18.xlsx",
		MimeType: export.MimeTypeXLSX,
	}, nil
}

type fakeArchiver struct {
	uploaded []string
}

func (f *fakeArchiver) Upload(_ context.Context, matrixID, filename, _ string, data []byte) (archive.Object, error) {
	key := archive.ObjectKey(matrixID, filename, fixedTime)
	f.uploaded = append(f.uploaded, key)
	return archive.Object{Bucket: "exports", Key: key, Size: int64(len(data))}, nil
}

func newTestService(fs *fakeStore) *Service {
	return New(fs, zerolog.New(io.Discard))
}

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }
