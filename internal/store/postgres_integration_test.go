package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*PostgresStore, context.Context) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := strings.TrimSpace(os.Getenv("IMPACT_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("IMPACT_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, resetPublicSchema(ctx, db))
	_, err = ApplyMigrations(ctx, db, filepath.Join("..", "..", "db", "migrations"))
	require.NoError(t, err)
	return NewPostgresStore(db), ctx
}

func ptr(v float64) *float64 { return &v }

func TestDuplicateMatrixRemapsCategoriesAndClearsPositions(t *testing.T) {
	s, ctx := openTestStore(t)

	org, err := s.CreateOrganization(ctx, Organization{Name: "Acme"})
	require.NoError(t, err)
	project, err := s.CreateProject(ctx, Project{OrganizationID: org.ID, Name: "Roadmap"})
	require.NoError(t, err)
	matrix, err := s.CreateMatrix(ctx, ImpactMatrix{ProjectID: project.ID, Name: "Q3"})
	require.NoError(t, err)
	category, err := s.CreateCategory(ctx, Category{MatrixID: matrix.ID, Name: "Product", Color: "#3b82f6"})
	require.NoError(t, err)

	_, err = s.CreateIdea(ctx, Idea{
		MatrixID: matrix.ID, CategoryID: &category.ID, Title: "Email notifications",
		Effort: 2, BusinessValue: 8, Weight: 5, Status: StatusDraft,
		PositionX: ptr(900), PositionY: ptr(100),
	})
	require.NoError(t, err)
	_, err = s.CreateIdea(ctx, Idea{
		MatrixID: matrix.ID, Title: "Loading spinners",
		Effort: 2, BusinessValue: 3, Weight: 4, Status: StatusInProgress,
	})
	require.NoError(t, err)
	_, err = s.CreateFilterPreset(ctx, FilterPreset{MatrixID: matrix.ID, Name: "Drafts", Filters: json.RawMessage(`{"statuses":["DRAFT"]}`)})
	require.NoError(t, err)

	copied, err := s.DuplicateMatrix(ctx, matrix.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q3 (Copy)", copied.Name)
	assert.Equal(t, project.ID, copied.ProjectID)
	assert.Equal(t, 2, copied.IdeaCount)
	assert.Equal(t, 1, copied.CategoryCount)

	full, err := s.GetMatrix(ctx, copied.ID)
	require.NoError(t, err)
	require.Len(t, full.Categories, 1)
	newCategory := full.Categories[0]
	assert.NotEqual(t, category.ID, newCategory.ID)
	for _, idea := range full.Ideas {
		assert.False(t, idea.HasCustomPosition(), idea.Title)
		if idea.Title == "Email notifications" {
			require.NotNil(t, idea.CategoryID)
			assert.Equal(t, newCategory.ID, *idea.CategoryID)
		} else {
			assert.Nil(t, idea.CategoryID)
		}
	}

	presets, err := s.ListFilterPresets(ctx, copied.ID)
	require.NoError(t, err)
	assert.Empty(t, presets)
}

func TestDuplicateProjectCopiesEveryMatrix(t *testing.T) {
	s, ctx := openTestStore(t)

	org, err := s.CreateOrganization(ctx, Organization{Name: "Acme"})
	require.NoError(t, err)
	project, err := s.CreateProject(ctx, Project{OrganizationID: org.ID, Name: "Roadmap"})
	require.NoError(t, err)
	for _, name := range []string{"Q3", "Q4"} {
		_, err := s.CreateMatrix(ctx, ImpactMatrix{ProjectID: project.ID, Name: name})
		require.NoError(t, err)
	}

	copied, err := s.DuplicateProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Roadmap (Copy)", copied.Name)
	require.Len(t, copied.Matrices, 2)
	names := []string{copied.Matrices[0].Name, copied.Matrices[1].Name}
	assert.ElementsMatch(t, []string{"Q3 (Copy)", "Q4 (Copy)"}, names)

	_, err = s.DuplicateProject(ctx, "prj_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletingCategoryUncategorizesIdeas(t *testing.T) {
	s, ctx := openTestStore(t)

	org, err := s.CreateOrganization(ctx, Organization{Name: "Acme"})
	require.NoError(t, err)
	project, err := s.CreateProject(ctx, Project{OrganizationID: org.ID, Name: "Roadmap"})
	require.NoError(t, err)
	matrix, err := s.CreateMatrix(ctx, ImpactMatrix{ProjectID: project.ID, Name: "Q3"})
	require.NoError(t, err)
	category, err := s.CreateCategory(ctx, Category{MatrixID: matrix.ID, Name: "Ops", Color: "#f59e0b"})
	require.NoError(t, err)
	idea, err := s.CreateIdea(ctx, Idea{MatrixID: matrix.ID, CategoryID: &category.ID, Title: "Footer links", Effort: 1, BusinessValue: 2, Weight: 5, Status: StatusCompleted})
	require.NoError(t, err)
	require.NotNil(t, idea.Category)
	assert.Equal(t, "Ops", idea.Category.Name)

	require.NoError(t, s.DeleteCategory(ctx, category.ID))
	reloaded, err := s.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.CategoryID)
	assert.Nil(t, reloaded.Category)

	assert.ErrorIs(t, s.DeleteCategory(ctx, category.ID), ErrNotFound)
}

func TestPositionPairConstraint(t *testing.T) {
	s, ctx := openTestStore(t)

	org, err := s.CreateOrganization(ctx, Organization{Name: "Acme"})
	require.NoError(t, err)
	project, err := s.CreateProject(ctx, Project{OrganizationID: org.ID, Name: "Roadmap"})
	require.NoError(t, err)
	matrix, err := s.CreateMatrix(ctx, ImpactMatrix{ProjectID: project.ID, Name: "Q3"})
	require.NoError(t, err)
	idea, err := s.CreateIdea(ctx, Idea{MatrixID: matrix.ID, Title: "Spinners", Effort: 2, BusinessValue: 3, Weight: 5, Status: StatusDraft})
	require.NoError(t, err)

	_, err = s.SetIdeaPosition(ctx, idea.ID, ptr(10), nil)
	require.Error(t, err)
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "23514", pgErr.Code)

	moved, err := s.SetIdeaPosition(ctx, idea.ID, ptr(10), ptr(20))
	require.NoError(t, err)
	assert.True(t, moved.HasCustomPosition())

	affected, err := s.ResetMatrixPositions(ctx, matrix.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)
}

func TestLoadMatrixExportOrdering(t *testing.T) {
	s, ctx := openTestStore(t)

	org, err := s.CreateOrganization(ctx, Organization{Name: "Acme"})
	require.NoError(t, err)
	project, err := s.CreateProject(ctx, Project{OrganizationID: org.ID, Name: "Roadmap"})
	require.NoError(t, err)
	matrix, err := s.CreateMatrix(ctx, ImpactMatrix{ProjectID: project.ID, Name: "Q3"})
	require.NoError(t, err)
	for _, name := range []string{"Zeta", "Alpha"} {
		_, err := s.CreateCategory(ctx, Category{MatrixID: matrix.ID, Name: name, Color: "#22c55e"})
		require.NoError(t, err)
		_, err = s.CreateFilterPreset(ctx, FilterPreset{MatrixID: matrix.ID, Name: name, Filters: json.RawMessage(`{}`)})
		require.NoError(t, err)
	}
	for _, title := range []string{"first", "second"} {
		_, err := s.CreateIdea(ctx, Idea{MatrixID: matrix.ID, Title: title, Effort: 5, BusinessValue: 5, Weight: 5, Status: StatusDraft})
		require.NoError(t, err)
	}

	data, err := s.LoadMatrixExport(ctx, matrix.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "Acme", data.Matrix.Project.Organization.Name)
	assert.Equal(t, "first", data.Ideas[0].Title)
	assert.Equal(t, "Alpha", data.Categories[0].Name)
	assert.Equal(t, "Alpha", data.FilterPresets[0].Name)

	withoutPresets, err := s.LoadMatrixExport(ctx, matrix.ID, false)
	require.NoError(t, err)
	assert.Nil(t, withoutPresets.FilterPresets)

	_, err = s.LoadMatrixExport(ctx, "mtx_missing", false)
	assert.ErrorIs(t, err, ErrNotFound)
}
