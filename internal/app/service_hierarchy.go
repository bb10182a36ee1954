package app

import (
	"context"
	"errors"
	"strings"

	"impactmatrix/api/internal/store"
)

type OrganizationInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type OrganizationPatch struct {
	Name        *string          `json:"name"`
	Description Optional[string] `json:"description"`
}

type ProjectInput struct {
	OrganizationID string `json:"organizationId"`
	Name           string `json:"name"`
	Description    string `json:"description"`
}

type ProjectPatch struct {
	Name        *string          `json:"name"`
	Description Optional[string] `json:"description"`
}

type MatrixInput struct {
	ProjectID   string `json:"projectId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type MatrixPatch struct {
	Name        *string          `json:"name"`
	Description Optional[string] `json:"description"`
}

// patchName applies an optional name change; a present name must not be blank.
func patchName(current string, patch *string) (string, error) {
	if patch == nil {
		return current, nil
	}
	return requireText("name", *patch)
}

// parentMissing turns a missing parent into a 404 naming the parent. Other
// errors pass through.
func parentMissing(err error, entity string) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFoundError(entity + " not found")
	}
	return err
}

// Organizations

func (s *Service) ListOrganizations(ctx context.Context) ([]store.Organization, error) {
	return s.store.ListOrganizations(ctx)
}

func (s *Service) GetOrganization(ctx context.Context, id string) (store.Organization, error) {
	return s.store.GetOrganization(ctx, id)
}

func (s *Service) CreateOrganization(ctx context.Context, input OrganizationInput) (store.Organization, error) {
	name, err := requireText("name", input.Name)
	if err != nil {
		return store.Organization{}, err
	}
	return s.store.CreateOrganization(ctx, store.Organization{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	})
}

func (s *Service) UpdateOrganization(ctx context.Context, id string, patch OrganizationPatch) (store.Organization, error) {
	current, err := s.store.GetOrganization(ctx, id)
	if err != nil {
		return store.Organization{}, err
	}
	name, err := patchName(current.Name, patch.Name)
	if err != nil {
		return store.Organization{}, err
	}
	current.Name = name
	current.Description = optionalText(current.Description, patch.Description)
	current.Projects = nil
	return s.store.UpdateOrganization(ctx, current)
}

// DeleteOrganization removes the organization with all of its projects,
// matrices, categories, ideas and filter presets.
func (s *Service) DeleteOrganization(ctx context.Context, id string) error {
	removed := s.ideasUnder(ctx, store.IdeaQuery{OrganizationID: id})
	if err := s.store.DeleteOrganization(ctx, id); err != nil {
		return err
	}
	s.dropFromIndex(removed)
	return nil
}

// Projects

func (s *Service) ListProjects(ctx context.Context, organizationID string) ([]store.Project, error) {
	return s.store.ListProjects(ctx, strings.TrimSpace(organizationID))
}

func (s *Service) GetProject(ctx context.Context, id string) (store.Project, error) {
	return s.store.GetProject(ctx, id)
}

func (s *Service) CreateProject(ctx context.Context, input ProjectInput) (store.Project, error) {
	organizationID, err := requireID("organizationId", input.OrganizationID)
	if err != nil {
		return store.Project{}, err
	}
	name, err := requireText("name", input.Name)
	if err != nil {
		return store.Project{}, err
	}
	if _, err := s.store.GetOrganization(ctx, organizationID); err != nil {
		return store.Project{}, parentMissing(err, "organization")
	}
	return s.store.CreateProject(ctx, store.Project{
		OrganizationID: organizationID,
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
	})
}

func (s *Service) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (store.Project, error) {
	current, err := s.store.GetProject(ctx, id)
	if err != nil {
		return store.Project{}, err
	}
	name, err := patchName(current.Name, patch.Name)
	if err != nil {
		return store.Project{}, err
	}
	current.Name = name
	current.Description = optionalText(current.Description, patch.Description)
	return s.store.UpdateProject(ctx, current)
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	removed := s.ideasUnder(ctx, store.IdeaQuery{ProjectID: id})
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.dropFromIndex(removed)
	return nil
}

// DuplicateProject deep-copies the project. Every copied matrix and the
// project itself get the " (Copy)" suffix.
func (s *Service) DuplicateProject(ctx context.Context, id string) (store.Project, error) {
	project, err := s.store.DuplicateProject(ctx, id)
	if err != nil {
		return store.Project{}, err
	}
	s.logger.Info().Str("source_id", id).Str("project_id", project.ID).Msg("project duplicated")
	s.reindexWhere(ctx, store.IdeaQuery{ProjectID: project.ID})
	return project, nil
}

// Matrices

func (s *Service) ListMatrices(ctx context.Context, projectID string) ([]store.ImpactMatrix, error) {
	return s.store.ListMatrices(ctx, strings.TrimSpace(projectID))
}

func (s *Service) GetMatrix(ctx context.Context, id string) (store.ImpactMatrix, error) {
	return s.store.GetMatrix(ctx, id)
}

func (s *Service) CreateMatrix(ctx context.Context, input MatrixInput) (store.ImpactMatrix, error) {
	projectID, err := requireID("projectId", input.ProjectID)
	if err != nil {
		return store.ImpactMatrix{}, err
	}
	name, err := requireText("name", input.Name)
	if err != nil {
		return store.ImpactMatrix{}, err
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return store.ImpactMatrix{}, parentMissing(err, "project")
	}
	return s.store.CreateMatrix(ctx, store.ImpactMatrix{
		ProjectID:   projectID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	})
}

func (s *Service) UpdateMatrix(ctx context.Context, id string, patch MatrixPatch) (store.ImpactMatrix, error) {
	current, err := s.store.GetMatrixHeader(ctx, id)
	if err != nil {
		return store.ImpactMatrix{}, err
	}
	name, err := patchName(current.Name, patch.Name)
	if err != nil {
		return store.ImpactMatrix{}, err
	}
	current.Name = name
	current.Description = optionalText(current.Description, patch.Description)
	return s.store.UpdateMatrix(ctx, current)
}

func (s *Service) DeleteMatrix(ctx context.Context, id string) error {
	removed := s.ideasUnder(ctx, store.IdeaQuery{MatrixID: id})
	if err := s.store.DeleteMatrix(ctx, id); err != nil {
		return err
	}
	s.dropFromIndex(removed)
	return nil
}

// DuplicateMatrix copies the matrix into its own project. Filter presets stay
// with the source.
func (s *Service) DuplicateMatrix(ctx context.Context, id string) (store.ImpactMatrix, error) {
	matrix, err := s.store.DuplicateMatrix(ctx, id)
	if err != nil {
		return store.ImpactMatrix{}, err
	}
	s.logger.Info().Str("source_id", id).Str("matrix_id", matrix.ID).Msg("matrix duplicated")
	s.reindexWhere(ctx, store.IdeaQuery{MatrixID: matrix.ID})
	return matrix, nil
}

// ResetMatrixPositions clears every custom position in the matrix and
// returns how many ideas were affected.
func (s *Service) ResetMatrixPositions(ctx context.Context, matrixID string) (int64, error) {
	if _, err := s.store.GetMatrixHeader(ctx, matrixID); err != nil {
		return 0, err
	}
	return s.store.ResetMatrixPositions(ctx, matrixID)
}
