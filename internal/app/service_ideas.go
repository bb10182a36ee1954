package app

import (
	"context"
	"encoding/json"
	"strings"

	"impactmatrix/api/internal/filter"
	"impactmatrix/api/internal/store"
)

type CategoryInput struct {
	MatrixID    string `json:"impactMatrixId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type CategoryPatch struct {
	Name        *string          `json:"name"`
	Description Optional[string] `json:"description"`
	Color       *string          `json:"color"`
}

type IdeaInput struct {
	MatrixID      string  `json:"impactMatrixId"`
	CategoryID    *string `json:"categoryId"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Effort        *int    `json:"effort"`
	BusinessValue *int    `json:"businessValue"`
	Weight        *int    `json:"weight"`
	Status        string  `json:"status"`
}

type IdeaPatch struct {
	Title         *string          `json:"title"`
	Description   Optional[string] `json:"description"`
	Effort        *int             `json:"effort"`
	BusinessValue *int             `json:"businessValue"`
	Weight        *int             `json:"weight"`
	CategoryID    Optional[string] `json:"categoryId"`
	Status        *string          `json:"status"`
}

// ScoresInput moves an idea to a new cell by changing its scores.
type ScoresInput struct {
	Effort        *int `json:"effort"`
	BusinessValue *int `json:"businessValue"`
}

// PositionInput pins an idea to a free canvas position.
type PositionInput struct {
	PositionX *float64 `json:"positionX"`
	PositionY *float64 `json:"positionY"`
}

type FilterPresetInput struct {
	MatrixID string          `json:"impactMatrixId"`
	Name     string          `json:"name"`
	Filters  json.RawMessage `json:"filters"`
}

// Categories

func (s *Service) ListCategories(ctx context.Context, matrixID string) ([]store.Category, error) {
	return s.store.ListCategories(ctx, strings.TrimSpace(matrixID))
}

func (s *Service) GetCategory(ctx context.Context, id string) (store.Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, input CategoryInput) (store.Category, error) {
	matrixID, err := requireID("impactMatrixId", input.MatrixID)
	if err != nil {
		return store.Category{}, err
	}
	name, err := requireText("name", input.Name)
	if err != nil {
		return store.Category{}, err
	}
	color, err := colorOrDefault(input.Color)
	if err != nil {
		return store.Category{}, err
	}
	if _, err := s.store.GetMatrixHeader(ctx, matrixID); err != nil {
		return store.Category{}, parentMissing(err, "matrix")
	}
	return s.store.CreateCategory(ctx, store.Category{
		MatrixID:    matrixID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Color:       color,
	})
}

func (s *Service) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (store.Category, error) {
	current, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return store.Category{}, err
	}
	name, err := patchName(current.Name, patch.Name)
	if err != nil {
		return store.Category{}, err
	}
	if patch.Color != nil {
		color, err := validColor(*patch.Color)
		if err != nil {
			return store.Category{}, err
		}
		current.Color = color
	}
	current.Name = name
	current.Description = optionalText(current.Description, patch.Description)
	current.Ideas = nil

	updated, err := s.store.UpdateCategory(ctx, current)
	if err != nil {
		return store.Category{}, err
	}
	s.reindexWhere(ctx, store.IdeaQuery{CategoryID: id})
	return updated, nil
}

// DeleteCategory removes the category. Its ideas stay on the matrix without a
// category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	current, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	uncategorized := make([]store.Idea, 0, len(current.Ideas))
	for _, idea := range current.Ideas {
		idea.CategoryID = nil
		idea.Category = nil
		uncategorized = append(uncategorized, idea)
	}
	s.indexIdeas(uncategorized)
	return nil
}

// Ideas

func (s *Service) ListIdeas(ctx context.Context, query store.IdeaQuery) ([]store.Idea, error) {
	query.MatrixID = strings.TrimSpace(query.MatrixID)
	query.CategoryID = strings.TrimSpace(query.CategoryID)
	if query.Status != "" {
		status, err := validStatus(string(query.Status))
		if err != nil {
			return nil, err
		}
		query.Status = status
	}
	return s.store.ListIdeas(ctx, query)
}

func (s *Service) GetIdea(ctx context.Context, id string) (store.Idea, error) {
	return s.store.GetIdea(ctx, id)
}

// categoryInMatrix checks that the category exists and belongs to matrixID.
func (s *Service) categoryInMatrix(ctx context.Context, categoryID, matrixID string) error {
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return parentMissing(err, "category")
	}
	if category.MatrixID != matrixID {
		return validationError("category belongs to a different matrix",
			map[string]any{"field": "categoryId", "value": categoryID})
	}
	return nil
}

func (s *Service) CreateIdea(ctx context.Context, input IdeaInput) (store.Idea, error) {
	matrixID, err := requireID("impactMatrixId", input.MatrixID)
	if err != nil {
		return store.Idea{}, err
	}
	title, err := requireText("title", input.Title)
	if err != nil {
		return store.Idea{}, err
	}
	effort, err := scoreOrDefault("effort", input.Effort)
	if err != nil {
		return store.Idea{}, err
	}
	businessValue, err := scoreOrDefault("businessValue", input.BusinessValue)
	if err != nil {
		return store.Idea{}, err
	}
	weight, err := scoreOrDefault("weight", input.Weight)
	if err != nil {
		return store.Idea{}, err
	}
	status, err := statusOrDefault(input.Status)
	if err != nil {
		return store.Idea{}, err
	}
	if _, err := s.store.GetMatrixHeader(ctx, matrixID); err != nil {
		return store.Idea{}, parentMissing(err, "matrix")
	}

	var categoryID *string
	if input.CategoryID != nil && strings.TrimSpace(*input.CategoryID) != "" {
		id := strings.TrimSpace(*input.CategoryID)
		if err := s.categoryInMatrix(ctx, id, matrixID); err != nil {
			return store.Idea{}, err
		}
		categoryID = &id
	}

	idea, err := s.store.CreateIdea(ctx, store.Idea{
		MatrixID:      matrixID,
		CategoryID:    categoryID,
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		Effort:        effort,
		BusinessValue: businessValue,
		Weight:        weight,
		Status:        status,
	})
	if err != nil {
		return store.Idea{}, err
	}
	if s.search != nil {
		s.search.IndexIdea(ideaRecord(idea))
	}
	return idea, nil
}

// UpdateIdea applies a partial update. A null categoryId removes the
// category; scores keep any custom position.
func (s *Service) UpdateIdea(ctx context.Context, id string, patch IdeaPatch) (store.Idea, error) {
	idea, err := s.store.GetIdea(ctx, id)
	if err != nil {
		return store.Idea{}, err
	}
	if patch.Title != nil {
		title, err := requireText("title", *patch.Title)
		if err != nil {
			return store.Idea{}, err
		}
		idea.Title = title
	}
	idea.Description = optionalText(idea.Description, patch.Description)
	for _, score := range []struct {
		field  string
		value  *int
		target *int
	}{
		{"effort", patch.Effort, &idea.Effort},
		{"businessValue", patch.BusinessValue, &idea.BusinessValue},
		{"weight", patch.Weight, &idea.Weight},
	} {
		if score.value == nil {
			continue
		}
		v, err := validScore(score.field, *score.value)
		if err != nil {
			return store.Idea{}, err
		}
		*score.target = v
	}
	if patch.Status != nil {
		status, err := validStatus(*patch.Status)
		if err != nil {
			return store.Idea{}, err
		}
		idea.Status = status
	}
	if patch.CategoryID.Set {
		categoryID := strings.TrimSpace(patch.CategoryID.Value)
		if patch.CategoryID.Null || categoryID == "" {
			idea.CategoryID = nil
		} else {
			if err := s.categoryInMatrix(ctx, categoryID, idea.MatrixID); err != nil {
				return store.Idea{}, err
			}
			idea.CategoryID = &categoryID
		}
	}

	updated, err := s.store.UpdateIdea(ctx, idea)
	if err != nil {
		return store.Idea{}, err
	}
	if s.search != nil {
		s.search.IndexIdea(ideaRecord(updated))
	}
	return updated, nil
}

// UpdateIdeaScores persists the cell an idea was dropped on. A custom
// position, if any, is left in place.
func (s *Service) UpdateIdeaScores(ctx context.Context, id string, input ScoresInput) (store.Idea, error) {
	if input.Effort == nil || input.BusinessValue == nil {
		return store.Idea{}, validationError("effort and businessValue are required", nil)
	}
	effort, err := validScore("effort", *input.Effort)
	if err != nil {
		return store.Idea{}, err
	}
	businessValue, err := validScore("businessValue", *input.BusinessValue)
	if err != nil {
		return store.Idea{}, err
	}
	idea, err := s.store.UpdateIdeaScores(ctx, id, effort, businessValue)
	if err != nil {
		return store.Idea{}, err
	}
	if s.search != nil {
		s.search.IndexIdea(ideaRecord(idea))
	}
	return idea, nil
}

func (s *Service) SetCustomPosition(ctx context.Context, id string, input PositionInput) (store.Idea, error) {
	x, err := finiteCoordinate("positionX", input.PositionX)
	if err != nil {
		return store.Idea{}, err
	}
	y, err := finiteCoordinate("positionY", input.PositionY)
	if err != nil {
		return store.Idea{}, err
	}
	return s.store.SetIdeaPosition(ctx, id, &x, &y)
}

// ResetCustomPosition returns the idea to the cell its scores describe.
func (s *Service) ResetCustomPosition(ctx context.Context, id string) (store.Idea, error) {
	return s.store.SetIdeaPosition(ctx, id, nil, nil)
}

func (s *Service) DeleteIdea(ctx context.Context, id string) error {
	if err := s.store.DeleteIdea(ctx, id); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteIdea(id)
	}
	return nil
}

// Filter presets

func (s *Service) ListFilterPresets(ctx context.Context, matrixID string) ([]store.FilterPreset, error) {
	return s.store.ListFilterPresets(ctx, strings.TrimSpace(matrixID))
}

func (s *Service) GetFilterPreset(ctx context.Context, id string) (store.FilterPreset, error) {
	return s.store.GetFilterPreset(ctx, id)
}

// CreateFilterPreset stores the filters in canonical form. Payloads that do
// not describe a valid filter state are rejected.
func (s *Service) CreateFilterPreset(ctx context.Context, input FilterPresetInput) (store.FilterPreset, error) {
	matrixID, err := requireID("impactMatrixId", input.MatrixID)
	if err != nil {
		return store.FilterPreset{}, err
	}
	name, err := requireText("name", input.Name)
	if err != nil {
		return store.FilterPreset{}, err
	}
	if len(input.Filters) == 0 || string(input.Filters) == "null" {
		return store.FilterPreset{}, validationError("filters is required", map[string]any{"field": "filters"})
	}
	state, err := filter.Parse(input.Filters)
	if err != nil {
		return store.FilterPreset{}, err
	}
	canonical, err := state.Marshal()
	if err != nil {
		return store.FilterPreset{}, err
	}
	if _, err := s.store.GetMatrixHeader(ctx, matrixID); err != nil {
		return store.FilterPreset{}, parentMissing(err, "matrix")
	}
	return s.store.CreateFilterPreset(ctx, store.FilterPreset{
		MatrixID: matrixID,
		Name:     name,
		Filters:  json.RawMessage(canonical),
	})
}

func (s *Service) DeleteFilterPreset(ctx context.Context, id string) error {
	return s.store.DeleteFilterPreset(ctx, id)
}
