// Package seed loads demo data from a YAML fixture and creates it through the
// application service, so every seeded record passes the same validation as
// one created over the API.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"impactmatrix/api/internal/app"
	"impactmatrix/api/internal/store"
)

//go:embed default.yaml
var defaultFixture []byte

type Fixture struct {
	Organizations []Organization `yaml:"organizations"`
}

type Organization struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Projects    []Project `yaml:"projects"`
}

type Project struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Matrices    []Matrix `yaml:"matrices"`
}

type Matrix struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Categories  []Category `yaml:"categories"`
	Ideas       []Idea     `yaml:"ideas"`
	Presets     []Preset   `yaml:"presets"`
}

type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
}

// Idea refers to its category by name within the same matrix.
type Idea struct {
	Title         string `yaml:"title"`
	Description   string `yaml:"description"`
	Effort        *int   `yaml:"effort"`
	BusinessValue *int   `yaml:"businessValue"`
	Weight        *int   `yaml:"weight"`
	Status        string `yaml:"status"`
	Category      string `yaml:"category"`
}

type Preset struct {
	Name    string         `yaml:"name"`
	Filters map[string]any `yaml:"filters"`
}

// Summary counts what Apply created.
type Summary struct {
	Organizations int `json:"organizations"`
	Projects      int `json:"projects"`
	Matrices      int `json:"matrices"`
	Categories    int `json:"categories"`
	Ideas         int `json:"ideas"`
	Presets       int `json:"presets"`
}

// Target is the subset of the application service the seeder writes through.
type Target interface {
	CreateOrganization(context.Context, app.OrganizationInput) (store.Organization, error)
	CreateProject(context.Context, app.ProjectInput) (store.Project, error)
	CreateMatrix(context.Context, app.MatrixInput) (store.ImpactMatrix, error)
	CreateCategory(context.Context, app.CategoryInput) (store.Category, error)
	CreateIdea(context.Context, app.IdeaInput) (store.Idea, error)
	CreateFilterPreset(context.Context, app.FilterPresetInput) (store.FilterPreset, error)
}

// Default returns the built-in demo fixture.
func Default() (Fixture, error) {
	return Parse(defaultFixture)
}

// LoadFile reads a fixture from path.
func LoadFile(path string) (Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (Fixture, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes a fixture. Unknown keys are rejected so typos do not silently
// drop data.
func Parse(data []byte) (Fixture, error) {
	var fixture Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixture); err != nil {
		if err == io.EOF {
			return Fixture{}, fmt.Errorf("parse fixture: empty document")
		}
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	if len(fixture.Organizations) == 0 {
		return Fixture{}, fmt.Errorf("parse fixture: no organizations")
	}
	return fixture, nil
}

// Apply creates the fixture in order. It stops at the first failure; records
// created before it are kept.
func Apply(ctx context.Context, target Target, fixture Fixture, logger zerolog.Logger) (Summary, error) {
	var summary Summary
	for _, o := range fixture.Organizations {
		org, err := target.CreateOrganization(ctx, app.OrganizationInput{Name: o.Name, Description: o.Description})
		if err != nil {
			return summary, fmt.Errorf("organization %q: %w", o.Name, err)
		}
		summary.Organizations++

		for _, p := range o.Projects {
			project, err := target.CreateProject(ctx, app.ProjectInput{
				OrganizationID: org.ID,
				Name:           p.Name,
				Description:    p.Description,
			})
			if err != nil {
				return summary, fmt.Errorf("project %q: %w", p.Name, err)
			}
			summary.Projects++

			for _, m := range p.Matrices {
				if err := applyMatrix(ctx, target, project.ID, m, &summary); err != nil {
					return summary, err
				}
			}
		}
		logger.Info().Str("organization_id", org.ID).Str("name", org.Name).Msg("seeded organization")
	}
	return summary, nil
}

func applyMatrix(ctx context.Context, target Target, projectID string, m Matrix, summary *Summary) error {
	matrix, err := target.CreateMatrix(ctx, app.MatrixInput{
		ProjectID:   projectID,
		Name:        m.Name,
		Description: m.Description,
	})
	if err != nil {
		return fmt.Errorf("matrix %q: %w", m.Name, err)
	}
	summary.Matrices++

	categoryIDs := make(map[string]string, len(m.Categories))
	for _, c := range m.Categories {
		category, err := target.CreateCategory(ctx, app.CategoryInput{
			MatrixID:    matrix.ID,
			Name:        c.Name,
			Description: c.Description,
			Color:       c.Color,
		})
		if err != nil {
			return fmt.Errorf("category %q: %w", c.Name, err)
		}
		categoryIDs[c.Name] = category.ID
		summary.Categories++
	}

	for _, i := range m.Ideas {
		input := app.IdeaInput{
			MatrixID:      matrix.ID,
			Title:         i.Title,
			Description:   i.Description,
			Effort:        i.Effort,
			BusinessValue: i.BusinessValue,
			Weight:        i.Weight,
			Status:        i.Status,
		}
		if i.Category != "" {
			id, ok := categoryIDs[i.Category]
			if !ok {
				return fmt.Errorf("idea %q: unknown category %q", i.Title, i.Category)
			}
			input.CategoryID = &id
		}
		if _, err := target.CreateIdea(ctx, input); err != nil {
			return fmt.Errorf("idea %q: %w", i.Title, err)
		}
		summary.Ideas++
	}

	for _, p := range m.Presets {
		filters, err := json.Marshal(p.Filters)
		if err != nil {
			return fmt.Errorf("preset %q: %w", p.Name, err)
		}
		if _, err := target.CreateFilterPreset(ctx, app.FilterPresetInput{
			MatrixID: matrix.ID,
			Name:     p.Name,
			Filters:  filters,
		}); err != nil {
			return fmt.Errorf("preset %q: %w", p.Name, err)
		}
		summary.Presets++
	}
	return nil
}
