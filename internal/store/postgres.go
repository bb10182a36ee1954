package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"impactmatrix/api/internal/util"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Organizations

const organizationSelect = `
	SELECT o.id, o.name, o.description, o.created_at, o.updated_at,
		(SELECT COUNT(*) FROM projects p WHERE p.organization_id = o.id)
	FROM organizations o
`

func scanOrganization(row rowScanner) (Organization, error) {
	var org Organization
	err := row.Scan(&org.ID, &org.Name, &org.Description, &org.CreatedAt, &org.UpdatedAt, &org.ProjectCount)
	return org, err
}

func (s *PostgresStore) ListOrganizations(ctx context.Context) ([]Organization, error) {
	rows, err := s.db.QueryContext(ctx, organizationSelect+` ORDER BY o.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	items := make([]Organization, 0)
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		items = append(items, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}
	return items, nil
}

// GetOrganization returns the organization with its projects, newest first.
func (s *PostgresStore) GetOrganization(ctx context.Context, id string) (Organization, error) {
	org, err := scanOrganization(s.db.QueryRowContext(ctx, organizationSelect+` WHERE o.id = $1`, id))
	if err != nil {
		return Organization{}, notFound(err, "organization", id)
	}
	projects, err := s.ListProjects(ctx, id)
	if err != nil {
		return Organization{}, err
	}
	org.Projects = projects
	return org, nil
}

func (s *PostgresStore) CreateOrganization(ctx context.Context, org Organization) (Organization, error) {
	org.ID = util.NewID("org")
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO organizations (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, org.ID, org.Name, org.Description).Scan(&org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return Organization{}, fmt.Errorf("insert organization: %w", err)
	}
	return org, nil
}

func (s *PostgresStore) UpdateOrganization(ctx context.Context, org Organization) (Organization, error) {
	err := s.db.QueryRowContext(ctx, `
		UPDATE organizations
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, org.ID, org.Name, org.Description).Scan(&org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return Organization{}, notFound(err, "organization", org.ID)
	}
	return org, nil
}

func (s *PostgresStore) DeleteOrganization(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	return expectAffected(result, "organization", id)
}

// Projects

const projectSelect = `
	SELECT p.id, p.organization_id, p.name, p.description, p.created_at, p.updated_at,
		o.id, o.name, o.description, o.created_at, o.updated_at,
		(SELECT COUNT(*) FROM impact_matrices m WHERE m.project_id = p.id)
	FROM projects p
	JOIN organizations o ON o.id = p.organization_id
`

func scanProject(row rowScanner) (Project, error) {
	var project Project
	var org Organization
	err := row.Scan(
		&project.ID, &project.OrganizationID, &project.Name, &project.Description, &project.CreatedAt, &project.UpdatedAt,
		&org.ID, &org.Name, &org.Description, &org.CreatedAt, &org.UpdatedAt,
		&project.MatrixCount,
	)
	if err != nil {
		return Project{}, err
	}
	project.Organization = &org
	return project, nil
}

// ListProjects returns projects newest first. An empty organizationID lists all.
func (s *PostgresStore) ListProjects(ctx context.Context, organizationID string) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, projectSelect+`
		WHERE ($1 = '' OR p.organization_id = $1)
		ORDER BY p.created_at DESC
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (Project, error) {
	project, err := scanProject(s.db.QueryRowContext(ctx, projectSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return Project{}, notFound(err, "project", id)
	}
	matrices, err := s.ListMatrices(ctx, id)
	if err != nil {
		return Project{}, err
	}
	project.Matrices = matrices
	return project, nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, project Project) (Project, error) {
	project.ID = util.NewID("prj")
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, organization_id, name, description)
		VALUES ($1, $2, $3, $4)
	`, project.ID, project.OrganizationID, project.Name, project.Description); err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}
	return s.GetProject(ctx, project.ID)
}

func (s *PostgresStore) UpdateProject(ctx context.Context, project Project) (Project, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
	`, project.ID, project.Name, project.Description)
	if err != nil {
		return Project{}, fmt.Errorf("update project: %w", err)
	}
	if err := expectAffected(result, "project", project.ID); err != nil {
		return Project{}, err
	}
	return s.GetProject(ctx, project.ID)
}

func (s *PostgresStore) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return expectAffected(result, "project", id)
}

// DuplicateProject copies the project with every matrix, category and idea in
// one transaction. Copies are suffixed with " (Copy)" and lose their custom
// positions. Filter presets are not copied.
func (s *PostgresStore) DuplicateProject(ctx context.Context, id string) (Project, error) {
	var copyID string
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var source Project
		err := tx.QueryRowContext(ctx, `
			SELECT organization_id, name, description FROM projects WHERE id = $1
		`, id).Scan(&source.OrganizationID, &source.Name, &source.Description)
		if err != nil {
			return notFound(err, "project", id)
		}

		copyID = util.NewID("prj")
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projects (id, organization_id, name, description)
			VALUES ($1, $2, $3, $4)
		`, copyID, source.OrganizationID, source.Name+CopySuffix, source.Description); err != nil {
			return fmt.Errorf("insert project copy: %w", err)
		}

		matrices, err := loadMatrixRows(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, matrix := range matrices {
			if _, err := copyMatrix(ctx, tx, matrix, copyID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Project{}, err
	}
	return s.GetProject(ctx, copyID)
}

// CopySuffix is appended to the names of duplicated projects and matrices.
const CopySuffix = " (Copy)"

// Impact matrices

const matrixSelect = `
	SELECT m.id, m.project_id, m.name, m.description, m.created_at, m.updated_at,
		p.id, p.organization_id, p.name, p.description, p.created_at, p.updated_at,
		o.id, o.name, o.description, o.created_at, o.updated_at,
		(SELECT COUNT(*) FROM ideas i WHERE i.impact_matrix_id = m.id),
		(SELECT COUNT(*) FROM categories c WHERE c.impact_matrix_id = m.id)
	FROM impact_matrices m
	JOIN projects p ON p.id = m.project_id
	JOIN organizations o ON o.id = p.organization_id
`

func scanMatrix(row rowScanner) (ImpactMatrix, error) {
	var matrix ImpactMatrix
	var project Project
	var org Organization
	err := row.Scan(
		&matrix.ID, &matrix.ProjectID, &matrix.Name, &matrix.Description, &matrix.CreatedAt, &matrix.UpdatedAt,
		&project.ID, &project.OrganizationID, &project.Name, &project.Description, &project.CreatedAt, &project.UpdatedAt,
		&org.ID, &org.Name, &org.Description, &org.CreatedAt, &org.UpdatedAt,
		&matrix.IdeaCount, &matrix.CategoryCount,
	)
	if err != nil {
		return ImpactMatrix{}, err
	}
	project.Organization = &org
	matrix.Project = &project
	return matrix, nil
}

// ListMatrices returns matrices newest first. An empty projectID lists all.
func (s *PostgresStore) ListMatrices(ctx context.Context, projectID string) ([]ImpactMatrix, error) {
	rows, err := s.db.QueryContext(ctx, matrixSelect+`
		WHERE ($1 = '' OR m.project_id = $1)
		ORDER BY m.created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list matrices: %w", err)
	}
	defer rows.Close()

	items := make([]ImpactMatrix, 0)
	for rows.Next() {
		matrix, err := scanMatrix(rows)
		if err != nil {
			return nil, fmt.Errorf("scan matrix: %w", err)
		}
		items = append(items, matrix)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matrices: %w", err)
	}
	return items, nil
}

// GetMatrixHeader loads the matrix with its project and organization but no
// children.
func (s *PostgresStore) GetMatrixHeader(ctx context.Context, id string) (ImpactMatrix, error) {
	matrix, err := scanMatrix(s.db.QueryRowContext(ctx, matrixSelect+` WHERE m.id = $1`, id))
	if err != nil {
		return ImpactMatrix{}, notFound(err, "matrix", id)
	}
	return matrix, nil
}

// GetMatrix loads the matrix with its categories (by name) and ideas (newest
// first).
func (s *PostgresStore) GetMatrix(ctx context.Context, id string) (ImpactMatrix, error) {
	matrix, err := s.GetMatrixHeader(ctx, id)
	if err != nil {
		return ImpactMatrix{}, err
	}
	categories, err := s.ListCategories(ctx, id)
	if err != nil {
		return ImpactMatrix{}, err
	}
	ideas, err := s.listIdeas(ctx, IdeaQuery{MatrixID: id}, "DESC")
	if err != nil {
		return ImpactMatrix{}, err
	}
	matrix.Categories = categories
	matrix.Ideas = ideas
	return matrix, nil
}

func (s *PostgresStore) CreateMatrix(ctx context.Context, matrix ImpactMatrix) (ImpactMatrix, error) {
	matrix.ID = util.NewID("mtx")
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO impact_matrices (id, project_id, name, description)
		VALUES ($1, $2, $3, $4)
	`, matrix.ID, matrix.ProjectID, matrix.Name, matrix.Description); err != nil {
		return ImpactMatrix{}, fmt.Errorf("insert matrix: %w", err)
	}
	return s.GetMatrixHeader(ctx, matrix.ID)
}

func (s *PostgresStore) UpdateMatrix(ctx context.Context, matrix ImpactMatrix) (ImpactMatrix, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE impact_matrices
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
	`, matrix.ID, matrix.Name, matrix.Description)
	if err != nil {
		return ImpactMatrix{}, fmt.Errorf("update matrix: %w", err)
	}
	if err := expectAffected(result, "matrix", matrix.ID); err != nil {
		return ImpactMatrix{}, err
	}
	return s.GetMatrixHeader(ctx, matrix.ID)
}

func (s *PostgresStore) DeleteMatrix(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM impact_matrices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete matrix: %w", err)
	}
	return expectAffected(result, "matrix", id)
}

// DuplicateMatrix copies the matrix into the same project in one transaction.
func (s *PostgresStore) DuplicateMatrix(ctx context.Context, id string) (ImpactMatrix, error) {
	var copyID string
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var source ImpactMatrix
		err := tx.QueryRowContext(ctx, `
			SELECT id, project_id, name, description FROM impact_matrices WHERE id = $1
		`, id).Scan(&source.ID, &source.ProjectID, &source.Name, &source.Description)
		if err != nil {
			return notFound(err, "matrix", id)
		}
		copyID, err = copyMatrix(ctx, tx, source, source.ProjectID)
		return err
	})
	if err != nil {
		return ImpactMatrix{}, err
	}
	return s.GetMatrixHeader(ctx, copyID)
}

func loadMatrixRows(ctx context.Context, q queryer, projectID string) ([]ImpactMatrix, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, project_id, name, description
		FROM impact_matrices
		WHERE project_id = $1
		ORDER BY created_at ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load matrices: %w", err)
	}
	defer rows.Close()

	items := make([]ImpactMatrix, 0)
	for rows.Next() {
		var matrix ImpactMatrix
		if err := rows.Scan(&matrix.ID, &matrix.ProjectID, &matrix.Name, &matrix.Description); err != nil {
			return nil, fmt.Errorf("scan matrix: %w", err)
		}
		items = append(items, matrix)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matrices: %w", err)
	}
	return items, nil
}

// copyMatrix inserts a copy of source under projectID, remapping category
// references of the copied ideas. Rows are read fully before inserting since
// the transaction holds a single connection.
func copyMatrix(ctx context.Context, q queryer, source ImpactMatrix, projectID string) (string, error) {
	copyID := util.NewID("mtx")
	if _, err := q.ExecContext(ctx, `
		INSERT INTO impact_matrices (id, project_id, name, description)
		VALUES ($1, $2, $3, $4)
	`, copyID, projectID, source.Name+CopySuffix, source.Description); err != nil {
		return "", fmt.Errorf("insert matrix copy: %w", err)
	}

	categories, err := loadCategoryRows(ctx, q, source.ID)
	if err != nil {
		return "", err
	}
	remapped := make(map[string]string, len(categories))
	for _, category := range categories {
		newID := util.NewID("cat")
		if _, err := q.ExecContext(ctx, `
			INSERT INTO categories (id, impact_matrix_id, name, description, color)
			VALUES ($1, $2, $3, $4, $5)
		`, newID, copyID, category.Name, category.Description, category.Color); err != nil {
			return "", fmt.Errorf("insert category copy: %w", err)
		}
		remapped[category.ID] = newID
	}

	ideas, err := loadIdeaRows(ctx, q, source.ID)
	if err != nil {
		return "", err
	}
	for _, idea := range ideas {
		var categoryID *string
		if idea.CategoryID != nil {
			if mapped, ok := remapped[*idea.CategoryID]; ok {
				categoryID = &mapped
			}
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO ideas (id, impact_matrix_id, category_id, title, description, effort, business_value, weight, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, util.NewID("idea"), copyID, categoryID, idea.Title, idea.Description,
			idea.Effort, idea.BusinessValue, idea.Weight, string(idea.Status)); err != nil {
			return "", fmt.Errorf("insert idea copy: %w", err)
		}
	}
	return copyID, nil
}

// ResetMatrixPositions clears every custom position in the matrix and returns
// how many ideas were affected.
func (s *PostgresStore) ResetMatrixPositions(ctx context.Context, matrixID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE ideas
		SET position_x = NULL, position_y = NULL, updated_at = NOW()
		WHERE impact_matrix_id = $1 AND (position_x IS NOT NULL OR position_y IS NOT NULL)
	`, matrixID)
	if err != nil {
		return 0, fmt.Errorf("reset positions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset positions rows: %w", err)
	}
	return affected, nil
}

// Categories

const categorySelect = `
	SELECT c.id, c.impact_matrix_id, c.name, c.description, c.color, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM ideas i WHERE i.category_id = c.id)
	FROM categories c
`

func scanCategory(row rowScanner) (Category, error) {
	var category Category
	err := row.Scan(&category.ID, &category.MatrixID, &category.Name, &category.Description, &category.Color,
		&category.CreatedAt, &category.UpdatedAt, &category.IdeaCount)
	return category, err
}

// ListCategories returns categories ordered by name. An empty matrixID lists all.
func (s *PostgresStore) ListCategories(ctx context.Context, matrixID string) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, categorySelect+`
		WHERE ($1 = '' OR c.impact_matrix_id = $1)
		ORDER BY c.name ASC
	`, matrixID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := make([]Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return items, nil
}

func loadCategoryRows(ctx context.Context, q queryer, matrixID string) ([]Category, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, description, color
		FROM categories
		WHERE impact_matrix_id = $1
		ORDER BY created_at ASC
	`, matrixID)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()

	items := make([]Category, 0)
	for rows.Next() {
		var category Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Description, &category.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetCategory(ctx context.Context, id string) (Category, error) {
	category, err := scanCategory(s.db.QueryRowContext(ctx, categorySelect+` WHERE c.id = $1`, id))
	if err != nil {
		return Category{}, notFound(err, "category", id)
	}
	ideas, err := s.ListIdeas(ctx, IdeaQuery{CategoryID: id})
	if err != nil {
		return Category{}, err
	}
	category.Ideas = ideas
	return category, nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, category Category) (Category, error) {
	category.ID = util.NewID("cat")
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (id, impact_matrix_id, name, description, color)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, category.ID, category.MatrixID, category.Name, category.Description, category.Color).Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return Category{}, fmt.Errorf("insert category: %w", err)
	}
	return category, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, category Category) (Category, error) {
	err := s.db.QueryRowContext(ctx, `
		UPDATE categories
		SET name = $2, description = $3, color = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING impact_matrix_id, created_at, updated_at
	`, category.ID, category.Name, category.Description, category.Color).Scan(&category.MatrixID, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return Category{}, notFound(err, "category", category.ID)
	}
	return category, nil
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return expectAffected(result, "category", id)
}

// Ideas

const ideaSelect = `
	SELECT i.id, i.impact_matrix_id, i.category_id, i.title, i.description,
		i.effort, i.business_value, i.weight, i.status, i.position_x, i.position_y,
		i.created_at, i.updated_at,
		c.id, c.impact_matrix_id, c.name, c.description, c.color, c.created_at, c.updated_at
	FROM ideas i
	LEFT JOIN categories c ON c.id = i.category_id
`

func scanIdea(row rowScanner) (Idea, error) {
	var idea Idea
	var status string
	var categoryID sql.NullString
	var positionX, positionY sql.NullFloat64
	var catID, catMatrixID, catName, catDescription, catColor sql.NullString
	var catCreatedAt, catUpdatedAt sql.NullTime
	err := row.Scan(
		&idea.ID, &idea.MatrixID, &categoryID, &idea.Title, &idea.Description,
		&idea.Effort, &idea.BusinessValue, &idea.Weight, &status, &positionX, &positionY,
		&idea.CreatedAt, &idea.UpdatedAt,
		&catID, &catMatrixID, &catName, &catDescription, &catColor, &catCreatedAt, &catUpdatedAt,
	)
	if err != nil {
		return Idea{}, err
	}
	idea.Status = IdeaStatus(status)
	if categoryID.Valid {
		idea.CategoryID = &categoryID.String
	}
	if positionX.Valid && positionY.Valid {
		idea.PositionX = &positionX.Float64
		idea.PositionY = &positionY.Float64
	}
	if catID.Valid {
		idea.Category = &Category{
			ID:          catID.String,
			MatrixID:    catMatrixID.String,
			Name:        catName.String,
			Description: catDescription.String,
			Color:       catColor.String,
			CreatedAt:   catCreatedAt.Time,
			UpdatedAt:   catUpdatedAt.Time,
		}
	}
	return idea, nil
}

// ListIdeas returns the ideas matching query, newest first, with their category.
func (s *PostgresStore) ListIdeas(ctx context.Context, query IdeaQuery) ([]Idea, error) {
	return s.listIdeas(ctx, query, "DESC")
}

func (s *PostgresStore) listIdeas(ctx context.Context, query IdeaQuery, direction string) ([]Idea, error) {
	if direction != "ASC" {
		direction = "DESC"
	}
	rows, err := s.db.QueryContext(ctx, ideaSelect+`
		WHERE ($1 = '' OR i.impact_matrix_id = $1)
			AND ($2 = '' OR i.category_id = $2)
			AND ($3 = '' OR i.status = $3)
			AND ($4 = '' OR i.impact_matrix_id IN (SELECT id FROM impact_matrices WHERE project_id = $4))
			AND ($5 = '' OR i.impact_matrix_id IN (
				SELECT m.id FROM impact_matrices m JOIN projects p ON p.id = m.project_id
				WHERE p.organization_id = $5))
		ORDER BY i.created_at `+direction+`, i.id `+direction,
		query.MatrixID, query.CategoryID, string(query.Status), query.ProjectID, query.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	defer rows.Close()

	items := make([]Idea, 0)
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		items = append(items, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ideas: %w", err)
	}
	return items, nil
}

func loadIdeaRows(ctx context.Context, q queryer, matrixID string) ([]Idea, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT category_id, title, description, effort, business_value, weight, status
		FROM ideas
		WHERE impact_matrix_id = $1
		ORDER BY created_at ASC, id ASC
	`, matrixID)
	if err != nil {
		return nil, fmt.Errorf("load ideas: %w", err)
	}
	defer rows.Close()

	items := make([]Idea, 0)
	for rows.Next() {
		var idea Idea
		var categoryID sql.NullString
		var status string
		if err := rows.Scan(&categoryID, &idea.Title, &idea.Description, &idea.Effort, &idea.BusinessValue, &idea.Weight, &status); err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		if categoryID.Valid {
			idea.CategoryID = &categoryID.String
		}
		idea.Status = IdeaStatus(status)
		items = append(items, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ideas: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetIdea(ctx context.Context, id string) (Idea, error) {
	idea, err := scanIdea(s.db.QueryRowContext(ctx, ideaSelect+` WHERE i.id = $1`, id))
	if err != nil {
		return Idea{}, notFound(err, "idea", id)
	}
	return idea, nil
}

func (s *PostgresStore) CreateIdea(ctx context.Context, idea Idea) (Idea, error) {
	idea.ID = util.NewID("idea")
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO ideas (id, impact_matrix_id, category_id, title, description, effort, business_value, weight, status, position_x, position_y)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, idea.ID, idea.MatrixID, idea.CategoryID, idea.Title, idea.Description,
		idea.Effort, idea.BusinessValue, idea.Weight, string(idea.Status), idea.PositionX, idea.PositionY); err != nil {
		return Idea{}, fmt.Errorf("insert idea: %w", err)
	}
	return s.GetIdea(ctx, idea.ID)
}

// UpdateIdea overwrites every editable field of the idea.
func (s *PostgresStore) UpdateIdea(ctx context.Context, idea Idea) (Idea, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE ideas
		SET category_id = $2, title = $3, description = $4, effort = $5, business_value = $6,
			weight = $7, status = $8, position_x = $9, position_y = $10, updated_at = NOW()
		WHERE id = $1
	`, idea.ID, idea.CategoryID, idea.Title, idea.Description, idea.Effort, idea.BusinessValue,
		idea.Weight, string(idea.Status), idea.PositionX, idea.PositionY)
	if err != nil {
		return Idea{}, fmt.Errorf("update idea: %w", err)
	}
	if err := expectAffected(result, "idea", idea.ID); err != nil {
		return Idea{}, err
	}
	return s.GetIdea(ctx, idea.ID)
}

// UpdateIdeaScores persists new scores and leaves any custom position as is.
func (s *PostgresStore) UpdateIdeaScores(ctx context.Context, id string, effort, businessValue int) (Idea, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE ideas SET effort = $2, business_value = $3, updated_at = NOW() WHERE id = $1
	`, id, effort, businessValue)
	if err != nil {
		return Idea{}, fmt.Errorf("update idea scores: %w", err)
	}
	if err := expectAffected(result, "idea", id); err != nil {
		return Idea{}, err
	}
	return s.GetIdea(ctx, id)
}

// SetIdeaPosition stores a custom position, or clears it when both are nil.
func (s *PostgresStore) SetIdeaPosition(ctx context.Context, id string, x, y *float64) (Idea, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE ideas SET position_x = $2, position_y = $3, updated_at = NOW() WHERE id = $1
	`, id, x, y)
	if err != nil {
		return Idea{}, fmt.Errorf("update idea position: %w", err)
	}
	if err := expectAffected(result, "idea", id); err != nil {
		return Idea{}, err
	}
	return s.GetIdea(ctx, id)
}

func (s *PostgresStore) DeleteIdea(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM ideas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete idea: %w", err)
	}
	return expectAffected(result, "idea", id)
}

// Filter presets

const presetSelect = `SELECT id, impact_matrix_id, name, filters, created_at FROM filter_presets`

func scanPreset(row rowScanner) (FilterPreset, error) {
	var preset FilterPreset
	var filters []byte
	if err := row.Scan(&preset.ID, &preset.MatrixID, &preset.Name, &filters, &preset.CreatedAt); err != nil {
		return FilterPreset{}, err
	}
	preset.Filters = json.RawMessage(filters)
	return preset, nil
}

func (s *PostgresStore) ListFilterPresets(ctx context.Context, matrixID string) ([]FilterPreset, error) {
	return s.listPresets(ctx, matrixID, "created_at DESC")
}

func (s *PostgresStore) listPresets(ctx context.Context, matrixID, order string) ([]FilterPreset, error) {
	rows, err := s.db.QueryContext(ctx, presetSelect+`
		WHERE ($1 = '' OR impact_matrix_id = $1)
		ORDER BY `+order, matrixID)
	if err != nil {
		return nil, fmt.Errorf("list filter presets: %w", err)
	}
	defer rows.Close()

	items := make([]FilterPreset, 0)
	for rows.Next() {
		preset, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan filter preset: %w", err)
		}
		items = append(items, preset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filter presets: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetFilterPreset(ctx context.Context, id string) (FilterPreset, error) {
	preset, err := scanPreset(s.db.QueryRowContext(ctx, presetSelect+` WHERE id = $1`, id))
	if err != nil {
		return FilterPreset{}, notFound(err, "filter preset", id)
	}
	return preset, nil
}

func (s *PostgresStore) CreateFilterPreset(ctx context.Context, preset FilterPreset) (FilterPreset, error) {
	preset.ID = util.NewID("fp")
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO filter_presets (id, impact_matrix_id, name, filters)
		VALUES ($1, $2, $3, $4::jsonb)
		RETURNING created_at
	`, preset.ID, preset.MatrixID, preset.Name, string(preset.Filters)).Scan(&preset.CreatedAt)
	if err != nil {
		return FilterPreset{}, fmt.Errorf("insert filter preset: %w", err)
	}
	return preset, nil
}

func (s *PostgresStore) DeleteFilterPreset(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM filter_presets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete filter preset: %w", err)
	}
	return expectAffected(result, "filter preset", id)
}

// LoadMatrixExport gathers a matrix with ideas (oldest first), categories and
// optionally filter presets (both by name).
func (s *PostgresStore) LoadMatrixExport(ctx context.Context, matrixID string, includePresets bool) (MatrixExport, error) {
	matrix, err := s.GetMatrixHeader(ctx, matrixID)
	if err != nil {
		return MatrixExport{}, err
	}
	ideas, err := s.listIdeas(ctx, IdeaQuery{MatrixID: matrixID}, "ASC")
	if err != nil {
		return MatrixExport{}, err
	}
	categories, err := s.ListCategories(ctx, matrixID)
	if err != nil {
		return MatrixExport{}, err
	}
	data := MatrixExport{Matrix: matrix, Ideas: ideas, Categories: categories}
	if includePresets {
		presets, err := s.listPresets(ctx, matrixID, "name ASC")
		if err != nil {
			return MatrixExport{}, err
		}
		data.FilterPresets = presets
	}
	return data, nil
}
