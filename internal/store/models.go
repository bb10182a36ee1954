package store

import (
	"encoding/json"
	"time"
)

type IdeaStatus string

const (
	StatusDraft      IdeaStatus = "DRAFT"
	StatusInProgress IdeaStatus = "IN_PROGRESS"
	StatusCompleted  IdeaStatus = "COMPLETED"
	StatusArchived   IdeaStatus = "ARCHIVED"
)

// IdeaStatuses lists the accepted statuses in workflow order.
func IdeaStatuses() []IdeaStatus {
	return []IdeaStatus{StatusDraft, StatusInProgress, StatusCompleted, StatusArchived}
}

func (s IdeaStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

type Organization struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	ProjectCount int       `json:"projectCount"`
	Projects     []Project `json:"projects,omitempty"`
}

type Project struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organizationId"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	Organization   *Organization  `json:"organization,omitempty"`
	MatrixCount    int            `json:"matrixCount"`
	Matrices       []ImpactMatrix `json:"matrices,omitempty"`
}

type ImpactMatrix struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"projectId"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Project       *Project   `json:"project,omitempty"`
	IdeaCount     int        `json:"ideaCount"`
	CategoryCount int        `json:"categoryCount"`
	Categories    []Category `json:"categories,omitempty"`
	Ideas         []Idea     `json:"ideas,omitempty"`
}

// Category is scoped to a single matrix. Deleting it leaves its ideas
// uncategorized.
type Category struct {
	ID          string    `json:"id"`
	MatrixID    string    `json:"impactMatrixId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	IdeaCount   int       `json:"ideaCount"`
	Ideas       []Idea    `json:"ideas,omitempty"`
}

// Idea is one item on the matrix. PositionX and PositionY are either both
// set (a custom position on the canvas) or both nil.
type Idea struct {
	ID            string     `json:"id"`
	MatrixID      string     `json:"impactMatrixId"`
	CategoryID    *string    `json:"categoryId"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Effort        int        `json:"effort"`
	BusinessValue int        `json:"businessValue"`
	Weight        int        `json:"weight"`
	Status        IdeaStatus `json:"status"`
	PositionX     *float64   `json:"positionX"`
	PositionY     *float64   `json:"positionY"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Category      *Category  `json:"category"`
}

func (i Idea) HasCustomPosition() bool {
	return i.PositionX != nil && i.PositionY != nil
}

// CategoryName returns the joined category name or "".
func (i Idea) CategoryName() string {
	if i.Category == nil {
		return ""
	}
	return i.Category.Name
}

// FilterPreset stores a serialized filter state. Filters is kept as raw JSON
// and validated by the caller when it is loaded.
type FilterPreset struct {
	ID        string          `json:"id"`
	MatrixID  string          `json:"impactMatrixId"`
	Name      string          `json:"name"`
	Filters   json.RawMessage `json:"filters"`
	CreatedAt time.Time       `json:"createdAt"`
}

// IdeaQuery narrows an idea listing. Empty fields do not constrain.
type IdeaQuery struct {
	MatrixID       string
	CategoryID     string
	Status         IdeaStatus
	ProjectID      string
	OrganizationID string
}

// MatrixExport is everything needed to serialize one matrix.
type MatrixExport struct {
	Matrix        ImpactMatrix
	Ideas         []Idea
	Categories    []Category
	FilterPresets []FilterPreset
}
