package search

import "context"

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultIdea ResultType = "idea"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type       ResultType `json:"type"`
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Snippet    string     `json:"snippet"`
	MatrixID   string     `json:"impactMatrixId"`
	CategoryID string     `json:"categoryId,omitempty"`
	Status     string     `json:"status"`
}

// Query describes a search request.
type Query struct {
	Text     string
	MatrixID string // empty = every matrix
	Status   string
	Limit    int
	Offset   int
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

func (q Query) normalized() Query {
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
	Backend string   `json:"backend"`
}

// Backend can execute a full-text search.
type Backend interface {
	Search(ctx context.Context, q Query) ([]Result, int, error)
	Healthy() bool
}

// IdeaRecord is the data we index for an idea.
type IdeaRecord struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	MatrixID      string `json:"impactMatrixId"`
	CategoryID    string `json:"categoryId"`
	CategoryName  string `json:"categoryName"`
	Status        string `json:"status"`
	Effort        int    `json:"effort"`
	BusinessValue int    `json:"businessValue"`
}
