// Package viewstate keeps the working filter state of each client per matrix
// so a reload restores the filters that were last applied.
package viewstate

import (
	"context"
	"errors"
	"time"

	"impactmatrix/api/internal/filter"
)

// DefaultTTL bounds how long an untouched working state is kept.
const DefaultTTL = 7 * 24 * time.Hour

var ErrNotFound = errors.New("filter state not found")

// Entry is a stored working state.
type Entry struct {
	State     filter.State `json:"state"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

type Store interface {
	Get(ctx context.Context, matrixID, clientID string) (Entry, error)
	Save(ctx context.Context, matrixID, clientID string, state filter.State) (Entry, error)
	Clear(ctx context.Context, matrixID, clientID string) error
	Ping(ctx context.Context) error
}
