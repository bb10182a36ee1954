package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeResult struct {
	affected int64
	err      error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, r.err }

func TestNotFoundWrapsNoRows(t *testing.T) {
	err := notFound(sql.ErrNoRows, "idea", "idea_1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "idea idea_1: not found")

	other := notFound(errors.New("boom"), "idea", "idea_1")
	assert.NotErrorIs(t, other, ErrNotFound)
	assert.Contains(t, other.Error(), "boom")
}

func TestExpectAffected(t *testing.T) {
	assert.NoError(t, expectAffected(fakeResult{affected: 1}, "category", "cat_1"))
	assert.ErrorIs(t, expectAffected(fakeResult{}, "category", "cat_1"), ErrNotFound)
	assert.Error(t, expectAffected(fakeResult{err: errors.New("driver")}, "category", "cat_1"))
}
