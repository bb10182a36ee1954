package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned (wrapped) when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

func notFound(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return fmt.Errorf("get %s %s: %w", entity, id, err)
}

func expectAffected(result sql.Result, entity, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s rows: %w", entity, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}
