package repository

import (
	"errors"

	"gorm.io/gorm"

	"taskboard/internal/store"
)

// translate maps gorm errors onto the storage contract. Unknown errors
// pass through unchanged so the caller can report them as storage
// failures.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicate
	}
	return err
}

// affected turns a write that touched no row into ErrNotFound.
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// withUpdatedAt is the column list for a partial update.
func withUpdatedAt(columns []string) []string {
	out := make([]string, 0, len(columns)+1)
	out = append(out, columns...)
	return append(out, "updated_at")
}
