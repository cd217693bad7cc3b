package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by Find* methods when no row matches
var ErrNotFound = errors.New("record not found")

// notFound translates GORM's missing-row error so services need not import gorm
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
