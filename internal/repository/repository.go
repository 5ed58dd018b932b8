// Package repository provides gorm-backed persistence for the storefront.
//
// Status transitions that guard side effects (marking orders paid or
// shipped, moving custom requests through the quote lifecycle) are
// implemented as compare-and-set updates: the prior status is part of the
// WHERE clause and callers learn from the affected-row count whether the
// transition happened. Effects belong to whoever observed the transition,
// never to the update itself.
package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// translateNotFound maps gorm's sentinel onto the package error
func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
