package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var ErrDuplicateEmail = errors.New("email already exists")

// isUniqueViolation recognises unique-index failures across the supported SQL drivers.
// Drivers opened with TranslateError report gorm.ErrDuplicatedKey; the message checks cover
// drivers that return their raw error.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
