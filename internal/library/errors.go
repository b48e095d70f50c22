package library

import (
	"errors"
	"strings"

	"gamelib/internal/services"
)

var (
	// ErrNotFound is returned when a game or listing id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrIdentityConflict is returned when a normalized title insert loses a
	// race and the follow-up lookup still cannot find the winning row.
	ErrIdentityConflict = errors.New("identity conflict")
)

const (
	sqliteConstraintUnique     = 2067
	sqliteConstraintPrimaryKey = 1555
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		switch coder.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(op, detail string) error {
	return services.Wrap(services.ErrNotFound, "library", op, detail, ErrNotFound)
}
