package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.
// Callers check it with errors.Is.
var ErrNotFound = errors.New("not found")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
