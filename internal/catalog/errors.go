package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for identifiers the catalog does not know.
var ErrNotFound = errors.New("model variant not found")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func notFound(id string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, id)
}
