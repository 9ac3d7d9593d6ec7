package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amavi/catalogo/internal/store"
)

// Service errors. Store and media failures are wrapped so callers can tell
// them apart from user mistakes.
var (
	ErrNotFound = store.ErrNotFound
	ErrStorage  = errors.New("storage failure")
	ErrMedia    = errors.New("media failure")
)

// ValidationError lists every rule an input broke. Nothing is written when
// it is returned.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func storageError(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
