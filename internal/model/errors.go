package model

import (
	"errors"
	"fmt"
)

// Errors shared by the matching engine, the exchange controller and the
// stores. Wrap with fmt.Errorf("...: %w", err) and test with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrForbidden          = errors.New("forbidden")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrStoreUnavailable   = errors.New("request store unavailable")
)

// Unavailable wraps err with kind unless it already carries a sentinel from
// this package, in which case it is returned as is.
func Unavailable(kind, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNotFound, ErrInvalidRequest, ErrInvalidTransition, ErrForbidden, ErrCatalogUnavailable, ErrStoreUnavailable} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// Transient reports whether err signals a collaborator outage that the
// caller may retry.
func Transient(err error) bool {
	return errors.Is(err, ErrCatalogUnavailable) || errors.Is(err, ErrStoreUnavailable)
}
