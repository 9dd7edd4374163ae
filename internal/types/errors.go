package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrElementNotFound     = errors.New("element not found")
	ErrNoNextPage          = errors.New("no next page")
	ErrEmptyResult         = errors.New("nothing to export")
	ErrUnsupportedSelector = errors.New("unsupported selector type")
	ErrNotNavigable        = errors.New("element does not lead to a page")
	ErrBodyTooLarge        = errors.New("response body exceeds size limit")
)

// FetchError wraps errors that occur while loading a page.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SelectorError wraps a failed DOM query.
type SelectorError struct {
	URL      string
	Selector string
	Err      error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("selector error for %s (selector=%q): %v", e.URL, e.Selector, e.Err)
}

func (e *SelectorError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsNotFound reports whether err means a selector matched nothing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrElementNotFound)
}
