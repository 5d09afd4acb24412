package scraper

import (
	"errors"
	"fmt"
)

// Sentinel errors for upstream operations.
var (
	ErrUnavailable = errors.New("scraper: upstream unavailable")
	ErrMalformed   = errors.New("scraper: malformed upstream response")
	ErrNotFound    = errors.New("scraper: tab not found")
	ErrRateLimited = errors.New("scraper: rate limited by upstream")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op  string // Operation: "search", "get"
	URL string
	Err error
}

func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("scraper %s [%s]: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("scraper %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op, url string, err error) error {
	return &Error{Op: op, URL: url, Err: err}
}
