package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrFetchFailed is returned when a source page could not be fetched
	ErrFetchFailed = errors.New("failed to fetch page")

	// ErrPageNotFound is returned when a source page responds with 404
	ErrPageNotFound = errors.New("page not found")

	// ErrNoProductSignal means a page was fetched but no field could be extracted.
	// The domain fallback record keeps it from reaching callers; it is only logged.
	ErrNoProductSignal = errors.New("no product signal found on page")

	// ErrBackendUnavailable is returned when the AI backend is unconfigured or failing
	ErrBackendUnavailable = errors.New("AI backend unavailable")

	// ErrMalformedAIResponse is returned when the AI backend answers with unusable content
	ErrMalformedAIResponse = errors.New("malformed AI response")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrPriceUnparseable is returned when a price string has no recognizable amount
	ErrPriceUnparseable = errors.New("price could not be parsed")
)

// FetchError describes a network or HTTP failure reaching a source URL
type FetchError struct {
	URL        string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("fetch %s: timed out", e.URL)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: failed", e.URL)
	}
}

// Unwrap returns the underlying transport error
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is makes every FetchError match ErrFetchFailed
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// IsTimeout reports whether err is a FetchError caused by a timeout
func IsTimeout(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr) && fetchErr.Timeout
}
