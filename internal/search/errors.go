package search

import "errors"

var (
	// ErrInvalidDateFormat is returned when the start date is not YYYY-MM-DD.
	ErrInvalidDateFormat = errors.New("invalid date format")
	// ErrInvalidWindow is returned for a search window that can't be queried.
	ErrInvalidWindow = errors.New("invalid search window")
	// ErrTransportFailure marks a request that produced no usable body.
	ErrTransportFailure = errors.New("transport failure")
	// ErrMalformedResponse marks a body that could not be parsed into fares.
	ErrMalformedResponse = errors.New("malformed response")
)
