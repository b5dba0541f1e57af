package qdrant

import "errors"

var (
	// ErrBaseURLRequired is returned when a base URL is not provided.
	ErrBaseURLRequired = errors.New("qdrant base url required")

	// ErrTransient marks a server-side failure that is safe to retry.
	ErrTransient = errors.New("transient qdrant failure")

	// ErrInvalidMaxAttempts indicates an invalid retry attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than zero")
)
