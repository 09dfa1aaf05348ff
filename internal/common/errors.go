package common

import (
	"errors"
)

var (
	// ErrNotFound is returned when a single document query resolves to no document.
	ErrNotFound = errors.New("data not found")
	// ErrFeed terminates a live session when the store reports a query error.
	ErrFeed = errors.New("change feed failed")
	// ErrMutationConflict is returned when the store rejects an increment or append.
	ErrMutationConflict = errors.New("mutation rejected by store")
	ErrInvalidInput     = errors.New("invalid input")
	ErrValidation       = errors.New("validation error")
	ErrUnauthorized     = errors.New("unauthorized")

	ErrInvalidAmount         = errors.New("amount must not be negative")
	ErrMissingReference      = errors.New("required reference is empty")
	ErrInvalidFingerprint    = errors.New("idempotency key cannot be reused for different requests payload")
	ErrRequestBeingProcessed = errors.New("request with same idempotency key is being processed")
	ErrMissingIdempotencyKey = errors.New("missing idempotency key. this operation requires idempotency key")
	ErrDataNotFound          = errors.New("cache data not found")
)
