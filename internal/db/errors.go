package db

import "errors"

// Common database errors
var (
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition is returned when a mention status change is not
	// allowed from the record's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)
