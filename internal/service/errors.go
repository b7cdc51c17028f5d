package service

import "errors"

// Common service errors
var (
	// ErrJobNotFound is returned when the referenced job does not exist
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
