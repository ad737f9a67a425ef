package extsort

import "errors"

// Sentinel errors for common error conditions
var (
	// Validation errors
	ErrMissingInput     = errors.New("input path is required")
	ErrInputNotFound    = errors.New("input file not found")
	ErrOutputExists     = errors.New("output file already exists")
	ErrInvalidChunkSize = errors.New("chunk size must be at least 1")
)
