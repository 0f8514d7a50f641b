package chunk

import "errors"

var (
	// ErrInvalidChunkSize is returned when the configured chunk size is not positive.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrInvalidOverlap is returned when the configured overlap is negative
	// or not smaller than the chunk size.
	ErrInvalidOverlap = errors.New("overlap must be non-negative and smaller than chunk size")

	// ErrUnknownStrategy is returned when the configured strategy name is not recognized.
	ErrUnknownStrategy = errors.New("unknown chunking strategy")
)
