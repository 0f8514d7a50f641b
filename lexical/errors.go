package lexical

import "errors"

var (
	// ErrInvalidParameter is returned when a BM25 parameter is out of range.
	ErrInvalidParameter = errors.New("invalid BM25 parameter")
)
