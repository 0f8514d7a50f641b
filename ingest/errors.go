package ingest

import "errors"

var (
	// ErrIndexerRequired is returned when an indexer is not provided.
	ErrIndexerRequired = errors.New("indexer required")

	// ErrPipelineReleased is returned when submitting to a released pipeline.
	ErrPipelineReleased = errors.New("pipeline released")
)
