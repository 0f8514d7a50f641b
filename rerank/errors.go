package rerank

import "errors"

var (
	// ErrScorerRequired is returned when a judge reranker is constructed
	// without a relevance scorer.
	ErrScorerRequired = errors.New("relevance scorer is required")

	// ErrProviderRequired is returned when a scored reranker is
	// constructed without a score provider.
	ErrProviderRequired = errors.New("score provider is required")

	// ErrUnknownStrategy is returned for an unrecognized strategy name.
	ErrUnknownStrategy = errors.New("unknown rerank strategy")
)
