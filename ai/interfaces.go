package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// RelevanceScorer judges how relevant passages are to a query.
// Implementations must be thread-safe for concurrent use.
type RelevanceScorer interface {
	// ScorePassages rates each passage's relevance to the query on a
	// 1-10 scale and returns the raw scores in passage order, one score
	// per passage.
	// Returns an error if the judging call fails or its response cannot
	// be parsed.
	ScorePassages(ctx context.Context, query string, passages []string) ([]float64, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and RelevanceScorer instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// RelevanceScorer returns the passage relevance judging service.
	// The returned RelevanceScorer is safe for concurrent use.
	RelevanceScorer() RelevanceScorer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
