// Package rerank reorders retrieval candidates with a second, more
// precise scoring pass. Three strategies are provided: a pure heuristic
// over surface features, a pluggable score provider (cross-encoder
// style), and an LLM judge that grades passages in a single prompt.
// The model-backed strategies degrade to the heuristic on any failure;
// rerank errors are logged, never surfaced.
package rerank
