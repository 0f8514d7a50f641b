// Package reindex migrates an existing corpus to a new embedding model.
//
// The Reindexer iterates every persisted chunk in batches, re-embeds the
// content with the configured embedder, and upserts the vectors into a
// target vector store. It supports progress tracking, retry logic with
// exponential backoff, and vector normalization so cosine ordering is
// preserved across models.
package reindex
