package storage

import (
	"context"

	"github.com/poiesic/retrievit/core"
)

// ChunkRepository provides operations for managing persisted chunks.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// AddChunks stores one or more chunks, replacing any existing chunk
	// with the same id. Chunks are validated before writing.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) error

	// GetChunks retrieves chunks by their ids.
	// Returns only the chunks that exist (no error for missing ids).
	GetChunks(ctx context.Context, ids ...string) ([]*core.Chunk, error)

	// DeleteChunks removes chunks by their ids and returns how many
	// existed. Unknown ids are not an error.
	DeleteChunks(ctx context.Context, ids ...string) (int, error)

	// ChunksBySource retrieves every chunk belonging to a source
	// document, ordered by sequence index.
	ChunksBySource(ctx context.Context, sourceDocId string) ([]*core.Chunk, error)

	// ForEachChunk calls fn for every stored chunk. Iteration stops at
	// the first error, which is returned.
	ForEachChunk(ctx context.Context, fn func(*core.Chunk) error) error

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// Close releases repository resources.
	Close() error
}

// DocumentRepository provides operations for the document registry.
type DocumentRepository interface {
	// PutDocument stores a document, replacing any existing document
	// with the same id.
	PutDocument(ctx context.Context, doc *core.Document) error

	// GetDocument retrieves a document by id.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// DeleteDocument removes a document by id.
	// Deleting an unknown document is not an error; the bool reports
	// whether a document existed.
	DeleteDocument(ctx context.Context, id string) (bool, error)

	// ListDocuments returns every registered document, ordered by Source.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// CountDocuments returns the number of registered documents.
	CountDocuments(ctx context.Context) (int, error)

	// Close releases repository resources.
	Close() error
}
