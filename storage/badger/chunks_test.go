package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

func newChunk(docID string, seq int, content string) *core.Chunk {
	return &core.Chunk{
		Id:              core.ChunkID(docID, seq),
		Content:         content,
		SourceDocId:     docID,
		EndOffset:       len(content),
		SequenceIndex:   seq,
		EstimatedTokens: 1,
		Metadata:        map[string]string{"origin": docID},
	}
}

func newChunkTestRepo(t *testing.T) storage.ChunkRepository {
	t.Helper()
	chunkRepo, docRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		docRepo.Close()
		chunkRepo.Close()
		backend.Close()
	})
	return chunkRepo
}

func TestAddAndGetChunks(t *testing.T) {
	repo := newChunkTestRepo(t)
	ctx := context.Background()

	docID := core.DocumentID("doc.txt")
	a := newChunk(docID, 0, "first chunk")
	b := newChunk(docID, 1, "second chunk")
	require.NoError(t, repo.AddChunks(ctx, a, b))

	got, err := repo.GetChunks(ctx, a.Id, "missing-id", b.Id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a, got[0])
	assert.Equal(t, b, got[1])

	count, err := repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAddChunksValidates(t *testing.T) {
	repo := newChunkTestRepo(t)

	invalid := &core.Chunk{Id: "", Content: "content"}
	err := repo.AddChunks(context.Background(), invalid)
	require.Error(t, err)
}

func TestAddChunksReplacesExisting(t *testing.T) {
	repo := newChunkTestRepo(t)
	ctx := context.Background()

	docID := core.DocumentID("doc.txt")
	chunk := newChunk(docID, 0, "original content")
	require.NoError(t, repo.AddChunks(ctx, chunk))

	updated := newChunk(docID, 0, "replaced content")
	require.NoError(t, repo.AddChunks(ctx, updated))

	got, err := repo.GetChunks(ctx, chunk.Id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "replaced content", got[0].Content)

	count, err := repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDeleteChunks(t *testing.T) {
	repo := newChunkTestRepo(t)
	ctx := context.Background()

	docID := core.DocumentID("doc.txt")
	a := newChunk(docID, 0, "first")
	b := newChunk(docID, 1, "second")
	require.NoError(t, repo.AddChunks(ctx, a, b))

	deleted, err := repo.DeleteChunks(ctx, a.Id, "missing-id")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	count, err := repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The source index entry is gone too.
	bySource, err := repo.ChunksBySource(ctx, docID)
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, b.Id, bySource[0].Id)
}

func TestChunksBySourceOrdering(t *testing.T) {
	repo := newChunkTestRepo(t)
	ctx := context.Background()

	docID := core.DocumentID("ordered.txt")
	other := core.DocumentID("other.txt")

	// Insert out of order and across documents.
	require.NoError(t, repo.AddChunks(ctx,
		newChunk(docID, 2, "third"),
		newChunk(other, 0, "unrelated"),
		newChunk(docID, 0, "first"),
		newChunk(docID, 1, "second"),
	))

	got, err := repo.ChunksBySource(ctx, docID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, chunk := range got {
		assert.Equal(t, i, chunk.SequenceIndex)
		assert.Equal(t, docID, chunk.SourceDocId)
	}
}

func TestChunksBySourceUnknownDocument(t *testing.T) {
	repo := newChunkTestRepo(t)

	got, err := repo.ChunksBySource(context.Background(), core.DocumentID("nope"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestForEachChunk(t *testing.T) {
	repo := newChunkTestRepo(t)
	ctx := context.Background()

	docID := core.DocumentID("doc.txt")
	require.NoError(t, repo.AddChunks(ctx,
		newChunk(docID, 0, "a"),
		newChunk(docID, 1, "b"),
		newChunk(docID, 2, "c"),
	))

	seen := 0
	err := repo.ForEachChunk(ctx, func(chunk *core.Chunk) error {
		seen++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, seen)

	// Iteration stops at the first error.
	stop := errors.New("stop")
	seen = 0
	err = repo.ForEachChunk(ctx, func(chunk *core.Chunk) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}
