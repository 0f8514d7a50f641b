package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

func newDocument(source string, chunkCount int) *core.Document {
	return &core.Document{
		Id:           core.DocumentID(source),
		Source:       source,
		ChunkCount:   chunkCount,
		ContentBytes: chunkCount * 100,
		IndexedAt:    time.Now().UTC().Truncate(time.Microsecond),
		Metadata:     map[string]string{"source": source},
	}
}

func newDocTestRepo(t *testing.T) storage.DocumentRepository {
	t.Helper()
	chunkRepo, docRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		docRepo.Close()
		chunkRepo.Close()
		backend.Close()
	})
	return docRepo
}

func TestPutAndGetDocument(t *testing.T) {
	repo := newDocTestRepo(t)
	ctx := context.Background()

	doc := newDocument("notes.md", 4)
	require.NoError(t, repo.PutDocument(ctx, doc))

	got, err := repo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, doc.Id, got.Id)
	assert.Equal(t, doc.Source, got.Source)
	assert.Equal(t, doc.ChunkCount, got.ChunkCount)
	assert.True(t, doc.IndexedAt.Equal(got.IndexedAt))
}

func TestGetDocumentNotFound(t *testing.T) {
	repo := newDocTestRepo(t)

	_, err := repo.GetDocument(context.Background(), core.DocumentID("missing"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPutDocumentReplaces(t *testing.T) {
	repo := newDocTestRepo(t)
	ctx := context.Background()

	doc := newDocument("notes.md", 4)
	require.NoError(t, repo.PutDocument(ctx, doc))

	doc.ChunkCount = 9
	require.NoError(t, repo.PutDocument(ctx, doc))

	got, err := repo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 9, got.ChunkCount)

	count, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPutDocumentValidates(t *testing.T) {
	repo := newDocTestRepo(t)

	err := repo.PutDocument(context.Background(), &core.Document{Id: "x"})
	require.Error(t, err)
}

func TestDeleteDocument(t *testing.T) {
	repo := newDocTestRepo(t)
	ctx := context.Background()

	doc := newDocument("notes.md", 1)
	require.NoError(t, repo.PutDocument(ctx, doc))

	existed, err := repo.DeleteDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = repo.DeleteDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = repo.GetDocument(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListDocumentsOrderedBySource(t *testing.T) {
	repo := newDocTestRepo(t)
	ctx := context.Background()

	for _, source := range []string{"zeta.txt", "alpha.txt", "mid.txt"} {
		require.NoError(t, repo.PutDocument(ctx, newDocument(source, 1)))
	}

	docs, err := repo.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "alpha.txt", docs[0].Source)
	assert.Equal(t, "mid.txt", docs[1].Source)
	assert.Equal(t, "zeta.txt", docs[2].Source)
}
