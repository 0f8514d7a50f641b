package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/retrievit/ai/mock"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/lexical"
	"github.com/poiesic/retrievit/vector"
)

func testChunk(docID string, seq int, content string) core.Chunk {
	return core.Chunk{
		Id:              core.ChunkID(docID, seq),
		Content:         content,
		SourceDocId:     docID,
		EndOffset:       len(content),
		SequenceIndex:   seq,
		EstimatedTokens: 1,
	}
}

func newTestRetriever(t *testing.T, opts ...Option) (*Retriever, *mock.MockEmbedder, *vector.MemoryStore) {
	t.Helper()
	embedder := mock.NewMockEmbedder()
	store := vector.NewMemoryStore()
	r, err := NewRetriever(embedder, store, opts...)
	require.NoError(t, err)
	return r, embedder, store
}

func TestNewRetrieverRequiresCollaborators(t *testing.T) {
	_, err := NewRetriever(nil, vector.NewMemoryStore())
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewRetriever(mock.NewMockEmbedder(), nil)
	assert.ErrorIs(t, err, ErrVectorStoreRequired)
}

func TestWithWeights(t *testing.T) {
	r, _, _ := newTestRetriever(t, WithWeights(3, 1))
	assert.InDelta(t, 0.75, r.vectorWeight, 1e-9)
	assert.InDelta(t, 0.25, r.lexicalWeight, 1e-9)

	_, err := NewRetriever(mock.NewMockEmbedder(), vector.NewMemoryStore(), WithWeights(-1, 2))
	assert.ErrorIs(t, err, ErrInvalidWeights)

	_, err = NewRetriever(mock.NewMockEmbedder(), vector.NewMemoryStore(), WithWeights(0, 0))
	assert.ErrorIs(t, err, ErrInvalidWeights)
}

func TestIndexAndSearch(t *testing.T) {
	r, _, _ := newTestRetriever(t)
	ctx := context.Background()

	docID := core.DocumentID("notes.txt")
	ids, err := r.Index(ctx,
		testChunk(docID, 0, "the cat sat on the mat"),
		testChunk(docID, 1, "dogs chase squirrels in the park"),
		testChunk(docID, 2, "a treatise on feline behavior and the cat"),
	)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	results, err := r.Search(ctx, "cat", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// Every candidate carries a fused score in [0,1] and cached content.
	for _, c := range results {
		assert.GreaterOrEqual(t, c.FusedScore, 0.0)
		assert.LessOrEqual(t, c.FusedScore, 1.0)
		assert.NotEmpty(t, c.Content)
	}
	// Results are ordered by descending fused score.
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].FusedScore, results[i].FusedScore)
	}
}

func TestSearchAttachesHighlights(t *testing.T) {
	r, _, _ := newTestRetriever(t)
	ctx := context.Background()

	docID := core.DocumentID("doc")
	_, err := r.Index(ctx, testChunk(docID, 0, "the quick brown fox jumps over the lazy dog"))
	require.NoError(t, err)

	results, err := r.Search(ctx, "fox", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotEmpty(t, results[0].Highlights)
	assert.Contains(t, results[0].Highlights[0], "fox")
}

func TestSearchEmptyIndex(t *testing.T) {
	r, _, _ := newTestRetriever(t)

	results, err := r.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchZeroTopK(t *testing.T) {
	r, _, _ := newTestRetriever(t)

	results, err := r.Search(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchEmbeddingFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	r, err := NewRetriever(embedder, vector.NewMemoryStore())
	require.NoError(t, err)

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("model unavailable")
	}

	_, err = r.Search(context.Background(), "query", 3)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestIndexEmbeddingFailureLeavesLexicalUntouched(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	r, err := NewRetriever(embedder, vector.NewMemoryStore())
	require.NoError(t, err)

	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("model unavailable")
	}

	_, err = r.Index(context.Background(), testChunk(core.DocumentID("d"), 0, "some content"))
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)

	stats, err := r.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Chunks)
	assert.Equal(t, 0, stats.Vectors)
}

func TestVectorOnlySearch(t *testing.T) {
	r, _, _ := newTestRetriever(t)
	ctx := context.Background()

	docID := core.DocumentID("doc")
	_, err := r.Index(ctx, testChunk(docID, 0, "alpha beta gamma"))
	require.NoError(t, err)

	results, err := r.Search(ctx, "alpha beta gamma", 3, VectorOnly())
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Zero(t, results[0].LexicalScore)
	assert.Positive(t, results[0].VectorScore)
}

func TestSingleLegCandidateScoresZeroForMissingComponent(t *testing.T) {
	r, _, store := newTestRetriever(t)
	ctx := context.Background()

	// A chunk present only in the lexical leg: warm it without a vector.
	docID := core.DocumentID("lexonly")
	r.Warm(testChunk(docID, 0, "uniqueterm appears here"))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	results, err := r.Search(ctx, "uniqueterm", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Zero(t, results[0].VectorScore)
	assert.Positive(t, results[0].LexicalScore)
	assert.InDelta(t, r.lexicalWeight*results[0].LexicalScore, results[0].FusedScore, 1e-9)
}

func TestRemove(t *testing.T) {
	r, _, _ := newTestRetriever(t)
	ctx := context.Background()

	docID := core.DocumentID("doc")
	ids, err := r.Index(ctx,
		testChunk(docID, 0, "first chunk about penguins"),
		testChunk(docID, 1, "second chunk about walruses"),
	)
	require.NoError(t, err)

	require.NoError(t, r.Remove(ctx, ids[0]))

	stats, err := r.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 1, stats.Vectors)

	results, err := r.Search(ctx, "penguins", 5)
	require.NoError(t, err)
	for _, c := range results {
		assert.NotEqual(t, ids[0], c.Id)
	}
}

func TestRemoveSource(t *testing.T) {
	r, _, _ := newTestRetriever(t)
	ctx := context.Background()

	keep := core.DocumentID("keep.txt")
	drop := core.DocumentID("drop.txt")
	_, err := r.Index(ctx,
		testChunk(keep, 0, "kept content"),
		testChunk(drop, 0, "dropped content one"),
		testChunk(drop, 1, "dropped content two"),
	)
	require.NoError(t, err)

	removed, err := r.RemoveSource(ctx, drop)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	stats, err := r.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 1, stats.Vectors)
}

func TestWarmRestoresSearch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	store := vector.NewMemoryStore()

	chunk := testChunk(core.DocumentID("persisted"), 0, "durable knowledge about beekeeping")

	first, err := NewRetriever(embedder, store)
	require.NoError(t, err)
	_, err = first.Index(context.Background(), chunk)
	require.NoError(t, err)

	// A fresh retriever over the same store starts with an empty lexical
	// index; warming it from persisted chunks restores hybrid search.
	second, err := NewRetriever(embedder, store)
	require.NoError(t, err)
	second.Warm(chunk)

	results, err := second.Search(context.Background(), "beekeeping", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, chunk.Id, results[0].Id)
	assert.Positive(t, results[0].LexicalScore)
	assert.Positive(t, results[0].VectorScore)
}

type recordingMonitor struct {
	started      bool
	vectorHits   int
	lexicalHits  int
	fusedCount   int
	finishedWith int
}

func (m *recordingMonitor) Start(query string)                       { m.started = true }
func (m *recordingMonitor) AfterVectorSearch(hits []vector.Hit)      { m.vectorHits = len(hits) }
func (m *recordingMonitor) AfterLexicalSearch(matches []lexical.Match) {
	m.lexicalHits = len(matches)
}
func (m *recordingMonitor) AfterFusion(c []core.RetrievalCandidate)  { m.fusedCount = len(c) }
func (m *recordingMonitor) Finish(r []core.RetrievalCandidate)       { m.finishedWith = len(r) }

func TestMonitorCallbacks(t *testing.T) {
	monitor := &recordingMonitor{}
	r, _, _ := newTestRetriever(t, WithMonitor(monitor))
	ctx := context.Background()

	docID := core.DocumentID("doc")
	_, err := r.Index(ctx,
		testChunk(docID, 0, "observable content about otters"),
		testChunk(docID, 1, "more observable content about rivers"),
	)
	require.NoError(t, err)

	results, err := r.Search(ctx, "otters", 5)
	require.NoError(t, err)

	assert.True(t, monitor.started)
	assert.Positive(t, monitor.vectorHits)
	assert.Positive(t, monitor.lexicalHits)
	assert.Equal(t, len(results), monitor.fusedCount)
	assert.Equal(t, len(results), monitor.finishedWith)
}
