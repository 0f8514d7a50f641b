package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/lexical"
	"github.com/poiesic/retrievit/vector"
)

// Default fusion configuration.
const (
	DefaultVectorWeight  = 0.7
	DefaultLexicalWeight = 0.3
	DefaultOverfetch     = 2
)

// Retriever provides hybrid lexical and vector search over indexed chunks.
// It owns the BM25 index and the chunk content cache; the embedder and
// vector store are injected and never constructed here.
type Retriever struct {
	embedder ai.Embedder
	store    vector.Store
	index    *lexical.Index

	mu    sync.RWMutex
	cache map[string]core.Chunk

	vectorWeight  float64
	lexicalWeight float64
	overfetch     int
	maxHighlights int
	contextChars  int

	monitor RetrievalMonitor
	logger  *slog.Logger

	bm25Opts []lexical.Option
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithWeights sets the vector and lexical fusion weights. Weights must
// be non-negative with a positive sum; a sum different from 1 is
// normalized, the only silent correction this package performs.
func WithWeights(vectorWeight, lexicalWeight float64) Option {
	return func(r *Retriever) error {
		if vectorWeight < 0 || lexicalWeight < 0 {
			return fmt.Errorf("%w: got %v/%v", ErrInvalidWeights, vectorWeight, lexicalWeight)
		}
		sum := vectorWeight + lexicalWeight
		if sum <= 0 {
			return fmt.Errorf("%w: got %v/%v", ErrInvalidWeights, vectorWeight, lexicalWeight)
		}
		if math.Abs(sum-1) > 1e-9 {
			vectorWeight /= sum
			lexicalWeight /= sum
		}
		r.vectorWeight = vectorWeight
		r.lexicalWeight = lexicalWeight
		return nil
	}
}

// WithOverfetch sets the per-leg over-fetch multiplier. Each leg
// requests overfetch*topK candidates to compensate for ids dropped
// during fusion. Default is 2.
func WithOverfetch(n int) Option {
	return func(r *Retriever) error {
		if n < 1 {
			n = 1
		}
		r.overfetch = n
		return nil
	}
}

// WithHighlightLimits sets the highlight count and context window size.
func WithHighlightLimits(maxHighlights, contextChars int) Option {
	return func(r *Retriever) error {
		r.maxHighlights = maxHighlights
		r.contextChars = contextChars
		return nil
	}
}

// WithBM25Params forwards parameters to the owned lexical index.
func WithBM25Params(opts ...lexical.Option) Option {
	return func(r *Retriever) error {
		r.bm25Opts = append(r.bm25Opts, opts...)
		return nil
	}
}

// WithMonitor sets a monitor receiving callbacks at each search stage.
func WithMonitor(monitor RetrievalMonitor) Option {
	return func(r *Retriever) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		r.monitor = monitor
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a hybrid retriever over the given embedder and
// vector store.
func NewRetriever(embedder ai.Embedder, store vector.Store, opts ...Option) (*Retriever, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrVectorStoreRequired
	}

	r := &Retriever{
		embedder:      embedder,
		store:         store,
		cache:         make(map[string]core.Chunk),
		vectorWeight:  DefaultVectorWeight,
		lexicalWeight: DefaultLexicalWeight,
		overfetch:     DefaultOverfetch,
		maxHighlights: lexical.DefaultMaxHighlights,
		contextChars:  lexical.DefaultContextChars,
		monitor:       &noopMonitor{},
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	index, err := lexical.NewIndex(r.bm25Opts...)
	if err != nil {
		return nil, err
	}
	r.index = index

	return r, nil
}

// Index validates and indexes chunks into both legs: contents are
// embedded in one batch and added to the vector store first, then the
// lexical index and content cache are updated under the write lock.
// A failure before the lexical add leaves the lexical side untouched.
// Returns the indexed chunk ids.
func (r *Retriever) Index(ctx context.Context, chunks ...core.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	ids := make([]string, len(chunks))
	for i := range chunks {
		if err := core.ValidateChunk(&chunks[i]); err != nil {
			return nil, err
		}
		texts[i] = chunks[i].Content
		ids[i] = chunks[i].Id
	}

	// Embedding and the store call happen off the lexical lock; both are
	// potentially blocking I/O.
	vecs, err := r.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		r.logger.Error("error embedding chunk batch", "count", len(texts), "err", err)
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}
	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", ErrEmbeddingUnavailable, len(vecs), len(chunks))
	}

	entries := make([]vector.Entry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = vector.Entry{
			Id:          chunk.Id,
			SourceDocId: chunk.SourceDocId,
			Vector:      vecs[i],
			Payload:     chunk.Metadata,
		}
	}
	if err := r.store.Add(ctx, entries...); err != nil {
		r.logger.Error("error adding vectors", "count", len(entries), "err", err)
		return nil, fmt.Errorf("%w: %w", ErrVectorStoreUnavailable, err)
	}

	r.mu.Lock()
	for _, chunk := range chunks {
		r.cache[chunk.Id] = chunk
	}
	r.mu.Unlock()
	r.index.Add(chunks...)

	return ids, nil
}

// Warm rebuilds the lexical index and content cache from already
// persisted chunks without touching the vector store. Used at startup
// when the vector store is durable but the lexical index is not.
func (r *Retriever) Warm(chunks ...core.Chunk) {
	if len(chunks) == 0 {
		return
	}
	r.mu.Lock()
	for _, chunk := range chunks {
		r.cache[chunk.Id] = chunk
	}
	r.mu.Unlock()
	r.index.Add(chunks...)
}

// Remove deletes chunks from both legs, vector store first.
func (r *Retriever) Remove(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := r.store.Delete(ctx, ids...); err != nil {
		return fmt.Errorf("%w: %w", ErrVectorStoreUnavailable, err)
	}

	r.index.Remove(ids...)
	r.mu.Lock()
	for _, id := range ids {
		delete(r.cache, id)
	}
	r.mu.Unlock()
	return nil
}

// RemoveSource deletes every chunk belonging to a source document and
// returns how many chunks were removed from the lexical side.
func (r *Retriever) RemoveSource(ctx context.Context, sourceDocId string) (int, error) {
	r.mu.RLock()
	var ids []string
	for id, chunk := range r.cache {
		if chunk.SourceDocId == sourceDocId {
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()

	if _, err := r.store.DeleteBySource(ctx, sourceDocId); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrVectorStoreUnavailable, err)
	}

	removed := r.index.Remove(ids...)
	r.mu.Lock()
	for _, id := range ids {
		delete(r.cache, id)
	}
	r.mu.Unlock()
	return removed, nil
}

// Stats reports the sizes of the retriever's indices.
type Stats struct {
	Chunks  int
	Terms   int
	Vectors int
}

// Stats returns current index sizes.
func (r *Retriever) Stats(ctx context.Context) (Stats, error) {
	vectors, err := r.store.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %w", ErrVectorStoreUnavailable, err)
	}
	return Stats{
		Chunks:  r.index.Len(),
		Terms:   r.index.Terms(),
		Vectors: vectors,
	}, nil
}

// SearchOption configures a single search call.
type SearchOption func(*searchOptions)

type searchOptions struct {
	hybrid bool
}

// VectorOnly disables the lexical leg for this search; result quality
// is vector-only.
func VectorOnly() SearchOption {
	return func(o *searchOptions) {
		o.hybrid = false
	}
}

// Search runs the hybrid retrieval algorithm and returns up to topK
// candidates ordered by descending fused score. The two legs run in
// parallel; both are read-only. An embedding failure fails the whole
// search since the vector leg is structurally required. Empty legs
// produce empty results, never errors.
func (r *Retriever) Search(ctx context.Context, query string, topK int, opts ...SearchOption) ([]core.RetrievalCandidate, error) {
	options := searchOptions{hybrid: true}
	for _, opt := range opts {
		opt(&options)
	}

	if topK <= 0 {
		return []core.RetrievalCandidate{}, nil
	}

	r.monitor.Start(query)

	fetch := r.overfetch * topK

	var hits []vector.Hit
	var matches []lexical.Match

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		embedding, err := r.embedder.EmbedText(gctx, query)
		if err != nil {
			r.logger.Error("error generating embedding for query", "query", query, "err", err)
			return fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
		}
		hits, err = r.store.Search(gctx, embedding, fetch)
		if err != nil {
			r.logger.Error("error querying vector store", "err", err)
			return fmt.Errorf("%w: %w", ErrVectorStoreUnavailable, err)
		}
		return nil
	})
	if options.hybrid {
		g.Go(func() error {
			matches = r.index.Search(query, fetch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.monitor.AfterVectorSearch(hits)
	if options.hybrid {
		r.monitor.AfterLexicalSearch(matches)
	}

	// Normalize each leg by its batch maximum; negative similarities
	// clamp to zero first so fused scores stay in [0,1].
	vectorScores := normalizeHits(hits)
	lexicalScores := normalizeMatches(matches)

	// Merge by chunk id; a candidate present in only one leg scores
	// zero for the missing component.
	fused := make(map[string]*core.RetrievalCandidate)
	order := make([]string, 0, len(vectorScores)+len(lexicalScores))
	for _, hit := range hits {
		if _, ok := fused[hit.Id]; ok {
			continue
		}
		fused[hit.Id] = &core.RetrievalCandidate{
			Id:          hit.Id,
			VectorScore: vectorScores[hit.Id],
			Metadata:    hit.Payload,
		}
		order = append(order, hit.Id)
	}
	for _, match := range matches {
		cand, ok := fused[match.Id]
		if !ok {
			cand = &core.RetrievalCandidate{Id: match.Id}
			fused[match.Id] = cand
			order = append(order, match.Id)
		}
		cand.LexicalScore = lexicalScores[match.Id]
	}

	candidates := make([]core.RetrievalCandidate, 0, len(order))
	for _, id := range order {
		cand := fused[id]
		cand.FusedScore = r.vectorWeight*cand.VectorScore + r.lexicalWeight*cand.LexicalScore
		candidates = append(candidates, *cand)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].FusedScore != candidates[j].FusedScore {
			return candidates[i].FusedScore > candidates[j].FusedScore
		}
		return candidates[i].Id < candidates[j].Id
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	r.monitor.AfterFusion(candidates)

	// Attach content and highlights from the cache.
	r.mu.RLock()
	for i := range candidates {
		chunk, ok := r.cache[candidates[i].Id]
		if !ok {
			continue
		}
		candidates[i].Content = chunk.Content
		if candidates[i].Metadata == nil {
			candidates[i].Metadata = chunk.Metadata
		}
		candidates[i].Highlights = lexical.Highlights(chunk.Content, query, r.maxHighlights, r.contextChars)
	}
	r.mu.RUnlock()

	r.monitor.Finish(candidates)
	return candidates, nil
}

// normalizeHits maps hit ids to scores normalized by the batch maximum,
// clamping negative similarities to zero.
func normalizeHits(hits []vector.Hit) map[string]float64 {
	scores := make(map[string]float64, len(hits))
	max := 0.0
	for _, h := range hits {
		s := h.Score
		if s < 0 {
			s = 0
		}
		scores[h.Id] = s
		if s > max {
			max = s
		}
	}
	if max > 0 {
		for id := range scores {
			scores[id] /= max
		}
	}
	return scores
}

// normalizeMatches maps match ids to scores normalized by the batch maximum.
func normalizeMatches(matches []lexical.Match) map[string]float64 {
	scores := make(map[string]float64, len(matches))
	max := 0.0
	for _, m := range matches {
		scores[m.Id] = m.Score
		if m.Score > max {
			max = m.Score
		}
	}
	if max > 0 {
		for id := range scores {
			scores[id] /= max
		}
	}
	return scores
}
