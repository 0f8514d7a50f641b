// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package retrievit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/ai/openai"
	"github.com/poiesic/retrievit/chunk"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/rerank"
	"github.com/poiesic/retrievit/retrieval"
	"github.com/poiesic/retrievit/storage"
	"github.com/poiesic/retrievit/storage/badger"
	"github.com/poiesic/retrievit/vector"
)

// Engine defaults.
const (
	DefaultTopK       = 5
	DefaultMinScore   = 0.3
	DefaultCollection = "default"

	warmBatchSize = 500
)

// ErrEmptySource is returned when indexing without a source name.
var ErrEmptySource = errors.New("source is required")

// Engine is the top-level facade: it owns the Badger backend, the
// repositories, the AI provider, the hybrid retriever, and the
// reranker, and exposes the document indexing and search operations.
type Engine struct {
	backend   *badger.Backend
	chunkRepo storage.ChunkRepository
	docRepo   storage.DocumentRepository
	provider  ai.Provider
	store     vector.Store
	chunker   chunk.Chunker
	retriever *retrieval.Retriever
	reranker  rerank.Reranker

	rerankDisabled bool
	path           string
	logger         *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	inMemory       bool
	aiConfig       *ai.Config
	provider       ai.Provider
	vectorStore    vector.Store
	collection     string
	chunkCfg       chunk.Config
	reranker       rerank.Reranker
	rerankStrategy rerank.Strategy
	minScore       float64
	rerankDisabled bool
	retrievalOpts  []retrieval.Option
	logger         *slog.Logger
}

// WithInMemory opens the storage backend in memory; nothing is
// persisted. The path argument to New is ignored.
func WithInMemory() Option {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithAIConfig sets the AI service configuration used to build the
// default provider.
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider injects an AI provider, bypassing WithAIConfig. The
// engine takes ownership and closes it on Close.
func WithProvider(provider ai.Provider) Option {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithVectorStore overrides the default Badger-backed vector store.
func WithVectorStore(store vector.Store) Option {
	return func(o *engineOptions) {
		o.vectorStore = store
	}
}

// WithCollection names the vector collection within the Badger backend.
// Default is "default".
func WithCollection(name string) Option {
	return func(o *engineOptions) {
		if name != "" {
			o.collection = name
		}
	}
}

// WithChunking sets the chunking configuration.
// Default is recursive chunking with size 500 and overlap 50.
func WithChunking(cfg chunk.Config) Option {
	return func(o *engineOptions) {
		o.chunkCfg = cfg
	}
}

// WithReranker injects a reranker, bypassing WithRerankStrategy.
func WithReranker(r rerank.Reranker) Option {
	return func(o *engineOptions) {
		o.reranker = r
	}
}

// WithRerankStrategy selects the reranking strategy.
// Default is the heuristic.
func WithRerankStrategy(s rerank.Strategy) Option {
	return func(o *engineOptions) {
		o.rerankStrategy = s
	}
}

// WithMinScore sets the minimum reranked score kept in search results.
// Default is 0.3.
func WithMinScore(min float64) Option {
	return func(o *engineOptions) {
		o.minScore = min
	}
}

// WithRerankDisabled turns off reranking; search returns fused
// candidates wrapped unmodified.
func WithRerankDisabled() Option {
	return func(o *engineOptions) {
		o.rerankDisabled = true
	}
}

// WithRetrievalOptions forwards options to the hybrid retriever, such
// as retrieval.WithWeights.
func WithRetrievalOptions(opts ...retrieval.Option) Option {
	return func(o *engineOptions) {
		o.retrievalOpts = append(o.retrievalOpts, opts...)
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// New opens an engine over a Badger database at filePath. The returned
// engine is warmed: the lexical index and content cache are rebuilt
// from persisted chunks.
func New(filePath string, opts ...Option) (*Engine, error) {
	options := &engineOptions{
		aiConfig:       ai.DefaultConfig(),
		collection:     DefaultCollection,
		chunkCfg:       chunk.DefaultConfig(),
		rerankStrategy: rerank.StrategyHeuristic,
		minScore:       DefaultMinScore,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			docRepo.Close()
			chunkRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	store := options.vectorStore
	if store == nil {
		store = badger.NewVectorStore(backend, options.collection)
	}

	e := &Engine{
		backend:        backend,
		chunkRepo:      chunkRepo,
		docRepo:        docRepo,
		provider:       provider,
		store:          store,
		rerankDisabled: options.rerankDisabled,
		path:           filePath,
		logger:         options.logger,
	}

	e.chunker, err = chunk.New(options.chunkCfg)
	if err != nil {
		e.Close()
		return nil, err
	}

	retrievalOpts := append([]retrieval.Option{retrieval.WithLogger(options.logger)}, options.retrievalOpts...)
	e.retriever, err = retrieval.NewRetriever(provider.Embedder(), store, retrievalOpts...)
	if err != nil {
		e.Close()
		return nil, err
	}

	e.reranker = options.reranker
	if e.reranker == nil && !options.rerankDisabled {
		e.reranker, err = rerank.New(rerank.Config{
			Strategy: options.rerankStrategy,
			MinScore: options.minScore,
			Logger:   options.logger,
		}, rerank.Deps{
			Scorer: provider.RelevanceScorer(),
		})
		if err != nil {
			e.Close()
			return nil, err
		}
	}

	if err := e.warm(context.Background()); err != nil {
		e.Close()
		return nil, err
	}

	return e, nil
}

// warm rebuilds the retriever's lexical index and content cache from
// persisted chunks.
func (e *Engine) warm(ctx context.Context) error {
	batch := make([]core.Chunk, 0, warmBatchSize)
	err := e.chunkRepo.ForEachChunk(ctx, func(c *core.Chunk) error {
		batch = append(batch, *c)
		if len(batch) == warmBatchSize {
			e.retriever.Warm(batch...)
			batch = batch[:0]
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("warming lexical index: %w", err)
	}
	e.retriever.Warm(batch...)
	return nil
}

// Close releases the provider, the repositories, and the backend, in
// that order.
func (e *Engine) Close() error {
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
		}
	}

	if err := e.docRepo.Close(); err != nil {
		e.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := e.chunkRepo.Close(); err != nil {
		e.logger.Error("error closing chunk repository", "err", err)
		return err
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// IndexText chunks, embeds, persists, and indexes a document. The
// document id is derived from source; indexing the same source again
// replaces the previous version. Returns the registered document.
func (e *Engine) IndexText(ctx context.Context, text, source string, meta map[string]string) (*core.Document, error) {
	if source == "" {
		return nil, ErrEmptySource
	}

	docID := core.DocumentID(source)

	// Re-indexing replaces: drop the previous version entirely before
	// adding the new chunks.
	if _, err := e.RemoveDocument(ctx, docID); err != nil {
		return nil, err
	}

	// Blank input yields zero chunks; the document is still registered.
	chunks, err := e.chunker.ChunkDocument(text, docID, meta)
	if err != nil {
		return nil, err
	}

	if len(chunks) > 0 {
		// Persist first so the source index records every chunk id; if
		// embedding then fails, RemoveDocument (or the re-index pass
		// above) can still reach everything written so far.
		chunkPtrs := make([]*core.Chunk, len(chunks))
		for i := range chunks {
			chunkPtrs[i] = &chunks[i]
		}
		if err := e.chunkRepo.AddChunks(ctx, chunkPtrs...); err != nil {
			return nil, err
		}

		if _, err := e.retriever.Index(ctx, chunks...); err != nil {
			return nil, err
		}
	}

	doc := &core.Document{
		Id:           docID,
		Source:       source,
		ChunkCount:   len(chunks),
		ContentBytes: len(text),
		IndexedAt:    time.Now().UTC(),
		Metadata:     meta,
	}
	if err := e.docRepo.PutDocument(ctx, doc); err != nil {
		return nil, err
	}

	e.logger.Debug("indexed document", "source", source, "chunks", len(chunks))
	return doc, nil
}

// IndexFile reads a file and indexes its contents with the path as the
// source name.
func (e *Engine) IndexFile(ctx context.Context, path string, meta map[string]string) (*core.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return e.IndexText(ctx, string(data), path, meta)
}

// RemoveDocument deletes a document and all its chunks from every
// index. Chunk ids are recovered from the persisted source index, so
// partial earlier writes are cleaned up too. Removing an unknown
// document returns 0, nil.
func (e *Engine) RemoveDocument(ctx context.Context, docID string) (int, error) {
	chunks, err := e.chunkRepo.ChunksBySource(ctx, docID)
	if err != nil {
		return 0, err
	}

	if _, err := e.docRepo.DeleteDocument(ctx, docID); err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.Id
	}

	if err := e.retriever.Remove(ctx, ids...); err != nil {
		return 0, err
	}
	removed, err := e.chunkRepo.DeleteChunks(ctx, ids...)
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// SearchOption configures a single search call.
type SearchOption func(*searchConfig)

type searchConfig struct {
	vectorOnly bool
	noRerank   bool
}

// VectorOnly disables the lexical leg for this search.
func VectorOnly() SearchOption {
	return func(c *searchConfig) {
		c.vectorOnly = true
	}
}

// WithoutRerank skips reranking for this search; candidates are wrapped
// unmodified.
func WithoutRerank() SearchOption {
	return func(c *searchConfig) {
		c.noRerank = true
	}
}

// Search runs hybrid retrieval followed by the configured reranking
// pass and returns up to topK results. A non-positive topK uses the
// default of 5.
func (e *Engine) Search(ctx context.Context, query string, topK int, opts ...SearchOption) ([]core.RerankedResult, error) {
	cfg := searchConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	reranking := !e.rerankDisabled && !cfg.noRerank && e.reranker != nil

	// Over-fetch for the reranker so it has candidates to demote.
	fetch := topK
	if reranking {
		fetch = 2 * topK
	}

	var retrOpts []retrieval.SearchOption
	if cfg.vectorOnly {
		retrOpts = append(retrOpts, retrieval.VectorOnly())
	}

	candidates, err := e.retriever.Search(ctx, query, fetch, retrOpts...)
	if err != nil {
		return nil, err
	}

	if reranking {
		return e.reranker.Rerank(ctx, query, candidates, topK)
	}

	results := make([]core.RerankedResult, len(candidates))
	for i, cand := range candidates {
		results[i] = core.RerankedResult{
			RetrievalCandidate: cand,
			PriorScore:         cand.FusedScore,
		}
	}
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Documents lists every registered document, ordered by source.
func (e *Engine) Documents(ctx context.Context) ([]*core.Document, error) {
	return e.docRepo.ListDocuments(ctx)
}

// Stats reports corpus and index sizes.
type Stats struct {
	Documents int
	Chunks    int
	Terms     int
	Vectors   int
	Path      string
}

// Stats returns current corpus and index sizes.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	docs, err := e.docRepo.CountDocuments(ctx)
	if err != nil {
		return nil, err
	}
	retrStats, err := e.retriever.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Documents: docs,
		Chunks:    retrStats.Chunks,
		Terms:     retrStats.Terms,
		Vectors:   retrStats.Vectors,
		Path:      e.path,
	}, nil
}

// ChunkRepository exposes the persisted chunk repository, used by the
// reindex tool.
func (e *Engine) ChunkRepository() storage.ChunkRepository {
	return e.chunkRepo
}

// Provider exposes the AI provider.
func (e *Engine) Provider() ai.Provider {
	return e.provider
}

// VectorStore exposes the vector store.
func (e *Engine) VectorStore() vector.Store {
	return e.store
}

// BuildContext searches for the query and assembles the results into a
// single context string of "[source: name]" blocks separated by "---".
// A positive tokenBudget caps the estimated token total: blocks that
// would overflow the budget are skipped and assembly continues with the
// remaining results. A non-positive budget disables the cap.
func (e *Engine) BuildContext(ctx context.Context, query string, tokenBudget int, opts ...SearchOption) (string, error) {
	results, err := e.Search(ctx, query, DefaultTopK, opts...)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Id
	}
	chunks, err := e.chunkRepo.GetChunks(ctx, ids...)
	if err != nil {
		return "", err
	}
	sourceByChunk := make(map[string]string, len(chunks))
	for _, c := range chunks {
		sourceByChunk[c.Id] = e.sourceName(ctx, c.SourceDocId)
	}

	var blocks []string
	used := 0
	for _, r := range results {
		source := sourceByChunk[r.Id]
		if source == "" {
			source = "unknown"
		}
		block := fmt.Sprintf("[source: %s]\n%s", source, r.Content)

		if tokenBudget > 0 {
			cost := chunk.EstimateTokens(block)
			if used+cost > tokenBudget {
				continue
			}
			used += cost
		}
		blocks = append(blocks, block)
	}

	return strings.Join(blocks, "\n---\n"), nil
}

// sourceName resolves a document id to its human-readable source,
// falling back to the id itself.
func (e *Engine) sourceName(ctx context.Context, docID string) string {
	doc, err := e.docRepo.GetDocument(ctx, docID)
	if err != nil {
		return docID
	}
	return doc.Source
}
