package ingest

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/retrievit/core"
)

// Indexer is the document indexing capability the pipeline drives,
// satisfied by the engine.
type Indexer interface {
	IndexText(ctx context.Context, text, source string, meta map[string]string) (*core.Document, error)
}

// Pipeline runs document indexing asynchronously on a worker pool.
// Per-document failures are logged, not returned; bulk ingestion keeps
// going past bad inputs.
type Pipeline struct {
	indexer Indexer
	pool    *ants.Pool
	wg      sync.WaitGroup

	released  atomic.Bool
	submitted atomic.Int64
	failed    atomic.Int64

	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline over the given indexer.
func NewPipeline(indexer Indexer, opts ...Option) (*Pipeline, error) {
	if indexer == nil {
		return nil, ErrIndexerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		indexer: indexer,
		pool:    pool,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Submit queues a document for asynchronous indexing. The returned
// error covers submission only; indexing failures are logged.
func (p *Pipeline) Submit(source, text string, meta map[string]string) error {
	if p.released.Load() {
		return ErrPipelineReleased
	}

	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		p.submitted.Add(1)
		if _, err := p.indexer.IndexText(context.Background(), text, source, meta); err != nil {
			p.failed.Add(1)
			p.logger.Error("error indexing document", "source", source, "err", err)
		}
	})
	if err != nil {
		p.wg.Done()
		return err
	}
	return nil
}

// Wait blocks until all submitted work has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Processed returns how many documents have been processed and how many
// of those failed.
func (p *Pipeline) Processed() (total, failed int64) {
	return p.submitted.Load(), p.failed.Load()
}

// Release drains in-flight work and tears down the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.released.Swap(true) {
		return
	}
	p.wg.Wait()
	if p.pool != nil {
		p.pool.Release()
	}
}
