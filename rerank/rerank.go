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

package rerank

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
)

// Strategy selects a reranking implementation.
type Strategy string

const (
	// StrategyHeuristic scores candidates from surface features of the
	// query and content. Pure, never fails.
	StrategyHeuristic Strategy = "heuristic"

	// StrategyScored delegates to an external score provider.
	StrategyScored Strategy = "scored"

	// StrategyJudge grades passages with an LLM in a single prompt.
	StrategyJudge Strategy = "judge"
)

// DefaultMinScore is the minimum fused score kept by the post-pass.
// Zero keeps everything; callers wanting a floor set one explicitly.
const DefaultMinScore = 0.0

// Reranker reorders retrieval candidates, overwriting the fused score
// of each result. Implementations must preserve the incoming fused
// score in PriorScore.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []core.RetrievalCandidate, topK int) ([]core.RerankedResult, error)
	Strategy() Strategy
}

// ScoreProvider scores (query, text) pairs, one score per text in
// order. Implementations decide the score scale; outputs replace the
// fused score without clamping.
type ScoreProvider interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// Config selects and parameterizes a strategy for New.
type Config struct {
	Strategy Strategy
	MinScore float64
	Logger   *slog.Logger
}

// Deps carries the model-backed collaborators New may need. Only the
// field matching the configured strategy is consulted.
type Deps struct {
	Scorer   ai.RelevanceScorer
	Provider ScoreProvider
}

// Option configures a reranker.
type Option func(*options)

type options struct {
	minScore float64
	logger   *slog.Logger
}

func newOptions(opts ...Option) options {
	o := options{
		minScore: DefaultMinScore,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMinScore drops results scoring below min after reranking.
func WithMinScore(min float64) Option {
	return func(o *options) {
		o.minScore = min
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// New builds a reranker for the configured strategy. An empty strategy
// selects the heuristic.
func New(cfg Config, deps Deps) (Reranker, error) {
	opts := []Option{WithMinScore(cfg.MinScore)}
	if cfg.Logger != nil {
		opts = append(opts, WithLogger(cfg.Logger))
	}

	switch cfg.Strategy {
	case "", StrategyHeuristic:
		return NewHeuristic(opts...), nil
	case StrategyScored:
		return NewScored(deps.Provider, opts...)
	case StrategyJudge:
		return NewJudge(deps.Scorer, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Strategy)
	}
}

// postPass applies the shared finishing steps: drop results under
// minScore, stable sort by descending score, truncate to topK.
func postPass(results []core.RerankedResult, minScore float64, topK int) []core.RerankedResult {
	kept := results[:0]
	for _, r := range results {
		if r.FusedScore >= minScore {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].FusedScore > kept[j].FusedScore
	})
	if topK > 0 && len(kept) > topK {
		kept = kept[:topK]
	}
	return kept
}
