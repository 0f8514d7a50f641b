package rerank

import (
	"context"

	"github.com/poiesic/retrievit/core"
)

// ScoredReranker replaces fused scores with the raw outputs of an
// external score provider, typically a cross-encoder. Provider scores
// are not clamped; their scale is the provider's business, and the
// minScore filter applies to whatever that scale is. Provider failures
// fall back to the heuristic pass over the same candidates.
type ScoredReranker struct {
	provider ScoreProvider
	opts     options
}

// NewScored creates a reranker backed by the given score provider.
func NewScored(provider ScoreProvider, opts ...Option) (*ScoredReranker, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}
	return &ScoredReranker{
		provider: provider,
		opts:     newOptions(opts...),
	}, nil
}

func (s *ScoredReranker) Strategy() Strategy {
	return StrategyScored
}

func (s *ScoredReranker) Rerank(ctx context.Context, query string, candidates []core.RetrievalCandidate, topK int) ([]core.RerankedResult, error) {
	if len(candidates) == 0 {
		return []core.RerankedResult{}, nil
	}

	texts := make([]string, len(candidates))
	for i, cand := range candidates {
		texts[i] = cand.Content
	}

	scores, err := s.provider.Score(ctx, query, texts)
	if err != nil {
		s.opts.logger.Warn("score provider failed, falling back to heuristic reranking", "err", err)
		return postPass(heuristicResults(query, candidates), s.opts.minScore, topK), nil
	}
	if len(scores) != len(candidates) {
		s.opts.logger.Warn("score provider returned wrong score count, falling back to heuristic reranking",
			"want", len(candidates), "got", len(scores))
		return postPass(heuristicResults(query, candidates), s.opts.minScore, topK), nil
	}

	results := make([]core.RerankedResult, len(candidates))
	for i, cand := range candidates {
		results[i] = core.RerankedResult{
			RetrievalCandidate: cand,
			PriorScore:         cand.FusedScore,
		}
		results[i].FusedScore = scores[i]
	}
	return postPass(results, s.opts.minScore, topK), nil
}
