package rerank

import (
	"context"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
)

// Judge input limits. One prompt carries every passage, so both the
// passage count and per-passage length are capped to keep the prompt
// inside small-model context windows.
const (
	MaxJudgePassages     = 10
	MaxJudgePassageRunes = 500
)

// JudgeReranker grades passages with an LLM relevance scorer: the
// query and up to MaxJudgePassages truncated passages go out in a
// single prompt, and the returned 1-10 grades map onto [0,1].
// Candidates beyond the passage cap are not graded; they keep their
// fused scores and compete in the final ordering as-is. Any scorer
// failure falls back to the heuristic pass over the full candidate
// list.
type JudgeReranker struct {
	scorer ai.RelevanceScorer
	opts   options
}

// NewJudge creates a reranker backed by the given relevance scorer.
func NewJudge(scorer ai.RelevanceScorer, opts ...Option) (*JudgeReranker, error) {
	if scorer == nil {
		return nil, ErrScorerRequired
	}
	return &JudgeReranker{
		scorer: scorer,
		opts:   newOptions(opts...),
	}, nil
}

func (j *JudgeReranker) Strategy() Strategy {
	return StrategyJudge
}

func (j *JudgeReranker) Rerank(ctx context.Context, query string, candidates []core.RetrievalCandidate, topK int) ([]core.RerankedResult, error) {
	if len(candidates) == 0 {
		return []core.RerankedResult{}, nil
	}

	judged := candidates
	if len(judged) > MaxJudgePassages {
		j.opts.logger.Debug("truncating candidates for judge reranking",
			"candidates", len(candidates), "judged", MaxJudgePassages)
		judged = judged[:MaxJudgePassages]
	}

	passages := make([]string, len(judged))
	for i, cand := range judged {
		passages[i] = truncateRunes(cand.Content, MaxJudgePassageRunes)
	}

	scores, err := j.scorer.ScorePassages(ctx, query, passages)
	if err != nil {
		j.opts.logger.Warn("judge scoring failed, falling back to heuristic reranking", "err", err)
		return postPass(heuristicResults(query, candidates), j.opts.minScore, topK), nil
	}
	if len(scores) != len(judged) {
		j.opts.logger.Warn("judge returned wrong score count, falling back to heuristic reranking",
			"want", len(judged), "got", len(scores))
		return postPass(heuristicResults(query, candidates), j.opts.minScore, topK), nil
	}

	results := make([]core.RerankedResult, len(candidates))
	for i, cand := range candidates {
		results[i] = core.RerankedResult{
			RetrievalCandidate: cand,
			PriorScore:         cand.FusedScore,
		}
		// Ungraded candidates keep their fused score.
		if i < len(judged) {
			results[i].FusedScore = gradeToScore(scores[i])
		}
	}
	return postPass(results, j.opts.minScore, topK), nil
}

// gradeToScore maps a 1-10 judge grade onto [0,1], clamping grades
// outside the instructed range.
func gradeToScore(grade float64) float64 {
	score := grade / 10
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
