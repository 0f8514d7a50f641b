package rerank

import (
	"context"
	"strings"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/lexical"
)

// Heuristic feature weights and thresholds.
const (
	verbatimBonus   = 0.3
	termWeight      = 0.2
	leadBonus       = 0.1
	leadWindowRunes = 100
	shortPenalty    = 0.1
	shortRunes      = 50
	longPenalty     = 0.05
	longRunes       = 2000
)

// HeuristicReranker scores candidates from surface features: verbatim
// query presence, query-term coverage, an early-match bonus, and length
// penalties. It needs no model and never fails, which also makes it the
// fallback for the model-backed strategies.
type HeuristicReranker struct {
	opts options
}

// NewHeuristic creates a heuristic reranker.
func NewHeuristic(opts ...Option) *HeuristicReranker {
	return &HeuristicReranker{opts: newOptions(opts...)}
}

func (h *HeuristicReranker) Strategy() Strategy {
	return StrategyHeuristic
}

func (h *HeuristicReranker) Rerank(ctx context.Context, query string, candidates []core.RetrievalCandidate, topK int) ([]core.RerankedResult, error) {
	return postPass(heuristicResults(query, candidates), h.opts.minScore, topK), nil
}

// heuristicResults applies the heuristic formula to every candidate.
// Shared with the scored and judge fallback paths so a degraded model
// strategy ranks exactly like the heuristic would.
func heuristicResults(query string, candidates []core.RetrievalCandidate) []core.RerankedResult {
	queryLower := strings.ToLower(query)
	terms := lexical.Tokenize(query)

	results := make([]core.RerankedResult, len(candidates))
	for i, cand := range candidates {
		results[i] = core.RerankedResult{
			RetrievalCandidate: cand,
			PriorScore:         cand.FusedScore,
		}
		results[i].FusedScore = heuristicScore(queryLower, terms, cand)
	}
	return results
}

// heuristicScore computes the adjusted score for one candidate from a
// pre-lowercased query and its tokenized terms.
func heuristicScore(queryLower string, terms []string, cand core.RetrievalCandidate) float64 {
	score := cand.FusedScore
	contentLower := strings.ToLower(cand.Content)

	if queryLower != "" && strings.Contains(contentLower, queryLower) {
		score += verbatimBonus
	}

	if len(terms) > 0 {
		matched := 0
		for _, term := range terms {
			if strings.Contains(contentLower, term) {
				matched++
			}
		}
		score += termWeight * float64(matched) / float64(len(terms))
	}

	if termInLead(contentLower, terms) {
		score += leadBonus
	}

	length := len([]rune(cand.Content))
	if length < shortRunes {
		score -= shortPenalty
	} else if length > longRunes {
		score -= longPenalty
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// termInLead reports whether any query term appears within the first
// leadWindowRunes runes of the content. Only individual terms count; a
// multi-word query earns the bonus through any one of its terms.
func termInLead(contentLower string, terms []string) bool {
	runes := []rune(contentLower)
	if len(runes) > leadWindowRunes {
		runes = runes[:leadWindowRunes]
	}
	lead := string(runes)

	for _, term := range terms {
		if strings.Contains(lead, term) {
			return true
		}
	}
	return false
}
