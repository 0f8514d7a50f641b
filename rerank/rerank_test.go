package rerank

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/retrievit/ai/mock"
	"github.com/poiesic/retrievit/core"
)

func candidate(id, content string, fused float64) core.RetrievalCandidate {
	return core.RetrievalCandidate{
		Id:         id,
		Content:    content,
		FusedScore: fused,
	}
}

func TestNewStrategySelection(t *testing.T) {
	r, err := New(Config{}, Deps{})
	require.NoError(t, err)
	assert.Equal(t, StrategyHeuristic, r.Strategy())

	r, err = New(Config{Strategy: StrategyJudge}, Deps{Scorer: mock.NewMockScorer()})
	require.NoError(t, err)
	assert.Equal(t, StrategyJudge, r.Strategy())

	_, err = New(Config{Strategy: StrategyJudge}, Deps{})
	assert.ErrorIs(t, err, ErrScorerRequired)

	_, err = New(Config{Strategy: StrategyScored}, Deps{})
	assert.ErrorIs(t, err, ErrProviderRequired)

	_, err = New(Config{Strategy: "bogus"}, Deps{})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestHeuristicVerbatimAndTermBonuses(t *testing.T) {
	h := NewHeuristic()
	ctx := context.Background()

	// Identical base scores and comparable lengths so only the query
	// features separate the candidates.
	pad := strings.Repeat("filler words to reach a comfortable length ", 3)
	candidates := []core.RetrievalCandidate{
		candidate("none", pad+"nothing relevant here at all", 0.5),
		candidate("partial", pad+"the database holds rows", 0.5),
		candidate("verbatim", pad+"the database index speeds lookups", 0.5),
	}

	results, err := h.Rerank(ctx, "database index", candidates, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "verbatim", results[0].Id)
	assert.Equal(t, "partial", results[1].Id)
	assert.Equal(t, "none", results[2].Id)

	// PriorScore preserves the incoming fused score.
	for _, r := range results {
		assert.Equal(t, 0.5, r.PriorScore)
	}
}

func TestHeuristicLeadBonus(t *testing.T) {
	h := NewHeuristic()

	tail := strings.Repeat("irrelevant padding text ", 10)
	early := candidate("early", "penguins waddle south. "+tail, 0.2)
	late := candidate("late", tail+" penguins waddle south.", 0.2)

	results, err := h.Rerank(context.Background(), "penguins", []core.RetrievalCandidate{late, early}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "early", results[0].Id)
	assert.Greater(t, results[0].FusedScore, results[1].FusedScore)
}

func TestHeuristicLeadBonusRequiresQueryTerm(t *testing.T) {
	h := NewHeuristic()

	// A symbol-only query tokenizes to zero terms, so no lead bonus
	// regardless of where the raw query appears.
	tail := strings.Repeat("surrounding prose ", 10)
	early := candidate("early", "=> "+tail, 0.2)
	late := candidate("late", tail+" =>", 0.2)

	results, err := h.Rerank(context.Background(), "=>", []core.RetrievalCandidate{early, late}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].FusedScore, results[1].FusedScore)
}

func TestHeuristicLengthPenalties(t *testing.T) {
	h := NewHeuristic()

	short := candidate("short", "tiny", 0.5)
	long := candidate("long", strings.Repeat("x", 2500), 0.5)
	normal := candidate("normal", strings.Repeat("word ", 40), 0.5)

	results, err := h.Rerank(context.Background(), "unmatched", []core.RetrievalCandidate{short, long, normal}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byId := map[string]float64{}
	for _, r := range results {
		byId[r.Id] = r.FusedScore
	}
	assert.InDelta(t, 0.4, byId["short"], 1e-9)
	assert.InDelta(t, 0.45, byId["long"], 1e-9)
	assert.InDelta(t, 0.5, byId["normal"], 1e-9)
}

func TestHeuristicClampsToUnitRange(t *testing.T) {
	h := NewHeuristic()

	high := candidate("high", "exact query match early on "+strings.Repeat("pad ", 20), 0.95)
	results, err := h.Rerank(context.Background(), "exact query match", []core.RetrievalCandidate{high}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1.0, results[0].FusedScore)

	low := candidate("low", "tiny", 0.05)
	results, err = h.Rerank(context.Background(), "unmatched", []core.RetrievalCandidate{low}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0.0, results[0].FusedScore)
}

func TestMinScoreFilterAndTruncation(t *testing.T) {
	h := NewHeuristic(WithMinScore(0.3))

	candidates := []core.RetrievalCandidate{
		candidate("a", strings.Repeat("match the query term here ", 4), 0.6),
		candidate("b", strings.Repeat("no overlap whatsoever data ", 4), 0.1),
		candidate("c", strings.Repeat("also mentions the query value ", 4), 0.5),
	}

	results, err := h.Rerank(context.Background(), "query", candidates, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Id)
}

type stubProvider struct {
	scores []float64
	err    error
}

func (s *stubProvider) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.scores != nil {
		return s.scores, nil
	}
	out := make([]float64, len(texts))
	for i := range texts {
		out[i] = float64(len(texts) - i)
	}
	return out, nil
}

func TestScoredUsesRawProviderScores(t *testing.T) {
	provider := &stubProvider{scores: []float64{-1.2, 3.7}}
	s, err := NewScored(provider)
	require.NoError(t, err)

	candidates := []core.RetrievalCandidate{
		candidate("a", "first passage", 0.9),
		candidate("b", "second passage", 0.1),
	}
	results, err := s.Rerank(context.Background(), "q", candidates, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Raw provider output, outside [0,1] included, replaces the score.
	assert.Equal(t, "b", results[0].Id)
	assert.Equal(t, 3.7, results[0].FusedScore)
	assert.Equal(t, 0.1, results[0].PriorScore)
	assert.Equal(t, -1.2, results[1].FusedScore)
}

func TestScoredFallsBackOnProviderError(t *testing.T) {
	s, err := NewScored(&stubProvider{err: errors.New("cross-encoder offline")})
	require.NoError(t, err)
	assertHeuristicEquivalent(t, s)
}

func TestScoredFallsBackOnScoreCountMismatch(t *testing.T) {
	s, err := NewScored(&stubProvider{scores: []float64{1}})
	require.NoError(t, err)
	assertHeuristicEquivalent(t, s)
}

func TestJudgeMapsGradesToUnitRange(t *testing.T) {
	scorer := mock.NewMockScorer()
	j, err := NewJudge(scorer)
	require.NoError(t, err)

	candidates := []core.RetrievalCandidate{
		candidate("a", "first passage", 0.2),
		candidate("b", "second passage", 0.8),
	}
	results, err := j.Rerank(context.Background(), "q", candidates, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Mock grades descend from 10, so input order is preserved and
	// grades land on the unit scale.
	assert.Equal(t, "a", results[0].Id)
	assert.Equal(t, 1.0, results[0].FusedScore)
	assert.Equal(t, 0.9, results[1].FusedScore)
	assert.Equal(t, 0.8, results[1].PriorScore)
}

func TestJudgeTruncatesPassages(t *testing.T) {
	scorer := mock.NewMockScorer()
	var sawPassages []string
	scorer.ScorePassagesFunc = func(ctx context.Context, query string, passages []string) ([]float64, error) {
		sawPassages = passages
		scores := make([]float64, len(passages))
		for i := range scores {
			scores[i] = 5
		}
		return scores, nil
	}
	j, err := NewJudge(scorer)
	require.NoError(t, err)

	long := strings.Repeat("я", MaxJudgePassageRunes+200)
	candidates := make([]core.RetrievalCandidate, MaxJudgePassages+5)
	for i := range candidates {
		candidates[i] = candidate(fmt.Sprintf("c%02d", i), long, 0.5)
	}

	results, err := j.Rerank(context.Background(), "q", candidates, 100)
	require.NoError(t, err)

	require.Len(t, sawPassages, MaxJudgePassages)
	for _, p := range sawPassages {
		assert.Equal(t, MaxJudgePassageRunes, len([]rune(p)))
	}
	// Ungraded candidates stay in the result set with their fused scores.
	assert.Len(t, results, len(candidates))
}

func TestJudgeKeepsUngradedCandidatesWithPriorScores(t *testing.T) {
	j, err := NewJudge(mock.NewMockScorer())
	require.NoError(t, err)

	// One candidate past the passage cap, carrying the best fused score.
	candidates := make([]core.RetrievalCandidate, MaxJudgePassages+1)
	for i := range candidates {
		candidates[i] = candidate(fmt.Sprintf("c%02d", i), "graded passage content", 0.4)
	}
	candidates[MaxJudgePassages].FusedScore = 0.9

	results, err := j.Rerank(context.Background(), "q", candidates, len(candidates))
	require.NoError(t, err)
	require.Len(t, results, len(candidates))

	var ungraded *core.RerankedResult
	for i := range results {
		if results[i].Id == fmt.Sprintf("c%02d", MaxJudgePassages) {
			ungraded = &results[i]
		}
	}
	require.NotNil(t, ungraded)
	assert.Equal(t, 0.9, ungraded.FusedScore)
	assert.Equal(t, 0.9, ungraded.PriorScore)

	// The default mock grades the first passage 10/10, so a graded
	// candidate still tops the ungraded one.
	assert.Equal(t, "c00", results[0].Id)
}

func TestJudgeFallbackMatchesHeuristicExactly(t *testing.T) {
	scorer := mock.NewMockScorer()
	scorer.ScorePassagesFunc = func(ctx context.Context, query string, passages []string) ([]float64, error) {
		return nil, errors.New("judge model unavailable")
	}
	j, err := NewJudge(scorer)
	require.NoError(t, err)
	assertHeuristicEquivalent(t, j)
}

func TestJudgeFallbackOnScoreCountMismatch(t *testing.T) {
	scorer := mock.NewMockScorer()
	scorer.ScorePassagesFunc = func(ctx context.Context, query string, passages []string) ([]float64, error) {
		return []float64{7}, nil
	}
	j, err := NewJudge(scorer)
	require.NoError(t, err)
	assertHeuristicEquivalent(t, j)
}

// assertHeuristicEquivalent verifies that a degraded reranker produces
// exactly the ranking the heuristic would for the same input.
func assertHeuristicEquivalent(t *testing.T, degraded Reranker) {
	t.Helper()

	candidates := []core.RetrievalCandidate{
		candidate("a", strings.Repeat("solar panels convert sunlight ", 4), 0.4),
		candidate("b", strings.Repeat("wind turbines and solar farms ", 4), 0.6),
		candidate("c", strings.Repeat("coal plants burn fuel ", 4), 0.5),
	}
	query := "solar"
	topK := 3

	got, err := degraded.Rerank(context.Background(), query, candidates, topK)
	require.NoError(t, err)

	want, err := NewHeuristic().Rerank(context.Background(), query, candidates, topK)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}
