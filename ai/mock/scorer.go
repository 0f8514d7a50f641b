package mock

import "context"

// MockScorer is a test double for ai.RelevanceScorer.
// It allows custom behavior injection via function fields.
type MockScorer struct {
	// ScorePassagesFunc is called by ScorePassages if set.
	// If nil, uses default deterministic behavior.
	ScorePassagesFunc func(ctx context.Context, query string, passages []string) ([]float64, error)

	callCount int
}

// NewMockScorer creates a mock scorer with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockScorer().
func NewMockScorer() *MockScorer {
	return &MockScorer{}
}

// ScorePassages returns deterministic descending scores on the judge's
// 1-10 scale: the first passage scores 10, each following passage one
// less, floored at 1.
func (m *MockScorer) ScorePassages(ctx context.Context, query string, passages []string) ([]float64, error) {
	m.callCount++

	if m.ScorePassagesFunc != nil {
		return m.ScorePassagesFunc(ctx, query, passages)
	}

	scores := make([]float64, len(passages))
	for i := range passages {
		score := 10 - i
		if score < 1 {
			score = 1
		}
		scores[i] = float64(score)
	}
	return scores, nil
}

// CallCount returns the number of times ScorePassages was called.
func (m *MockScorer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockScorer) Reset() {
	m.callCount = 0
	m.ScorePassagesFunc = nil
}
