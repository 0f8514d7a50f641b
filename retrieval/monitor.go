package retrieval

import (
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/lexical"
	"github.com/poiesic/retrievit/vector"
)

// RetrievalMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type RetrievalMonitor interface {
	Start(query string)
	AfterVectorSearch(hits []vector.Hit)
	AfterLexicalSearch(matches []lexical.Match)
	AfterFusion(candidates []core.RetrievalCandidate)
	Finish(results []core.RetrievalCandidate)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                              {}
func (n *noopMonitor) AfterVectorSearch(_ []vector.Hit)            {}
func (n *noopMonitor) AfterLexicalSearch(_ []lexical.Match)        {}
func (n *noopMonitor) AfterFusion(_ []core.RetrievalCandidate)     {}
func (n *noopMonitor) Finish(_ []core.RetrievalCandidate)          {}
