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


package lexical

import (
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/poiesic/retrievit/core"
)

// Default BM25 parameters.
const (
	DefaultK1      = 1.5
	DefaultB       = 0.75
	DefaultEpsilon = 0.25
)

// Match is a scored index hit.
type Match struct {
	Id    string
	Score float64
}

// Index is an in-memory BM25 inverted index over chunk text.
// It is safe for concurrent use: searches run under a read lock,
// mutations under the write lock.
type Index struct {
	mu sync.RWMutex

	k1      float64
	b       float64
	epsilon float64

	postings   map[string]map[string]int // term -> chunk id -> term frequency
	chunkTerms map[string][]string       // chunk id -> distinct terms
	docLen     map[string]int            // chunk id -> token count
	addOrder   map[string]int            // chunk id -> insertion rank (tiebreak)
	nextOrder  int
	avgDocLen  float64

	logger *slog.Logger
}

// Option configures an Index.
type Option func(*Index) error

// WithK1 sets the BM25 term-frequency saturation parameter.
func WithK1(k1 float64) Option {
	return func(ix *Index) error {
		if k1 < 0 {
			return ErrInvalidParameter
		}
		ix.k1 = k1
		return nil
	}
}

// WithB sets the BM25 length-normalization parameter in [0,1].
func WithB(b float64) Option {
	return func(ix *Index) error {
		if b < 0 || b > 1 {
			return ErrInvalidParameter
		}
		ix.b = b
		return nil
	}
}

// WithEpsilon sets the idf floor.
func WithEpsilon(epsilon float64) Option {
	return func(ix *Index) error {
		if epsilon < 0 {
			return ErrInvalidParameter
		}
		ix.epsilon = epsilon
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}

// NewIndex creates an empty BM25 index with the default parameters
// k1=1.5, b=0.75, epsilon=0.25.
func NewIndex(opts ...Option) (*Index, error) {
	ix := &Index{
		k1:         DefaultK1,
		b:          DefaultB,
		epsilon:    DefaultEpsilon,
		postings:   make(map[string]map[string]int),
		chunkTerms: make(map[string][]string),
		docLen:     make(map[string]int),
		addOrder:   make(map[string]int),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// Add indexes the given chunks. Re-adding an existing chunk id replaces
// its previous content so document frequencies stay consistent.
func (ix *Index) Add(chunks ...core.Chunk) {
	if len(chunks) == 0 {
		return
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, chunk := range chunks {
		if _, exists := ix.chunkTerms[chunk.Id]; exists {
			ix.removeLocked(chunk.Id)
		}

		tokens := Tokenize(chunk.Content)

		tf := make(map[string]int)
		for _, tok := range tokens {
			tf[tok]++
		}

		terms := make([]string, 0, len(tf))
		for term, freq := range tf {
			terms = append(terms, term)
			posting := ix.postings[term]
			if posting == nil {
				posting = make(map[string]int)
				ix.postings[term] = posting
			}
			posting[chunk.Id] = freq
		}

		ix.chunkTerms[chunk.Id] = terms
		ix.docLen[chunk.Id] = len(tokens)
		if _, seen := ix.addOrder[chunk.Id]; !seen {
			ix.addOrder[chunk.Id] = ix.nextOrder
			ix.nextOrder++
		}
	}

	ix.recomputeAvgDocLen()
}

// Remove deletes the given chunk ids from the index and returns how many
// were present. Document frequencies are decremented for every term of a
// removed chunk; terms whose frequency reaches zero are dropped entirely.
func (ix *Index) Remove(ids ...string) int {
	if len(ids) == 0 {
		return 0
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if _, exists := ix.chunkTerms[id]; exists {
			ix.removeLocked(id)
			removed++
		}
	}
	if removed > 0 {
		ix.recomputeAvgDocLen()
	}
	return removed
}

// removeLocked removes one chunk. Caller holds the write lock; the
// average document length is not recomputed here.
func (ix *Index) removeLocked(id string) {
	for _, term := range ix.chunkTerms[id] {
		posting := ix.postings[term]
		delete(posting, id)
		if len(posting) == 0 {
			delete(ix.postings, term)
		}
	}
	delete(ix.chunkTerms, id)
	delete(ix.docLen, id)
	delete(ix.addOrder, id)
}

// recomputeAvgDocLen rescans all document lengths. Caller holds the
// write lock. A full recompute per mutation batch matches the reference
// behavior; an incremental running sum would be observably identical.
func (ix *Index) recomputeAvgDocLen() {
	if len(ix.docLen) == 0 {
		ix.avgDocLen = 0
		return
	}
	total := 0
	for _, l := range ix.docLen {
		total += l
	}
	ix.avgDocLen = float64(total) / float64(len(ix.docLen))
}

// Search scores every indexed chunk against the query and returns up to
// topK matches ordered by descending score, ties broken by insertion
// order. Query terms absent from the index contribute zero.
func (ix *Index) Search(query string, topK int) []Match {
	return ix.SearchFiltered(query, topK, nil)
}

// SearchFiltered is Search restricted to the allowed id set. A nil allow
// map means no restriction. The index is not mutated.
func (ix *Index) SearchFiltered(query string, topK int, allow map[string]bool) []Match {
	if topK <= 0 {
		return nil
	}

	queryTerms := Tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := len(ix.docLen)
	if n == 0 {
		return nil
	}

	scores := make(map[string]float64)
	for _, term := range queryTerms {
		posting, ok := ix.postings[term]
		if !ok {
			continue
		}
		idf := ix.idf(len(posting), n)
		for id, tf := range posting {
			if allow != nil && !allow[id] {
				continue
			}
			dl := float64(ix.docLen[id])
			denom := float64(tf) + ix.k1*(1-ix.b+ix.b*dl/ix.avgDocLen)
			scores[id] += idf * float64(tf) * (ix.k1 + 1) / denom
		}
	}

	matches := make([]Match, 0, len(scores))
	for id, score := range scores {
		matches = append(matches, Match{Id: id, Score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return ix.addOrder[matches[i].Id] < ix.addOrder[matches[j].Id]
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// idf computes the floored inverse document frequency for a term with
// document frequency df in a corpus of n chunks.
func (ix *Index) idf(df, n int) float64 {
	v := math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5) + 1)
	return math.Max(ix.epsilon, v)
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docLen)
}

// Terms returns the number of distinct terms in the index.
func (ix *Index) Terms() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.postings)
}

// Contains reports whether a chunk id is indexed.
func (ix *Index) Contains(id string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.chunkTerms[id]
	return ok
}
