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


package chunk

import (
	"fmt"
	"strings"

	"github.com/poiesic/retrievit/core"
)

// Strategy identifies a chunking algorithm.
type Strategy string

const (
	StrategyFixedSize     Strategy = "fixed_size"
	StrategySentence      Strategy = "sentence"
	StrategyParagraph     Strategy = "paragraph"
	StrategyRecursive     Strategy = "recursive"
	StrategyMarkdown      Strategy = "markdown"
	StrategySlidingWindow Strategy = "sliding_window"
)

// Chunker splits raw text into an ordered sequence of chunks.
// Implementations are selected once at construction and are stateless
// across calls.
type Chunker interface {
	// Strategy reports which algorithm this chunker implements.
	Strategy() Strategy

	// Chunk splits text into chunks with content, offsets, sequence
	// indices and token estimates populated. Identity fields (Id,
	// SourceDocId, Metadata) are left empty. Empty or whitespace-only
	// input yields zero chunks and no error.
	Chunk(text string) ([]core.Chunk, error)

	// ChunkDocument is Chunk plus identity stamping: chunk ids are derived
	// from docID and the sequence index, and each chunk gets its own copy
	// of metadata.
	ChunkDocument(text, docID string, metadata map[string]string) ([]core.Chunk, error)
}

// Config holds construction-time chunking parameters.
// ChunkSize and Overlap are measured in runes unless LengthFunc overrides
// the measure for the structural strategies; the window strategies always
// advance by rune positions.
type Config struct {
	Strategy   Strategy
	ChunkSize  int
	Overlap    int
	LengthFunc func(string) int
}

// DefaultConfig returns the baseline chunking configuration.
func DefaultConfig() Config {
	return Config{
		Strategy:  StrategyRecursive,
		ChunkSize: 500,
		Overlap:   50,
	}
}

// Validate checks the configuration, returning a sentinel error for the
// first violated rule.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d, chunk size %d", ErrInvalidOverlap, c.Overlap, c.ChunkSize)
	}
	switch c.Strategy {
	case StrategyFixedSize, StrategySentence, StrategyParagraph,
		StrategyRecursive, StrategyMarkdown, StrategySlidingWindow:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, c.Strategy)
	}
}

// New builds the chunker for the configured strategy.
func New(cfg Config) (Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.LengthFunc == nil {
		cfg.LengthFunc = runeLen
	}
	switch cfg.Strategy {
	case StrategyFixedSize:
		return &fixedChunker{cfg: cfg}, nil
	case StrategySlidingWindow:
		return &slidingChunker{cfg: cfg}, nil
	case StrategySentence:
		return &sentenceChunker{cfg: cfg}, nil
	case StrategyParagraph:
		return &paragraphChunker{cfg: cfg}, nil
	case StrategyRecursive:
		return &recursiveChunker{cfg: cfg}, nil
	case StrategyMarkdown:
		return &markdownChunker{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Strategy)
	}
}

// chunkText runs a strategy's span computation over non-blank input and
// materializes core.Chunk values.
func chunkText(text string, spansFn func(*source) []span) []core.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	src := newSource(text)
	return buildChunks(src, spansFn(src))
}

func buildChunks(src *source, spans []span) []core.Chunk {
	chunks := make([]core.Chunk, 0, len(spans))
	for i, sp := range spans {
		content := src.content(sp)
		chunks = append(chunks, core.Chunk{
			Content:         content,
			StartOffset:     src.byteAt(sp.start),
			EndOffset:       src.byteAt(sp.end),
			SequenceIndex:   i,
			EstimatedTokens: EstimateTokens(content),
		})
	}
	return chunks
}

func stampChunks(chunks []core.Chunk, docID string, metadata map[string]string) []core.Chunk {
	for i := range chunks {
		chunks[i].Id = core.ChunkID(docID, chunks[i].SequenceIndex)
		chunks[i].SourceDocId = docID
		if len(metadata) > 0 {
			md := make(map[string]string, len(metadata))
			for k, v := range metadata {
				md[k] = v
			}
			chunks[i].Metadata = md
		}
	}
	return chunks
}
