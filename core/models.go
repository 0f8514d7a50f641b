package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a 64-bit content fingerprint for domain entities.
// It is generated by hashing text content, so identical content
// always maps to the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentID derives the canonical string form of a document identifier
// from its source (a file path, URL, or the raw text for unnamed input).
func DocumentID(source string) string {
	return fmt.Sprintf("%016x", uint64(IDFromContent(source)))
}

// ChunkID builds the identifier for the seq-th chunk of a document.
func ChunkID(docID string, seq int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, seq)
}

// Chunk is the retrievable unit: a bounded span of a source document.
// StartOffset and EndOffset are byte offsets into the UTF-8 source text,
// and Content is exactly the span source[StartOffset:EndOffset].
// Chunks are created at index time and immutable thereafter.
type Chunk struct {
	Id              string
	Content         string
	SourceDocId     string
	StartOffset     int
	EndOffset       int
	SequenceIndex   int
	EstimatedTokens int
	Metadata        map[string]string
}

// Document is the registry record for an indexed source document.
// It is replaced on re-index and deleted together with its chunks.
type Document struct {
	Id           string
	Source       string
	ChunkCount   int
	ContentBytes int
	IndexedAt    time.Time
	Metadata     map[string]string
}

// RetrievalCandidate is a query-scoped scored hit produced by the hybrid
// retriever. FusedScore is the weighted combination of the normalized
// component scores and always lies in [0,1]; LexicalScore and VectorScore
// keep the normalized per-leg values for diagnostics.
type RetrievalCandidate struct {
	Id           string
	Content      string
	FusedScore   float64
	LexicalScore float64
	VectorScore  float64
	Metadata     map[string]string
	Highlights   []string
}

// RerankedResult is a RetrievalCandidate whose FusedScore has been
// overwritten by a reranking pass. PriorScore preserves the pre-rerank
// fused score; the per-leg component scores remain in the embedded
// candidate. Like candidates, results are query-scoped and never persisted.
type RerankedResult struct {
	RetrievalCandidate
	PriorScore float64
}

// StoredVector is the persisted unit of the badger-backed vector store:
// an embedding keyed by chunk id, with the owning document id and a copy
// of the chunk metadata as search payload.
type StoredVector struct {
	Id          string
	SourceDocId string
	Vector      []float32
	Payload     map[string]string
}
