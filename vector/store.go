package vector

import (
	"context"
	"math"
)

// Entry is a vector with its identity and search payload.
type Entry struct {
	Id          string
	SourceDocId string
	Vector      []float32
	Payload     map[string]string
}

// Hit is a scored nearest-neighbor result.
type Hit struct {
	Id      string
	Score   float64
	Payload map[string]string
}

// Store is the nearest-neighbor index capability. Implementations must
// be safe for concurrent use and order Search results by descending
// similarity with a deterministic tiebreak.
type Store interface {
	// Add upserts entries by id.
	Add(ctx context.Context, entries ...Entry) error

	// Search returns up to topK entries most similar to the query
	// vector, ordered by descending similarity.
	Search(ctx context.Context, query []float32, topK int) ([]Hit, error)

	// Delete removes entries by id. Unknown ids are ignored.
	Delete(ctx context.Context, ids ...string) error

	// DeleteBySource removes every entry belonging to a source document
	// and returns how many were removed.
	DeleteBySource(ctx context.Context, sourceDocId string) (int, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}

// Clearable is an optional Store capability for dropping the whole
// collection, discovered by type assertion.
type Clearable interface {
	Clear(ctx context.Context) error
}

// Cosine computes the cosine similarity of two vectors. Mismatched
// lengths are compared over the shorter prefix; a zero vector yields 0.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
