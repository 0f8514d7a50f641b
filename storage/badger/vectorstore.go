package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
	"github.com/poiesic/retrievit/vector"
)

// VectorStore implements vector.Store over a BadgerDB backend. Vectors
// live under a named collection so several corpora can share one
// database. Search is a brute-force cosine scan over the collection,
// which is fine at the corpus sizes this engine targets.
type VectorStore struct {
	backend    *Backend
	collection string
}

var (
	_ vector.Store     = (*VectorStore)(nil)
	_ vector.Clearable = (*VectorStore)(nil)
)

// NewVectorStore creates a vector store over the given backend and
// collection name.
func NewVectorStore(backend *Backend, collection string) *VectorStore {
	return &VectorStore{
		backend:    backend,
		collection: collection,
	}
}

// Collection returns the collection name this store operates on.
func (s *VectorStore) Collection() string {
	return s.collection
}

// Add upserts entries by id.
func (s *VectorStore) Add(ctx context.Context, entries ...vector.Entry) error {
	return s.backend.WithUpdate(func(tx *badger.Txn) error {
		for _, entry := range entries {
			stored := &core.StoredVector{
				Id:          entry.Id,
				SourceDocId: entry.SourceDocId,
				Vector:      entry.Vector,
				Payload:     entry.Payload,
			}
			key := makeVectorKey(s.collection, entry.Id)
			if err := tx.Set(key, storage.MarshalStoredVector(stored)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Search scans the collection and returns up to topK entries by
// descending cosine similarity, ids ascending on ties.
func (s *VectorStore) Search(ctx context.Context, query []float32, topK int) ([]vector.Hit, error) {
	if topK <= 0 {
		return []vector.Hit{}, nil
	}

	var hits []vector.Hit
	err := s.forEach(ctx, func(stored *core.StoredVector) error {
		hits = append(hits, vector.Hit{
			Id:      stored.Id,
			Score:   vector.Cosine(query, stored.Vector),
			Payload: stored.Payload,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(hits, func(a, b vector.Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		case a.Id < b.Id:
			return -1
		case a.Id > b.Id:
			return 1
		default:
			return 0
		}
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	if hits == nil {
		hits = []vector.Hit{}
	}
	return hits, nil
}

// Delete removes entries by id. Unknown ids are ignored.
func (s *VectorStore) Delete(ctx context.Context, ids ...string) error {
	return s.backend.WithUpdate(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makeVectorKey(s.collection, id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteBySource removes every entry belonging to a source document.
func (s *VectorStore) DeleteBySource(ctx context.Context, sourceDocId string) (int, error) {
	var ids []string
	err := s.forEach(ctx, func(stored *core.StoredVector) error {
		if stored.SourceDocId == sourceDocId {
			ids = append(ids, stored.Id)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := s.Delete(ctx, ids...); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Count returns the number of stored entries in the collection.
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeVectorPrefix(s.collection)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Clear drops every entry in the collection.
func (s *VectorStore) Clear(ctx context.Context) error {
	var keys [][]byte
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeVectorPrefix(s.collection)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	return s.backend.WithUpdate(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// forEach scans every stored vector in the collection.
func (s *VectorStore) forEach(ctx context.Context, fn func(*core.StoredVector) error) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeVectorPrefix(s.collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var stored *core.StoredVector
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				stored, err = storage.UnmarshalStoredVector(val)
				return err
			}); err != nil {
				return err
			}
			if err := fn(stored); err != nil {
				return err
			}
		}
		return nil
	}, false)
}
