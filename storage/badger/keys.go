package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	chunkPrefix    = "c"
	sourcePrefix   = "s"
	documentPrefix = "d"
	vectorPrefix   = "v"
)

// makeChunkKey generates a key for a chunk by id.
func makeChunkKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", chunkPrefix, id))
}

// makeSourceKey generates a composite key for the source index.
// Format: s:{docID}:{seq}, with the sequence written BigEndian so
// lexicographic iteration yields chunks in document order.
func makeSourceKey(sourceDocId string, seq int) []byte {
	prefix := makeSourceIndexPrefix(sourceDocId)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(seq))
	return buf
}

// makeSourceIndexPrefix generates the iteration prefix covering every
// source index entry of a document.
func makeSourceIndexPrefix(sourceDocId string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", sourcePrefix, sourceDocId))
}

// makeDocumentKey generates a key for a document by id.
func makeDocumentKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentPrefix, id))
}

// makeVectorKey generates a key for a stored vector within a collection.
func makeVectorKey(collection, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", vectorPrefix, collection, id))
}

// makeVectorPrefix generates the iteration prefix covering every stored
// vector of a collection.
func makeVectorPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", vectorPrefix, collection))
}
