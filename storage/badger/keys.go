package badger

import "fmt"

// Key prefixes for different data types
const (
	chunkRecordPrefix = "chkrec"
	vocabularyPrefix  = "vocab"
)

// makeChunkKey generates a key for a chunk by its identifier.
// Chunk identifiers are corpus paths, so prefix iteration yields
// chunks in identifier order.
func makeChunkKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", chunkRecordPrefix, id))
}

// makeVocabularyKey generates a key for a cached vocabulary by corpus fingerprint.
func makeVocabularyKey(fingerprint string) []byte {
	return []byte(fmt.Sprintf("%s:%s", vocabularyPrefix, fingerprint))
}
