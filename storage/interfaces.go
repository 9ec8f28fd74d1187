package storage

import (
	"context"

	"github.com/schemaseek/schemaseek/core"
)

// ChunkRepository provides operations for managing corpus chunks.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// AddChunks adds one or more chunks to storage.
	// Sets InsertedAt/UpdatedAt timestamps if not already set.
	// Returns the chunks with timestamps populated.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks updates existing chunks.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by its identifier.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id string) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their identifiers.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...string) ([]*core.Chunk, error)

	// ListChunks returns all chunks ordered by identifier.
	// This is the corpus metadata store consumed by the vocabulary extractor
	// and the keyword matcher.
	ListChunks(ctx context.Context) ([]*core.Chunk, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// FindSimilar finds chunks similar to the given vector.
	// Returns candidates with cosine similarity >= minSimilarity, up to limit
	// results, ordered by similarity score (highest first).
	// Returns ErrDimensionMismatch when stored vectors do not match the query
	// vector's dimensionality.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float64, limit int) ([]*core.ScoredCandidate, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// VocabularyRepository persists built vocabularies keyed by corpus fingerprint.
type VocabularyRepository interface {
	// SaveVocabulary persists a vocabulary under the given fingerprint.
	SaveVocabulary(ctx context.Context, fingerprint string, vocabulary *core.Vocabulary) error

	// LoadVocabulary retrieves the vocabulary for a fingerprint.
	// Returns nil, nil if no vocabulary is cached for the fingerprint.
	LoadVocabulary(ctx context.Context, fingerprint string) (*core.Vocabulary, error)
}
