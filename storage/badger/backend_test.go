package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaseek/schemaseek/core"
	"github.com/schemaseek/schemaseek/storage"
)

func TestOpenBackendCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")

	backend, err := OpenBackend(path, false)
	require.NoError(t, err)
	defer backend.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackendFileInTheWay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := OpenBackend(path, false)
	assert.ErrorIs(t, err, storage.ErrIndexUnavailable)
}

func addVectorChunks(t *testing.T, repo storage.ChunkRepository) {
	t.Helper()
	ctx := context.Background()
	_, err := repo.AddChunks(ctx,
		&core.Chunk{Id: "a", Content: "A", Vector: []float32{1, 0, 0}},
		&core.Chunk{Id: "b", Content: "B", Vector: []float32{0.9, 0.1, 0}},
		&core.Chunk{Id: "c", Content: "C", Vector: []float32{0, 0, 1}},
		&core.Chunk{Id: "d", Content: "D"}, // no embedding yet
	)
	require.NoError(t, err)
}

func TestFindSimilarOrdering(t *testing.T) {
	chunkRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	addVectorChunks(t, chunkRepo)

	results, err := chunkRepo.FindSimilar(context.Background(), []float32{1, 0, 0}, -1, 10)
	require.NoError(t, err)
	require.Len(t, results, 3, "unembedded chunks are skipped")

	assert.Equal(t, "a", results[0].ChunkID)
	assert.Equal(t, "b", results[1].ChunkID)
	assert.Equal(t, "c", results[2].ChunkID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, core.OriginSemantic, results[0].Origin)
}

func TestFindSimilarMinSimilarity(t *testing.T) {
	chunkRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	addVectorChunks(t, chunkRepo)

	results, err := chunkRepo.FindSimilar(context.Background(), []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFindSimilarLimit(t *testing.T) {
	chunkRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	addVectorChunks(t, chunkRepo)

	results, err := chunkRepo.FindSimilar(context.Background(), []float32{1, 0, 0}, -1, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ChunkID)
}

func TestFindSimilarDimensionMismatch(t *testing.T) {
	chunkRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	addVectorChunks(t, chunkRepo)

	_, err = chunkRepo.FindSimilar(context.Background(), []float32{1, 0}, -1, 10)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}
