// Copyright 2025 Schemaseek Authors
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


package ingestion_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaseek/schemaseek/ai/mock"
	"github.com/schemaseek/schemaseek/core"
	"github.com/schemaseek/schemaseek/ingestion"
	"github.com/schemaseek/schemaseek/storage/badger"
)

func writeCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "types"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "inputs"), 0o755))

	files := map[string]string{
		"types/address.graphql":        "type Address {\n  city: String!\n}",
		"inputs/address_input.graphql": "input AddressInput {\n  city: String!\n}",
		"README.md":                    "# Schema docs\nOverview of the schema.",
		"ignored.bin":                  "binary",
		"empty.graphql":                "   ",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}
	return root
}

func TestLoadDirectory(t *testing.T) {
	root := writeCorpus(t)

	chunks, err := ingestion.LoadDirectory(root, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 3, "binary and empty files are skipped")

	// Ordered by id.
	assert.Equal(t, "README.md", chunks[0].Id)
	assert.Equal(t, "inputs/address_input.graphql", chunks[1].Id)
	assert.Equal(t, "types/address.graphql", chunks[2].Id)

	assert.Equal(t, "", chunks[0].Category)
	assert.Equal(t, "inputs", chunks[1].Category)
	assert.Equal(t, "types", chunks[2].Category)
}

func TestNewPipelineValidation(t *testing.T) {
	chunkRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	_, err = ingestion.NewPipeline(nil, mock.NewMockProvider())
	assert.ErrorIs(t, err, ingestion.ErrChunkRepositoryRequired)

	_, err = ingestion.NewPipeline(chunkRepo, nil)
	assert.ErrorIs(t, err, ingestion.ErrAIProviderRequired)
}

func TestIngestDirectory(t *testing.T) {
	root := writeCorpus(t)
	chunkRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	pipeline, err := ingestion.NewPipeline(chunkRepo, mock.NewMockProvider(),
		ingestion.WithBatchSize(2))
	require.NoError(t, err)
	defer pipeline.Release()

	ctx := context.Background()
	count, err := pipeline.IngestDirectory(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	stored, err := chunkRepo.ListChunks(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for _, chunk := range stored {
		assert.NotEmpty(t, chunk.Vector, "every chunk is embedded")
		assert.False(t, chunk.UpdatedAt.IsZero())
	}
}

func TestIngestDirectoryEmpty(t *testing.T) {
	chunkRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	pipeline, err := ingestion.NewPipeline(chunkRepo, mock.NewMockProvider())
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.IngestDirectory(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ingestion.ErrNoChunksFound)
}

func TestIngestChunksEmbeddingFailureDegrades(t *testing.T) {
	chunkRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, assert.AnError
	}

	pipeline, err := ingestion.NewPipeline(chunkRepo,
		mock.NewMockProviderWithEmbedder(embedder),
		ingestion.WithRetry(2, time.Millisecond))
	require.NoError(t, err)
	defer pipeline.Release()

	ctx := context.Background()
	count, err := pipeline.IngestChunks(ctx, []*core.Chunk{
		{Id: "a.graphql", Content: "type A { x: Int }"},
	})
	require.NoError(t, err, "embedding failure must not fail ingestion")
	assert.Equal(t, 1, count)

	stored, err := chunkRepo.GetChunk(ctx, "a.graphql")
	require.NoError(t, err)
	assert.Empty(t, stored.Vector)
}
