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


package schemaseek

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaseek/schemaseek/ai/mock"
	"github.com/schemaseek/schemaseek/storage"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine("",
		WithInMemoryStorage(),
		WithAIProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func seedEngine(t *testing.T, engine *Engine) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "inputs"), 0o755))
	content := "# pattern: ^[0-9A-Za-z .,-]+$\ninput AddressInput {\n  streetAddress: String!\n}"
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "inputs", "address_input.graphql"), []byte(content), 0o644))

	pipeline, err := engine.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	count, err := pipeline.IngestDirectory(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestNewEngineFailsWithoutIndex(t *testing.T) {
	// A file in place of the index directory makes the open fail.
	path := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := NewEngine(path, WithAIProvider(mock.NewMockProvider()))
	assert.ErrorIs(t, err, storage.ErrIndexUnavailable)
}

func TestEngineRetrieve(t *testing.T) {
	engine := newTestEngine(t)
	seedEngine(t, engine)

	result, err := engine.Retrieve(context.Background(), "streetAddress validations", 5)
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "inputs/address_input.graphql", result.Hits[0].ChunkID)
}

func TestEngineStats(t *testing.T) {
	engine := newTestEngine(t)
	seedEngine(t, engine)

	stats, err := engine.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ready", stats.Status)
	assert.Equal(t, 1, stats.TotalChunks)
	assert.Equal(t, 1, stats.Vocabulary["inputs"])
	assert.Equal(t, 1, stats.Vocabulary["fields"])
}

func TestEngineStatsEmptyCorpus(t *testing.T) {
	engine := newTestEngine(t)

	stats, err := engine.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalChunks)
}
