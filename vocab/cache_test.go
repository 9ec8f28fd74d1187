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


package vocab_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaseek/schemaseek/core"
	"github.com/schemaseek/schemaseek/storage/badger"
	"github.com/schemaseek/schemaseek/vocab"
)

func seedChunks(t *testing.T) ([]*core.Chunk, *vocab.Cache, func()) {
	t.Helper()
	chunkRepo, vocabRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)

	now := time.Now()
	chunks := []*core.Chunk{
		{Id: "types/address.graphql", Content: "type Address {\n  streetAddress: String!\n}", Category: "types", InsertedAt: now, UpdatedAt: now},
		{Id: "inputs/address_input.graphql", Content: "input AddressInput {\n  streetAddress: String!\n}", Category: "inputs", InsertedAt: now, UpdatedAt: now},
	}
	_, err = chunkRepo.AddChunks(context.Background(), chunks...)
	require.NoError(t, err)

	cache, err := vocab.NewCache(chunkRepo, vocabRepo)
	require.NoError(t, err)

	return chunks, cache, func() { _ = backend.Close() }
}

func TestNewCacheRequiresChunkRepository(t *testing.T) {
	_, err := vocab.NewCache(nil, nil)
	assert.ErrorIs(t, err, vocab.ErrChunkRepositoryRequired)
}

func TestGetOrBuildExtractsFromCorpus(t *testing.T) {
	_, cache, cleanup := seedChunks(t)
	defer cleanup()

	v := cache.GetOrBuild(context.Background())
	require.NotNil(t, v)
	assert.True(t, v.Types["Address"])
	assert.True(t, v.Inputs["AddressInput"])
	assert.NotEmpty(t, cache.Fingerprint())
}

func TestGetOrBuildReusesForSameFingerprint(t *testing.T) {
	_, cache, cleanup := seedChunks(t)
	defer cleanup()

	first := cache.GetOrBuild(context.Background())
	second := cache.GetOrBuild(context.Background())
	assert.Same(t, first, second)
}

func TestGetOrBuildRebuildsAfterCorpusChange(t *testing.T) {
	chunkRepo, vocabRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	now := time.Now()
	ctx := context.Background()
	_, err = chunkRepo.AddChunks(ctx,
		&core.Chunk{Id: "a", Content: "type Address { city: String }", InsertedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	cache, err := vocab.NewCache(chunkRepo, vocabRepo)
	require.NoError(t, err)

	v := cache.GetOrBuild(ctx)
	assert.False(t, v.Inputs["AddressInput"])
	fp := cache.Fingerprint()

	_, err = chunkRepo.AddChunks(ctx,
		&core.Chunk{Id: "b", Content: "input AddressInput { city: String }", InsertedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	v = cache.GetOrBuild(ctx)
	assert.True(t, v.Inputs["AddressInput"])
	assert.NotEqual(t, fp, cache.Fingerprint())
}

func TestGetOrBuildLoadsPersistedVocabulary(t *testing.T) {
	chunks, cache, cleanup := seedChunks(t)
	defer cleanup()

	ctx := context.Background()
	cache.GetOrBuild(ctx)
	fp := cache.Fingerprint()
	require.NotEmpty(t, fp)
	assert.Equal(t, vocab.Fingerprint(chunks), fp)

	// A fresh cache over the same backend must reload, not rebuild.
	cache.Invalidate()
	v := cache.GetOrBuild(ctx)
	require.NotNil(t, v)
	assert.True(t, v.Types["Address"])
	assert.Equal(t, fp, cache.Fingerprint())
}

func TestGetOrBuildEmptyOnSourceFailure(t *testing.T) {
	chunkRepo, vocabRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)

	cache, err := vocab.NewCache(chunkRepo, vocabRepo)
	require.NoError(t, err)

	// Closing the backend makes the corpus unreadable.
	require.NoError(t, backend.Close())

	v := cache.GetOrBuild(context.Background())
	require.NotNil(t, v)
	assert.True(t, v.IsEmpty())
}

func TestFingerprintStableAcrossOrder(t *testing.T) {
	now := time.Now()
	a := &core.Chunk{Id: "a", UpdatedAt: now}
	b := &core.Chunk{Id: "b", UpdatedAt: now}

	assert.Equal(t,
		vocab.Fingerprint([]*core.Chunk{a, b}),
		vocab.Fingerprint([]*core.Chunk{b, a}))
}

func TestFingerprintChangesWithUpdate(t *testing.T) {
	now := time.Now()
	a := &core.Chunk{Id: "a", UpdatedAt: now}
	updated := &core.Chunk{Id: "a", UpdatedAt: now.Add(time.Second)}

	assert.NotEqual(t,
		vocab.Fingerprint([]*core.Chunk{a}),
		vocab.Fingerprint([]*core.Chunk{updated}))
}
