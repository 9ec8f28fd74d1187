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


package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaseek/schemaseek/ai/mock"
	"github.com/schemaseek/schemaseek/core"
	"github.com/schemaseek/schemaseek/storage/badger"
	"github.com/schemaseek/schemaseek/vocab"
)

func testCorpus() []*core.Chunk {
	return []*core.Chunk{
		{
			Id: "inputs/address_input.graphql",
			Content: `# Validation rules for addresses.
# pattern: ^[0-9A-Za-z .,-]+$ and regex checks apply
input AddressInput {
  streetAddress: String!
  city: String!
  postalCode: String
}`,
			Category: "inputs",
		},
		{
			Id: "types/address.graphql",
			Content: `type Address {
  streetAddress: String!
  city: String!
  country: Country
}`,
			Category: "types",
		},
		{
			Id: "enums/currency.graphql",
			Content: `enum Currency {
  USD
  EUR
}`,
			Category: "enums",
		},
	}
}

func newTestRetriever(t *testing.T) (*Retriever, *mock.MockEmbedder, func()) {
	t.Helper()
	chunkRepo, vocabRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)

	chunks := testCorpus()
	embedder := mock.NewMockEmbedder()
	ctx := context.Background()
	for _, chunk := range chunks {
		vector, err := embedder.EmbedText(ctx, chunk.Content)
		require.NoError(t, err)
		chunk.Vector = vector
	}
	_, err = chunkRepo.AddChunks(ctx, chunks...)
	require.NoError(t, err)
	embedder.Reset()

	cache, err := vocab.NewCache(chunkRepo, vocabRepo)
	require.NoError(t, err)

	retriever, err := NewRetriever(chunkRepo, embedder, cache)
	require.NoError(t, err)

	return retriever, embedder, func() {
		_ = retriever.Close()
		_ = backend.Close()
	}
}

func hitIndex(hits []core.Hit, chunkID string) int {
	for i, h := range hits {
		if h.ChunkID == chunkID {
			return i
		}
	}
	return -1
}

func TestNewRetrieverValidation(t *testing.T) {
	chunkRepo, vocabRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	cache, err := vocab.NewCache(chunkRepo, vocabRepo)
	require.NoError(t, err)
	embedder := mock.NewMockEmbedder()

	_, err = NewRetriever(nil, embedder, cache)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewRetriever(chunkRepo, nil, cache)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewRetriever(chunkRepo, embedder, nil)
	assert.ErrorIs(t, err, ErrVocabularyCacheRequired)
}

func TestRetrieveEmptyQuery(t *testing.T) {
	retriever, embedder, cleanup := newTestRetriever(t)
	defer cleanup()

	for _, q := range []string{"", "   ", "\t\n"} {
		result, err := retriever.Retrieve(context.Background(), q, 5)
		require.NoError(t, err)
		assert.Empty(t, result.Hits)
	}
	assert.Equal(t, 0, embedder.CallCount(), "empty queries must not consult the index")
}

func TestRetrieveDistinctAndBounded(t *testing.T) {
	retriever, _, cleanup := newTestRetriever(t)
	defer cleanup()

	result, err := retriever.Retrieve(context.Background(), "address fields", 2)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(result.Hits), 2)
	seen := map[string]bool{}
	for _, h := range result.Hits {
		assert.False(t, seen[h.ChunkID], "chunk ids must be pairwise distinct")
		seen[h.ChunkID] = true
	}
}

func TestRetrieveValidationScenario(t *testing.T) {
	retriever, _, cleanup := newTestRetriever(t)
	defer cleanup()

	query := "What are the validations for streetAddress?"
	var captured core.QueryTerms
	monitor := &capturingMonitor{onPreprocess: func(_ string, terms core.QueryTerms) {
		captured = terms
	}}

	result, err := retriever.Retrieve(context.Background(), query, 5, WithMonitor(monitor))
	require.NoError(t, err)

	assert.Equal(t, core.IntentValidation, captured.Intent)

	addressIdx := hitIndex(result.Hits, "inputs/address_input.graphql")
	require.GreaterOrEqual(t, addressIdx, 0, "AddressInput chunk must be in the top results")

	if currencyIdx := hitIndex(result.Hits, "enums/currency.graphql"); currencyIdx >= 0 {
		assert.Less(t, addressIdx, currencyIdx,
			"the chunk mentioning streetAddress must outrank the unrelated chunk")
	}
}

func TestRetrieveShortTokenQuery(t *testing.T) {
	retriever, _, cleanup := newTestRetriever(t)
	defer cleanup()

	result, err := retriever.Retrieve(context.Background(), "address input type", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Hits, "short tokens must not yield an empty result")
}

func TestRetrieveTypeComparisonScenario(t *testing.T) {
	retriever, _, cleanup := newTestRetriever(t)
	defer cleanup()

	result, err := retriever.Retrieve(context.Background(),
		"difference between Address and AddressInput", 3)
	require.NoError(t, err)

	addressIdx := hitIndex(result.Hits, "types/address.graphql")
	inputIdx := hitIndex(result.Hits, "inputs/address_input.graphql")
	require.GreaterOrEqual(t, addressIdx, 0)
	require.GreaterOrEqual(t, inputIdx, 0)

	if currencyIdx := hitIndex(result.Hits, "enums/currency.graphql"); currencyIdx >= 0 {
		assert.Greater(t, result.Hits[addressIdx].Score, result.Hits[currencyIdx].Score)
		assert.Greater(t, result.Hits[inputIdx].Score, result.Hits[currencyIdx].Score)
	}
}

func TestRetrieveCachesResults(t *testing.T) {
	retriever, embedder, cleanup := newTestRetriever(t)
	defer cleanup()

	ctx := context.Background()
	first, err := retriever.Retrieve(ctx, "address validations", 5)
	require.NoError(t, err)

	calls := embedder.CallCount()
	second, err := retriever.Retrieve(ctx, "address validations", 5)
	require.NoError(t, err)

	assert.Equal(t, calls, embedder.CallCount(), "cached queries must not re-embed")
	assert.Equal(t, first, second)
}

func TestRetrieveDegradesWhenEmbeddingFails(t *testing.T) {
	retriever, embedder, cleanup := newTestRetriever(t)
	defer cleanup()

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, assert.AnError
	}

	result, err := retriever.Retrieve(context.Background(), "streetAddress validations", 5)
	require.NoError(t, err, "query-time failures must not surface as errors")
	require.NotNil(t, result)

	// Keyword matching still finds the chunk that mentions the field.
	assert.GreaterOrEqual(t, hitIndex(result.Hits, "inputs/address_input.graphql"), 0)
}

func TestRetrieveDimensionMismatchFallsBack(t *testing.T) {
	retriever, embedder, cleanup := newTestRetriever(t)
	defer cleanup()

	// Stored vectors are 384-dimensional; return a mismatched query vector.
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	result, err := retriever.Retrieve(context.Background(), "address fields", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Hits, "fallback must serve unscored results")
}

func TestRetrieveMonitorSequence(t *testing.T) {
	retriever, _, cleanup := newTestRetriever(t)
	defer cleanup()

	monitor := &capturingMonitor{}
	_, err := retriever.Retrieve(context.Background(), "address validations", 5, WithMonitor(monitor))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start", "preprocess", "semantic", "keyword",
		"threshold", "merge", "related", "finish",
	}, monitor.stages)
}

// capturingMonitor records the order of pipeline callbacks.
type capturingMonitor struct {
	stages       []string
	onPreprocess func(expanded string, terms core.QueryTerms)
}

var _ RetrievalMonitor = (*capturingMonitor)(nil)

func (m *capturingMonitor) Start(_ string) { m.stages = append(m.stages, "start") }
func (m *capturingMonitor) AfterPreprocess(expanded string, terms core.QueryTerms) {
	m.stages = append(m.stages, "preprocess")
	if m.onPreprocess != nil {
		m.onPreprocess(expanded, terms)
	}
}
func (m *capturingMonitor) AfterSemanticSearch(_ []*core.ScoredCandidate) {
	m.stages = append(m.stages, "semantic")
}
func (m *capturingMonitor) AfterKeywordSearch(_ []*core.ScoredCandidate) {
	m.stages = append(m.stages, "keyword")
}
func (m *capturingMonitor) AfterThreshold(_ float64, _ int) {
	m.stages = append(m.stages, "threshold")
}
func (m *capturingMonitor) AfterMerge(_ []*core.ScoredCandidate) {
	m.stages = append(m.stages, "merge")
}
func (m *capturingMonitor) AfterRelatedExpansion(_ []*core.ScoredCandidate) {
	m.stages = append(m.stages, "related")
}
func (m *capturingMonitor) Finish(_ *core.SearchResult) {
	m.stages = append(m.stages, "finish")
}
