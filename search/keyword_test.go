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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaseek/schemaseek/core"
)

func keywordCorpus() []*core.Chunk {
	return []*core.Chunk{
		{
			Id:      "inputs/address_input.graphql",
			Content: "input AddressInput {\n  streetAddress: String!\n  city: String!\n}",
		},
		{
			Id:      "types/invoice.graphql",
			Content: "type Invoice {\n  total: Float!\n}",
		},
		{
			Id:      "enums/country.graphql",
			Content: "enum Country {\n  US\n  CA\n}",
		},
	}
}

func TestMatchKeywordsNoTerms(t *testing.T) {
	assert.Nil(t, matchKeywords(nil, keywordCorpus(), 0.3))
}

func TestMatchKeywordsContentSubstring(t *testing.T) {
	out := matchKeywords([]string{"streetAddress"}, keywordCorpus(), 0.3)

	require.NotEmpty(t, out)
	assert.Equal(t, "inputs/address_input.graphql", out[0].ChunkID)
	assert.GreaterOrEqual(t, out[0].Score, substringScore)
	assert.Equal(t, core.OriginKeyword, out[0].Origin)
}

func TestMatchKeywordsIdentifierOutranksContent(t *testing.T) {
	corpus := []*core.Chunk{
		{Id: "types/address.graphql", Content: "type Address { city: String }"},
		{Id: "types/city.graphql", Content: "# mention of address somewhere\ntype City { name: String }"},
	}
	out := matchKeywords([]string{"address"}, corpus, 0.1)

	require.Len(t, out, 2)
	assert.Equal(t, "types/address.graphql", out[0].ChunkID)
	assert.Greater(t, out[0].Score, out[1].Score)
}

func TestMatchKeywordsDiscardsWeakMatches(t *testing.T) {
	out := matchKeywords([]string{"zzzzqq"}, keywordCorpus(), 0.8)
	assert.Empty(t, out)
}

func TestMatchKeywordsSortedDescending(t *testing.T) {
	out := matchKeywords([]string{"address", "country"}, keywordCorpus(), 0.1)

	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Score, out[i].Score)
	}
}

func TestIdentifierBase(t *testing.T) {
	assert.Equal(t, "address_input", identifierBase("inputs/address_input.graphql"))
	assert.Equal(t, "country", identifierBase("country"))
}

func TestEditRatio(t *testing.T) {
	assert.Equal(t, 1.0, editRatio("address", "address"))
	assert.Equal(t, 0.0, editRatio("", "address"))
	assert.Greater(t, editRatio("adress", "address"), 0.8)
}
