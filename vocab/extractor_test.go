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


package vocab

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaseek/schemaseek/core"
)

const sampleSchema = `
type Address {
  streetAddress: String!
  city: String!
  postalCode: String
}

input AddressInput {
  # pattern: ^[0-9A-Za-z .,-]+$
  streetAddress: String!
  city: String!
  postalCode: String @constraint(maxLength: 10)
}

enum Country {
  US
  CA
}

interface Node {
  id: ID!
}

union SearchTarget = Address | Country

type Query {
  address(id: ID!): Address
}

type Mutation {
  createAddress(input: AddressInput!): Address
}
`

func sampleChunks() []*core.Chunk {
	now := time.Now()
	return []*core.Chunk{
		{Id: "types/address.graphql", Content: sampleSchema, Category: "types", InsertedAt: now, UpdatedAt: now},
	}
}

func TestExtractDefinitions(t *testing.T) {
	v := Extract(sampleChunks())

	assert.True(t, v.Types["Address"])
	assert.False(t, v.Types["Query"], "operation containers are not plain types")
	assert.True(t, v.Inputs["AddressInput"])
	assert.True(t, v.Enums["Country"])
	assert.True(t, v.Interfaces["Node"])
	assert.True(t, v.Unions["SearchTarget"])
}

func TestExtractOperationsAndFields(t *testing.T) {
	v := Extract(sampleChunks())

	assert.True(t, v.Queries["address"])
	assert.True(t, v.Mutations["createAddress"])
	assert.True(t, v.Fields["streetAddress"])
	assert.True(t, v.Fields["postalCode"])
	assert.False(t, v.Fields["createAddress"], "operation names stay out of the field set")
}

func TestExtractFieldOwners(t *testing.T) {
	v := Extract(sampleChunks())

	assert.ElementsMatch(t, []string{"Address", "AddressInput"}, v.FieldOwners["streetAddress"])
}

func TestExtractRelatedTypes(t *testing.T) {
	v := Extract(sampleChunks())

	// Address and AddressInput share streetAddress, city and postalCode.
	assert.Contains(t, v.Related["Address"], "AddressInput")
	assert.Contains(t, v.Related["AddressInput"], "Address")
}

func TestExtractValidations(t *testing.T) {
	v := Extract(sampleChunks())

	require.NotEmpty(t, v.Validations["streetAddress"])
	assert.Contains(t, v.Validations["streetAddress"][0], "pattern")

	require.NotEmpty(t, v.Validations["postalCode"])
	assert.Contains(t, v.Validations["postalCode"][0], "constraint")
}

func TestExtractClusters(t *testing.T) {
	v := Extract(sampleChunks())

	assert.Contains(t, v.Clusters["address"], "Address")
	assert.Contains(t, v.Clusters["address"], "AddressInput")
	assert.Contains(t, v.Clusters["address"], "streetAddress")
}

func TestExtractEmptyCorpus(t *testing.T) {
	v := Extract(nil)

	require.NotNil(t, v)
	assert.True(t, v.IsEmpty())
}

func TestExtractDeterministic(t *testing.T) {
	a := Extract(sampleChunks())
	b := Extract(sampleChunks())

	assert.Equal(t, a, b)
}
