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


// Package storage defines the persistence interfaces of schemaseek.
//
// Two repositories back the retrieval engine:
//
//   - ChunkRepository: the corpus metadata store plus the vector similarity
//     scan used by semantic search
//   - VocabularyRepository: the vocabulary cache, keyed by corpus fingerprint
//
// The badger subpackage provides the BadgerDB-backed implementation.
package storage
