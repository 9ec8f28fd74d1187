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


package storage

import (
	"github.com/schemaseek/schemaseek/core"
)

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalVocabulary serializes a Vocabulary to bytes.
func MarshalVocabulary(vocabulary *core.Vocabulary) []byte {
	buf := make([]byte, core.VocabularyMUS.Size(*vocabulary))
	core.VocabularyMUS.Marshal(*vocabulary, buf)
	return buf
}

// UnmarshalVocabulary deserializes a Vocabulary from bytes.
func UnmarshalVocabulary(data []byte) (*core.Vocabulary, error) {
	vocabulary, _, err := core.VocabularyMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &vocabulary, nil
}
