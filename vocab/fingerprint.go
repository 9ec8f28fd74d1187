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
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"

	"github.com/schemaseek/schemaseek/core"
)

// Fingerprint computes a stable digest of the corpus state. Chunks are hashed
// in id order so iteration order never changes the result, and each record
// folds in its update timestamp so edits invalidate the fingerprint even when
// the chunk count is unchanged.
func Fingerprint(chunks []*core.Chunk) string {
	ids := make([]string, 0, len(chunks))
	byID := make(map[string]*core.Chunk, len(chunks))
	for _, chunk := range chunks {
		if chunk == nil {
			continue
		}
		ids = append(ids, chunk.Id)
		byID[chunk.Id] = chunk
	}
	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(byID[id].UpdatedAt.UnixMicro(), 10)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
