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


// Package vocab builds the typed vocabulary used for query expansion.
//
// The extractor scans the chunk corpus once, applying fixed structural
// pattern rules for GraphQL schema fragments (type, input, enum, interface,
// union, operation and field declarations, validation snippets), then derives
// type relationships from shared field names and extends a fixed set of
// semantic seed clusters with matching vocabulary terms.
//
// Building is deterministic: the same corpus always yields the same
// vocabulary. The Cache guards construction with a single-flight group and
// persists results keyed by a corpus fingerprint, so the vocabulary is built
// at most once per corpus state and survives restarts.
package vocab
