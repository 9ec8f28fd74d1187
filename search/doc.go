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


// Package search implements hybrid retrieval over the chunk corpus.
//
// A query flows through a fixed pipeline: preprocessing and expansion,
// concurrent semantic and keyword search, adaptive thresholding of the
// semantic scores, a merge that establishes one hybrid ordering, bounded
// expansion through cross-referenced types, and a final relevance rescoring.
// Stage failures after construction degrade to an empty contribution from
// that stage; callers always get a SearchResult.
package search
