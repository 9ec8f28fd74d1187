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
	"path"
	"sort"
	"strings"

	"github.com/xrash/smetrics"

	"github.com/schemaseek/schemaseek/core"
)

const (
	// identifierWeight boosts identifier matches over content matches.
	identifierWeight = 1.2

	// substringScore is the fixed score for a term contained in the content.
	substringScore = 0.9

	// Line-level fuzzy matching is bounded to the leading lines and to terms
	// long enough for edit distance to be meaningful.
	fuzzyLineLimit  = 20
	minFuzzyTermLen = 5
	fuzzyLineWeight = 0.7
)

// matchKeywords scores every chunk against the term list and returns the
// chunks with a match, best term per chunk, sorted by descending strength.
// Strengths share the similarity scale of the vector index so the merge
// stage can compose them with semantic scores.
func matchKeywords(terms []string, chunks []*core.Chunk, minStrength float64) []*core.ScoredCandidate {
	if len(terms) == 0 {
		return nil
	}

	var out []*core.ScoredCandidate
	for _, chunk := range chunks {
		if chunk == nil {
			continue
		}
		strength := matchChunk(terms, chunk)
		if strength <= 0 || strength < minStrength {
			continue
		}
		out = append(out, &core.ScoredCandidate{
			ChunkID: chunk.Id,
			Content: chunk.Content,
			Score:   strength,
			Origin:  core.OriginKeyword,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	return out
}

func matchChunk(terms []string, chunk *core.Chunk) float64 {
	idBase := identifierBase(chunk.Id)
	lowerContent := strings.ToLower(chunk.Content)

	var lines []string
	best := 0.0
	for _, term := range terms {
		lowerTerm := strings.ToLower(term)

		// Identifier matches are the most authoritative signal.
		idScore := identifierWeight * smetrics.JaroWinkler(lowerTerm, idBase, 0.7, 4)
		if idScore > best {
			best = idScore
		}

		if strings.Contains(lowerContent, lowerTerm) {
			if substringScore > best {
				best = substringScore
			}
			continue
		}

		if len([]rune(term)) >= minFuzzyTermLen {
			if lines == nil {
				lines = leadingLines(lowerContent, fuzzyLineLimit)
			}
			for _, line := range lines {
				if score := fuzzyLineWeight * editRatio(lowerTerm, line); score > best {
					best = score
				}
			}
		}
	}
	if best > identifierWeight {
		best = identifierWeight
	}
	return best
}

// identifierBase strips directories and the extension from a chunk id so
// terms compare against the bare schema name.
func identifierBase(id string) string {
	base := path.Base(id)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.ToLower(base)
}

func leadingLines(content string, limit int) []string {
	lines := strings.Split(content, "\n")
	if len(lines) > limit {
		lines = lines[:limit]
	}
	out := lines[:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// editRatio is a normalized edit-distance similarity in [0, 1].
func editRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	dist := smetrics.WagnerFischer(a, b, 1, 1, 2)
	total := len(a) + len(b)
	ratio := 1 - float64(dist)/float64(total)
	if ratio < 0 {
		return 0
	}
	return ratio
}
