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
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/schemaseek/schemaseek/core"
	"github.com/schemaseek/schemaseek/query"
)

// Sub-score weights. Term evidence dominates, structure second, raw term
// density last.
const (
	termMatchWeight  = 0.4
	structuralWeight = 0.35
	densityWeight    = 0.25

	minScoredTermLen = 3
	maxTermWeight    = 3.0

	diversityBonus    = 0.05
	diversityBonusCap = 0.25
)

// Structural pattern detectors shared by the scorer.
var (
	objectDefPat    = regexp.MustCompile(`(?m)^\s*type\s+[A-Z]\w*`)
	inputDefPat     = regexp.MustCompile(`(?m)^\s*input\s+[A-Z]\w*`)
	enumDefPat      = regexp.MustCompile(`(?m)^\s*enum\s+[A-Z]\w*`)
	interfaceDefPat = regexp.MustCompile(`(?m)^\s*interface\s+[A-Z]\w*`)
	unionDefPat     = regexp.MustCompile(`(?m)^\s*union\s+[A-Z]\w*`)
	mutationPat     = regexp.MustCompile(`type\s+Mutation`)
	fieldWithTypePat = regexp.MustCompile(`(?m)^\s*\w+\s*(\([^)]*\))?\s*:\s*\[?[A-Za-z]`)
	commentLinePat  = regexp.MustCompile(`(?m)^\s*(#|""")`)
)

// Score computes the query-relevance of one chunk. It is a pure function of
// its arguments: candidate order and prior scores play no part.
func Score(chunkID, content string, terms core.QueryTerms) float64 {
	return termMatchWeight*termMatchScore(chunkID, content, terms) +
		structuralWeight*structuralScore(content, terms.Intent) +
		densityWeight*densityScore(content, terms)
}

// Rerank deduplicates the candidates by chunk id (first occurrence wins),
// adds the relevance score to each candidate's hybrid prior, and returns the
// topK best. The two scales are additive since the prior may sit anywhere in
// the similarity band while relevance is always non-negative.
func Rerank(candidates []*core.ScoredCandidate, terms core.QueryTerms, topK int) []*core.ScoredCandidate {
	seen := map[string]bool{}
	reranked := make([]*core.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c == nil || seen[c.ChunkID] {
			continue
		}
		seen[c.ChunkID] = true
		reranked = append(reranked, &core.ScoredCandidate{
			ChunkID: c.ChunkID,
			Content: c.Content,
			Score:   c.Score + Score(c.ChunkID, c.Content, terms),
			Origin:  c.Origin,
		})
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		if reranked[i].Score != reranked[j].Score {
			return reranked[i].Score > reranked[j].Score
		}
		return reranked[i].ChunkID < reranked[j].ChunkID
	})

	if topK > 0 && len(reranked) > topK {
		reranked = reranked[:topK]
	}
	return reranked
}

func termMatchScore(chunkID, content string, terms core.QueryTerms) float64 {
	lowerContent := strings.ToLower(content)
	lowerID := strings.ToLower(chunkID)
	idComponents := identifierComponents(lowerID)

	score := 0.0
	for _, term := range terms.AllTerms() {
		if len(term) < minScoredTermLen {
			continue
		}
		lowerTerm := strings.ToLower(term)
		w := termWeight(term)

		if strings.Contains(lowerContent, lowerTerm) {
			score += 0.08 * w
			if beforeFieldColon(content, term) {
				score += 0.15 * w
			}
			if inComment(content, lowerTerm) {
				score += 0.05 * w
			}
		}
		if strings.Contains(lowerID, lowerTerm) {
			score += 0.15 * w
			if idComponents[lowerTerm] {
				score += 0.10 * w
			}
		}
	}

	switch terms.Intent {
	case core.IntentValidation:
		overlap := wholeWordOverlap(lowerContent, terms)
		bonus := 0.04 * float64(overlap)
		if bonus > 0.2 {
			bonus = 0.2
		}
		score += bonus
		if strings.Contains(lowerContent, "input") && strings.Contains(lowerID, "input") {
			score += 0.15
		}
	case core.IntentField:
		if fieldWithTypePat.MatchString(content) {
			score += 0.10
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}

// termWeight gives longer and camel-cased terms more influence, capped.
func termWeight(term string) float64 {
	if isCamelCase(term) || len(term) > 12 {
		return maxTermWeight
	}
	w := 1.0 + float64(len(term))/8
	if w > maxTermWeight {
		w = maxTermWeight
	}
	return w
}

func isCamelCase(term string) bool {
	hasLower := false
	for _, r := range term {
		if unicode.IsLower(r) {
			hasLower = true
		} else if unicode.IsUpper(r) && hasLower {
			return true
		}
	}
	return false
}

// beforeFieldColon reports whether the term appears as a field name, in
// declaration position immediately before the colon.
func beforeFieldColon(content, term string) bool {
	pat := regexp.MustCompile(`(?mi)^\s*` + regexp.QuoteMeta(term) + `\s*(\([^)]*\))?\s*:`)
	return pat.MatchString(content)
}

func inComment(content, lowerTerm string) bool {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, `"`) {
			if strings.Contains(strings.ToLower(trimmed), lowerTerm) {
				return true
			}
		}
	}
	return false
}

func wholeWordOverlap(lowerContent string, terms core.QueryTerms) int {
	contentWords := map[string]bool{}
	for _, token := range query.Tokenize(lowerContent) {
		contentWords[token] = true
	}
	overlap := 0
	for _, term := range terms.DirectTerms {
		if len(term) >= minScoredTermLen && !query.IsStopWord(term) && contentWords[term] {
			overlap++
		}
	}
	return overlap
}

func structuralScore(content string, intent core.Intent) float64 {
	defKinds := 0
	for _, pat := range []*regexp.Regexp{objectDefPat, inputDefPat, enumDefPat, interfaceDefPat, unionDefPat} {
		if pat.MatchString(content) {
			defKinds++
		}
	}
	commentLines := len(commentLinePat.FindAllStringIndex(content, -1))
	hasFields := fieldWithTypePat.MatchString(content)
	hasInput := inputDefPat.MatchString(content)
	hasObject := objectDefPat.MatchString(content)

	score := 0.15 * float64(defKinds)
	if hasFields {
		score += 0.15
	}
	if mutationPat.MatchString(content) {
		score += 0.10
	}

	switch intent {
	case core.IntentValidation:
		if commentLines >= 2 {
			score += 0.20
		}
		if hasInput {
			score += 0.20
		}
	case core.IntentField:
		if hasFields {
			score += 0.20
		}
		if hasObject || hasInput {
			score += 0.10
		}
	case core.IntentInformation:
		if commentLines >= 2 {
			score += 0.20
		}
		extra := 0.05 * float64(defKinds)
		if extra > 0.15 {
			extra = 0.15
		}
		score += extra
	}

	if score > 1 {
		score = 1
	}
	return score
}

func densityScore(content string, terms core.QueryTerms) float64 {
	termSet := map[string]bool{}
	for _, term := range terms.AllTerms() {
		if len(term) >= minScoredTermLen {
			for _, word := range strings.Fields(strings.ToLower(term)) {
				termSet[word] = true
			}
		}
	}
	if len(termSet) == 0 {
		return 0
	}

	tokens := query.Tokenize(content)
	if len(tokens) == 0 {
		return 0
	}

	matched := 0
	distinct := map[string]bool{}
	for _, token := range tokens {
		if termSet[token] {
			matched++
			distinct[token] = true
		}
	}

	diversity := diversityBonus * float64(len(distinct))
	if diversity > diversityBonusCap {
		diversity = diversityBonusCap
	}

	score := float64(matched)/float64(len(tokens)) + diversity
	if score > 1 {
		score = 1
	}
	return score
}

func identifierComponents(lowerID string) map[string]bool {
	components := map[string]bool{}
	for _, part := range strings.FieldsFunc(lowerID, func(r rune) bool {
		return r == '_' || r == '/' || r == '.' || r == '-'
	}) {
		components[part] = true
	}
	return components
}
