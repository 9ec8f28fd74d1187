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


package query

import (
	"sort"
	"strings"
	"unicode"

	"github.com/schemaseek/schemaseek/core"
)

const (
	// domainQualifier biases the embedding toward schema vocabulary when the
	// query does not already mention it.
	domainQualifier = "graphql schema"

	maxExpandedTerms   = 8
	minTermLength      = 3
	longTokenThreshold = 12
)

// Intent keyword categories, checked in order. First category with a hit
// wins, so validation words outrank creation words that share a query.
var intentChecklist = []struct {
	intent core.Intent
	words  map[string]bool
}{
	{core.IntentValidation, wordSet("validation", "validations", "validate",
		"constraint", "constraints", "pattern", "regex", "format", "required", "rules")},
	{core.IntentCreation, wordSet("create", "creating", "add", "adding",
		"new", "insert", "register", "mutation")},
	{core.IntentInformation, wordSet("what", "explain", "describe", "overview",
		"definition", "meaning", "documentation", "docs", "info")},
	{core.IntentField, wordSet("field", "fields", "attribute", "attributes",
		"property", "properties", "column")},
}

// compoundTails are second tokens that form a domain phrase with whatever
// precedes them ("address input", "postal code").
var compoundTails = wordSet(
	"input", "type", "enum", "interface", "union",
	"mutation", "query", "address", "code", "number", "id", "date")

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// Preprocess expands a raw query for vector search and derives the typed
// term sets used by keyword matching and relevance scoring. The vocabulary
// may be empty, in which case technical-term extraction yields nothing and
// the rest of the pipeline still works.
func Preprocess(rawQuery string, vocabulary *core.Vocabulary) (string, core.QueryTerms) {
	tokens := Tokenize(rawQuery)
	terms := core.QueryTerms{
		DirectTerms: tokens,
		Intent:      detectIntent(tokens),
	}
	terms.CompoundTerms = detectCompounds(tokens)
	terms.TechnicalTerms = extractTechnicalTerms(rawQuery, vocabulary)

	return buildExpandedQuery(rawQuery, terms), terms
}

func detectIntent(tokens []string) core.Intent {
	for _, category := range intentChecklist {
		for _, token := range tokens {
			if category.words[token] {
				return category.intent
			}
		}
	}
	return core.IntentGeneral
}

// detectCompounds promotes adjacent token pairs matching a compounding rule
// and long single tokens to compound terms.
func detectCompounds(tokens []string) []string {
	var compounds []string
	seen := map[string]bool{}

	add := func(term string) {
		if !seen[term] {
			seen[term] = true
			compounds = append(compounds, term)
		}
	}

	for i := 0; i < len(tokens)-1; i++ {
		first, second := tokens[i], tokens[i+1]
		if stopWords[first] || stopWords[second] {
			continue
		}
		if compoundTails[second] {
			add(first + " " + second)
		}
	}
	for _, token := range tokens {
		if len(token) > longTokenThreshold && !stopWords[token] {
			add(token)
		}
	}
	return compounds
}

// buildExpandedQuery concatenates the highest-value terms, compounds first,
// capped to avoid diluting the embedding. Falls back to the raw query when
// filtering leaves nothing.
func buildExpandedQuery(rawQuery string, terms core.QueryTerms) string {
	var parts []string
	seen := map[string]bool{}

	add := func(term string) {
		if len(parts) < maxExpandedTerms && !seen[term] {
			seen[term] = true
			parts = append(parts, term)
		}
	}

	for _, compound := range terms.CompoundTerms {
		add(compound)
	}
	for _, token := range terms.DirectTerms {
		if !stopWords[token] && len(token) >= minTermLength {
			add(token)
		}
	}

	expanded := strings.Join(parts, " ")
	if expanded == "" {
		expanded = strings.TrimSpace(rawQuery)
	}
	if !strings.Contains(strings.ToLower(expanded), domainQualifier) {
		expanded = domainQualifier + " " + expanded
	}
	return expanded
}

// extractTechnicalTerms matches query words against schema identifiers by
// case variant, then applies identifier templates such as "create address"
// becoming createAddress and "address input" becoming AddressInput.
func extractTechnicalTerms(rawQuery string, vocabulary *core.Vocabulary) []string {
	if vocabulary == nil || vocabulary.IsEmpty() {
		return nil
	}

	found := map[string]bool{}
	words := rawWords(rawQuery)

	for _, word := range words {
		for _, variant := range caseVariants(word) {
			if identifierKnown(vocabulary, variant) {
				found[variant] = true
			}
		}
	}

	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(w)
	}
	for i := 0; i < len(lower)-1; i++ {
		first, second := lower[i], lower[i+1]
		if first == "create" {
			candidate := "create" + titleCase(second)
			if vocabulary.Mutations[candidate] || vocabulary.Inputs[candidate] {
				found[candidate] = true
			}
		}
		if second == "input" {
			candidate := titleCase(first) + "Input"
			if vocabulary.Inputs[candidate] {
				found[candidate] = true
			}
		}
	}

	out := make([]string, 0, len(found))
	for term := range found {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

func identifierKnown(v *core.Vocabulary, term string) bool {
	return v.Types[term] || v.Inputs[term] || v.Enums[term] ||
		v.Interfaces[term] || v.Unions[term] ||
		v.Mutations[term] || v.Queries[term] || v.Fields[term]
}

func caseVariants(word string) []string {
	variants := []string{word}
	for _, v := range []string{strings.ToLower(word), strings.ToUpper(word), titleCase(word)} {
		if v != word {
			variants = append(variants, v)
		}
	}
	return variants
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	runes := []rune(word)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
