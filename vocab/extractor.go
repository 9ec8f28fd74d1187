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
	"regexp"
	"sort"
	"strings"

	"github.com/schemaseek/schemaseek/core"
)

// Structural pattern rules for GraphQL schema fragments. New definition kinds
// get a rule here, not a new traversal.
var (
	typeDefRe      = regexp.MustCompile(`(?m)^\s*type\s+([A-Za-z_][A-Za-z0-9_]*)`)
	inputDefRe     = regexp.MustCompile(`(?m)^\s*input\s+([A-Za-z_][A-Za-z0-9_]*)`)
	enumDefRe      = regexp.MustCompile(`(?m)^\s*enum\s+([A-Za-z_][A-Za-z0-9_]*)`)
	interfaceDefRe = regexp.MustCompile(`(?m)^\s*interface\s+([A-Za-z_][A-Za-z0-9_]*)`)
	unionDefRe     = regexp.MustCompile(`(?m)^\s*union\s+([A-Za-z_][A-Za-z0-9_]*)`)

	// A field declaration: name, optional argument list, then the colon that
	// introduces the field type.
	fieldDeclRe = regexp.MustCompile(`^\s*([a-zA-Z_][A-Za-z0-9_]*)\s*(\([^)]*\))?\s*:\s*\[?([A-Za-z_][A-Za-z0-9_]*)`)

	// Opening line of any named definition block, used to track the
	// containing type while scanning fields.
	blockOpenRe = regexp.MustCompile(`^\s*(type|input|enum|interface|union)\s+([A-Za-z_][A-Za-z0-9_]*)`)
)

// validationMarkers flag lines that carry constraint information worth
// remembering alongside the field they describe.
var validationMarkers = []string{
	"pattern", "regex", "required", "constraint", "format",
	"min", "max", "length", "valid",
}

// Extract builds a vocabulary from the full chunk corpus in a single pass.
// It never fails: chunks that match no rule simply contribute nothing.
func Extract(chunks []*core.Chunk) *core.Vocabulary {
	v := core.NewVocabulary()
	owners := map[string]map[string]bool{}

	for _, chunk := range chunks {
		if chunk == nil || chunk.Content == "" {
			continue
		}
		extractDefinitions(chunk.Content, v)
		extractFields(chunk.Content, v, owners)
	}

	for field, ownerSet := range owners {
		v.FieldOwners[field] = sortedMembers(ownerSet)
	}
	relateSharedFields(v, owners)
	if !v.IsEmpty() {
		buildClusters(v)
	}
	return v
}

func extractDefinitions(content string, v *core.Vocabulary) {
	for _, m := range typeDefRe.FindAllStringSubmatch(content, -1) {
		name := m[1]
		switch name {
		case "Query", "Mutation", "Subscription":
			// Operation containers are handled by the field pass.
		default:
			v.Types[name] = true
		}
	}
	for _, m := range inputDefRe.FindAllStringSubmatch(content, -1) {
		v.Inputs[m[1]] = true
	}
	for _, m := range enumDefRe.FindAllStringSubmatch(content, -1) {
		v.Enums[m[1]] = true
	}
	for _, m := range interfaceDefRe.FindAllStringSubmatch(content, -1) {
		v.Interfaces[m[1]] = true
	}
	for _, m := range unionDefRe.FindAllStringSubmatch(content, -1) {
		v.Unions[m[1]] = true
	}
}

// extractFields walks the content line by line, tracking the containing
// definition so fields land in the right set and validation snippets attach
// to the field they follow or precede.
func extractFields(content string, v *core.Vocabulary, owners map[string]map[string]bool) {
	var containing string
	var lastField string
	var pending []string

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := blockOpenRe.FindStringSubmatch(line); m != nil {
			containing = m[2]
			lastField = ""
			pending = nil
			continue
		}
		if trimmed == "}" {
			containing = ""
			lastField = ""
			pending = nil
			continue
		}

		if isAnnotationLine(trimmed) {
			if snippet, ok := validationSnippet(trimmed); ok {
				if lastField != "" {
					appendValidation(v, lastField, snippet)
				} else {
					pending = append(pending, snippet)
				}
			}
			continue
		}

		m := fieldDeclRe.FindStringSubmatch(line)
		if m == nil || containing == "" {
			continue
		}
		field := m[1]
		lastField = field

		switch containing {
		case "Mutation":
			v.Mutations[field] = true
		case "Query", "Subscription":
			v.Queries[field] = true
		default:
			v.Fields[field] = true
			if owners[field] == nil {
				owners[field] = map[string]bool{}
			}
			owners[field][containing] = true
		}

		for _, snippet := range pending {
			appendValidation(v, field, snippet)
		}
		pending = nil

		// Directives on the declaration line itself also count.
		if snippet, ok := validationSnippet(trimmed); ok && strings.Contains(trimmed, "@") {
			appendValidation(v, field, snippet)
		}
	}
}

func isAnnotationLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, `"`) ||
		strings.HasPrefix(trimmed, "@")
}

// validationSnippet reports whether the line carries constraint information
// and returns it trimmed of comment syntax.
func validationSnippet(trimmed string) (string, bool) {
	lower := strings.ToLower(trimmed)
	for _, marker := range validationMarkers {
		if strings.Contains(lower, marker) {
			snippet := strings.Trim(trimmed, `#" `)
			if snippet == "" {
				return "", false
			}
			return snippet, true
		}
	}
	return "", false
}

func appendValidation(v *core.Vocabulary, field, snippet string) {
	for _, existing := range v.Validations[field] {
		if existing == snippet {
			return
		}
	}
	v.Validations[field] = append(v.Validations[field], snippet)
}

// relateSharedFields records a symmetric relation between any two types that
// declare a field with the same name.
func relateSharedFields(v *core.Vocabulary, owners map[string]map[string]bool) {
	related := map[string]map[string]bool{}
	for _, ownerSet := range owners {
		names := sortedMembers(ownerSet)
		if len(names) < 2 {
			continue
		}
		for i, a := range names {
			for _, b := range names[i+1:] {
				if related[a] == nil {
					related[a] = map[string]bool{}
				}
				if related[b] == nil {
					related[b] = map[string]bool{}
				}
				related[a][b] = true
				related[b][a] = true
			}
		}
	}
	for name, set := range related {
		v.Related[name] = sortedMembers(set)
	}
}

// clusterSeeds ties a handful of domain concepts to the surface terms that
// commonly express them. Extraction extends each cluster with vocabulary
// terms containing a seed as a substring.
var clusterSeeds = map[string][]string{
	"address":    {"address", "street", "city", "state", "zip", "postal", "country"},
	"payment":    {"payment", "card", "invoice", "billing", "price", "amount", "currency"},
	"user":       {"user", "account", "profile", "customer", "member"},
	"order":      {"order", "cart", "checkout", "shipment", "delivery"},
	"validation": {"validation", "pattern", "constraint", "format", "required"},
}

func buildClusters(v *core.Vocabulary) {
	terms := allTerms(v)
	for cluster, seeds := range clusterSeeds {
		members := map[string]bool{}
		for _, seed := range seeds {
			members[seed] = true
			for _, term := range terms {
				if strings.Contains(strings.ToLower(term), seed) {
					members[term] = true
				}
			}
		}
		v.Clusters[cluster] = sortedMembers(members)
	}
}

func allTerms(v *core.Vocabulary) []string {
	out := map[string]bool{}
	for _, set := range []map[string]bool{
		v.Types, v.Inputs, v.Enums, v.Interfaces,
		v.Unions, v.Mutations, v.Queries, v.Fields,
	} {
		for term := range set {
			out[term] = true
		}
	}
	return sortedMembers(out)
}

func sortedMembers(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
