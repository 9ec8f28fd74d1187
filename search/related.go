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
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/schemaseek/schemaseek/ai"
	"github.com/schemaseek/schemaseek/core"
	"github.com/schemaseek/schemaseek/storage"
)

const (
	// relatedDiscount shrinks the score of chunks pulled in by reference,
	// placing them below direct hits of equal similarity.
	relatedDiscount = 0.9

	maxRelatedChunks = 5
	maxRefsPerRound  = 8
	maxRelatedDepth  = 2
)

// Cross-reference detectors: field-type position, array-type position and
// named-definition keywords (implements clauses, union members).
var (
	fieldTypeRefPat  = regexp.MustCompile(`:\s*([A-Z]\w+)`)
	arrayTypeRefPat  = regexp.MustCompile(`:\s*\[\s*([A-Z]\w+)`)
	implementsRefPat = regexp.MustCompile(`implements\s+([A-Z]\w+)`)
	unionMemberPat   = regexp.MustCompile(`=\s*([A-Z]\w+(?:\s*\|\s*[A-Z]\w+)*)`)
)

// builtinScalars never denote a chunk worth following.
var builtinScalars = map[string]bool{
	"String": true, "Int": true, "Float": true, "Boolean": true,
	"ID": true, "Date": true, "DateTime": true, "JSON": true,
}

// relatedExpander pulls in chunks that the current candidates reference by
// type name. Lookups run on the shared worker pool; each failure is logged
// and skipped so one missing reference never costs the others.
type relatedExpander struct {
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	pool     *ants.Pool
	logger   *slog.Logger
}

// expand walks the reference graph breadth-first, bounded by depth and by
// the number of chunks it may add.
func (e *relatedExpander) expand(ctx context.Context, candidates []*core.ScoredCandidate) []*core.ScoredCandidate {
	present := map[string]bool{}
	for _, c := range candidates {
		present[strings.ToLower(c.ChunkID)] = true
	}

	visited := map[string]bool{}
	frontier := extractReferences(candidates)

	var added []*core.ScoredCandidate
	for depth := 0; depth < maxRelatedDepth && len(frontier) > 0 && len(added) < maxRelatedChunks; depth++ {
		var lookups []string
		for _, ref := range frontier {
			if visited[ref] || alreadyPresent(present, ref) {
				continue
			}
			visited[ref] = true
			lookups = append(lookups, ref)
			if len(lookups) >= maxRefsPerRound {
				break
			}
		}

		found := e.lookupAll(ctx, lookups)
		frontier = nil
		for _, c := range found {
			if len(added) >= maxRelatedChunks {
				break
			}
			key := strings.ToLower(c.ChunkID)
			if present[key] {
				continue
			}
			present[key] = true
			added = append(added, c)
			frontier = append(frontier, extractReferences([]*core.ScoredCandidate{c})...)
		}
	}
	return added
}

// lookupAll runs one secondary vector lookup per identifier in parallel.
func (e *relatedExpander) lookupAll(ctx context.Context, refs []string) []*core.ScoredCandidate {
	if len(refs) == 0 {
		return nil
	}

	var (
		mu    sync.Mutex
		found []*core.ScoredCandidate
		wg    sync.WaitGroup
	)
	for _, ref := range refs {
		ref := ref
		wg.Add(1)
		task := func() {
			defer wg.Done()
			candidate, err := e.lookup(ctx, ref)
			if err != nil {
				e.logger.Warn("related lookup failed", "identifier", ref, "error", err)
				return
			}
			if candidate == nil {
				return
			}
			mu.Lock()
			found = append(found, candidate)
			mu.Unlock()
		}
		if err := e.pool.Submit(task); err != nil {
			// Pool saturated or released, run inline rather than drop.
			task()
		}
	}
	wg.Wait()

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Score != found[j].Score {
			return found[i].Score > found[j].Score
		}
		return found[i].ChunkID < found[j].ChunkID
	})
	return found
}

func (e *relatedExpander) lookup(ctx context.Context, identifier string) (*core.ScoredCandidate, error) {
	vector, err := e.embedder.EmbedText(ctx, identifier)
	if err != nil {
		return nil, err
	}
	matches, err := e.chunks.FindSimilar(ctx, vector, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	best := matches[0]
	return &core.ScoredCandidate{
		ChunkID: best.ChunkID,
		Content: best.Content,
		Score:   best.Score * relatedDiscount,
		Origin:  core.OriginRelated,
	}, nil
}

// extractReferences pulls type identifiers out of candidate content, sorted
// and deduplicated for deterministic traversal order.
func extractReferences(candidates []*core.ScoredCandidate) []string {
	set := map[string]bool{}
	for _, c := range candidates {
		if c == nil {
			continue
		}
		for _, pat := range []*regexp.Regexp{fieldTypeRefPat, arrayTypeRefPat, implementsRefPat} {
			for _, m := range pat.FindAllStringSubmatch(c.Content, -1) {
				addReference(set, m[1])
			}
		}
		for _, m := range unionMemberPat.FindAllStringSubmatch(c.Content, -1) {
			for _, member := range strings.Split(m[1], "|") {
				addReference(set, strings.TrimSpace(member))
			}
		}
	}

	refs := make([]string, 0, len(set))
	for ref := range set {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

func addReference(set map[string]bool, identifier string) {
	if identifier != "" && !builtinScalars[identifier] {
		set[identifier] = true
	}
}

// alreadyPresent reports whether a candidate for this identifier is already
// in the result set. Chunk ids and identifiers are compared with separators
// stripped so AddressInput matches address_input.graphql.
func alreadyPresent(present map[string]bool, identifier string) bool {
	needle := normalizeIdentifier(identifier)
	for id := range present {
		if strings.Contains(normalizeIdentifier(id), needle) {
			return true
		}
	}
	return false
}

func normalizeIdentifier(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
