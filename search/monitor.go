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

import "github.com/schemaseek/schemaseek/core"

// RetrievalMonitor provides hooks to observe the retrieval pipeline.
// Implement this interface to track intermediate stages during a query.
type RetrievalMonitor interface {
	Start(query string)
	AfterPreprocess(expandedQuery string, terms core.QueryTerms)
	AfterSemanticSearch(candidates []*core.ScoredCandidate)
	AfterKeywordSearch(candidates []*core.ScoredCandidate)
	AfterThreshold(cutoff float64, kept int)
	AfterMerge(candidates []*core.ScoredCandidate)
	AfterRelatedExpansion(added []*core.ScoredCandidate)
	Finish(result *core.SearchResult)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                   {}
func (n *noopMonitor) AfterPreprocess(_ string, _ core.QueryTerms)      {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.ScoredCandidate)    {}
func (n *noopMonitor) AfterKeywordSearch(_ []*core.ScoredCandidate)     {}
func (n *noopMonitor) AfterThreshold(_ float64, _ int)                  {}
func (n *noopMonitor) AfterMerge(_ []*core.ScoredCandidate)             {}
func (n *noopMonitor) AfterRelatedExpansion(_ []*core.ScoredCandidate)  {}
func (n *noopMonitor) Finish(_ *core.SearchResult)                      {}
