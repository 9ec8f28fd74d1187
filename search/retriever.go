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
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/panjf2000/ants/v2"

	"github.com/schemaseek/schemaseek/ai"
	"github.com/schemaseek/schemaseek/core"
	"github.com/schemaseek/schemaseek/query"
	"github.com/schemaseek/schemaseek/storage"
	"github.com/schemaseek/schemaseek/vocab"
)

const (
	// overfetchFactor widens the semantic search so thresholding and merging
	// have room to discard low-quality hits.
	overfetchFactor = 4

	// Keyword hits boost an existing semantic entry by a capped fraction of
	// their strength; keyword-only hits enter with a fixed score.
	keywordBoostWeight = 0.15
	keywordBoostCap    = 0.25
	pureKeywordScore   = 0.5

	// neutralScore is assigned by the unscored fallback path.
	neutralScore = 0.5

	// relatedSeedLimit caps how many top candidates seed reference expansion.
	relatedSeedLimit = 5

	defaultStageTimeout = 10 * time.Second
	defaultPoolSize     = 8
	defaultMinStrength  = 0.35
	defaultCacheSize    = 128
	defaultCacheTTL     = 5 * time.Minute
)

// Retriever runs the hybrid retrieval pipeline over the chunk corpus.
type Retriever struct {
	chunks     storage.ChunkRepository
	embedder   ai.Embedder
	vocabCache *vocab.Cache
	pool       *ants.Pool
	logger     *slog.Logger

	stageTimeout time.Duration
	minStrength  float64

	queryCache *lru.Cache[string, cachedResult]
	cacheTTL   time.Duration
}

type cachedResult struct {
	result   *core.SearchResult
	storedAt time.Time
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithPoolSize sets the size of the worker pool used for related-chunk
// lookups. Default is 8.
func WithPoolSize(size int) Option {
	return func(r *Retriever) error {
		if size < 1 {
			return errors.New("pool size must be positive")
		}
		return r.setPool(size)
	}
}

// WithStageTimeout bounds the semantic and keyword stages individually so a
// slow index cannot stall the whole request. Default is 10s.
func WithStageTimeout(d time.Duration) Option {
	return func(r *Retriever) error {
		if d <= 0 {
			return errors.New("stage timeout must be positive")
		}
		r.stageTimeout = d
		return nil
	}
}

// WithKeywordMinStrength sets the minimum keyword match strength kept by the
// fuzzy matcher. Default is 0.35.
func WithKeywordMinStrength(min float64) Option {
	return func(r *Retriever) error {
		if min < 0 || min > 1 {
			return errors.New("keyword min strength must be in [0, 1]")
		}
		r.minStrength = min
		return nil
	}
}

// WithQueryCache sizes the result cache and sets its entry lifetime.
// Defaults are 128 entries and 5 minutes.
func WithQueryCache(size int, ttl time.Duration) Option {
	return func(r *Retriever) error {
		if size < 1 || ttl <= 0 {
			return errors.New("query cache needs a positive size and ttl")
		}
		cache, err := lru.New[string, cachedResult](size)
		if err != nil {
			return err
		}
		r.queryCache = cache
		r.cacheTTL = ttl
		return nil
	}
}

// NewRetriever creates a retriever over the given collaborators.
func NewRetriever(
	chunks storage.ChunkRepository,
	embedder ai.Embedder,
	vocabCache *vocab.Cache,
	opts ...Option,
) (*Retriever, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if vocabCache == nil {
		return nil, ErrVocabularyCacheRequired
	}

	r := &Retriever{
		chunks:       chunks,
		embedder:     embedder,
		vocabCache:   vocabCache,
		logger:       slog.Default(),
		stageTimeout: defaultStageTimeout,
		minStrength:  defaultMinStrength,
		cacheTTL:     defaultCacheTTL,
	}

	cache, err := lru.New[string, cachedResult](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	r.queryCache = cache

	if err := r.setPool(defaultPoolSize); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			r.pool.Release()
			return nil, err
		}
	}

	return r, nil
}

func (r *Retriever) setPool(size int) error {
	pool, err := ants.NewPool(size)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	if r.pool != nil {
		r.pool.Release()
	}
	r.pool = pool
	return nil
}

// Close releases the worker pool.
func (r *Retriever) Close() error {
	r.pool.Release()
	return nil
}

// retrieveConfig carries per-call settings.
type retrieveConfig struct {
	minSimilarity float64
	monitor       RetrievalMonitor
}

// RetrieveOption configures a single Retrieve call.
type RetrieveOption func(*retrieveConfig)

// WithMinSimilarity filters semantic candidates below the given cosine
// similarity before thresholding. By default nothing is filtered.
func WithMinSimilarity(min float64) RetrieveOption {
	return func(c *retrieveConfig) {
		c.minSimilarity = min
	}
}

// WithMonitor attaches a monitor that receives callbacks at each pipeline
// stage.
func WithMonitor(monitor RetrievalMonitor) RetrieveOption {
	return func(c *retrieveConfig) {
		if monitor != nil {
			c.monitor = monitor
		}
	}
}

// Retrieve runs the full pipeline and returns at most topK hits, distinct by
// chunk id, ordered by final relevance. Query-time stage failures degrade to
// partial results; an empty query returns an empty result immediately.
func (r *Retriever) Retrieve(ctx context.Context, rawQuery string, topK int, opts ...RetrieveOption) (*core.SearchResult, error) {
	cfg := retrieveConfig{
		minSimilarity: -1,
		monitor:       &noopMonitor{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	monitor := cfg.monitor
	monitor.Start(rawQuery)

	if strings.TrimSpace(rawQuery) == "" || topK <= 0 {
		result := &core.SearchResult{}
		monitor.Finish(result)
		return result, nil
	}

	vocabulary := r.vocabCache.GetOrBuild(ctx)

	cacheKey := r.cacheKey(rawQuery, topK, cfg.minSimilarity)
	if cached, ok := r.queryCache.Get(cacheKey); ok {
		if time.Since(cached.storedAt) < r.cacheTTL {
			r.logger.Debug("query cache hit", "query", rawQuery)
			monitor.Finish(cached.result)
			return cached.result, nil
		}
		r.queryCache.Remove(cacheKey)
	}

	expanded, terms := query.Preprocess(rawQuery, vocabulary)
	monitor.AfterPreprocess(expanded, terms)

	semantic, keyword := r.parallelSearch(ctx, expanded, terms, topK, cfg.minSimilarity)
	monitor.AfterSemanticSearch(semantic)
	monitor.AfterKeywordSearch(keyword)

	cutoff := adaptiveCutoff(scoresOf(semantic), topK, terms.Intent)
	semantic = applyCutoff(semantic, cutoff)
	monitor.AfterThreshold(cutoff, len(semantic))

	merged := mergeCandidates(semantic, keyword, topK)
	monitor.AfterMerge(merged)

	seeds := merged
	if len(seeds) > relatedSeedLimit {
		seeds = seeds[:relatedSeedLimit]
	}
	expander := &relatedExpander{
		chunks:   r.chunks,
		embedder: r.embedder,
		pool:     r.pool,
		logger:   r.logger,
	}
	related := expander.expand(ctx, seeds)
	monitor.AfterRelatedExpansion(related)
	merged = append(merged, related...)

	final := Rerank(merged, terms, topK)

	hits := make([]core.Hit, 0, len(final))
	for _, c := range final {
		hits = append(hits, core.Hit{ChunkID: c.ChunkID, Content: c.Content, Score: c.Score})
	}
	result := &core.SearchResult{Hits: hits}

	r.queryCache.Add(cacheKey, cachedResult{result: result, storedAt: time.Now()})
	monitor.Finish(result)
	return result, nil
}

// parallelSearch runs the semantic and keyword stages concurrently and joins
// on both before returning. Either stage failing contributes nothing rather
// than failing the query.
func (r *Retriever) parallelSearch(ctx context.Context, expanded string, terms core.QueryTerms, topK int, minSimilarity float64) ([]*core.ScoredCandidate, []*core.ScoredCandidate) {
	semanticCh := make(chan []*core.ScoredCandidate, 1)
	keywordCh := make(chan []*core.ScoredCandidate, 1)

	go func() {
		stageCtx, cancel := context.WithTimeout(ctx, r.stageTimeout)
		defer cancel()
		candidates, err := r.semanticSearch(stageCtx, expanded, topK*overfetchFactor, minSimilarity)
		if err != nil {
			r.logger.Warn("semantic search failed, continuing without it", "error", err)
			candidates = nil
		}
		semanticCh <- candidates
	}()

	go func() {
		stageCtx, cancel := context.WithTimeout(ctx, r.stageTimeout)
		defer cancel()
		keywordCh <- r.keywordSearch(stageCtx, terms)
	}()

	return <-semanticCh, <-keywordCh
}

// semanticSearch embeds the expanded query and queries the vector index.
// An index response with incompatible vector dimensions falls back to an
// unscored listing with a neutral score instead of failing the request.
func (r *Retriever) semanticSearch(ctx context.Context, expanded string, limit int, minSimilarity float64) ([]*core.ScoredCandidate, error) {
	vector, err := r.embedder.EmbedText(ctx, expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := r.chunks.FindSimilar(ctx, vector, minSimilarity, limit)
	if err != nil {
		if errors.Is(err, storage.ErrDimensionMismatch) {
			r.logger.Warn("vector dimensions incompatible with index, using unscored fallback", "error", err)
			return r.unscoredFallback(ctx, limit)
		}
		return nil, err
	}

	for _, m := range matches {
		m.Origin = core.OriginSemantic
	}
	return matches, nil
}

// unscoredFallback lists chunks with a neutral placeholder score, letting
// keyword matching and relevance scoring establish the ordering.
func (r *Retriever) unscoredFallback(ctx context.Context, limit int) ([]*core.ScoredCandidate, error) {
	chunks, err := r.chunks.ListChunks(ctx)
	if err != nil {
		return nil, err
	}
	if len(chunks) > limit {
		chunks = chunks[:limit]
	}
	candidates := make([]*core.ScoredCandidate, 0, len(chunks))
	for _, chunk := range chunks {
		candidates = append(candidates, &core.ScoredCandidate{
			ChunkID: chunk.Id,
			Content: chunk.Content,
			Score:   neutralScore,
			Origin:  core.OriginSemantic,
		})
	}
	return candidates, nil
}

func (r *Retriever) keywordSearch(ctx context.Context, terms core.QueryTerms) []*core.ScoredCandidate {
	if len(terms.TechnicalTerms) == 0 {
		return nil
	}
	chunks, err := r.chunks.ListChunks(ctx)
	if err != nil {
		r.logger.Warn("keyword search failed, continuing without it", "error", err)
		return nil
	}
	return matchKeywords(terms.TechnicalTerms, chunks, r.minStrength)
}

// mergeCandidates establishes the single hybrid ordering. Semantic hits seed
// the map with their score; keyword hits boost existing entries or enter
// with the fixed pure-keyword score. Keeps 2*topK to leave room for the
// rescoring pass.
func mergeCandidates(semantic, keyword []*core.ScoredCandidate, topK int) []*core.ScoredCandidate {
	byID := map[string]*core.ScoredCandidate{}
	merged := make([]*core.ScoredCandidate, 0, len(semantic)+len(keyword))

	for _, s := range semantic {
		c := &core.ScoredCandidate{ChunkID: s.ChunkID, Content: s.Content, Score: s.Score, Origin: s.Origin}
		byID[c.ChunkID] = c
		merged = append(merged, c)
	}
	for _, k := range keyword {
		if existing, ok := byID[k.ChunkID]; ok {
			boost := k.Score * keywordBoostWeight
			if boost > keywordBoostCap {
				boost = keywordBoostCap
			}
			existing.Score += boost
			continue
		}
		c := &core.ScoredCandidate{ChunkID: k.ChunkID, Content: k.Content, Score: pureKeywordScore, Origin: core.OriginKeyword}
		byID[c.ChunkID] = c
		merged = append(merged, c)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].ChunkID < merged[j].ChunkID
	})

	if max := 2 * topK; len(merged) > max {
		merged = merged[:max]
	}
	return merged
}

func scoresOf(candidates []*core.ScoredCandidate) []float64 {
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = c.Score
	}
	return scores
}

func (r *Retriever) cacheKey(rawQuery string, topK int, minSimilarity float64) string {
	h := sha256.New()
	h.Write([]byte(rawQuery))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(topK)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(minSimilarity, 'f', -1, 64)))
	h.Write([]byte{0})
	h.Write([]byte(r.vocabCache.Fingerprint()))
	return hex.EncodeToString(h.Sum(nil))
}
