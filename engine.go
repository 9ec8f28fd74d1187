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


package schemaseek

import (
	"context"
	"log/slog"

	"github.com/schemaseek/schemaseek/ai"
	"github.com/schemaseek/schemaseek/ai/openai"
	"github.com/schemaseek/schemaseek/core"
	"github.com/schemaseek/schemaseek/ingestion"
	"github.com/schemaseek/schemaseek/search"
	"github.com/schemaseek/schemaseek/storage"
	"github.com/schemaseek/schemaseek/storage/badger"
	"github.com/schemaseek/schemaseek/vocab"
)

// Engine owns the stores, the vocabulary cache and the retriever for one
// corpus. Construction fails when the index cannot be opened; once running,
// query-time problems degrade instead of erroring.
type Engine struct {
	backend    *badger.Backend
	chunkRepo  storage.ChunkRepository
	vocabRepo  storage.VocabularyRepository
	provider   ai.AIProvider
	vocabCache *vocab.Cache
	retriever  *search.Retriever
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig      *ai.Config
	provider      ai.AIProvider
	inMemory      bool
	searchOptions []search.Option
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithAIProvider supplies a pre-built provider, bypassing WithAIConfig.
func WithAIProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemoryStorage keeps the index in memory, for tests and exploration.
func WithInMemoryStorage() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithSearchOptions forwards options to the retriever.
func WithSearchOptions(opts ...search.Option) EngineOption {
	return func(o *engineOptions) {
		o.searchOptions = append(o.searchOptions, opts...)
	}
}

// NewEngine opens the index at filePath and wires up the retrieval pipeline.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	vocabRepo := badger.NewVocabularyRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			chunkRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	vocabCache, err := vocab.NewCache(chunkRepo, vocabRepo)
	if err != nil {
		provider.Close()
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	retriever, err := search.NewRetriever(chunkRepo, provider.Embedder(), vocabCache, options.searchOptions...)
	if err != nil {
		provider.Close()
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:    backend,
		chunkRepo:  chunkRepo,
		vocabRepo:  vocabRepo,
		provider:   provider,
		vocabCache: vocabCache,
		retriever:  retriever,
		logger:     slog.Default(),
	}, nil
}

// Retrieve runs a hybrid query and returns at most topK hits.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int, opts ...search.RetrieveOption) (*core.SearchResult, error) {
	return e.retriever.Retrieve(ctx, query, topK, opts...)
}

// Stats reports the engine's readiness, corpus size and vocabulary shape.
func (e *Engine) Stats(ctx context.Context) (*core.Stats, error) {
	count, err := e.chunkRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	vocabulary := e.vocabCache.GetOrBuild(ctx)
	return &core.Stats{
		Status:      "ready",
		TotalChunks: count,
		Vocabulary:  vocabulary.Summary(),
	}, nil
}

// NewIngestionPipeline creates a pipeline writing into this engine's store.
func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(e.chunkRepo, e.provider, opts...)
}

// InvalidateVocabulary forces a rebuild on the next query, used after
// out-of-band corpus changes.
func (e *Engine) InvalidateVocabulary() {
	e.vocabCache.Invalidate()
}

// ChunkRepository exposes the underlying chunk store.
func (e *Engine) ChunkRepository() storage.ChunkRepository {
	return e.chunkRepo
}

func (e *Engine) Close() error {
	if err := e.retriever.Close(); err != nil {
		e.logger.Error("error closing retriever", "err", err)
	}
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.chunkRepo.Close(); err != nil {
		e.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
