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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/schemaseek/schemaseek/ai"
	"github.com/schemaseek/schemaseek/core"
	"github.com/schemaseek/schemaseek/storage"
)

const (
	defaultBatchSize     = 16
	defaultRetryAttempts = 3
	defaultRetryDelay    = 500 * time.Millisecond
)

// Pipeline loads corpus files and embeds them for vector search.
// Batches are embedded concurrently on a worker pool.
type Pipeline struct {
	chunkRepository storage.ChunkRepository
	embedder        ai.Embedder
	pool            *ants.Pool
	batchSize       int
	retryAttempts   int
	retryDelay      time.Duration
	logger          *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded per request.
// Default is 16.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		p.batchSize = size
		return nil
	}
}

// WithRetry sets the retry policy for transient embedding failures.
// Default is 3 attempts with a 500ms delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(p *Pipeline) error {
		if attempts < 1 {
			return fmt.Errorf("retry attempts must be positive, got %d", attempts)
		}
		p.retryAttempts = attempts
		p.retryDelay = delay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	chunkRepository storage.ChunkRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		chunkRepository: chunkRepository,
		embedder:        provider.Embedder(),
		pool:            pool,
		batchSize:       defaultBatchSize,
		retryAttempts:   defaultRetryAttempts,
		retryDelay:      defaultRetryDelay,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}

	return p, nil
}

// IngestDirectory loads every corpus file under root, embeds the contents
// and stores the chunks. Returns the number of chunks stored. Chunks whose
// batch fails to embed are stored without vectors and logged; they remain
// reachable through keyword search.
func (p *Pipeline) IngestDirectory(ctx context.Context, root string) (int, error) {
	chunks, err := LoadDirectory(root, p.logger)
	if err != nil {
		return 0, fmt.Errorf("failed to load corpus: %w", err)
	}
	if len(chunks) == 0 {
		return 0, ErrNoChunksFound
	}
	return p.IngestChunks(ctx, chunks)
}

// IngestChunks embeds and stores the given chunks.
func (p *Pipeline) IngestChunks(ctx context.Context, chunks []*core.Chunk) (int, error) {
	p.logger.Info("ingesting chunks", "count", len(chunks), "batchSize", p.batchSize)

	var wg sync.WaitGroup
	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		wg.Add(1)
		task := func() {
			defer wg.Done()
			p.embedBatch(ctx, batch)
		}
		if err := p.pool.Submit(task); err != nil {
			// Pool saturated or released, embed inline.
			task()
		}
	}
	wg.Wait()

	added, err := p.chunkRepository.AddChunks(ctx, chunks...)
	if err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}
	return len(added), nil
}

// embedBatch fills in the vectors for one batch, retrying on failure. A
// batch that never succeeds is left unembedded rather than failing the run.
func (p *Pipeline) embedBatch(ctx context.Context, batch []*core.Chunk) {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Content
	}

	var vectors [][]float32
	err := withRetry(ctx, p.retryAttempts, p.retryDelay, func() error {
		var embedErr error
		vectors, embedErr = p.embedder.EmbedTexts(ctx, texts)
		return embedErr
	})
	if err != nil {
		p.logger.Warn("batch embedding failed, storing without vectors",
			"chunks", len(batch), "error", err)
		return
	}
	if len(vectors) != len(batch) {
		p.logger.Warn("embedding result mismatch, storing without vectors",
			"expected", len(batch), "received", len(vectors))
		return
	}

	for i := range vectors {
		batch[i].Vector = vectors[i]
	}
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// withRetry runs fn up to attempts times, waiting delay between tries and
// giving up early when the context is done.
func withRetry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
