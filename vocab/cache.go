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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/schemaseek/schemaseek/core"
	"github.com/schemaseek/schemaseek/storage"
)

var ErrChunkRepositoryRequired = errors.New("chunk repository is required")

// Cache serves the current vocabulary, building it at most once per corpus
// state. Concurrent callers that miss share a single build through the
// single-flight group, and built vocabularies are persisted keyed by the
// corpus fingerprint so restarts reload instead of rebuilding.
type Cache struct {
	chunks storage.ChunkRepository
	vocabs storage.VocabularyRepository
	group  singleflight.Group
	logger *slog.Logger

	mu          sync.RWMutex
	fingerprint string
	current     *core.Vocabulary
}

// CacheOption configures a Cache.
type CacheOption func(*Cache) error

// WithLogger sets the logger used for build and persistence diagnostics.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// NewCache creates a vocabulary cache over the given repositories. The
// vocabulary repository is optional: when nil, vocabularies are rebuilt on
// every process start but still cached in memory per fingerprint.
func NewCache(chunks storage.ChunkRepository, vocabs storage.VocabularyRepository, opts ...CacheOption) (*Cache, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	c := &Cache{
		chunks: chunks,
		vocabs: vocabs,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply cache option: %w", err)
		}
	}
	return c, nil
}

// GetOrBuild returns the vocabulary for the current corpus state. It never
// fails: when the corpus cannot be read, an empty vocabulary is returned and
// retrieval proceeds without expansion.
func (c *Cache) GetOrBuild(ctx context.Context) *core.Vocabulary {
	chunks, err := c.chunks.ListChunks(ctx)
	if err != nil {
		c.logger.Warn("vocabulary source unavailable, using empty vocabulary", "error", err)
		return core.NewVocabulary()
	}

	fp := Fingerprint(chunks)

	c.mu.RLock()
	if c.current != nil && c.fingerprint == fp {
		v := c.current
		c.mu.RUnlock()
		return v
	}
	c.mu.RUnlock()

	result, _, _ := c.group.Do(fp, func() (any, error) {
		return c.build(ctx, fp, chunks), nil
	})
	return result.(*core.Vocabulary)
}

func (c *Cache) build(ctx context.Context, fp string, chunks []*core.Chunk) *core.Vocabulary {
	if c.vocabs != nil {
		if v, err := c.vocabs.LoadVocabulary(ctx, fp); err != nil {
			c.logger.Warn("failed to load persisted vocabulary", "fingerprint", fp, "error", err)
		} else if v != nil {
			c.logger.Debug("loaded persisted vocabulary", "fingerprint", fp)
			c.store(fp, v)
			return v
		}
	}

	v := Extract(chunks)
	c.logger.Info("built vocabulary",
		"chunks", len(chunks),
		"types", len(v.Types),
		"inputs", len(v.Inputs),
		"fields", len(v.Fields))

	if c.vocabs != nil {
		if err := c.vocabs.SaveVocabulary(ctx, fp, v); err != nil {
			// Persistence is best effort, the in-memory copy still serves.
			c.logger.Warn("failed to persist vocabulary", "fingerprint", fp, "error", err)
		}
	}
	c.store(fp, v)
	return v
}

func (c *Cache) store(fp string, v *core.Vocabulary) {
	c.mu.Lock()
	c.fingerprint = fp
	c.current = v
	c.mu.Unlock()
}

// Fingerprint returns the fingerprint of the most recently served
// vocabulary, or empty when nothing has been built yet.
func (c *Cache) Fingerprint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fingerprint
}

// Invalidate drops the in-memory vocabulary, forcing the next GetOrBuild to
// re-check the corpus fingerprint against persisted state.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.fingerprint = ""
	c.current = nil
	c.mu.Unlock()
}
