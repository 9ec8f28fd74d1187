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
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schemaseek/schemaseek/core"
)

// loadableExtensions are the file types treated as corpus content.
var loadableExtensions = map[string]bool{
	".graphql":  true,
	".graphqls": true,
	".gql":      true,
	".md":       true,
	".txt":      true,
}

// LoadDirectory walks root and returns one chunk per loadable file, ordered
// by id. The chunk id is the slash-separated path relative to root and the
// category is the first path segment (empty for top-level files). An
// unreadable file is logged and skipped, never aborting the batch.
func LoadDirectory(root string, logger *slog.Logger) ([]*core.Chunk, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var chunks []*core.Chunk
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				logger.Warn("skipping unreadable directory", "path", path, "error", err)
				return fs.SkipDir
			}
			logger.Warn("skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() || !loadableExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			logger.Warn("skipping unreadable chunk", "path", path, "error", readErr)
			return nil
		}
		if len(strings.TrimSpace(string(content))) == 0 {
			logger.Debug("skipping empty chunk", "path", path)
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			logger.Warn("skipping chunk outside root", "path", path, "error", relErr)
			return nil
		}
		id := filepath.ToSlash(rel)

		chunks = append(chunks, &core.Chunk{
			Id:       id,
			Content:  string(content),
			Category: categoryOf(id),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Id < chunks[j].Id })
	return chunks, nil
}

// categoryOf derives the chunk category from the leading path segment.
func categoryOf(id string) string {
	if i := strings.Index(id, "/"); i > 0 {
		return id[:i]
	}
	return ""
}
