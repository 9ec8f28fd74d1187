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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	schemaseek "github.com/schemaseek/schemaseek"
	"github.com/schemaseek/schemaseek/ai"
	"github.com/schemaseek/schemaseek/ingestion"
	"github.com/schemaseek/schemaseek/search"
)

func main() {
	app := &cli.App{
		Name:  "schemaseek",
		Usage: "Hybrid retrieval over GraphQL schema and documentation chunks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Load and embed a corpus directory into the index",
				Action: ingestCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "source",
						Aliases:  []string{"s"},
						Usage:    "Directory containing schema and documentation files",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed per request",
						Value: 16,
					},
				),
			},
			{
				Name:      "query",
				Usage:     "Run a retrieval query against the index",
				Action:    queryCommand,
				ArgsUsage: "<query text>",
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   5,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Minimum cosine similarity for semantic candidates",
						Value: -1,
					},
				),
			},
			{
				Name:   "stats",
				Usage:  "Show index status, corpus size and vocabulary shape",
				Action: statsCommand,
				Flags:  commonFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the index directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
	}
}

func openEngine(c *cli.Context) (*schemaseek.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	engine, err := schemaseek.NewEngine(c.String("db"), schemaseek.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func ingestCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline(
		ingestion.WithBatchSize(c.Int("batch-size")))
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	count, err := pipeline.IngestDirectory(context.Background(), c.String("source"))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	engine.InvalidateVocabulary()
	fmt.Printf("Ingested %d chunks from %s\n", count, c.String("source"))
	return nil
}

func queryCommand(c *cli.Context) error {
	queryText := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if queryText == "" {
		return fmt.Errorf("query text is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	var opts []search.RetrieveOption
	if min := c.Float64("min-similarity"); min >= 0 {
		opts = append(opts, search.WithMinSimilarity(min))
	}

	result, err := engine.Retrieve(context.Background(), queryText, c.Int("top-k"), opts...)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if len(result.Hits) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, hit := range result.Hits {
		fmt.Printf("%d. %s (score %.3f)\n", i+1, hit.ChunkID, hit.Score)
		for _, line := range previewLines(hit.Content, 3) {
			fmt.Printf("   %s\n", line)
		}
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := engine.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("failed to collect stats: %w", err)
	}

	fmt.Printf("Status:       %s\n", stats.Status)
	fmt.Printf("Total chunks: %d\n", stats.TotalChunks)
	fmt.Println("Vocabulary:")
	for _, name := range []string{"types", "inputs", "enums", "interfaces", "unions", "mutations", "queries", "fields", "clusters"} {
		fmt.Printf("  %-11s %d\n", name, stats.Vocabulary[name])
	}
	return nil
}

func previewLines(content string, max int) []string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, max)
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
		if len(out) == max {
			break
		}
	}
	return out
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}
