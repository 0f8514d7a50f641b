// Copyright 2025 Poiesic Systems
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
	"io/fs"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/retrievit"
	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/ai/openai"
	"github.com/poiesic/retrievit/chunk"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/ingest"
	"github.com/poiesic/retrievit/reindex"
	"github.com/poiesic/retrievit/rerank"
	"github.com/poiesic/retrievit/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "retrievit",
		Usage: "Hybrid lexical and vector search over local documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "./retrievit_db",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "OpenAI-compatible API host URL",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
			&cli.StringFlag{
				Name:  "scoring-model",
				Usage: "Chat model name for relevance judging",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "index",
				Usage:     "Index files or directories into the database",
				ArgsUsage: "PATH [PATH...]",
				Action:    indexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "text",
						Usage: "Index literal text instead of files",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Source name for --text input",
					},
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Chunking strategy (recursive, paragraph, sentence, fixed_size, markdown, sliding_window)",
						Value: string(chunk.StrategyRecursive),
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Chunk size in runes",
						Value: 500,
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Chunk overlap in runes",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent ingestion workers for directory walks",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the indexed corpus",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   retrievit.DefaultTopK,
					},
					&cli.BoolFlag{
						Name:  "vector-only",
						Usage: "Skip the lexical leg and search by embedding only",
					},
					&cli.BoolFlag{
						Name:  "no-rerank",
						Usage: "Return fused candidates without reranking",
					},
					&cli.StringFlag{
						Name:  "rerank",
						Usage: "Reranking strategy (heuristic, judge)",
						Value: string(rerank.StrategyHeuristic),
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Minimum reranked score to keep",
						Value: retrievit.DefaultMinScore,
					},
					&cli.BoolFlag{
						Name:  "context",
						Usage: "Assemble results into a single context block",
					},
					&cli.IntFlag{
						Name:  "token-budget",
						Usage: "Token budget for --context (0 = unlimited)",
					},
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a document and its chunks",
				ArgsUsage: "SOURCE_OR_ID",
				Action:    removeCommand,
			},
			{
				Name:   "docs",
				Usage:  "List indexed documents",
				Action: docsCommand,
			},
			{
				Name:   "stats",
				Usage:  "Show corpus and index statistics",
				Action: statsCommand,
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed all chunks with a new embedding model",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "collection",
						Usage: "Vector collection to rebuild",
						Value: retrievit.DefaultCollection,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: reindex.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
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

// aiConfig builds the AI service configuration from the global flags,
// falling back to the package defaults for anything unset.
func aiConfig(c *cli.Context) *ai.Config {
	var opts []ai.ConfigOption
	if host := c.String("host"); host != "" {
		opts = append(opts, ai.WithHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		opts = append(opts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("scoring-model"); model != "" {
		opts = append(opts, ai.WithScoringModel(model))
	}
	return ai.NewConfig(opts...)
}

func openEngine(c *cli.Context, opts ...retrievit.Option) (*retrievit.Engine, error) {
	opts = append([]retrievit.Option{
		retrievit.WithAIConfig(aiConfig(c)),
	}, opts...)

	engine, err := retrievit.New(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, nil
}

func indexCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg := chunk.Config{
		Strategy:  chunk.Strategy(c.String("strategy")),
		ChunkSize: c.Int("chunk-size"),
		Overlap:   c.Int("overlap"),
	}

	engine, err := openEngine(c, retrievit.WithChunking(cfg))
	if err != nil {
		return err
	}
	defer engine.Close()

	if text := c.String("text"); text != "" {
		source := c.String("source")
		if source == "" {
			return fmt.Errorf("--source is required with --text")
		}
		doc, err := engine.IndexText(ctx, text, source, nil)
		if err != nil {
			return fmt.Errorf("failed to index text: %w", err)
		}
		fmt.Printf("Indexed %s (%d chunks)\n", doc.Source, doc.ChunkCount)
		return nil
	}

	if c.NArg() == 0 {
		return fmt.Errorf("at least one file or directory argument is required")
	}

	var files []string
	for _, arg := range c.Args().Slice() {
		info, err := os.Stat(arg)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return err
		}
	}

	var pipelineOpts []ingest.Option
	if workers := c.Int("workers"); workers > 0 {
		pipelineOpts = append(pipelineOpts, ingest.WithPoolSize(workers))
	}
	pipeline, err := ingest.NewPipeline(engine, pipelineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("error reading file", "path", path, "err", err)
			continue
		}
		if err := pipeline.Submit(path, string(data), nil); err != nil {
			return err
		}
	}
	pipeline.Wait()

	total, failed := pipeline.Processed()
	fmt.Printf("Indexed %d files (%d failed)\n", total-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d files failed to index", failed)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() == 0 {
		return fmt.Errorf("a query is required")
	}
	query := strings.Join(c.Args().Slice(), " ")

	engineOpts := []retrievit.Option{
		retrievit.WithRerankStrategy(rerank.Strategy(c.String("rerank"))),
		retrievit.WithMinScore(c.Float64("min-score")),
	}
	engine, err := openEngine(c, engineOpts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	var searchOpts []retrievit.SearchOption
	if c.Bool("vector-only") {
		searchOpts = append(searchOpts, retrievit.VectorOnly())
	}
	if c.Bool("no-rerank") {
		searchOpts = append(searchOpts, retrievit.WithoutRerank())
	}

	if c.Bool("context") {
		out, err := engine.BuildContext(ctx, query, c.Int("token-budget"), searchOpts...)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		fmt.Println(out)
		return nil
	}

	results, err := engine.Search(ctx, query, c.Int("top-k"), searchOpts...)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: [%0.3f] (lex %0.3f, vec %0.3f) %s\n",
			i+1, hit.FusedScore, hit.LexicalScore, hit.VectorScore, firstLine(hit.Content))
		for _, h := range hit.Highlights {
			fmt.Printf("   ...%s...\n", h)
		}
	}
	return nil
}

// firstLine keeps result listings one line per hit.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func removeCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document source or id argument is required")
	}
	arg := c.Args().First()

	engine, err := openEngine(c, retrievit.WithRerankDisabled())
	if err != nil {
		return err
	}
	defer engine.Close()

	// Accept either the document id or the original source name.
	removed, err := engine.RemoveDocument(ctx, arg)
	if err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	if removed == 0 {
		removed, err = engine.RemoveDocument(ctx, core.DocumentID(arg))
		if err != nil {
			return fmt.Errorf("failed to remove document: %w", err)
		}
	}

	if removed == 0 {
		fmt.Printf("No document found for %q\n", arg)
		return nil
	}
	fmt.Printf("Removed %d chunks\n", removed)
	return nil
}

func docsCommand(c *cli.Context) error {
	engine, err := openEngine(c, retrievit.WithRerankDisabled())
	if err != nil {
		return err
	}
	defer engine.Close()

	docs, err := engine.Documents(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	fmt.Printf("%d documents\n", len(docs))
	for _, doc := range docs {
		fmt.Printf("%s  %s  (%d chunks, %d bytes, indexed %s)\n",
			doc.Id, doc.Source, doc.ChunkCount, doc.ContentBytes,
			doc.IndexedAt.Format(time.RFC3339))
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	engine, err := openEngine(c, retrievit.WithRerankDisabled())
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := engine.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("failed to gather statistics: %w", err)
	}

	fmt.Printf("Database:  %s\n", stats.Path)
	fmt.Printf("Documents: %d\n", stats.Documents)
	fmt.Printf("Chunks:    %d\n", stats.Chunks)
	fmt.Printf("Terms:     %d\n", stats.Terms)
	fmt.Printf("Vectors:   %d\n", stats.Vectors)
	return nil
}

func reindexCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewChunkRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	config := aiConfig(c)
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(config)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	store := badger.NewVectorStore(backend, c.String("collection"))

	reindexConfig := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reindexConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reindexConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reindexConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reindexer := reindex.NewReindexer(repo, embedder, store, reindexConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", config.Host)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", config.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	if err := reindexer.Run(ctx); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}

	return nil
}
