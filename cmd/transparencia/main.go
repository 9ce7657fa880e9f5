// Copyright 2025 Civicdata Labs
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

	"github.com/civicdata/transparencia/ai"
	"github.com/civicdata/transparencia/ai/openai"
	"github.com/civicdata/transparencia/config"
	"github.com/civicdata/transparencia/ingestion"
	"github.com/civicdata/transparencia/search"
	"github.com/civicdata/transparencia/storage/postgres"
)

func main() {
	app := &cli.App{
		Name:  "transparencia",
		Usage: "Load institutional transparency exports into Postgres and query them",
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
				Name:   "load",
				Usage:  "Drop, recreate and reload every table from the CSV exports",
				Action: loadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data-dir",
						Aliases: []string{"d"},
						Usage:   "Directory containing the source CSV files",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (empty disables embedding)",
					},
					&cli.BoolFlag{
						Name:  "no-embeddings",
						Usage: "Load without computing tender embeddings",
					},
				},
			},
			{
				Name:   "query",
				Usage:  "Find tenders semantically similar to a text",
				Action: queryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "q",
						Usage:    "Query text",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "k",
						Aliases: []string{"top"},
						Usage:   "Number of results (defaults to TOP_K)",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	dataDir := cfg.DataDir
	if c.String("data-dir") != "" {
		dataDir = c.String("data-dir")
	}

	store, err := postgres.Open(ctx, cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	var opts []ingestion.Option
	if !c.Bool("no-embeddings") {
		embedder, err := newEmbedder(c, cfg)
		if err != nil {
			return err
		}
		opts = append(opts, ingestion.WithEmbedder(embedder))
	}

	pipeline, err := ingestion.NewPipeline(store, opts...)
	if err != nil {
		return err
	}

	report, err := pipeline.Run(ctx, dataDir, cfg.Institution())
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	printReport(report)
	return nil
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	limit := cfg.TopK
	if c.Int("k") > 0 {
		limit = c.Int("k")
	}

	store, err := postgres.Open(ctx, cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	embedder, err := newEmbedder(c, cfg)
	if err != nil {
		return err
	}

	searcher, err := search.NewSearcher(store, embedder)
	if err != nil {
		return err
	}

	matches, err := searcher.Search(ctx, c.String("q"), limit)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(matches) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for i, m := range matches {
		fmt.Printf("%d. [%d] distance=%.6f\n", i+1, m.Identifier, m.Distance)
		fmt.Printf("   %s\n", m.Description)
		if m.Link != "" {
			fmt.Printf("   %s\n", m.Link)
		}
	}
	return nil
}

// newEmbedder builds the OpenAI-compatible embedder from flags, with
// environment configuration as the fallback.
func newEmbedder(c *cli.Context, cfg *config.Config) (ai.Embedder, error) {
	host := cfg.EmbeddingHost
	if c.String("embedding-host") != "" {
		host = c.String("embedding-host")
	}
	model := cfg.EmbeddingModel
	if c.String("embedding-model") != "" {
		model = c.String("embedding-model")
	}

	aiConfig := ai.NewConfig(ai.WithHost(host), ai.WithModel(model))
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

func printReport(report *ingestion.Report) {
	fmt.Printf("expenditure lines: %d\n", report.Expenditures.Kept)
	fmt.Printf("revenue lines:     %d\n", report.Revenues.Kept)
	fmt.Printf("grant calls:       %d\n", report.GrantCalls.Kept)
	fmt.Printf("grant awards:      %d (skipped: %d empty ref, %d missing ref)\n",
		report.GrantAwards.Kept,
		report.GrantAwards.SkippedEmptyRef,
		report.GrantAwards.SkippedMissingRef)
	fmt.Printf("tenders:           %d (skipped: %d other body, %d duplicate, %d bad id)\n",
		report.Tenders.Kept,
		report.Tenders.SkippedForeignBody,
		report.Tenders.SkippedDuplicate,
		report.Tenders.SkippedBadID)
	if report.Embedded > 0 {
		fmt.Printf("embedded tenders:  %d (dimension %d)\n", report.Embedded, report.EmbeddingDim)
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
