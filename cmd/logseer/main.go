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
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/poiesic/logseer"
	"github.com/poiesic/logseer/ingest"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "logseer",
		Usage: "Index operational logs and answer questions grounded in them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (default ~/.logseer/config.yaml)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Ingest new log files into the vector collection",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "logs-dir",
						Usage: "Directory holding *.json log files",
					},
					&cli.StringFlag{
						Name:  "collection",
						Usage: "Target vector collection name",
					},
					&cli.StringFlag{
						Name:  "tracker",
						Usage: "Path to the ingestion tracker file",
					},
					&cli.StringFlag{
						Name:  "qdrant-url",
						Usage: "Qdrant base URL",
					},
					&cli.StringFlag{
						Name:  "ai-host",
						Usage: "OpenAI-compatible API host",
					},
					&cli.IntFlag{
						Name:  "group-size",
						Usage: "Log records per document",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Maximum chunk length in characters",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Chunks per upsert batch",
					},
					&cli.IntFlag{
						Name:  "pacing",
						Usage: "Seconds to pause between batches",
						Value: -1,
					},
				},
			},
			{
				Name:   "query",
				Usage:  "Interactively query the indexed logs",
				Action: queryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "collection",
						Usage: "Vector collection name",
					},
					&cli.StringFlag{
						Name:  "qdrant-url",
						Usage: "Qdrant base URL",
					},
					&cli.StringFlag{
						Name:  "ai-host",
						Usage: "OpenAI-compatible API host",
					},
					&cli.IntFlag{
						Name:    "k",
						Aliases: []string{"n"},
						Usage:   "Number of nearest chunks to retrieve",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity score for grounding evidence",
						Value: -1,
					},
					&cli.BoolFlag{
						Name:  "fresh-session",
						Usage: "Discard stored conversation history before starting",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the config file and folds command flags over it.
func loadConfig(c *cli.Context) (*logseer.Config, error) {
	cfg, err := logseer.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	if v := c.String("logs-dir"); v != "" {
		cfg.Ingest.LogsDir = v
	}
	if v := c.String("collection"); v != "" {
		cfg.Qdrant.Collection = v
	}
	if v := c.String("tracker"); v != "" {
		cfg.Ingest.TrackerPath = v
	}
	if v := c.String("qdrant-url"); v != "" {
		cfg.Qdrant.URL = v
	}
	if v := c.String("ai-host"); v != "" {
		cfg.AI.Host = v
	}
	if v := c.Int("group-size"); v > 0 {
		cfg.Ingest.GroupSize = v
	}
	if v := c.Int("chunk-size"); v > 0 {
		cfg.Ingest.ChunkSize = v
	}
	if v := c.Int("batch-size"); v > 0 {
		cfg.Ingest.BatchSize = v
	}
	if v := c.Int("pacing"); v >= 0 {
		cfg.Ingest.PacingSeconds = v
	}
	if v := c.Int("k"); v > 0 {
		cfg.Query.K = v
	}
	if v := c.Float64("threshold"); v >= 0 {
		cfg.Query.Threshold = float32(v)
	}

	return cfg, nil
}

func ingestCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	engine, err := logseer.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Logs directory: %s\n", cfg.Ingest.LogsDir)
	fmt.Fprintf(os.Stderr, "Collection: %s\n", cfg.Qdrant.Collection)
	fmt.Fprintln(os.Stderr)

	progress := ingest.NewProgressTracker(os.Stderr, 0, 1)
	summary, err := engine.Ingest(ctx, ingest.WithProgress(progress))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Files: %d  Ingested: %d  Skipped: %d  Failed: %d  Warned: %d  Chunks: %d\n",
		summary.Files, summary.Ingested, summary.Skipped, summary.Failed, summary.Warned, summary.Chunks)

	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed; rerun to retry them", summary.Failed)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	engine, err := logseer.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Bool("fresh-session") {
		if err := engine.Sessions().Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear session history: %w", err)
		}
	}

	retriever, err := engine.NewRetriever()
	if err != nil {
		return err
	}
	if err := retriever.Preflight(ctx); err != nil {
		return err
	}

	return queryLoop(ctx, engine, cfg, os.Stdin, os.Stdout)
}

// queryLoop drives the interactive prompt until "exit" or EOF.
func queryLoop(ctx context.Context, engine *logseer.Engine, cfg *logseer.Config, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "Enter your query (or 'exit' to quit): ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.EqualFold(query, "exit") {
			return nil
		}

		fmt.Fprintf(out, "Enter the number of results to return (default is %d): ", cfg.Query.K)
		k := cfg.Query.K
		if scanner.Scan() {
			if n, err := strconv.Atoi(strings.TrimSpace(scanner.Text())); err == nil && n > 0 {
				k = n
			}
		}

		fmt.Fprintf(out, "Enter the score threshold (default is %.2f): ", cfg.Query.Threshold)
		threshold := cfg.Query.Threshold
		if scanner.Scan() {
			if v, err := strconv.ParseFloat(strings.TrimSpace(scanner.Text()), 32); err == nil && v >= 0 && v <= 1 {
				threshold = float32(v)
			}
		}

		answer, err := engine.Ask(ctx, query, k, threshold)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "Error: %v\n\n", err)
			continue
		}

		fmt.Fprintf(out, "\nAnswer: %s\n", answer.Text)
		for _, cite := range answer.Citations {
			fmt.Fprintf(out, "Source: %s (score %.2f)\n", cite.Chunk.Source, cite.Score)
		}
		fmt.Fprintln(out)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
