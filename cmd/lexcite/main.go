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
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/poiesic/lexcite"
	"github.com/poiesic/lexcite/ai"
	"github.com/poiesic/lexcite/attribution"
	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/corpus"
	"github.com/poiesic/lexcite/indexer"
	"github.com/poiesic/lexcite/retrieval"
	"github.com/poiesic/lexcite/storage/pgstore"
	"github.com/urfave/cli/v2"
)

const previewRunes = 160

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: could not read .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "lexcite",
		Usage: "Hybrid retrieval and citation attribution over a legal corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LEXCITE_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:    "no-color",
				Usage:   "Disable coloured output",
				EnvVars: []string{"NO_COLOR"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "./lexcite.db",
				EnvVars: []string{"LEXCITE_DB"},
			},
			&cli.StringFlag{
				Name:    "host",
				Usage:   "OpenAI-compatible host for both embedding and generation",
				Value:   "http://localhost:11434/v1",
				EnvVars: []string{"LEXCITE_AI_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL (defaults to --host)",
				EnvVars: []string{"LEXCITE_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "generation-host",
				Usage:   "Generation service host URL (defaults to --host)",
				EnvVars: []string{"LEXCITE_GENERATION_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   "all-minilm",
				EnvVars: []string{"LEXCITE_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "generation-model",
				Usage:   "Generation model name",
				Value:   "qwen2.5:7b",
				EnvVars: []string{"LEXCITE_GENERATION_MODEL"},
			},
			&cli.StringFlag{
				Name:    "api-token",
				Usage:   "Bearer token for the AI services",
				EnvVars: []string{"LEXCITE_API_KEY", "OPENAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "local-embeddings",
				Usage:   "Embed in-process with the ONNX model stored in this directory",
				EnvVars: []string{"LEXCITE_LOCAL_EMBEDDINGS"},
			},
			&cli.DurationFlag{
				Name:    "request-timeout",
				Usage:   "Timeout for a single generation request",
				Value:   120 * time.Second,
				EnvVars: []string{"LEXCITE_REQUEST_TIMEOUT"},
			},
			&cli.StringFlag{
				Name:    "pg-dsn",
				Usage:   "Store vectors in PostgreSQL with pgvector instead of BadgerDB",
				EnvVars: []string{"LEXCITE_PG_DSN"},
			},
			&cli.IntFlag{
				Name:    "pg-dimension",
				Usage:   "Embedding dimension of the pgvector column",
				Value:   384,
				EnvVars: []string{"LEXCITE_PG_DIMENSION"},
			},
			&cli.BoolFlag{
				Name:    "regex-only",
				Usage:   "Extract queries and party pairs with patterns only, without the generator",
				EnvVars: []string{"LEXCITE_REGEX_ONLY"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Load a chunked corpus, store it and embed it",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "corpus",
						Aliases:  []string{"c"},
						Usage:    "Corpus file (JSON array or JSON Lines) or s3://bucket/key",
						Required: true,
						EnvVars:  []string{"LEXCITE_CORPUS"},
					},
					&cli.StringFlag{
						Name:    "region",
						Usage:   "AWS region for s3:// corpora",
						EnvVars: []string{"AWS_REGION"},
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks embedded per request",
						Value: indexer.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of batches embedded concurrently (0 uses half the CPUs)",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: indexer.DefaultReportInterval,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per batch",
						Value: indexer.DefaultMaxAttempts,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: indexer.DefaultRetryDelay,
					},
				},
			},
			{
				Name:      "retrieve",
				Usage:     "Print the ranked chunks for a query",
				ArgsUsage: "<query>",
				Action:    retrieveCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "k",
						Aliases: []string{"n"},
						Usage:   "Number of chunks to return",
						Value:   retrieval.DefaultTopK,
					},
					&cli.BoolFlag{
						Name:  "full",
						Usage: "Print full chunk text instead of a preview",
					},
				},
			},
			{
				Name:      "attribute",
				Usage:     "Correct the case citations in an answer and print the citation map",
				ArgsUsage: "[file]",
				Action:    attributeCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Deadline for the whole attribution",
						Value: attribution.DefaultTimeout,
					},
				},
			},
		},
	}
}

func indexCommand(c *cli.Context) error {
	opts := []indexer.Option{
		indexer.WithBatchSize(c.Int("batch-size")),
		indexer.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
		indexer.WithProgress(c.App.ErrWriter, c.Int("report-interval")),
	}
	if n := c.Int("pool-size"); n > 0 {
		opts = append(opts, indexer.WithPoolSize(n))
	}
	var sourceOpts []corpus.SourceOption
	if region := c.String("region"); region != "" {
		sourceOpts = append(sourceOpts, corpus.WithRegion(region))
	}

	engine, cleanup, err := openEngine(c)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", c.String("db"))
	fmt.Fprintf(c.App.ErrWriter, "Corpus: %s\n", c.String("corpus"))
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(c.App.ErrWriter)

	stats, err := engine.IndexLocation(c.Context, c.String("corpus"), sourceOpts, opts...)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(c.App.Writer, "%s %d chunks in %d batches (%d embedded, %d resumed) in %v\n",
		green("Indexed"), stats.Chunks, stats.Batches, stats.Embedded, stats.Resumed, stats.Elapsed.Round(time.Millisecond))
	return nil
}

func retrieveCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	engine, cleanup, err := openEngine(c)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := engine.RetrieveScored(c.Context, query, c.Int("k"))
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Fprintln(c.App.Writer, "No results.")
		return nil
	}

	id := color.New(color.FgCyan, color.Bold).SprintFunc()
	kind := color.New(color.FgYellow).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	for i, r := range results {
		label := string(r.Chunk.ChunkType)
		if cit := r.Chunk.Meta(core.MetaCitation); cit != "" {
			label += " " + cit
		}
		fmt.Fprintf(c.App.Writer, "%2d. %s %s %s\n", i+1, id(r.Chunk.ID), kind(label), faint(fmt.Sprintf("%.3f", r.Score)))
		text := r.Chunk.Text
		if !c.Bool("full") {
			text = preview(text, previewRunes)
		}
		fmt.Fprintf(c.App.Writer, "    %s\n", text)
	}
	return nil
}

func attributeCommand(c *cli.Context) error {
	answer, err := readAnswer(c)
	if err != nil {
		return err
	}
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("answer is empty")
	}

	engine, cleanup, err := openEngine(c, lexcite.WithAttributionOptions(attribution.WithTimeout(c.Duration("timeout"))))
	if err != nil {
		return err
	}
	defer cleanup()

	at := engine.Attribute(c.Context, answer)
	defer at.Close()
	for fragment := range at.Stream() {
		fmt.Fprint(c.App.Writer, fragment)
	}
	fmt.Fprintln(c.App.Writer)

	printCitations(c.App.ErrWriter, at)
	return nil
}

func printCitations(w io.Writer, at *attribution.Attribution) {
	outcome := at.Outcome()
	status := color.New(color.FgGreen).SprintFunc()
	if outcome.Status == attribution.StatusFallback || outcome.Drift {
		status = color.New(color.FgRed).SprintFunc()
	}
	fmt.Fprintf(w, "\nStatus: %s (%d pairs, %d citations, %v)\n",
		status(string(outcome.Status)), outcome.Pairs, outcome.Citations, outcome.Elapsed.Round(time.Millisecond))
	if outcome.Err != nil {
		fmt.Fprintf(w, "Reason: %v\n", outcome.Err)
	}

	pair := color.New(color.Bold).SprintFunc()
	for _, pc := range at.PairCitations() {
		fmt.Fprintf(w, "%s\n", pair(pc.Pair.String()))
		for _, cand := range pc.Candidates {
			fmt.Fprintf(w, "  - %s  %s v. %s  [%s, %.2f]\n",
				cand.Citation, cand.Petitioner, cand.Respondent, cand.ExternalID, cand.MatchScore)
		}
	}
}

func readAnswer(c *cli.Context) (string, error) {
	var r io.Reader = c.App.Reader
	if path := c.Args().First(); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to open answer: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return string(data), nil
}

// openEngine builds the engine from the global flags. The cleanup function
// closes everything it opened.
func openEngine(c *cli.Context, extra ...lexcite.EngineOption) (*lexcite.Engine, func(), error) {
	cfg, err := aiConfigFromFlags(c)
	if err != nil {
		return nil, nil, err
	}

	opts := []lexcite.EngineOption{lexcite.WithAIConfig(cfg)}
	if c.Bool("regex-only") {
		opts = append(opts, lexcite.WithRegexExtraction())
	}

	var pg *pgstore.Store
	if dsn := c.String("pg-dsn"); dsn != "" {
		pg, err = pgstore.Open(c.Context, dsn, c.Int("pg-dimension"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open vector database: %w", err)
		}
		opts = append(opts, lexcite.WithVectorStore(pg))
	}
	opts = append(opts, extra...)

	engine, err := lexcite.NewEngine(c.Context, c.String("db"), opts...)
	if err != nil {
		if pg != nil {
			pg.Close()
		}
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	cleanup := func() {
		if err := engine.Close(); err != nil {
			slog.Error("error closing engine", "err", err)
		}
		if pg != nil {
			if err := pg.Close(); err != nil {
				slog.Error("error closing vector database", "err", err)
			}
		}
	}
	return engine, cleanup, nil
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	host := c.String("host")
	embeddingHost := c.String("embedding-host")
	if embeddingHost == "" {
		embeddingHost = host
	}
	generationHost := c.String("generation-host")
	if generationHost == "" {
		generationHost = host
	}

	opts := []ai.ConfigOption{
		ai.WithEmbeddingHost(embeddingHost),
		ai.WithGenerationHost(generationHost),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGenerationModel(c.String("generation-model")),
		ai.WithAPIToken(c.String("api-token")),
		ai.WithRequestTimeout(c.Duration("request-timeout")),
	}
	if dir := c.String("local-embeddings"); dir != "" {
		opts = append(opts, ai.WithLocalEmbeddings(dir))
	}

	cfg := ai.NewConfig(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return cfg, nil
}

func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

func setupLogger(c *cli.Context) error {
	if c.Bool("no-color") {
		color.NoColor = true
	}

	// Get log level from flag and normalize to lowercase
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
