package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/lexcite/ai"
	"github.com/poiesic/lexcite/indexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func findFlag[F cli.Flag](flags []cli.Flag, name string) F {
	var zero F
	for _, f := range flags {
		if typed, ok := f.(F); ok && f.Names()[0] == name {
			return typed
		}
	}
	return zero
}

// contextWith builds a cli.Context holding the app's global flags set to args.
func contextWith(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	app := newApp()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range app.Flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(app, set, nil)
}

func runApp(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	app := newApp()
	var stdout, stderr bytes.Buffer
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"lexcite", "--no-color"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestCommandFlags(t *testing.T) {
	app := newApp()

	t.Run("index requires a corpus", func(t *testing.T) {
		cmd := findCommand(t, app, "index")
		corpusFlag := findFlag[*cli.StringFlag](cmd.Flags, "corpus")
		require.NotNil(t, corpusFlag)
		assert.True(t, corpusFlag.Required)
		assert.Equal(t, []string{"LEXCITE_CORPUS"}, corpusFlag.EnvVars)

		batchFlag := findFlag[*cli.IntFlag](cmd.Flags, "batch-size")
		require.NotNil(t, batchFlag)
		assert.Equal(t, indexer.DefaultBatchSize, batchFlag.Value)
	})

	t.Run("global flags read LEXCITE_ variables", func(t *testing.T) {
		dbFlag := findFlag[*cli.StringFlag](app.Flags, "db")
		require.NotNil(t, dbFlag)
		assert.Equal(t, []string{"LEXCITE_DB"}, dbFlag.EnvVars)

		dsnFlag := findFlag[*cli.StringFlag](app.Flags, "pg-dsn")
		require.NotNil(t, dsnFlag)
		assert.Empty(t, dsnFlag.Value)
	})
}

func TestIndexCommand_MissingCorpus(t *testing.T) {
	_, _, err := runApp(t, "", "--db", t.TempDir(), "index")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corpus")
}

func TestRetrieveCommand_RequiresQuery(t *testing.T) {
	_, _, err := runApp(t, "", "--db", t.TempDir(), "retrieve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query is required")
}

func TestAttributeCommand(t *testing.T) {
	answer := "Input tax credit under section 16 needs receipt of goods."

	t.Run("answer without party pairs is printed unchanged", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "answer.txt")
		require.NoError(t, os.WriteFile(path, []byte(answer), 0o644))

		stdout, stderr, err := runApp(t, "", "--db", t.TempDir(), "--regex-only", "attribute", path)
		require.NoError(t, err)
		assert.Equal(t, answer+"\n", stdout)
		assert.Contains(t, stderr, "no_pairs")
	})

	t.Run("reads stdin", func(t *testing.T) {
		stdout, _, err := runApp(t, answer, "--db", t.TempDir(), "--regex-only", "attribute")
		require.NoError(t, err)
		assert.Equal(t, answer+"\n", stdout)
	})

	t.Run("empty answer", func(t *testing.T) {
		_, _, err := runApp(t, "  \n", "--db", t.TempDir(), "attribute")
		assert.ErrorContains(t, err, "answer is empty")
	})
}

func TestAIConfigFromFlags(t *testing.T) {
	t.Run("hosts default to --host", func(t *testing.T) {
		c := contextWith(t, "--host", "http://llm.internal:8000", "--api-token", "secret")
		cfg, err := aiConfigFromFlags(c)
		require.NoError(t, err)
		assert.Equal(t, "http://llm.internal:8000/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://llm.internal:8000/v1", cfg.GenerationHost)
		assert.Equal(t, "secret", cfg.APIToken)
		assert.Equal(t, 120*time.Second, cfg.RequestTimeout)
	})

	t.Run("separate hosts and local embeddings", func(t *testing.T) {
		c := contextWith(t,
			"--embedding-host", "http://embed:11434",
			"--generation-host", "http://gen:11434/v1",
			"--local-embeddings", "/models")
		cfg, err := aiConfigFromFlags(c)
		require.NoError(t, err)
		assert.Equal(t, "http://embed:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://gen:11434/v1", cfg.GenerationHost)
		assert.Equal(t, ai.EmbeddingBackendLocal, cfg.EmbeddingBackend)
		assert.Equal(t, "/models", cfg.LocalModelDir)
	})

	t.Run("missing generation model", func(t *testing.T) {
		c := contextWith(t, "--generation-model", "")
		_, err := aiConfigFromFlags(c)
		assert.ErrorContains(t, err, "GenerationModel")
	})
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short text", preview("short\n  text", 20))
	assert.Equal(t, "abcde...", preview("abcdefgh", 5))
	assert.Equal(t, "धारा...", preview("धारा सोलह", 4))
}

func TestSetupLogger(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "error"} {
		c := contextWith(t, "--log-level", level)
		assert.NoError(t, setupLogger(c), level)
	}

	c := contextWith(t, "--log-level", "verbose")
	assert.ErrorContains(t, setupLogger(c), "invalid log level")
}
