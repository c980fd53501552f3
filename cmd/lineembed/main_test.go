package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/lineembed/core"
	"github.com/poiesic/lineembed/jobs"
	"github.com/poiesic/lineembed/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// testApp returns the application with output captured and exit codes
// reported as errors instead of terminating the test binary.
func testApp(t *testing.T) (*cli.App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app, &out
}

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

func TestEmbedCommandFlags(t *testing.T) {
	app, _ := testApp(t)
	cmd := findCommand(t, app, "embed")

	t.Run("provider flags have no defaults", func(t *testing.T) {
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && (f.Name == "provider" || f.Name == "endpoint" || f.Name == "model") {
				assert.Empty(t, f.Value, f.Name)
			}
		}
	})

	t.Run("api-key reads the environment", func(t *testing.T) {
		var keyFlag *cli.StringFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "api-key" {
				keyFlag = f
				break
			}
		}
		require.NotNil(t, keyFlag)
		assert.Equal(t, []string{"LINEEMBED_API_KEY"}, keyFlag.EnvVars)
	})

	t.Run("progress defaults to bar", func(t *testing.T) {
		var progressFlag *cli.StringFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "progress" {
				progressFlag = f
				break
			}
		}
		require.NotNil(t, progressFlag)
		assert.Equal(t, "bar", progressFlag.Value)
	})
}

func TestSetupLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "WARN", "error"} {
		assert.NoError(t, setupLogger(level), level)
	}
	err := setupLogger("verbose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jsonl", "b.jsonl", "a.embedded.jsonl", "sub/c.jsonl", "notes.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))
	}

	t.Run("doublestar glob skips outputs", func(t *testing.T) {
		got, err := expandPatterns([]string{filepath.Join(dir, "**", "*.jsonl")}, ".embedded")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			filepath.Join(dir, "a.jsonl"),
			filepath.Join(dir, "b.jsonl"),
			filepath.Join(dir, "sub", "c.jsonl"),
		}, got)
	})

	t.Run("duplicates are removed", func(t *testing.T) {
		a := filepath.Join(dir, "a.jsonl")
		got, err := expandPatterns([]string{a, filepath.Join(dir, "a.*")}, ".embedded")
		require.NoError(t, err)
		assert.Equal(t, []string{a}, got)
	})

	t.Run("literal paths are kept", func(t *testing.T) {
		missing := filepath.Join(dir, "missing.jsonl")
		got, err := expandPatterns([]string{missing}, ".embedded")
		require.NoError(t, err)
		assert.Equal(t, []string{missing}, got)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := expandPatterns([]string{filepath.Join(dir, "[")}, ".embedded")
		assert.Error(t, err)
	})
}

func TestSummarize(t *testing.T) {
	var out bytes.Buffer
	ok := jobs.Result{
		Job:    jobs.Job{InputPath: "a.jsonl", OutputPath: "a.embedded.jsonl"},
		Report: &pipeline.Report{Final: core.Snapshot{Processed: 3, Skipped: 1}, Elapsed: time.Second},
	}
	require.NoError(t, summarize(&out, []jobs.Result{ok}))
	assert.Contains(t, out.String(), "OK     a.jsonl -> a.embedded.jsonl (3 embedded, 1 skipped, 0 unparseable")

	out.Reset()
	failed := jobs.Result{Job: jobs.Job{InputPath: "b.jsonl"}, Err: assert.AnError}
	err := summarize(&out, []jobs.Result{ok, failed})
	require.Error(t, err)
	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitCode())
	assert.Contains(t, out.String(), "FAILED b.jsonl")
}

func TestEmbedAndStatus_Local(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "kb.jsonl")
	db := filepath.Join(dir, "ledger")
	cfgPath := filepath.Join(dir, "none.yaml")
	lines := []string{
		`{"id":1,"text":"alpha"}`,
		`NOT_JSON`,
		`{"id":2,"text":""}`,
		`{"id":3,"question":"why?","answer":"because"}`,
	}
	require.NoError(t, os.WriteFile(input, []byte(strings.Join(lines, "\n")+"\n"), 0644))

	app, out := testApp(t)
	err := app.Run([]string{"lineembed", "--config", cfgPath,
		"embed", "--provider", "local", "--local-model", "feature-hash:8",
		"--progress", "none", "--db", db, filepath.Join(dir, "*.jsonl")})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "2 embedded, 1 skipped, 1 unparseable")

	data, err := os.ReadFile(filepath.Join(dir, "kb.embedded.jsonl"))
	require.NoError(t, err)
	got := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, got, 4)
	assert.Equal(t, lines[1], got[1])
	assert.Equal(t, lines[2], got[2])
	assert.Contains(t, got[0], `"embedding":[`)

	app, out = testApp(t)
	err = app.Run([]string{"lineembed", "--config", cfgPath, "status", "--db", db})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "done")
	assert.Contains(t, out.String(), input)
}

func TestEmbed_MissingInputFails(t *testing.T) {
	dir := t.TempDir()

	app, out := testApp(t)
	err := app.Run([]string{"lineembed", "--config", filepath.Join(dir, "none.yaml"),
		"embed", "--provider", "local", "--progress", "text", filepath.Join(dir, "missing.jsonl")})
	require.Error(t, err)
	assert.Contains(t, out.String(), "FAILED")
}

func TestRetry_RequiresDB(t *testing.T) {
	dir := t.TempDir()

	app, _ := testApp(t)
	err := app.Run([]string{"lineembed", "--config", filepath.Join(dir, "none.yaml"), "retry", "--provider", "local"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database path is required")
}
