// Copyright 2026 Poiesic Systems
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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/lineembed/config"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "lineembed",
		Usage: "Add dense vector embeddings to JSONL knowledge records",
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
				Usage:   "Path to YAML config file",
				Value:   config.DefaultFile,
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "embed",
				Usage:     "Embed every record in the files matching PATTERN",
				ArgsUsage: "PATTERN...",
				Action:    embedCommand,
				Flags: append(embeddingFlags(),
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of files processed at once",
					},
					&cli.StringFlag{
						Name:  "suffix",
						Usage: "Suffix added to output file names",
					},
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB report ledger directory",
					},
					&cli.StringFlag{
						Name:  "progress",
						Usage: "Progress display (bar, text, none)",
						Value: "bar",
					},
				),
			},
			{
				Name:   "status",
				Usage:  "List recorded runs",
				Action: statusCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB report ledger directory",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only list runs with this status (pending, processing, done, error)",
					},
				},
			},
			{
				Name:   "retry",
				Usage:  "Re-run every file whose last run failed",
				Action: retryCommand,
				Flags: append(embeddingFlags(),
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of files processed at once",
					},
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB report ledger directory",
					},
					&cli.StringFlag{
						Name:  "progress",
						Usage: "Progress display (bar, text, none)",
						Value: "bar",
					},
				),
			},
		},
	}
}

func embeddingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "provider",
			Usage: "Embedding provider (remote, openai, local)",
		},
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "Embedding endpoint URL",
		},
		&cli.StringFlag{
			Name:    "model",
			Aliases: []string{"m"},
			Usage:   "Embedding model name",
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Bearer token sent to the provider",
			EnvVars: []string{"LINEEMBED_API_KEY"},
		},
		&cli.StringFlag{
			Name:  "local-model",
			Usage: "In-process model identifier, e.g. feature-hash:384",
		},
		&cli.IntFlag{
			Name:    "batch-size",
			Aliases: []string{"b"},
			Usage:   "Number of records sent per provider call",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Timeout for each provider call",
		},
		&cli.Float64Flag{
			Name:  "rps",
			Usage: "Maximum provider requests per second (0 = unlimited)",
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Attempts per batch before the run fails",
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
		},
	}
}

// setup loads the config file and installs the default logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	c.App.Metadata = map[string]any{configKey: cfg}

	levelStr := cfg.Logging.Level
	if c.IsSet("log-level") || levelStr == "" {
		levelStr = c.String("log-level")
	}
	return setupLogger(levelStr)
}

func setupLogger(levelStr string) error {
	levelStr = strings.ToLower(levelStr)

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

// loadConfig returns the loaded config with command flags applied on top.
func loadConfig(c *cli.Context) *config.Config {
	cfg, ok := c.App.Metadata[configKey].(*config.Config)
	if !ok {
		cfg = config.DefaultConfig()
	}

	setString := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	setInt := func(name string, dst *int) {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if c.IsSet(name) {
			*dst = c.Duration(name)
		}
	}

	setString("provider", &cfg.Embedding.Provider)
	setString("endpoint", &cfg.Embedding.Endpoint)
	setString("model", &cfg.Embedding.Model)
	setString("api-key", &cfg.Embedding.APIKey)
	setString("local-model", &cfg.Embedding.LocalModelID)
	setDuration("timeout", &cfg.Embedding.Timeout)
	setInt("max-retries", &cfg.Embedding.MaxRetries)
	setDuration("retry-delay", &cfg.Embedding.RetryDelay)
	if c.IsSet("rps") {
		cfg.Embedding.RequestsPerSecond = c.Float64("rps")
	}

	setInt("batch-size", &cfg.Pipeline.BatchSize)
	setDuration("timeout", &cfg.Pipeline.BatchTimeout)

	setInt("concurrency", &cfg.Run.Concurrency)
	setString("suffix", &cfg.Run.OutputSuffix)
	setString("db", &cfg.Run.DB)

	return cfg
}
