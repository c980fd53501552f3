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


package lineembed

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/poiesic/lineembed/ai"
	"github.com/poiesic/lineembed/ai/local"
	"github.com/poiesic/lineembed/ai/openai"
	"github.com/poiesic/lineembed/ai/remote"
	"github.com/poiesic/lineembed/config"
	"github.com/poiesic/lineembed/jobs"
	"github.com/poiesic/lineembed/pipeline"
	"github.com/poiesic/lineembed/storage"
	"github.com/poiesic/lineembed/storage/badger"
)

// NewEmbedder creates the embedder selected by cfg.Provider. When
// cfg.MaxRetries is above 1 the provider is wrapped in a retrying embedder.
func NewEmbedder(cfg *ai.Config) (ai.Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		embedder ai.Embedder
		err      error
	)
	switch cfg.Provider {
	case ai.ProviderRemote:
		embedder, err = remote.NewEmbedder(cfg)
	case ai.ProviderOpenAI:
		embedder, err = openai.NewEmbedder(cfg)
	case ai.ProviderLocal:
		embedder, err = local.NewEmbedder(cfg)
	default:
		err = fmt.Errorf("%w: %q", ai.ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.MaxRetries > 1 {
		retrying, err := ai.NewRetryingEmbedder(embedder, cfg.MaxRetries, cfg.RetryDelay)
		if err != nil {
			return nil, err
		}
		return retrying, nil
	}
	return embedder, nil
}

// OutputPath returns where the output for input is written:
// "<dir>/<name><suffix>.jsonl".
func OutputPath(input, suffix string) string {
	ext := filepath.Ext(input)
	name := strings.TrimSuffix(input, ext)
	return name + suffix + ".jsonl"
}

// Engine wires an embedder, a pipeline and a job runner together, with an
// optional report ledger.
type Engine struct {
	backend  *badger.Backend
	reports  storage.ReportRepository
	embedder ai.Embedder
	pipeline *pipeline.Pipeline
	runner   *jobs.Runner
	local    bool
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	embedder  ai.Embedder
	observers []jobs.Observer
	inMemory  bool
}

// WithEmbedder replaces the configured provider.
func WithEmbedder(e ai.Embedder) EngineOption {
	return func(o *engineOptions) {
		o.embedder = e
	}
}

// WithObserver receives the snapshots of every run.
func WithObserver(obs jobs.Observer) EngineOption {
	return func(o *engineOptions) {
		o.observers = append(o.observers, obs)
	}
}

// WithInMemoryReports keeps the report ledger in memory instead of cfg.Run.DB.
func WithInMemoryReports() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// NewEngine creates an Engine from cfg.
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}

	e := &Engine{logger: slog.Default().With("component", "engine")}

	e.embedder = options.embedder
	if e.embedder == nil {
		aiCfg, err := cfg.AIConfig()
		if err != nil {
			return nil, err
		}
		embedder, err := NewEmbedder(aiCfg)
		if err != nil {
			return nil, err
		}
		e.embedder = embedder
		e.local = aiCfg.Provider == ai.ProviderLocal
	}

	p, err := pipeline.New(e.embedder, pipeline.WithConfig(cfg.PipelineConfig()))
	if err != nil {
		return nil, err
	}
	e.pipeline = p

	if options.inMemory || cfg.Run.DB != "" {
		backend, err := badger.OpenBackend(cfg.Run.DB, options.inMemory)
		if err != nil {
			return nil, fmt.Errorf("opening report ledger: %w", err)
		}
		e.backend = backend
		e.reports = badger.NewReportRepository(backend)
	}

	runnerOpts := []jobs.Option{jobs.WithPoolSize(cfg.Run.Concurrency)}
	if e.reports != nil {
		runnerOpts = append(runnerOpts, jobs.WithReportRepository(e.reports))
	}
	for _, obs := range options.observers {
		runnerOpts = append(runnerOpts, jobs.WithObserver(obs))
	}
	runner, err := jobs.NewRunner(p, runnerOpts...)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.runner = runner

	return e, nil
}

// Close releases the runner, the report ledger and any loaded local models.
func (e *Engine) Close() error {
	if e.runner != nil {
		e.runner.Release()
	}
	if e.local {
		local.ReleaseAll()
	}

	if e.reports != nil {
		if err := e.reports.Close(); err != nil {
			e.logger.Error("error closing report repository", "err", err)
			return err
		}
	}
	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			return err
		}
	}
	return nil
}

// Jobs builds one job per input path using suffix for the output names.
func (e *Engine) Jobs(inputs []string, suffix string) []jobs.Job {
	out := make([]jobs.Job, len(inputs))
	for i, in := range inputs {
		out[i] = jobs.Job{InputPath: in, OutputPath: OutputPath(in, suffix)}
	}
	return out
}

// Run processes the given jobs.
func (e *Engine) Run(ctx context.Context, js []jobs.Job) []jobs.Result {
	return e.runner.Run(ctx, js)
}

// Retry re-runs every file whose last recorded run failed.
func (e *Engine) Retry(ctx context.Context) ([]jobs.Result, error) {
	return e.runner.Retry(ctx)
}

// Pipeline returns the engine's pipeline.
func (e *Engine) Pipeline() *pipeline.Pipeline {
	return e.pipeline
}

// Reports returns the report ledger, or nil when none is configured.
func (e *Engine) Reports() storage.ReportRepository {
	return e.reports
}
