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


package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/lineembed/ai"
	"github.com/poiesic/lineembed/core"
)

// Config holds pipeline tuning.
type Config struct {
	// BatchSize is the number of texts sent per provider call.
	// Default: 8
	BatchSize int

	// MaxBuffered is how many resolved lines may wait behind a pending batch
	// before the partial batch is sent early.
	// Default: 4096
	MaxBuffered int

	// BatchTimeout bounds each provider call. Zero disables it.
	// Default: 60s
	BatchTimeout time.Duration
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:    8,
		MaxBuffered:  4096,
		BatchTimeout: 60 * time.Second,
	}
}

// Observer receives a snapshot after each batch and at the end of a run.
// It is called from the run's goroutine and should return quickly.
type Observer func(core.Snapshot)

// Pipeline turns JSONL input into JSONL output with embeddings added.
// A Pipeline is safe for concurrent use; each Run owns its own state.
type Pipeline struct {
	client    *Client
	config    Config
	observers []Observer
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithConfig replaces the pipeline configuration.
func WithConfig(cfg Config) Option {
	return func(p *Pipeline) error {
		if cfg.BatchSize < 1 {
			return ErrInvalidBatchSize
		}
		if cfg.MaxBuffered < 1 {
			cfg.MaxBuffered = DefaultConfig().MaxBuffered
		}
		p.config = cfg
		return nil
	}
}

// WithBatchSize sets the number of texts sent per provider call.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		p.config.BatchSize = size
		return nil
	}
}

// WithObserver adds an observer notified by every run of this pipeline.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) error {
		if o != nil {
			p.observers = append(p.observers, o)
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// New creates a pipeline that embeds through embedder.
func New(embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		config: DefaultConfig(),
		logger: slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.client = NewClient(embedder, p.config.BatchTimeout)
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Report summarizes a finished run.
type Report struct {
	RunID   string
	Final   core.Snapshot
	Elapsed time.Duration
}

// Run is a single pass over one input. It executes at most once.
type Run struct {
	id        string
	pipeline  *Pipeline
	src       io.Reader
	sink      Sink
	state     *State
	observers []Observer
	logger    *slog.Logger
	started   atomic.Bool
}

// NewRun prepares a run over src writing to sink. totalBytes is the input
// size used for progress; pass 0 when it is unknown.
func (p *Pipeline) NewRun(src io.Reader, totalBytes int64, sink Sink, observers ...Observer) *Run {
	id := uuid.NewString()
	return &Run{
		id:        id,
		pipeline:  p,
		src:       src,
		sink:      sink,
		state:     newState(id, totalBytes),
		observers: append(append([]Observer(nil), p.observers...), observers...),
		logger:    p.logger.With("run_id", id),
	}
}

// Process creates and executes a run in one call.
func (p *Pipeline) Process(ctx context.Context, src io.Reader, totalBytes int64, sink Sink, observers ...Observer) (*Report, error) {
	return p.NewRun(src, totalBytes, sink, observers...).Execute(ctx)
}

// ID returns the run identifier.
func (r *Run) ID() string {
	return r.id
}

// Snapshot returns the current progress of the run.
func (r *Run) Snapshot() core.Snapshot {
	return r.state.Snapshot()
}

// Execute processes the whole input. On success the sink is committed and the
// run ends done; on any failure the sink is discarded and the error returned.
// Cancellation is honored between batches.
func (r *Run) Execute(ctx context.Context) (*Report, error) {
	if !r.started.CompareAndSwap(false, true) {
		return nil, ErrRunFinished
	}
	if r.sink == nil {
		return nil, ErrSinkRequired
	}

	start := time.Now()
	r.state.begin()
	r.publish()
	r.logger.Info("run started", "batch_size", r.pipeline.config.BatchSize)

	if err := r.process(ctx); err != nil {
		r.state.fail(err)
		if dErr := r.sink.Discard(); dErr != nil {
			r.logger.Warn("failed to discard output", "err", dErr)
		}
		r.publish()
		r.logger.Error("run failed", "err", err)
		return r.report(start), err
	}

	r.state.finish()
	r.publish()
	rep := r.report(start)
	r.logger.Info("run finished",
		"processed", rep.Final.Processed,
		"skipped", rep.Final.Skipped,
		"errors", rep.Final.Errors,
		"elapsed", rep.Elapsed)
	return rep, nil
}

func (r *Run) process(ctx context.Context) error {
	cfg := r.pipeline.config
	lines := NewLineSource(r.src)
	merger := NewMerger(r.sink)
	batcher := NewBatcher(cfg.BatchSize)

	position := 0
	for lines.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		item := Classify(position, lines.Line())
		position++

		switch item.Kind {
		case ParseError:
			r.logger.Debug("unparseable line carried through", "line", item.Position+1)
			r.state.addError()
			if err := merger.Resolve(item.Position, []byte(item.Line)); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		case PassThrough:
			r.state.addSkipped()
			if err := merger.Resolve(item.Position, []byte(item.Line)); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		case NeedsEmbedding:
			if batch, full := batcher.Add(item); full {
				r.state.setConsumed(lines.BytesConsumed())
				if err := r.dispatch(ctx, batch, merger); err != nil {
					return err
				}
			}
		}
		r.state.setConsumed(lines.BytesConsumed())

		if merger.Pending() > cfg.MaxBuffered {
			if batch, ok := batcher.Flush(); ok {
				if err := r.dispatch(ctx, batch, merger); err != nil {
					return err
				}
			}
		}
	}
	if err := lines.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	if batch, ok := batcher.Flush(); ok {
		if err := r.dispatch(ctx, batch, merger); err != nil {
			return err
		}
	}

	if merger.Pending() != 0 {
		return fmt.Errorf("%d lines left unwritten", merger.Pending())
	}
	if err := merger.Flush(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := r.sink.Commit(); err != nil {
		return fmt.Errorf("committing output: %w", err)
	}
	return nil
}

// dispatch sends one batch, resolves its lines and publishes progress.
func (r *Run) dispatch(ctx context.Context, batch Batch, merger *Merger) error {
	first := batch.Items[0].Position + 1
	vecs, err := r.pipeline.client.EmbedBatch(ctx, batch.Texts())
	if err != nil {
		return fmt.Errorf("batch starting at line %d: %w", first, err)
	}

	for i, item := range batch.Items {
		out, err := renderEmbedded(item, vecs[i])
		if err != nil {
			return err
		}
		if err := merger.Resolve(item.Position, out); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}

	r.state.addProcessed(batch.Len())
	r.publish()
	r.logger.Debug("batch embedded", "first_line", first, "size", batch.Len())

	return ctx.Err()
}

func (r *Run) publish() {
	snap := r.state.Snapshot()
	for _, o := range r.observers {
		o(snap)
	}
}

func (r *Run) report(start time.Time) *Report {
	return &Report{
		RunID:   r.id,
		Final:   r.state.Snapshot(),
		Elapsed: time.Since(start),
	}
}
