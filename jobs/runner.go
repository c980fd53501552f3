package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lineembed/core"
	"github.com/poiesic/lineembed/pipeline"
	"github.com/poiesic/lineembed/storage"
)

// Job names one input file and where its output goes.
type Job struct {
	InputPath  string
	OutputPath string
}

// Result is the outcome of one job.
type Result struct {
	Job    Job
	RunID  string
	Report *pipeline.Report // nil if the run never started
	Err    error
}

// Observer receives the snapshots of every run together with its job.
// It may be called from several goroutines at once.
type Observer func(job Job, s core.Snapshot)

// Runner executes jobs on a worker pool.
type Runner struct {
	pipeline  *pipeline.Pipeline
	pool      *ants.Pool
	reports   storage.ReportRepository
	observers []Observer
	logger    *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner) error

// WithPoolSize sets how many files are processed at once.
// Default is 1.
func WithPoolSize(size int) Option {
	return func(r *Runner) error {
		if size < 1 {
			size = 1
		}
		if r.pool != nil {
			r.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// WithReportRepository records a report for every run.
func WithReportRepository(repo storage.ReportRepository) Option {
	return func(r *Runner) error {
		r.reports = repo
		return nil
	}
}

// WithObserver adds an observer for run snapshots.
func WithObserver(o Observer) Option {
	return func(r *Runner) error {
		if o != nil {
			r.observers = append(r.observers, o)
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRunner creates a runner for p.
func NewRunner(p *pipeline.Pipeline, opts ...Option) (*Runner, error) {
	if p == nil {
		return nil, ErrPipelineRequired
	}

	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		pipeline: p,
		pool:     pool,
		logger:   slog.Default().With("component", "runner"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			r.Release()
			return nil, err
		}
	}
	return r, nil
}

// Run executes all jobs and returns their results in job order.
// A failing job does not stop the others.
func (r *Runner) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			results[i] = r.RunOne(ctx, job)
		})
		if err != nil {
			wg.Done()
			results[i] = Result{Job: job, Err: fmt.Errorf("scheduling %s: %w", job.InputPath, err)}
		}
	}
	wg.Wait()
	return results
}

// RunOne executes a single job in the calling goroutine.
func (r *Runner) RunOne(ctx context.Context, job Job) Result {
	logger := r.logger.With("input", job.InputPath)

	if err := validate(job); err != nil {
		return Result{Job: job, Err: err}
	}

	in, err := os.Open(job.InputPath)
	if err != nil {
		res := Result{Job: job, RunID: uuid.NewString(), Err: fmt.Errorf("opening input: %w", err)}
		r.recordFailure(ctx, res)
		return res
	}
	defer in.Close()

	var size int64
	if info, err := in.Stat(); err == nil {
		size = info.Size()
	}

	sink, err := pipeline.NewFileSink(job.OutputPath)
	if err != nil {
		res := Result{Job: job, RunID: uuid.NewString(), Err: err}
		r.recordFailure(ctx, res)
		return res
	}

	rec := newRecorder(ctx, r.reports, job, logger)
	run := r.pipeline.NewRun(in, size, sink, func(s core.Snapshot) {
		rec.observe(s)
		for _, o := range r.observers {
			o(job, s)
		}
	})
	rec.start(run.ID(), size)

	rep, err := run.Execute(ctx)
	rec.finish(rep)
	if err != nil {
		return Result{Job: job, RunID: run.ID(), Report: rep, Err: err}
	}
	return Result{Job: job, RunID: run.ID(), Report: rep}
}

// Retry re-runs every file whose last recorded run failed. Each retry is a
// fresh run from the start of the file.
func (r *Runner) Retry(ctx context.Context) ([]Result, error) {
	if r.reports == nil {
		return nil, ErrReportRepositoryRequired
	}
	failed, err := r.reports.ListReportsByStatus(ctx, core.StatusFailed)
	if err != nil {
		return nil, err
	}

	jobs := make([]Job, len(failed))
	for i, rep := range failed {
		jobs[i] = Job{InputPath: rep.InputPath, OutputPath: rep.OutputPath}
	}
	r.logger.Info("retrying failed runs", "count", len(jobs))
	return r.Run(ctx, jobs), nil
}

// Release releases the worker pool. The runner should not be used after calling Release.
func (r *Runner) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}

func (r *Runner) recordFailure(ctx context.Context, res Result) {
	if r.reports == nil {
		return
	}
	now := time.Now().UTC()
	report := core.NewRunReport(res.RunID, res.Job.InputPath, res.Job.OutputPath)
	report.Status = core.StatusFailed
	report.Error = res.Err.Error()
	report.StartedAt = now
	report.FinishedAt = now
	if err := r.reports.SaveReport(ctx, report); err != nil {
		r.logger.Warn("failed to record run report", "input", res.Job.InputPath, "err", err)
	}
}

func validate(job Job) error {
	if job.InputPath == "" || job.OutputPath == "" {
		return ErrEmptyPath
	}
	in, err := filepath.Abs(job.InputPath)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(job.OutputPath)
	if err != nil {
		return err
	}
	if in == out {
		return fmt.Errorf("%w: %s", ErrSameInputOutput, job.InputPath)
	}
	return nil
}
