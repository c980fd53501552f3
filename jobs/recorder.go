package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/lineembed/core"
	"github.com/poiesic/lineembed/pipeline"
	"github.com/poiesic/lineembed/storage"
)

// recorder keeps the stored report of one run in step with its snapshots.
// Reports are written on status changes only, not after every batch.
type recorder struct {
	ctx    context.Context
	repo   storage.ReportRepository
	job    Job
	report *core.RunReport
	logger *slog.Logger
}

func newRecorder(ctx context.Context, repo storage.ReportRepository, job Job, logger *slog.Logger) *recorder {
	// Report writes must land even when the run itself was canceled.
	return &recorder{ctx: context.WithoutCancel(ctx), repo: repo, job: job, logger: logger}
}

func (r *recorder) start(runID string, totalBytes int64) {
	r.report = core.NewRunReport(runID, r.job.InputPath, r.job.OutputPath)
	r.report.TotalBytes = totalBytes
	r.report.StartedAt = time.Now().UTC()
	r.save()
}

func (r *recorder) observe(s core.Snapshot) {
	if r.report == nil {
		return
	}
	changed := r.report.Status != s.Status
	r.report.Apply(s)
	if changed && !s.Status.IsTerminal() {
		r.save()
	}
}

func (r *recorder) finish(rep *pipeline.Report) {
	if r.report == nil {
		return
	}
	if rep != nil {
		r.report.Apply(rep.Final)
	}
	r.report.FinishedAt = time.Now().UTC()
	r.save()
}

func (r *recorder) save() {
	if r.repo == nil {
		return
	}
	if err := r.repo.SaveReport(r.ctx, r.report); err != nil {
		r.logger.Warn("failed to record run report", "run_id", r.report.RunID, "err", err)
	}
}
