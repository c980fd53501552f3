package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/lineembed/core"
	"github.com/poiesic/lineembed/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) storage.ReportRepository {
	t.Helper()
	repo, backend, err := NewMemoryReportRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func makeReport(path string, status core.RunStatus, started time.Time) *core.RunReport {
	r := core.NewRunReport("run-"+path, path, path+".out")
	r.Status = status
	r.StartedAt = started
	return r
}

func TestReportRepository_SaveAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	report := makeReport("a.jsonl", core.StatusDone, time.Now().UTC().Truncate(time.Second))
	report.Processed = 12
	require.NoError(t, repo.SaveReport(ctx, report))

	got, err := repo.GetReport(ctx, "a.jsonl")
	require.NoError(t, err)
	assert.Equal(t, report, got)
}

func TestReportRepository_GetMissing(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetReport(context.Background(), "missing.jsonl")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReportRepository_SaveValidates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.SaveReport(ctx, &core.RunReport{RunID: "x"})
	assert.ErrorIs(t, err, core.ErrInvalidRunReport)

	bad := makeReport("a.jsonl", core.StatusDone, time.Now())
	bad.Id = 7
	assert.ErrorIs(t, repo.SaveReport(ctx, bad), core.ErrInvalidRunReport)
}

func TestReportRepository_ReplaceMovesStatusIndex(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	report := makeReport("a.jsonl", core.StatusProcessing, now)
	require.NoError(t, repo.SaveReport(ctx, report))

	processing, err := repo.ListReportsByStatus(ctx, core.StatusProcessing)
	require.NoError(t, err)
	assert.Len(t, processing, 1)

	report.Status = core.StatusFailed
	report.Error = "boom"
	require.NoError(t, repo.SaveReport(ctx, report))

	processing, err = repo.ListReportsByStatus(ctx, core.StatusProcessing)
	require.NoError(t, err)
	assert.Empty(t, processing)

	failed, err := repo.ListReportsByStatus(ctx, core.StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "boom", failed[0].Error)

	all, err := repo.ListReports(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReportRepository_ListOrderedByStart(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveReport(ctx, makeReport("c.jsonl", core.StatusFailed, base.Add(2*time.Hour))))
	require.NoError(t, repo.SaveReport(ctx, makeReport("a.jsonl", core.StatusDone, base)))
	require.NoError(t, repo.SaveReport(ctx, makeReport("b.jsonl", core.StatusFailed, base.Add(time.Hour))))

	all, err := repo.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a.jsonl", "b.jsonl", "c.jsonl"},
		[]string{all[0].InputPath, all[1].InputPath, all[2].InputPath})

	failed, err := repo.ListReportsByStatus(ctx, core.StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.Equal(t, "b.jsonl", failed[0].InputPath)
	assert.Equal(t, "c.jsonl", failed[1].InputPath)

	_, err = repo.ListReportsByStatus(ctx, core.RunStatus(42))
	assert.ErrorIs(t, err, core.ErrInvalidRunStatus)
}

func TestReportRepository_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveReport(ctx, makeReport("a.jsonl", core.StatusFailed, time.Now())))
	require.NoError(t, repo.DeleteReport(ctx, "a.jsonl"))

	_, err := repo.GetReport(ctx, "a.jsonl")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	failed, err := repo.ListReportsByStatus(ctx, core.StatusFailed)
	require.NoError(t, err)
	assert.Empty(t, failed)

	assert.NoError(t, repo.DeleteReport(ctx, "never-saved.jsonl"))
}

func TestReportRepository_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	repo := NewReportRepository(backend)
	require.NoError(t, repo.SaveReport(ctx, makeReport("a.jsonl", core.StatusDone, time.Now().UTC())))
	require.NoError(t, repo.Close())
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	got, err := NewReportRepository(backend).GetReport(ctx, "a.jsonl")
	require.NoError(t, err)
	assert.Equal(t, core.StatusDone, got.Status)
}
