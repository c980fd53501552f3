package storage

import (
	"context"

	"github.com/poiesic/lineembed/core"
)

// ReportRepository stores the latest run report for each input file.
// Reports are keyed by core.IDFromContent(InputPath); saving a report for a
// path replaces the previous one.
type ReportRepository interface {
	// SaveReport validates and stores a report.
	SaveReport(ctx context.Context, report *core.RunReport) error

	// GetReport returns the report for an input path.
	// Returns ErrNotFound if no run was recorded for it.
	GetReport(ctx context.Context, inputPath string) (*core.RunReport, error)

	// ListReports returns every stored report ordered by start time.
	ListReports(ctx context.Context) ([]*core.RunReport, error)

	// ListReportsByStatus returns the reports whose last run ended in status,
	// ordered by start time.
	ListReportsByStatus(ctx context.Context, status core.RunStatus) ([]*core.RunReport, error)

	// DeleteReport removes the report for an input path. Deleting a missing
	// report is not an error.
	DeleteReport(ctx context.Context, inputPath string) error

	// Close releases resources held by the repository.
	Close() error
}
