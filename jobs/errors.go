package jobs

import "errors"

var (
	// ErrPipelineRequired is returned when a runner is created without a pipeline.
	ErrPipelineRequired = errors.New("pipeline required")

	// ErrReportRepositoryRequired is returned by Retry when no report repository is configured.
	ErrReportRepositoryRequired = errors.New("report repository required")

	// ErrSameInputOutput is returned when a job would overwrite its own input.
	ErrSameInputOutput = errors.New("output path must differ from input path")

	// ErrEmptyPath is returned when a job has no input or output path.
	ErrEmptyPath = errors.New("job paths cannot be empty")
)
