package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRunReport(t *testing.T) {
	valid := func() *RunReport {
		return NewRunReport("run-1", "/data/in.jsonl", "/data/in.embedded.jsonl")
	}

	tests := []struct {
		name    string
		mutate  func(r *RunReport)
		nilRep  bool
		wantErr error
	}{
		{
			name:   "valid report",
			mutate: func(r *RunReport) {},
		},
		{
			name:    "nil report",
			nilRep:  true,
			wantErr: ErrInvalidRunReport,
		},
		{
			name: "empty input path",
			mutate: func(r *RunReport) {
				r.InputPath = ""
			},
			wantErr: ErrEmptyInputPath,
		},
		{
			name: "empty run id",
			mutate: func(r *RunReport) {
				r.RunID = ""
			},
			wantErr: ErrEmptyRunID,
		},
		{
			name: "unknown status",
			mutate: func(r *RunReport) {
				r.Status = RunStatus(7)
			},
			wantErr: ErrInvalidRunStatus,
		},
		{
			name: "negative counter",
			mutate: func(r *RunReport) {
				r.Processed = -1
			},
			wantErr: ErrNegativeCounter,
		},
		{
			name: "id mismatch",
			mutate: func(r *RunReport) {
				r.Id = IDFromContent("somewhere else")
			},
			wantErr: ErrInvalidRunReport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var report *RunReport
			if !tt.nilRep {
				report = valid()
				tt.mutate(report)
			}

			err := ValidateRunReport(report)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidRunReport)
		})
	}
}

func TestValidateRunStatus(t *testing.T) {
	assert.NoError(t, ValidateRunStatus(StatusPending))
	assert.NoError(t, ValidateRunStatus(StatusFailed))
	assert.ErrorIs(t, ValidateRunStatus(RunStatus(-1)), ErrInvalidRunStatus)
	assert.ErrorIs(t, ValidateRunStatus(RunStatus(4)), ErrInvalidRunStatus)
}
