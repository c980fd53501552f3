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


package core

import (
	"fmt"
)

// ValidateRunReport validates a RunReport before it is persisted.
//
// Validation rules:
//   - InputPath and RunID must not be empty
//   - Status must be a known value
//   - Counters must not be negative
//   - Id must match IDFromContent(InputPath)
func ValidateRunReport(report *RunReport) error {
	if report == nil {
		return fmt.Errorf("%w: report is nil", ErrInvalidRunReport)
	}

	if report.InputPath == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRunReport, ErrEmptyInputPath)
	}

	if report.RunID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRunReport, ErrEmptyRunID)
	}

	if err := ValidateRunStatus(report.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRunReport, err)
	}

	if report.Processed < 0 || report.Skipped < 0 || report.Errors < 0 ||
		report.TotalBytes < 0 || report.ConsumedBytes < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRunReport, ErrNegativeCounter)
	}

	if report.Id != IDFromContent(report.InputPath) {
		return fmt.Errorf("%w: id does not match input path", ErrInvalidRunReport)
	}

	return nil
}

// ValidateRunStatus validates that a RunStatus has a known value.
func ValidateRunStatus(status RunStatus) error {
	if status < StatusPending || status > StatusFailed {
		return fmt.Errorf("%w: value %d", ErrInvalidRunStatus, int(status))
	}
	return nil
}
