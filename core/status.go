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
	"strings"
)

// RunStatus is the lifecycle state of a single pipeline run.
type RunStatus int

const (
	// StatusPending is the state of a run that has not started.
	StatusPending RunStatus = iota
	// StatusProcessing is the state of a run that is consuming its input.
	StatusProcessing
	// StatusDone is the terminal state of a run that committed its output.
	StatusDone
	// StatusFailed is the terminal state of a run that hit an unrecovered error.
	StatusFailed
)

var statusNames = [...]string{
	StatusPending:    "pending",
	StatusProcessing: "processing",
	StatusDone:       "done",
	StatusFailed:     "error",
}

// String returns the wire name of the status.
func (s RunStatus) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("RunStatus(%d)", int(s))
	}
	return statusNames[s]
}

// IsTerminal reports whether the status can no longer change.
func (s RunStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// ParseRunStatus converts a wire name back into a RunStatus.
// "failed" is accepted as an alias for "error".
func ParseRunStatus(name string) (RunStatus, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "failed" {
		return StatusFailed, nil
	}
	for i, n := range statusNames {
		if n == name {
			return RunStatus(i), nil
		}
	}
	return StatusPending, fmt.Errorf("%w: %q", ErrInvalidRunStatus, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s RunStatus) MarshalText() ([]byte, error) {
	if err := ValidateRunStatus(s); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *RunStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseRunStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
