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

import "errors"

// Domain validation errors
var (
	// ErrInvalidRecord indicates a line is not a JSON object.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidRunStatus indicates an unknown RunStatus value or name.
	ErrInvalidRunStatus = errors.New("invalid run status")

	// ErrInvalidRunReport indicates a RunReport failed validation.
	ErrInvalidRunReport = errors.New("invalid run report")

	// ErrEmptyInputPath indicates the InputPath field is empty.
	ErrEmptyInputPath = errors.New("input path cannot be empty")

	// ErrEmptyRunID indicates the RunID field is empty.
	ErrEmptyRunID = errors.New("run id cannot be empty")

	// ErrNegativeCounter indicates a counter holds a negative value.
	ErrNegativeCounter = errors.New("counters cannot be negative")
)
