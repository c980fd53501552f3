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

import "errors"

var (
	// ErrEmbedderRequired is returned when a pipeline is created without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrSinkRequired is returned when a run is started without an output sink.
	ErrSinkRequired = errors.New("output sink required")

	// ErrRunFinished is returned when Execute is called on a run that already executed.
	ErrRunFinished = errors.New("run already executed")

	// ErrInvalidBatchSize is returned when the configured batch size is < 1.
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")

	// ErrSinkClosed is returned when writing to a sink after Commit or Discard.
	ErrSinkClosed = errors.New("sink already committed or discarded")
)
