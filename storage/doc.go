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


// Package storage provides the storage abstraction for run reports.
//
// A run report is the ledger entry lineembed keeps for each input file: the
// status of its last run, the counters, and the error message if it failed.
// Reports never contain embeddings; the output file is the only place those
// are written.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces to keep consumers independent of the
// backend:
//
//	repo, err := badger.NewReportRepository(backend) // returns storage.ReportRepository
//
// Internal constructors may return concrete types.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	repo := badger.NewReportRepository(backend)
//	failed, err := repo.ListReportsByStatus(ctx, core.StatusFailed)
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryReportRepository()
//
// # Thread Safety
//
// All repository implementations must be safe for concurrent use.
package storage
