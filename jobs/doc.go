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


// Package jobs runs the embedding pipeline over many files.
//
// Each file is an independent run with its own state and output sink. Runs
// are scheduled on an ants worker pool; the default pool size of 1 processes
// files sequentially. When a storage.ReportRepository is configured, every
// run is recorded so failed files can be listed and retried later.
//
// # Usage
//
//	runner, err := jobs.NewRunner(p, jobs.WithPoolSize(4), jobs.WithReportRepository(repo))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer runner.Release()
//
//	results := runner.Run(ctx, []jobs.Job{{InputPath: "a.jsonl", OutputPath: "a.embedded.jsonl"}})
//	for _, res := range results {
//	    if res.Err != nil {
//	        log.Printf("%s: %v", res.Job.InputPath, res.Err)
//	    }
//	}
package jobs
