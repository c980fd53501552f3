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


package badger

import (
	"context"
	"errors"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lineembed/core"
	"github.com/poiesic/lineembed/storage"
)

// ReportRepository implements storage.ReportRepository for BadgerDB.
// Besides the report itself it maintains a status index so failed runs can
// be listed without a full scan.
type ReportRepository struct {
	backend *Backend
}

var _ storage.ReportRepository = (*ReportRepository)(nil)

func newReportRepository(backend *Backend) *ReportRepository {
	return &ReportRepository{backend: backend}
}

// NewReportRepository creates a new ReportRepository on an open backend.
// The backend is owned by the caller.
func NewReportRepository(backend *Backend) storage.ReportRepository {
	return newReportRepository(backend)
}

// SaveReport persists a report, replacing any previous report for the same input path.
func (r *ReportRepository) SaveReport(ctx context.Context, report *core.RunReport) error {
	if err := core.ValidateRunReport(report); err != nil {
		return err
	}
	value, err := storage.MarshalRunReport(report)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRunReportKey(report.Id)

		previous, err := getReport(tx, key)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if previous != nil && previous.Status != report.Status {
			if err := tx.Delete(makeRunReportStatusKey(previous.Status, report.Id)); err != nil {
				return err
			}
		}

		if err := tx.Set(key, value); err != nil {
			return err
		}
		if err := tx.Set(makeRunReportStatusKey(report.Status, report.Id), storage.MarshalID(report.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetReport retrieves the report for an input path.
func (r *ReportRepository) GetReport(ctx context.Context, inputPath string) (*core.RunReport, error) {
	var report *core.RunReport
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		report, err = getReport(tx, makeRunReportKey(core.IDFromContent(inputPath)))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ListReports returns all reports ordered by start time.
func (r *ReportRepository) ListReports(ctx context.Context) ([]*core.RunReport, error) {
	var reports []*core.RunReport
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(runReportPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := iter.Item().Value(func(val []byte) error {
				report, err := storage.UnmarshalRunReport(val)
				if err != nil {
					return err
				}
				reports = append(reports, report)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sortByStart(reports)
	return reports, nil
}

// ListReportsByStatus returns the reports currently in status, ordered by start time.
func (r *ReportRepository) ListReportsByStatus(ctx context.Context, status core.RunStatus) ([]*core.RunReport, error) {
	if err := core.ValidateRunStatus(status); err != nil {
		return nil, err
	}

	var reports []*core.RunReport
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialRunReportStatusKey(status)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			report, err := getReport(tx, makeRunReportKey(id))
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					r.backend.logger.Warn("dangling status index entry", "id", id)
					continue
				}
				return err
			}
			reports = append(reports, report)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sortByStart(reports)
	return reports, nil
}

// DeleteReport removes the report and its index entry.
func (r *ReportRepository) DeleteReport(ctx context.Context, inputPath string) error {
	id := core.IDFromContent(inputPath)
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRunReportKey(id)
		report, err := getReport(tx, key)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.Delete(makeRunReportStatusKey(report.Status, id)); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close is a no-op; the backend is closed by its owner.
func (r *ReportRepository) Close() error {
	return nil
}

func getReport(tx *badger.Txn, key []byte) (*core.RunReport, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var report *core.RunReport
	err = item.Value(func(val []byte) error {
		var err error
		report, err = storage.UnmarshalRunReport(val)
		return err
	})
	return report, err
}

func sortByStart(reports []*core.RunReport) {
	slices.SortStableFunc(reports, func(a, b *core.RunReport) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
}
