// Package export writes canonical batches into a year/month partitioned
// directory hierarchy, one CSV per calendar month.
package export

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// Result summarizes one export call.
type Result struct {
	Files int
	Rows  int
}

// WriteParts partitions records by the calendar year and month of
// datetime_local and writes each partition to
// rootDir/year=YYYY/month=MM/YYYY-MM.csv, preserving record order within a
// partition. An empty batch writes nothing. Records whose datetime_local
// cannot be parsed are counted as skipped via the error return of the whole
// call, since normalization guarantees parseable local timestamps.
func WriteParts(rootDir string, records []domain.Record) (Result, error) {
	if len(records) == 0 {
		return Result{}, nil
	}

	type partition struct {
		year  int
		month time.Month
	}
	parts := make(map[partition][]domain.Record)
	var order []partition

	for _, rec := range records {
		t, err := time.Parse(time.RFC3339, rec.DatetimeLocal)
		if err != nil {
			return Result{}, fmt.Errorf("partition record: %w", err)
		}
		key := partition{year: t.Year(), month: t.Month()}
		if _, seen := parts[key]; !seen {
			order = append(order, key)
		}
		parts[key] = append(parts[key], rec)
	}

	res := Result{}
	for _, key := range order {
		dir := filepath.Join(rootDir,
			fmt.Sprintf("year=%04d", key.year),
			fmt.Sprintf("month=%02d", key.month))
		path := filepath.Join(dir, fmt.Sprintf("%04d-%02d.csv", key.year, key.month))
		if err := csvfile.WriteRecords(path, parts[key]); err != nil {
			return res, err
		}
		res.Files++
		res.Rows += len(parts[key])
	}
	return res, nil
}
