// Package csvfile reads and writes tabular batches as plain-text CSV, the
// shared medium of the bronze and silver layers.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// ReadFrame loads a CSV file into a frame: the header becomes the column set
// and each data row a cell map keyed by header name. Short rows leave the
// trailing cells absent.
func ReadFrame(path string) (domain.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Frame{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return domain.Frame{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(all) == 0 {
		return domain.Frame{}, fmt.Errorf("read %s: empty file", path)
	}

	header := all[0]
	rows := make([]map[string]string, 0, len(all)-1)
	for _, row := range all[1:] {
		cells := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				cells[h] = row[j]
			}
		}
		rows = append(rows, cells)
	}
	return domain.Frame{Columns: header, Rows: rows}, nil
}

// WriteFrame serializes a frame to path, creating parent directories. Cells
// for columns missing from a row are written empty.
func WriteFrame(path string, frame domain.Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(frame.Columns); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	row := make([]string, len(frame.Columns))
	for _, cells := range frame.Rows {
		for i, col := range frame.Columns {
			row[i] = cells[col]
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// WriteRecords serializes a canonical record batch with the fixed column order.
func WriteRecords(path string, records []domain.Record) error {
	return WriteFrame(path, domain.FrameOf(records))
}
