// Command genmock writes a deterministic synthetic bronze CSV for a date
// window, using the same generator the MonitorAr connector falls back to.
// Useful for seeding local runs and fixtures without network access.
//
// Usage:
//
//	go run ./cmd/genmock -since 2025-01-01 -until 2025-01-07 -out data/bronze
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/air-quality-etl/internal/source"
)

func main() {
	since := flag.String("since", "2025-01-01", "first day of the window (YYYY-MM-DD)")
	until := flag.String("until", "2025-01-07", "last day of the window (YYYY-MM-DD)")
	out := flag.String("out", "data/bronze", "output directory")
	name := flag.String("name", "monitorar", "bronze file base name")
	flag.Parse()

	if code := run(*since, *until, *out, *name); code != 0 {
		os.Exit(code)
	}
}

func run(since, until, out, name string) int {
	start, err := time.Parse("2006-01-02", since)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -since: %v\n", err)
		return 1
	}
	end, err := time.Parse("2006-01-02", until)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -until: %v\n", err)
		return 1
	}
	if end.Before(start) {
		fmt.Fprintln(os.Stderr, "-until must be on or after -since")
		return 1
	}

	frame := source.SyntheticObservations(start, end,
		"https://monitorar.mma.gov.br/painel", "MMA", "")

	path := filepath.Join(out, name+".csv")
	if err := csvfile.WriteFrame(path, frame); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
		return 1
	}

	fmt.Printf("Wrote %d rows to %s\n", len(frame.Rows), path)
	return 0
}
