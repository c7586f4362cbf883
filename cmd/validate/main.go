// Command validate checks silver-layer CSV files against the canonical
// schema rules: pollutant plausibility ranges, timestamp ordering, the Brazil
// coordinate bounding box, and required-column completeness. It prints a
// per-file issue report and exits nonzero when any issue is found.
//
// Usage:
//
//	go run ./cmd/validate -dir data/silver
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

func main() {
	dir := flag.String("dir", "data/silver", "directory containing silver CSV files")
	flag.Parse()

	if code := run(*dir); code != 0 {
		os.Exit(code)
	}
}

func run(dir string) int {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: list %s: %v\n", dir, err)
		return 1
	}
	sort.Strings(files)
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "no CSV files under %s\n", dir)
		return 1
	}

	total := 0
	for _, file := range files {
		frame, err := csvfile.ReadFrame(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: read %s: %v\n", file, err)
			return 1
		}
		issues := domain.Validate(frame)
		if len(issues) == 0 {
			continue
		}
		total += len(issues)
		fmt.Printf("Validation issues in %s:\n", file)
		for _, issue := range issues {
			fmt.Printf(" - %s\n", issue)
		}
	}

	if total > 0 {
		fmt.Printf("\nValidation FAILED: %d issue(s) across %d file(s).\n", total, len(files))
		return 1
	}
	fmt.Println("All files passed validation")
	return 0
}
