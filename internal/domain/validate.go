package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Rule identifies which validation check produced an issue.
type Rule string

const (
	// RuleRange covers pollutant plausibility intervals and value coercion.
	RuleRange Rule = "range"
	// RuleOrder covers batch-wide datetime_utc monotonicity.
	RuleOrder Rule = "order"
	// RuleBounds covers the Brazil coordinate bounding box.
	RuleBounds Rule = "bounds"
	// RuleSchema covers required-column completeness.
	RuleSchema Rule = "schema"
)

// Issue is one human-readable validation diagnostic. Row is the zero-based
// offending row index, or -1 for batch-level issues.
type Issue struct {
	Row    int
	Rule   Rule
	Detail string
}

func (i Issue) String() string {
	if i.Row >= 0 {
		return fmt.Sprintf("Row %d: %s", i.Row, i.Detail)
	}
	return i.Detail
}

// plausibleRanges are closed physical plausibility intervals in µg/m³ per
// canonical pollutant. They are sanity bounds, not regulatory limits.
var plausibleRanges = map[string][2]float64{
	"pm25": {0, 1000},
	"pm10": {0, 1000},
	"o3":   {0, 200},
	"no2":  {0, 400},
	"so2":  {0, 400},
	"co":   {0, 10000},
}

// brazilBounds approximates Brazil's territory: lat [-33, 5], lon [-74, -34].
var brazilBounds = struct{ latMin, latMax, lonMin, lonMax float64 }{-33, 5, -74, -34}

// Validate checks a canonical batch and returns the accumulated issues, in
// rule order: value/range per row, timestamp ordering for the whole batch,
// coordinate bounds per row, then schema completeness. It never mutates the
// frame and never short-circuits; an empty result means the batch is
// acceptable.
func Validate(f Frame) []Issue {
	var issues []Issue
	issues = append(issues, checkRanges(f)...)
	issues = append(issues, checkOrdering(f)...)
	issues = append(issues, checkBounds(f)...)
	issues = append(issues, checkSchema(f)...)
	return issues
}

// checkRanges verifies each present value against its pollutant's
// plausibility interval. A value that fails to coerce is reported once and
// supersedes the range check for that row. Null values are skipped.
func checkRanges(f Frame) []Issue {
	var issues []Issue
	for i, row := range f.Rows {
		raw := strings.TrimSpace(row["value"])
		if raw == "" || strings.EqualFold(raw, "nan") {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			issues = append(issues, Issue{
				Row:    i,
				Rule:   RuleRange,
				Detail: fmt.Sprintf("value '%s' is not a number", row["value"]),
			})
			continue
		}
		bounds, known := plausibleRanges[row["pollutant"]]
		if !known {
			continue
		}
		if v < bounds[0] || v > bounds[1] {
			issues = append(issues, Issue{
				Row:  i,
				Rule: RuleRange,
				Detail: fmt.Sprintf("%s concentration %s outside plausible range [%s, %s]",
					row["pollutant"], formatFloat(v), formatFloat(bounds[0]), formatFloat(bounds[1])),
			})
		}
	}
	return issues
}

// checkOrdering verifies datetime_utc is non-decreasing in the batch's given
// order (never re-sorted). One batch-level issue covers any violation; a
// missing column or an unparsable entry is one batch-level issue of its own.
func checkOrdering(f Frame) []Issue {
	if !f.HasColumn("datetime_utc") {
		return []Issue{{Row: -1, Rule: RuleOrder, Detail: "Invalid datetime_utc values"}}
	}
	var prev time.Time
	for i, row := range f.Rows {
		t, err := ParseTimestamp(row["datetime_utc"], time.UTC)
		if err != nil {
			return []Issue{{Row: -1, Rule: RuleOrder, Detail: "Invalid datetime_utc values"}}
		}
		if i > 0 && t.Before(prev) {
			return []Issue{{Row: -1, Rule: RuleOrder, Detail: "Timestamps are not strictly non-decreasing"}}
		}
		prev = t
	}
	return nil
}

// checkBounds verifies coordinate pairs against the Brazil bounding box.
// Rows with either coordinate absent are skipped; a pair with either value
// unparsable is its own issue.
func checkBounds(f Frame) []Issue {
	var issues []Issue
	for i, row := range f.Rows {
		latRaw := strings.TrimSpace(row["latitude"])
		lonRaw := strings.TrimSpace(row["longitude"])
		if latRaw == "" || lonRaw == "" {
			continue
		}
		lat, errLat := strconv.ParseFloat(latRaw, 64)
		lon, errLon := strconv.ParseFloat(lonRaw, 64)
		if errLat != nil || errLon != nil {
			issues = append(issues, Issue{
				Row:    i,
				Rule:   RuleBounds,
				Detail: fmt.Sprintf("invalid coordinate values (%s, %s)", row["latitude"], row["longitude"]),
			})
			continue
		}
		if lat < brazilBounds.latMin || lat > brazilBounds.latMax ||
			lon < brazilBounds.lonMin || lon > brazilBounds.lonMax {
			issues = append(issues, Issue{
				Row:    i,
				Rule:   RuleBounds,
				Detail: fmt.Sprintf("coordinates (%s, %s) outside Brazil bounds", latRaw, lonRaw),
			})
		}
	}
	return issues
}

// checkSchema reports all missing required columns together in one issue.
func checkSchema(f Frame) []Issue {
	var missing []string
	for _, col := range RequiredColumns {
		if !f.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return []Issue{{
		Row:    -1,
		Rule:   RuleSchema,
		Detail: "Missing required columns: " + strings.Join(missing, ", "),
	}}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
