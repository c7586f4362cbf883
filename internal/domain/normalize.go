package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// pollutantAliases maps lower-cased source spellings to canonical codes.
// Lookup misses pass through lower-cased: the vocabulary is open because new
// pollutant codes appear upstream without notice.
var pollutantAliases = map[string]string{
	"pm25":  "pm25",
	"pm2.5": "pm25",
	"mp2,5": "pm25",
	"pm10":  "pm10",
	"mp10":  "pm10",
	"o3":    "o3",
	"ozone": "o3",
	"no2":   "no2",
	"so2":   "so2",
	"co":    "co",
}

// CanonicalPollutant lower-cases a source pollutant name and maps it through
// the alias table, falling back to the lower-cased input when unrecognized.
func CanonicalPollutant(raw string) string {
	p := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := pollutantAliases[p]; ok {
		return canonical
	}
	return p
}

// RowError reports a raw record that was dropped during normalization.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Normalize maps a raw frame to canonical records, one at a time, preserving
// input order and keeping no cross-record state. Records whose timestamp
// cannot be parsed are dropped and reported; every other per-field failure
// nulls or defaults the field and the record continues (see the package doc
// for the policy). loc is the local zone naive timestamps are interpreted in.
func Normalize(raw Frame, loc *time.Location) ([]Record, []RowError) {
	records := make([]Record, 0, len(raw.Rows))
	var dropped []RowError
	for i, row := range raw.Rows {
		rec, err := normalizeRow(row, loc)
		if err != nil {
			dropped = append(dropped, RowError{Row: i, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

func normalizeRow(row map[string]string, loc *time.Location) (Record, error) {
	ts := row["datetime_utc"]
	if strings.TrimSpace(ts) == "" {
		ts = row["datetime_local"]
	}
	utcISO, localISO, err := NormalizeTimestamp(ts, loc)
	if err != nil {
		return Record{}, err
	}

	unit := row["unit"]
	if strings.TrimSpace(unit) == "" {
		unit = CanonicalUnit
	}

	return Record{
		DatetimeUTC:      utcISO,
		DatetimeLocal:    localISO,
		StationID:        row["station_id"],
		StationName:      row["station_name"],
		Latitude:         row["latitude"],
		Longitude:        row["longitude"],
		Pollutant:        CanonicalPollutant(row["pollutant"]),
		Value:            normalizeValue(row["value"], unit),
		Unit:             CanonicalUnit,
		AvgPeriodMinutes: parseAvgPeriod(row["avg_period_minutes"]),
		SourceURL:        row["source_url"],
		SourceAgency:     row["source_agency"],
		IngestedAtUTC:    defaultIngestedAt(row["ingested_at_utc"]),
		License:          row["license"],
		QualityFlag:      defaultString(row["quality_flag"], DefaultQualityFlag),
	}, nil
}

// normalizeValue coerces a raw value cell to a unit-converted float.
// Missing sentinels and coercion failures both yield null.
func normalizeValue(raw, unit string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	v = ConvertConcentration(v, unit)
	return &v
}

// parseAvgPeriod returns the averaging window in minutes, defaulting to 60
// when the cell is absent or not a positive integer.
func parseAvgPeriod(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return DefaultAvgPeriodMinutes
	}
	return n
}

func defaultIngestedAt(raw string) string {
	if strings.TrimSpace(raw) != "" {
		return raw
	}
	return clock.Now().UTC().Format(isoOffsetLayout)
}

func defaultString(raw, fallback string) string {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	return raw
}
