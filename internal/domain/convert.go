package domain

import (
	"fmt"
	"strings"
	"time"
)

// isoOffsetLayout renders ISO-8601 with a numeric offset, so UTC prints as
// "+00:00" rather than "Z". Both silver timestamp columns use it.
const isoOffsetLayout = "2006-01-02T15:04:05-07:00"

// ParseError reports a timestamp that could not be interpreted as a
// date/time at all. It is local to one record, never batch-fatal.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse timestamp %q", e.Input)
}

// zonedLayouts carry an explicit offset; naiveLayouts do not and are
// interpreted in the configured local zone.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05Z07:00",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
)

// ConvertConcentration rescales a pollutant concentration to µg/m³ when the
// declared unit is a spelling of mg/m³ (matched case-insensitively). Any
// other unit, including an empty one, is treated as already canonical and the
// value passes through unchanged; unrecognized units are not an error.
func ConvertConcentration(value float64, unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "mg/m³", "mg/m3", "mg/m^3":
		return value * 1000
	}
	return value
}

// NormalizeTimestamp parses a raw timestamp string and returns the instant as
// (UTC ISO-8601, local ISO-8601) with explicit offsets. A naive input is
// assumed to already be expressed in loc; an offset-carrying input is
// converted into loc. The UTC value is derived from the local instant.
// Returns a *ParseError when the input cannot be interpreted at all.
func NormalizeTimestamp(raw string, loc *time.Location) (string, string, error) {
	local, err := ParseTimestamp(raw, loc)
	if err != nil {
		return "", "", err
	}
	local = local.In(loc)
	return local.UTC().Format(isoOffsetLayout), local.Format(isoOffsetLayout), nil
}

// ParseTimestamp interprets a timestamp string of unspecified format,
// attaching loc to naive inputs. The validator reuses it for ordering checks.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, &ParseError{Input: raw}
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ParseError{Input: raw}
}
