package domain

import (
	"strconv"
)

// CanonicalUnit is the concentration unit every normalized value is expressed in.
const CanonicalUnit = "µg/m³"

// DefaultAvgPeriodMinutes is the averaging window assumed when a source does
// not declare one.
const DefaultAvgPeriodMinutes = 60

// DefaultQualityFlag marks records with no upstream quality annotation.
const DefaultQualityFlag = "ok"

// Columns is the canonical silver column order. Serialized frames must list
// exactly these columns in exactly this order.
var Columns = []string{
	"datetime_utc",
	"datetime_local",
	"station_id",
	"station_name",
	"latitude",
	"longitude",
	"pollutant",
	"value",
	"unit",
	"avg_period_minutes",
	"source_url",
	"source_agency",
	"ingested_at_utc",
	"license",
	"quality_flag",
}

// RequiredColumns is the subset a batch must present to pass the schema
// completeness check. Coordinates and license are optional presence-wise:
// stations without geodata and sources without license terms are valid.
var RequiredColumns = []string{
	"datetime_utc",
	"datetime_local",
	"station_id",
	"station_name",
	"pollutant",
	"value",
	"unit",
	"avg_period_minutes",
	"source_url",
	"source_agency",
	"ingested_at_utc",
	"quality_flag",
}

// Frame is a loosely typed tabular batch: the column set as read from a CSV
// header plus one string map per row. It is the input contract of the
// normalizer and the validator; no invariants are guaranteed about its cells.
type Frame struct {
	Columns []string
	Rows    []map[string]string
}

// HasColumn reports whether the frame declares the named column, regardless
// of per-row values.
func (f Frame) HasColumn(name string) bool {
	for _, c := range f.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Record is one canonical silver observation. Immutable once produced; a
// batch is an ordered sequence of records, one per (station, pollutant,
// timestamp) raw observation.
type Record struct {
	DatetimeUTC   string `json:"datetime_utc"`
	DatetimeLocal string `json:"datetime_local"`
	StationID     string `json:"station_id,omitempty"`
	StationName   string `json:"station_name,omitempty"`

	// Coordinates are verbatim source strings; only the validator interprets
	// them, so a malformed coordinate is reportable instead of lost.
	Latitude  string `json:"latitude,omitempty"`
	Longitude string `json:"longitude,omitempty"`

	Pollutant        string   `json:"pollutant"`
	Value            *float64 `json:"value"`
	Unit             string   `json:"unit"`
	AvgPeriodMinutes int      `json:"avg_period_minutes"`

	SourceURL     string `json:"source_url,omitempty"`
	SourceAgency  string `json:"source_agency,omitempty"`
	IngestedAtUTC string `json:"ingested_at_utc"`
	License       string `json:"license,omitempty"`
	QualityFlag   string `json:"quality_flag"`
}

// Row serializes the record as cells keyed by canonical column name.
func (r Record) Row() map[string]string {
	value := ""
	if r.Value != nil {
		value = strconv.FormatFloat(*r.Value, 'g', -1, 64)
	}
	return map[string]string{
		"datetime_utc":       r.DatetimeUTC,
		"datetime_local":     r.DatetimeLocal,
		"station_id":         r.StationID,
		"station_name":       r.StationName,
		"latitude":           r.Latitude,
		"longitude":          r.Longitude,
		"pollutant":          r.Pollutant,
		"value":              value,
		"unit":               r.Unit,
		"avg_period_minutes": strconv.Itoa(r.AvgPeriodMinutes),
		"source_url":         r.SourceURL,
		"source_agency":      r.SourceAgency,
		"ingested_at_utc":    r.IngestedAtUTC,
		"license":            r.License,
		"quality_flag":       r.QualityFlag,
	}
}

// FrameOf lays a record batch out as a canonical frame, preserving order.
func FrameOf(records []Record) Frame {
	rows := make([]map[string]string, len(records))
	for i := range records {
		rows[i] = records[i].Row()
	}
	return Frame{Columns: Columns, Rows: rows}
}
