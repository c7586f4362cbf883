// Package source holds the extraction connectors that materialize raw
// air quality observations into bronze CSV files.
//
// Every connector is capability-gated: it tries the live endpoint first and
// falls back to a deterministic synthetic dataset when the endpoint is
// unreachable, so downstream stages always have input. The normalizer treats
// both outputs identically.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/air-quality-etl/internal/config"
)

// Outcome reports which path an extraction took.
type Outcome string

const (
	// OutcomeFetched means live data was retrieved from the source endpoint.
	OutcomeFetched Outcome = "fetched"
	// OutcomeFallback means the endpoint was unavailable and synthetic data
	// was generated instead.
	OutcomeFallback Outcome = "fallback"
)

// Source is one extraction connector. Extract materializes raw observations
// for the inclusive [start, end] window as a bronze CSV under outDir, using
// cacheDir to persist downloaded artifacts between runs. Implementations are
// idempotent: re-running a window overwrites the same file.
type Source interface {
	Name() string
	Extract(ctx context.Context, start, end time.Time, cacheDir, outDir string) (Outcome, error)
}

// FromSpecs instantiates connectors for the enabled entries of a source
// catalogue. Unknown kinds are an error so catalogue typos fail fast.
func FromSpecs(specs []config.SourceSpec, timeout time.Duration, logger *slog.Logger) ([]Source, error) {
	var sources []Source
	for _, spec := range specs {
		if !spec.Enabled {
			continue
		}
		client := resty.New().SetTimeout(timeout)
		switch spec.Kind {
		case "arcgis":
			sources = append(sources, NewArcGISStations(spec, client, logger))
		case "monitorar":
			sources = append(sources, NewMonitorAr(spec, client, logger))
		default:
			return nil, fmt.Errorf("unknown source kind %q for %q", spec.Kind, spec.Name)
		}
	}
	return sources, nil
}

// bronzeColumns is the column set the built-in connectors emit. It matches
// the canonical schema so synthetic batches exercise the same normalization
// path as fetched ones.
var bronzeColumns = []string{
	"station_id",
	"station_name",
	"latitude",
	"longitude",
	"pollutant",
	"value",
	"unit",
	"avg_period_minutes",
	"datetime_utc",
	"datetime_local",
	"source_url",
	"source_agency",
	"ingested_at_utc",
	"license",
	"quality_flag",
}
