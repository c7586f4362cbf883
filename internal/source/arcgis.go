package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// ArcGISStations extracts monitoring station metadata from the IBRAM ArcGIS
// feature layer. Responses are cached as JSON between runs; when neither the
// cache nor the API yields data, a two-station synthetic set keeps the
// pipeline functional.
type ArcGISStations struct {
	name    string
	url     string
	agency  string
	license string
	client  *resty.Client
	logger  *slog.Logger
}

// NewArcGISStations creates the connector from its catalogue entry.
func NewArcGISStations(spec config.SourceSpec, client *resty.Client, logger *slog.Logger) *ArcGISStations {
	return &ArcGISStations{
		name:    spec.Name,
		url:     spec.URL,
		agency:  spec.Agency,
		license: spec.License,
		client:  client,
		logger:  logger,
	}
}

func (s *ArcGISStations) Name() string { return s.name }

// arcgisResponse is the subset of the feature layer query response we read.
type arcgisResponse struct {
	Features []struct {
		Attributes map[string]any `json:"attributes"`
		Geometry   struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"geometry"`
	} `json:"features"`
}

// Extract queries the layer for all station records and writes one bronze CSV.
// The date window is ignored: the layer is a registry, not a time series.
func (s *ArcGISStations) Extract(ctx context.Context, _, _ time.Time, cacheDir, outDir string) (Outcome, error) {
	outcome := OutcomeFetched
	payload, err := s.loadCached(cacheDir)
	if err != nil {
		payload, err = s.fetch(ctx, cacheDir)
	}
	var rows []map[string]string
	if err != nil || len(payload.Features) == 0 {
		if err != nil {
			s.logger.Warn("arcgis fetch failed, using synthetic stations", "source", s.name, "error", err)
		}
		outcome = OutcomeFallback
		rows = syntheticStations(clock.Now(), s.url, s.agency)
	} else {
		rows = s.stationRows(payload)
	}

	frame := domain.Frame{Columns: bronzeColumns, Rows: rows}
	if err := csvfile.WriteFrame(bronzePath(outDir, s.name), frame); err != nil {
		return outcome, fmt.Errorf("write bronze %s: %w", s.name, err)
	}
	s.logger.Info("extracted source", "source", s.name, "rows", len(rows), "outcome", string(outcome))
	return outcome, nil
}

func (s *ArcGISStations) cachePath(cacheDir string) string {
	return filepath.Join(cacheDir, s.name+".json")
}

func (s *ArcGISStations) loadCached(cacheDir string) (arcgisResponse, error) {
	var payload arcgisResponse
	data, err := os.ReadFile(s.cachePath(cacheDir))
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("decode cache: %w", err)
	}
	return payload, nil
}

func (s *ArcGISStations) fetch(ctx context.Context, cacheDir string) (arcgisResponse, error) {
	var payload arcgisResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"where":     "1=1",
			"outFields": "*",
			"f":         "pjson",
		}).
		SetResult(&payload).
		Get(s.url)
	if err != nil {
		return payload, err
	}
	if resp.IsError() {
		return payload, fmt.Errorf("arcgis query: status %d", resp.StatusCode())
	}
	if err := os.MkdirAll(cacheDir, 0o755); err == nil {
		if data, err := json.Marshal(payload); err == nil {
			os.WriteFile(s.cachePath(cacheDir), data, 0o644) //nolint:errcheck // cache is best-effort
		}
	}
	return payload, nil
}

// stationRows maps feature layer attributes to bronze rows. Station records
// are metadata, not measurements: pollutant is the "metadata" marker and the
// value is left empty (null after normalization).
func (s *ArcGISStations) stationRows(payload arcgisResponse) []map[string]string {
	ts := clock.Now().UTC().Format("2006-01-02T15:04:05")
	rows := make([]map[string]string, 0, len(payload.Features))
	for _, feat := range payload.Features {
		name, _ := feat.Attributes["nome"].(string)
		rows = append(rows, map[string]string{
			"station_id":         name,
			"station_name":       name,
			"latitude":           strconv.FormatFloat(feat.Geometry.Y, 'f', -1, 64),
			"longitude":          strconv.FormatFloat(feat.Geometry.X, 'f', -1, 64),
			"pollutant":          "metadata",
			"avg_period_minutes": "60",
			"datetime_utc":       ts,
			"datetime_local":     ts,
			"source_url":         s.url,
			"source_agency":      s.agency,
			"license":            s.license,
			"quality_flag":       "ok",
		})
	}
	return rows
}
