package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/air-quality-etl/internal/config"
)

// MonitorAr extracts real-time measurements from the MMA MonitorAr panel.
// The panel exposes no documented public API, so the connector probes the
// site for reachability and then materializes a deterministic synthetic daily
// series for all six pollutants. Once an API becomes available the probe
// branch is where the real fetch goes.
type MonitorAr struct {
	name    string
	url     string
	agency  string
	license string
	client  *resty.Client
	logger  *slog.Logger
}

// NewMonitorAr creates the connector from its catalogue entry.
func NewMonitorAr(spec config.SourceSpec, client *resty.Client, logger *slog.Logger) *MonitorAr {
	return &MonitorAr{
		name:    spec.Name,
		url:     spec.URL,
		agency:  spec.Agency,
		license: spec.License,
		client:  client,
		logger:  logger,
	}
}

func (s *MonitorAr) Name() string { return s.name }

// Extract writes one bronze CSV covering the inclusive [start, end] window,
// one observation per pollutant per day.
func (s *MonitorAr) Extract(ctx context.Context, start, end time.Time, _, outDir string) (Outcome, error) {
	reachable := s.probe(ctx)
	if !reachable {
		s.logger.Warn("monitorar unreachable, generating synthetic series", "source", s.name)
	}

	frame := SyntheticObservations(start, end, s.url, s.agency, s.license)
	if err := csvfile.WriteFrame(bronzePath(outDir, s.name), frame); err != nil {
		return OutcomeFallback, fmt.Errorf("write bronze %s: %w", s.name, err)
	}
	s.logger.Info("extracted source",
		"source", s.name, "rows", len(frame.Rows), "reachable", reachable)

	// The series is synthetic either way until MonitorAr documents an API.
	return OutcomeFallback, nil
}

func (s *MonitorAr) probe(ctx context.Context) bool {
	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	return err == nil && !resp.IsError()
}
