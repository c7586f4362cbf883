package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/couchcryptid/air-quality-etl/internal/source"
)

// stubSource writes a fixed bronze frame, or fails.
type stubSource struct {
	name  string
	frame domain.Frame
	err   error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Extract(_ context.Context, _, _ time.Time, _, outDir string) (source.Outcome, error) {
	if s.err != nil {
		return source.OutcomeFallback, s.err
	}
	return source.OutcomeFetched, csvfile.WriteFrame(filepath.Join(outDir, s.name+".csv"), s.frame)
}

// captureSink records every batch it receives.
type captureSink struct {
	batches [][]domain.Record
	err     error
}

func (c *captureSink) LoadBatch(_ context.Context, records []domain.Record) error {
	if c.err != nil {
		return c.err
	}
	c.batches = append(c.batches, records)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	root := t.TempDir()
	return &config.Config{
		BronzeDir:     filepath.Join(root, "bronze"),
		SilverDir:     filepath.Join(root, "silver"),
		ExportDir:     filepath.Join(root, "export"),
		CacheDir:      filepath.Join(root, "cache"),
		ArtifactsDir:  filepath.Join(root, "artifacts"),
		LocalTimezone: "America/Sao_Paulo",
		Location:      loc,
	}
}

func cleanFrame() domain.Frame {
	return domain.Frame{
		Columns: domain.Columns,
		Rows: []map[string]string{
			{
				"datetime_local": "2025-01-01T10:00:00",
				"station_id":     "cras_fercal",
				"station_name":   "CRAS Fercal",
				"latitude":       "-15.7023",
				"longitude":      "-47.8008",
				"pollutant":      "pm25",
				"value":          "18",
				"unit":           "µg/m³",
				"source_url":     "http://example.com",
				"source_agency":  "IBRAM",
			},
			{
				"datetime_local": "2025-02-01T10:00:00",
				"station_id":     "cras_fercal",
				"station_name":   "CRAS Fercal",
				"latitude":       "-15.7023",
				"longitude":      "-47.8008",
				"pollutant":      "ozone",
				"value":          "30",
				"unit":           "µg/m³",
				"source_url":     "http://example.com",
				"source_agency":  "IBRAM",
			},
		},
	}
}

func newTestPipeline(cfg *config.Config, sources []source.Source, sinks []RecordSink) *Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, sources, sinks, logger, observability.NewMetricsForTesting())
}

func TestRunOnce(t *testing.T) {
	cfg := testConfig(t)
	sink := &captureSink{}
	src := &stubSource{name: "stub", frame: cleanFrame()}
	p := newTestPipeline(cfg, []source.Source{src}, []RecordSink{sink})

	require.Error(t, p.CheckReadiness(context.Background()), "not ready before the first cycle")
	_, ok := p.Status()
	require.False(t, ok, "no status before the first cycle")

	report, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	t.Run("report", func(t *testing.T) {
		require.Len(t, report.Files, 1)
		assert.Equal(t, 2, report.Files[0].Records)
		assert.Equal(t, 0, report.Files[0].Dropped)
		assert.Equal(t, 0, report.IssueCount())
	})

	t.Run("readiness flips", func(t *testing.T) {
		assert.NoError(t, p.CheckReadiness(context.Background()))
	})

	t.Run("status snapshot", func(t *testing.T) {
		st, ok := p.Status()
		require.True(t, ok)
		assert.Equal(t, 1, st.Files)
		assert.Equal(t, 2, st.Records)
		assert.Equal(t, 0, st.Dropped)
		assert.Equal(t, 0, st.Issues)
		assert.False(t, st.LastRun.IsZero())
	})

	t.Run("sources index artifact", func(t *testing.T) {
		_, err := os.Stat(filepath.Join(cfg.ArtifactsDir, "sources_index.json"))
		assert.NoError(t, err)
	})

	t.Run("silver file", func(t *testing.T) {
		frame, err := csvfile.ReadFrame(filepath.Join(cfg.SilverDir, "stub.csv"))
		require.NoError(t, err)
		assert.Equal(t, domain.Columns, frame.Columns)
		require.Len(t, frame.Rows, 2)
		assert.Equal(t, "pm25", frame.Rows[0]["pollutant"])
		assert.Equal(t, "o3", frame.Rows[1]["pollutant"])
		assert.Equal(t, "2025-01-01T13:00:00+00:00", frame.Rows[0]["datetime_utc"])
	})

	t.Run("export partitions", func(t *testing.T) {
		january, err := csvfile.ReadFrame(filepath.Join(cfg.ExportDir, "year=2025", "month=01", "2025-01.csv"))
		require.NoError(t, err)
		assert.Len(t, january.Rows, 1)

		february, err := csvfile.ReadFrame(filepath.Join(cfg.ExportDir, "year=2025", "month=02", "2025-02.csv"))
		require.NoError(t, err)
		assert.Len(t, february.Rows, 1)
	})

	t.Run("sink received the batch", func(t *testing.T) {
		require.Len(t, sink.batches, 1)
		require.Len(t, sink.batches[0], 2)
		assert.Equal(t, "pm25", sink.batches[0][0].Pollutant)
	})
}

func TestRunOnceReportsValidationIssues(t *testing.T) {
	cfg := testConfig(t)
	frame := cleanFrame()
	frame.Rows[0]["value"] = "20000" // far outside the pm25 plausibility range

	src := &stubSource{name: "stub", frame: frame}
	p := newTestPipeline(cfg, []source.Source{src}, nil)

	report, err := p.RunOnce(context.Background())
	require.NoError(t, err, "issues are reported, not fatal")
	assert.Greater(t, report.IssueCount(), 0)
}

func TestRunOnceFailingSourceSkipped(t *testing.T) {
	cfg := testConfig(t)
	good := &stubSource{name: "good", frame: cleanFrame()}
	bad := &stubSource{name: "bad", err: errors.New("endpoint down")}
	p := newTestPipeline(cfg, []source.Source{bad, good}, nil)

	report, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	assert.Equal(t, filepath.Join(cfg.BronzeDir, "good.csv"), report.Files[0].File)
}

func TestRunOnceFailingSinkSkipsFile(t *testing.T) {
	cfg := testConfig(t)
	src := &stubSource{name: "stub", frame: cleanFrame()}
	sink := &captureSink{err: errors.New("broker unavailable")}
	p := newTestPipeline(cfg, []source.Source{src}, []RecordSink{sink})

	report, err := p.RunOnce(context.Background())
	require.NoError(t, err, "a failing sink is logged per file, not fatal")
	assert.Empty(t, report.Files)
}

func TestRunOnceDroppedRecords(t *testing.T) {
	cfg := testConfig(t)
	frame := cleanFrame()
	frame.Rows[0]["datetime_local"] = "not a date"

	src := &stubSource{name: "stub", frame: frame}
	p := newTestPipeline(cfg, []source.Source{src}, nil)

	report, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	assert.Equal(t, 1, report.Files[0].Records)
	assert.Equal(t, 1, report.Files[0].Dropped)
}

func TestRunCancelledContext(t *testing.T) {
	cfg := testConfig(t)
	cfg.RunInterval = time.Hour

	src := &stubSource{name: "stub", frame: cleanFrame()}
	p := newTestPipeline(cfg, []source.Source{src}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
