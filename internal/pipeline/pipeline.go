// Package pipeline orchestrates the batch ETL flow: discover sources,
// extract bronze files, normalize to the silver schema, validate, export
// partitioned files, and feed optional sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/discovery"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/export"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/couchcryptid/air-quality-etl/internal/source"
)

// RecordSink receives validated canonical batches (Kafka, Postgres).
type RecordSink interface {
	LoadBatch(ctx context.Context, records []domain.Record) error
}

// FileReport holds the validation outcome for one bronze file.
type FileReport struct {
	File    string
	Records int
	Dropped int
	Issues  []domain.Issue
}

// RunReport summarizes one pipeline cycle. The driver decides whether a
// non-empty issue set becomes a nonzero exit status.
type RunReport struct {
	Files []FileReport
}

// IssueCount returns the total validation issues across all files.
func (r RunReport) IssueCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Issues)
	}
	return n
}

// Status is the snapshot of the most recent completed cycle, served on the
// operational /status endpoint.
type Status struct {
	LastRun time.Time `json:"last_run"`
	Files   int       `json:"files"`
	Records int       `json:"records"`
	Dropped int       `json:"dropped"`
	Issues  int       `json:"issues"`
}

// Pipeline drives the extract-normalize-validate-export cycle.
type Pipeline struct {
	cfg     *config.Config
	sources []source.Source
	sinks   []RecordSink
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
	status  atomic.Pointer[Status]
}

// New creates a Pipeline with the given connectors, sinks, and observability.
func New(cfg *config.Config, sources []source.Source, sinks []RecordSink,
	logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		sources: sources,
		sinks:   sinks,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once the pipeline has completed a cycle,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a cycle yet")
	}
	return nil
}

// Status returns the snapshot of the last completed cycle; ok is false until
// one has completed.
func (p *Pipeline) Status() (Status, bool) {
	st := p.status.Load()
	if st == nil {
		return Status{}, false
	}
	return *st, true
}

// Run executes pipeline cycles until the context is cancelled. With a zero
// RunInterval it performs a single cycle and returns.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.cfg.RunInterval == 0 {
		_, err := p.RunOnce(ctx)
		return err
	}

	p.logger.Info("pipeline started", "interval", p.cfg.RunInterval)
	ticker := time.NewTicker(p.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if _, err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("pipeline cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce performs one full cycle: discovery index, extraction, then
// normalize-validate-export per bronze file. Validation issues are reported,
// not fatal; extraction and I/O failures for one source or file are logged
// and the cycle continues with the rest.
func (p *Pipeline) RunOnce(ctx context.Context) (RunReport, error) {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	if err := p.ensureDirs(); err != nil {
		return RunReport{}, err
	}

	indexPath := filepath.Join(p.cfg.ArtifactsDir, "sources_index.json")
	if err := discovery.WriteIndex(indexPath, discovery.Candidates()); err != nil {
		return RunReport{}, fmt.Errorf("write sources index: %w", err)
	}

	p.extract(ctx)

	files, err := bronzeFiles(p.cfg.BronzeDir)
	if err != nil {
		return RunReport{}, err
	}

	report := RunReport{}
	for _, file := range files {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		fr, err := p.processFile(ctx, file)
		if err != nil {
			p.logger.Error("batch failed", "file", file, "error", err)
			continue
		}
		report.Files = append(report.Files, fr)
	}

	st := Status{LastRun: time.Now(), Files: len(report.Files), Issues: report.IssueCount()}
	for _, fr := range report.Files {
		st.Records += fr.Records
		st.Dropped += fr.Dropped
	}
	p.status.Store(&st)
	p.ready.Store(true)
	p.logger.Info("pipeline cycle complete",
		"files", len(report.Files), "issues", report.IssueCount())
	return report, nil
}

func (p *Pipeline) ensureDirs() error {
	for _, dir := range []string{p.cfg.BronzeDir, p.cfg.SilverDir, p.cfg.ExportDir, p.cfg.CacheDir, p.cfg.ArtifactsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// extract runs every connector; a failing source is logged and skipped so one
// dead endpoint never starves the others.
func (p *Pipeline) extract(ctx context.Context) {
	for _, src := range p.sources {
		outcome, err := src.Extract(ctx, p.cfg.Since, p.cfg.Until, p.cfg.CacheDir, p.cfg.BronzeDir)
		if err != nil {
			p.logger.Error("extract failed", "source", src.Name(), "error", err)
			p.metrics.ExtractRuns.WithLabelValues(src.Name(), "error").Inc()
			continue
		}
		p.metrics.ExtractRuns.WithLabelValues(src.Name(), string(outcome)).Inc()
	}
}

// processFile takes one bronze file through normalize, validate, export, and
// the configured sinks.
func (p *Pipeline) processFile(ctx context.Context, path string) (FileReport, error) {
	start := time.Now()

	raw, err := csvfile.ReadFrame(path)
	if err != nil {
		return FileReport{}, err
	}

	records, dropped := domain.Normalize(raw, p.cfg.Location)
	for _, d := range dropped {
		p.logger.Warn("record dropped during normalization",
			"file", path, "row", d.Row, "error", d.Err)
	}
	p.metrics.RecordsNormalized.Add(float64(len(records)))
	p.metrics.NormalizeErrors.Add(float64(len(dropped)))

	silverPath := filepath.Join(p.cfg.SilverDir, filepath.Base(path))
	if err := csvfile.WriteRecords(silverPath, records); err != nil {
		return FileReport{}, err
	}

	issues := domain.Validate(domain.FrameOf(records))
	for _, issue := range issues {
		p.logger.Warn("validation issue", "file", path, "rule", string(issue.Rule), "issue", issue.String())
		p.metrics.ValidationIssues.WithLabelValues(string(issue.Rule)).Inc()
	}

	exported, err := export.WriteParts(p.cfg.ExportDir, records)
	if err != nil {
		return FileReport{}, err
	}
	p.metrics.RowsExported.Add(float64(exported.Rows))

	for _, sink := range p.sinks {
		if err := sink.LoadBatch(ctx, records); err != nil {
			return FileReport{}, fmt.Errorf("sink load: %w", err)
		}
		p.metrics.RecordsPublished.Add(float64(len(records)))
	}

	p.metrics.BatchesProcessed.Inc()
	p.metrics.BatchDuration.Observe(time.Since(start).Seconds())

	return FileReport{
		File:    path,
		Records: len(records),
		Dropped: len(dropped),
		Issues:  issues,
	}, nil
}

func bronzeFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
