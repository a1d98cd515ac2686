package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/config"
	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/domain"
	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/observability"
)

// Fetcher retrieves raw event records from the upstream API.
type Fetcher interface {
	FetchCME(ctx context.Context, start, end time.Time) ([]domain.RawCME, error)
	FetchGST(ctx context.Context, start, end time.Time) ([]domain.RawGST, error)
}

// Exporter writes the merged dataset and run summary to the output directory.
type Exporter interface {
	ExportAll(records []domain.MergedRecord, summary domain.RunSummary, formats []string, dir string, runDate time.Time) error
}

// Publisher delivers merged records to an optional downstream sink.
type Publisher interface {
	Publish(ctx context.Context, records []domain.MergedRecord) error
}

// Pipeline drives one fetch → parse → merge → export run.
type Pipeline struct {
	fetcher   Fetcher
	exporter  Exporter
	publisher Publisher // nil when no sink is configured
	cfg       *config.Config
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline. publisher may be nil.
func New(f Fetcher, e Exporter, p Publisher, cfg *config.Config, clk clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:   f,
		exporter:  e,
		publisher: p,
		cfg:       cfg,
		clock:     clk,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the run has fetched data from both
// endpoints, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed its fetch phase yet")
	}
	return nil
}

// Run executes the full pipeline once. Any error is fatal for the run;
// the caller maps it to a non-zero exit status.
func (p *Pipeline) Run(ctx context.Context) error {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	p.metrics.LastRunSuccess.Set(0)

	start, end := p.cfg.StartDate, p.cfg.EndDate
	p.logger.Info("pipeline started",
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
		"window", p.cfg.MergeWindow,
		"formats", p.cfg.Formats,
	)

	rawCMEs, err := p.fetcher.FetchCME(ctx, start, end)
	if err != nil {
		return fmt.Errorf("fetch CME range %s..%s: %w",
			start.Format("2006-01-02"), end.Format("2006-01-02"), err)
	}
	rawGSTs, err := p.fetcher.FetchGST(ctx, start, end)
	if err != nil {
		return fmt.Errorf("fetch GST range %s..%s: %w",
			start.Format("2006-01-02"), end.Format("2006-01-02"), err)
	}
	p.ready.Store(true)

	cmes, gsts, err := p.parse(rawCMEs, rawGSTs)
	if err != nil {
		return err
	}

	records := domain.Merge(cmes, gsts, p.cfg.MergeWindow)
	p.metrics.MergedRecords.Add(float64(len(records)))
	for _, rec := range records {
		p.metrics.CandidatesPerGST.Observe(float64(len(rec.CMEs)))
	}

	summary := domain.Summarize(records, len(cmes))
	p.logger.Info("merge complete",
		"cmes", summary.TotalCMEs,
		"gsts", summary.TotalGSTs,
		"pairs", summary.LinkedPairs,
		"orphan_gsts", summary.OrphanGSTs,
		"max_kp", summary.MaxKp,
	)

	runDate := p.clock.Now().UTC()
	if err := p.exporter.ExportAll(records, summary, p.cfg.Formats, p.cfg.OutputDir, runDate); err != nil {
		return fmt.Errorf("export to %s: %w", p.cfg.OutputDir, err)
	}

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, records); err != nil {
			return fmt.Errorf("publish merged records: %w", err)
		}
	}

	p.metrics.LastRunSuccess.Set(1)
	p.logger.Info("pipeline finished", "records", len(records))
	return nil
}

// parse converts raw payloads to typed events, dropping malformed records.
// A non-empty payload whose records all fail is a fatal error; the run must
// not report success while silently exporting nothing.
func (p *Pipeline) parse(rawCMEs []domain.RawCME, rawGSTs []domain.RawGST) ([]domain.CMEEvent, []domain.GSTEvent, error) {
	cmes, droppedCMEs := domain.ParseCMEs(rawCMEs, p.logger)
	p.metrics.RecordsDropped.WithLabelValues("cme").Add(float64(droppedCMEs))
	if len(rawCMEs) > 0 && len(cmes) == 0 {
		return nil, nil, fmt.Errorf("parse CME records: all %d records malformed", len(rawCMEs))
	}

	gsts, droppedGSTs := domain.ParseGSTs(rawGSTs, p.logger)
	p.metrics.RecordsDropped.WithLabelValues("gst").Add(float64(droppedGSTs))
	if len(rawGSTs) > 0 && len(gsts) == 0 {
		return nil, nil, fmt.Errorf("parse GST records: all %d records malformed", len(rawGSTs))
	}

	if droppedCMEs > 0 || droppedGSTs > 0 {
		p.logger.Warn("dropped malformed records", "cme", droppedCMEs, "gst", droppedGSTs)
	}
	return cmes, gsts, nil
}
