package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/outdoor-safety-index/internal/report"
	"github.com/i474232898/outdoor-safety-index/internal/weather"
)

// Collector runs a collection for every metric.
type Collector interface {
	RunAll(ctx context.Context) ([]weather.RunSummary, error)
}

// Pipeline is one full pass: collect every metric, aggregate, then publish the
// text report and the chart-data document.
type Pipeline struct {
	collector     Collector
	aggregator    *weather.Aggregator
	reportPath    string
	chartDataPath string
	logger        *slog.Logger
	now           func() time.Time
}

func NewPipeline(collector Collector, aggregator *weather.Aggregator, reportPath, chartDataPath string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		collector:     collector,
		aggregator:    aggregator,
		reportPath:    reportPath,
		chartDataPath: chartDataPath,
		logger:        logger,
		now:           time.Now,
	}
}

// Run implements scheduler.Runner. A collection error stops the pass before
// anything is published.
func (p *Pipeline) Run(ctx context.Context) error {
	passID := uuid.NewString()
	log := p.logger.With("pass_id", passID)

	runs, err := p.collector.RunAll(ctx)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	sum, err := p.aggregator.Summarize(ctx)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}

	header := report.Header{RunID: passID, GeneratedAt: p.now()}
	if err := report.AppendFile(p.reportPath, header, runs, sum); err != nil {
		return err
	}
	if err := report.WriteChartData(p.chartDataPath, weather.NewChartData(sum.Rankings)); err != nil {
		return err
	}

	log.Info("pass complete",
		"cities", len(sum.Cities),
		"ranked", len(sum.Rankings),
		"report", p.reportPath,
		"chart_data", p.chartDataPath,
	)
	return nil
}
