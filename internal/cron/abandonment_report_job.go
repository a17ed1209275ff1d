package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-cart/internal/analytics"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
)

const (
	abandonmentReportJobName = "abandonment-report"
	defaultReportLookback    = 24 * time.Hour
)

// ReportSink receives each freshly computed report.
type ReportSink interface {
	Save(ctx context.Context, report *analytics.Report) error
}

// GaugeSink publishes report totals as prometheus gauges.
type GaugeSink struct {
	Gauges *metrics.AbandonmentGauges
}

func (g GaugeSink) Save(_ context.Context, report *analytics.Report) error {
	g.Gauges.Set(
		report.TotalCarts,
		report.TotalAbandonedCarts,
		report.AbandonmentRate,
		report.PotentialRevenueLost,
		report.GeneratedAt,
	)
	return nil
}

type AbandonmentReportJobParams struct {
	Logger   *logger.Logger
	Reports  analytics.Service
	Sinks    []ReportSink
	Lookback time.Duration
	Now      func() time.Time
}

// abandonmentReportJob recomputes the trailing abandonment report and hands
// it to every sink.
type abandonmentReportJob struct {
	logg     *logger.Logger
	reports  analytics.Service
	sinks    []ReportSink
	lookback time.Duration
	now      func() time.Time
}

func NewAbandonmentReportJob(params AbandonmentReportJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reports == nil {
		return nil, fmt.Errorf("analytics service required")
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultReportLookback
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	sinks := make([]ReportSink, 0, len(params.Sinks))
	for _, sink := range params.Sinks {
		if sink != nil {
			sinks = append(sinks, sink)
		}
	}
	return &abandonmentReportJob{
		logg:     params.Logger,
		reports:  params.Reports,
		sinks:    sinks,
		lookback: lookback,
		now:      now,
	}, nil
}

func (j *abandonmentReportJob) Name() string { return abandonmentReportJobName }

func (j *abandonmentReportJob) Run(ctx context.Context) error {
	end := j.now().UTC()
	start := end.Add(-j.lookback)

	report, err := j.reports.GetAbandonmentReport(ctx, start, end)
	if err != nil {
		return fmt.Errorf("compute abandonment report: %w", err)
	}

	var errs error
	for _, sink := range j.sinks {
		errs = multierr.Append(errs, sink.Save(ctx, report))
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"total_carts":     report.TotalCarts,
		"abandoned_carts": report.TotalAbandonedCarts,
		"rate_percent":    report.AbandonmentRate,
		"revenue_lost":    report.PotentialRevenueLost.StringFixed(2),
	}), "abandonment report refreshed")
	return errs
}
