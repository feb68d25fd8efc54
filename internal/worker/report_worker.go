package worker

import (
	"context"
	"log/slog"
	"time"

	"mintward/internal/services"
)

// ReportWorker runs the report pipeline on a fixed interval. It fires once
// at startup so a fresh deployment reports immediately instead of waiting a
// whole cycle.
type ReportWorker struct {
	service  *services.ReportService
	runCfg   services.RunConfig
	interval time.Duration
}

func NewReportWorker(service *services.ReportService, runCfg services.RunConfig, interval time.Duration) *ReportWorker {
	return &ReportWorker{
		service:  service,
		runCfg:   runCfg,
		interval: interval,
	}
}

// Run blocks until the context is cancelled. A failed run is logged and the
// worker waits for the next tick; transient feed or template problems should
// not kill the process.
func (w *ReportWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Report worker started",
		"interval", w.interval.String(),
		"lookback_days", w.runCfg.LookbackDays)

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Report worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ReportWorker) runOnce(ctx context.Context) {
	report, err := w.service.Run(ctx, w.runCfg)
	if err != nil {
		slog.ErrorContext(ctx, "Report run failed", "error", err)
		return
	}
	slog.InfoContext(ctx, "Report run completed",
		"report_date", report.Today.Format("2006-01-02"),
		"item_count", report.Daily.Count,
		"spent_cents", report.Pacing.Spent.Cents)
}
