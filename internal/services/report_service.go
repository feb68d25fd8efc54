package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mintward/internal/amqp"
	"mintward/internal/core"
	"mintward/internal/feed"
	"mintward/internal/sheets"
	"mintward/internal/storage"
)

// ReportPublisher is the outbound notification port. The AMQP client is the
// production implementation.
type ReportPublisher interface {
	PublishReport(ctx context.Context, msg *amqp.ReportMessage) error
}

// RunStore persists finished runs. Nil-able like the publisher: a missing
// database degrades persistence, never the report itself.
type RunStore interface {
	SaveRun(ctx context.Context, run storage.ReportRun, txs []core.Transaction) (int64, error)
}

// RunConfig carries the per-run knobs of the report pipeline.
type RunConfig struct {
	LookbackDays int
	Subject      string
}

// ReportService orchestrates one report run: load the feed, load the
// template, classify, aggregate, project, render, persist and publish.
type ReportService struct {
	source    feed.Source
	templates sheets.TemplateReader
	store     RunStore
	publisher ReportPublisher
	now       func() time.Time
}

func NewReportService(source feed.Source, templates sheets.TemplateReader, store RunStore, publisher ReportPublisher) *ReportService {
	return &ReportService{
		source:    source,
		templates: templates,
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Tests pin it to a fixed date.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// Run executes the pipeline once and returns the finished report. Storage
// and publishing failures are logged and do not fail the run; a feed or
// template failure does.
func (s *ReportService) Run(ctx context.Context, cfg RunConfig) (*core.Report, error) {
	report, classified, err := s.compute(ctx, cfg)
	if err != nil {
		return nil, err
	}
	runID := s.persist(ctx, report, cfg, classified)
	s.publish(ctx, report, cfg, runID)
	return report, nil
}

// Preview computes the report without persisting or publishing anything.
// The HTTP summary endpoints use it so a GET never writes.
func (s *ReportService) Preview(ctx context.Context, cfg RunConfig) (*core.Report, error) {
	report, _, err := s.compute(ctx, cfg)
	return report, err
}

// CashFlow projects an arbitrary month from the current feed and template,
// outside the run pipeline. Past months have no pacing, only the table.
func (s *ReportService) CashFlow(ctx context.Context, year, month int) (core.CashFlowTable, error) {
	raw, err := s.source.Load(ctx)
	if err != nil {
		return core.CashFlowTable{}, fmt.Errorf("load feed: %w", err)
	}
	tpl, err := s.templates.ReadTemplate(ctx)
	if err != nil {
		return core.CashFlowTable{}, fmt.Errorf("read template: %w", err)
	}
	if err := tpl.Validate(); err != nil {
		return core.CashFlowTable{}, fmt.Errorf("validate template: %w", err)
	}

	classified := core.ClassifyAll(raw, tpl.Recurring, tpl.Investments)
	return core.ProjectCashFlow(core.NewStore(classified), tpl, year, month)
}

func (s *ReportService) compute(ctx context.Context, cfg RunConfig) (*core.Report, []core.Transaction, error) {
	today := core.DateOf(s.now())

	raw, err := s.source.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load feed: %w", err)
	}
	tpl, err := s.templates.ReadTemplate(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read template: %w", err)
	}
	if err := tpl.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validate template: %w", err)
	}

	classified := core.ClassifyAll(raw, tpl.Recurring, tpl.Investments)
	store := core.NewStore(classified)

	daily, err := core.SpendingByDay(store, today, cfg.LookbackDays, true)
	if err != nil {
		return nil, nil, fmt.Errorf("spending by day: %w", err)
	}
	table, err := core.ProjectCashFlow(store, tpl, today.Year(), today.Month())
	if err != nil {
		return nil, nil, fmt.Errorf("project cash flow: %w", err)
	}
	pacing := core.MonthlyPacing(table, today)

	report := &core.Report{
		Today:    today,
		Year:     today.Year(),
		Month:    today.Month(),
		Daily:    daily,
		CashFlow: table,
		Pacing:   pacing,
		Text:     core.FormatSummaryText(daily, pacing, today),
		HTML:     core.FormatSummaryHTML(daily, pacing, today),
	}

	slog.InfoContext(ctx, "Report computed",
		"report_date", today.Format("2006-01-02"),
		"transactions", store.Len(),
		"lookback_days", cfg.LookbackDays,
		"spent_cents", pacing.Spent.Cents,
		"remaining_cf_cents", pacing.RemainingCF.Cents,
		"remaining_nw_cents", pacing.RemainingNW.Cents)

	return report, classified, nil
}

// persist saves the run when a store is configured and returns the run id,
// zero when persistence is unavailable or failed.
func (s *ReportService) persist(ctx context.Context, report *core.Report, cfg RunConfig, txs []core.Transaction) int64 {
	if s.store == nil {
		slog.WarnContext(ctx, "Run store not available, skipping persistence")
		return 0
	}
	run := storage.ReportRun{
		RunAt:        s.now(),
		ReportDate:   report.Today,
		Year:         report.Year,
		Month:        report.Month,
		LookbackDays: cfg.LookbackDays,
		ItemCount:    report.Daily.Count,
		Spent:        report.Pacing.Spent,
		RemainingCF:  report.Pacing.RemainingCF,
		RemainingNW:  report.Pacing.RemainingNW,
		SummaryText:  report.Text,
		SummaryHTML:  report.HTML,
	}
	runID, err := s.store.SaveRun(ctx, run, txs)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to save report run", "error", err)
		return 0
	}
	return runID
}

func (s *ReportService) publish(ctx context.Context, report *core.Report, cfg RunConfig, runID int64) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Publisher not available, skipping report message")
		return
	}
	subject := cfg.Subject
	if subject == "" {
		subject = fmt.Sprintf("Cash Report %s", report.Today.Format("Mon Jan 02"))
	}
	msg := amqp.NewReportMessage(runID, report.Year, report.Month,
		subject, report.Text, report.HTML,
		report.Pacing.Spent.Cents,
		report.Pacing.RemainingCF.Cents,
		report.Pacing.RemainingNW.Cents)
	if err := s.publisher.PublishReport(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish report message",
			"run_id", runID, "error", err)
		// The report already exists locally, notification is best effort
	}
}
