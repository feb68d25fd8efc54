package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mintward/internal/core"
	"mintward/internal/services"
	"mintward/internal/storage"
)

type moneyJSON struct {
	Cents int64  `json:"cents"`
	USD   string `json:"usd"`
}

func money(m core.Money) moneyJSON {
	return moneyJSON{Cents: m.Cents, USD: m.USD()}
}

func moneyPtr(m *core.Money) *moneyJSON {
	if m == nil {
		return nil
	}
	v := money(*m)
	return &v
}

type pacingJSON struct {
	Spent             moneyJSON `json:"spent"`
	SpentPerDay       moneyJSON `json:"spent_per_day"`
	RemainingCF       moneyJSON `json:"remaining_cf"`
	RemainingCFPerDay moneyJSON `json:"remaining_cf_per_day"`
	RemainingNW       moneyJSON `json:"remaining_nw"`
	RemainingNWPerDay moneyJSON `json:"remaining_nw_per_day"`
	DaysElapsed       int       `json:"days_elapsed"`
	DaysLeft          int       `json:"days_left"`
}

func pacingPayload(p core.MonthPacing) pacingJSON {
	return pacingJSON{
		Spent:             money(p.Spent),
		SpentPerDay:       money(p.SpentPerDay),
		RemainingCF:       money(p.RemainingCF),
		RemainingCFPerDay: money(p.RemainingCFPerDay),
		RemainingNW:       money(p.RemainingNW),
		RemainingNWPerDay: money(p.RemainingNWPerDay),
		DaysElapsed:       p.DaysElapsed,
		DaysLeft:          p.DaysLeft,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleDaySummary serves the trailing window of discretionary spending,
// one row per day, newest first, with the appended total.
func (s *Server) handleDaySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		apiError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	lookback, err := parseLookback(r, s.runCfg.LookbackDays)
	if err != nil {
		apiError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.getReport(r.Context(), lookback)
	if err != nil {
		slog.ErrorContext(r.Context(), "Day summary failed", "error", err, "lookback", lookback)
		apiError(w, http.StatusBadGateway, "report unavailable")
		return
	}

	type rowJSON struct {
		Label  string    `json:"label"`
		Date   string    `json:"date,omitempty"`
		Amount moneyJSON `json:"amount"`
	}
	resp := struct {
		ReportDate   string    `json:"report_date"`
		LookbackDays int       `json:"lookback_days"`
		ItemCount    int       `json:"item_count"`
		Rows         []rowJSON `json:"rows"`
	}{
		ReportDate:   report.Today.Format("2006-01-02"),
		LookbackDays: lookback,
		ItemCount:    report.Daily.Count,
		Rows:         make([]rowJSON, 0, len(report.Daily.Rows)),
	}
	for _, row := range report.Daily.Rows {
		jr := rowJSON{Label: row.Label, Amount: money(row.Amount)}
		if !row.Date.IsZero() {
			jr.Date = row.Date.Format("2006-01-02")
		}
		resp.Rows = append(resp.Rows, jr)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCashFlow serves a month's projection table. The current month comes
// from the cached preview report and carries the pacing block; any other
// month is projected on demand without pacing.
func (s *Server) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		apiError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	now := core.DateOf(s.now())
	year, month, err := parseYearMonth(r, s.now())
	if err != nil {
		apiError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		table  core.CashFlowTable
		pacing *pacingJSON
	)
	if year == now.Year() && month == now.Month() {
		report, err := s.getReport(r.Context(), s.runCfg.LookbackDays)
		if err != nil {
			slog.ErrorContext(r.Context(), "Cash flow summary failed", "error", err)
			apiError(w, http.StatusBadGateway, "report unavailable")
			return
		}
		table = report.CashFlow
		p := pacingPayload(report.Pacing)
		pacing = &p
	} else {
		table, err = s.reporter.CashFlow(r.Context(), year, month)
		if err != nil {
			slog.ErrorContext(r.Context(), "Cash flow projection failed", "error", err, "year", year, "month", month)
			apiError(w, http.StatusBadGateway, "report unavailable")
			return
		}
	}

	type rowJSON struct {
		Group       string     `json:"group"`
		Subgroup    string     `json:"subgroup"`
		Expected    moneyJSON  `json:"expected"`
		Realized    moneyJSON  `json:"realized"`
		Projected   moneyJSON  `json:"projected"`
		RemainingCF *moneyJSON `json:"remaining_cf,omitempty"`
		RemainingNW *moneyJSON `json:"remaining_nw,omitempty"`
	}
	resp := struct {
		Year   int         `json:"year"`
		Month  int         `json:"month"`
		Rows   []rowJSON   `json:"rows"`
		Pacing *pacingJSON `json:"pacing,omitempty"`
	}{
		Year:   year,
		Month:  month,
		Rows:   make([]rowJSON, 0, len(table.Rows)),
		Pacing: pacing,
	}
	for _, row := range table.Rows {
		resp.Rows = append(resp.Rows, rowJSON{
			Group:       string(row.Key.Group),
			Subgroup:    row.Key.Subgroup,
			Expected:    money(row.Expected),
			Realized:    money(row.Realized),
			Projected:   money(row.Projected),
			RemainingCF: moneyPtr(row.RemainingCF),
			RemainingNW: moneyPtr(row.RemainingNW),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSummaryText serves the rendered notification body, text by default,
// HTML with format=html.
func (s *Server) handleSummaryText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		apiError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	lookback, err := parseLookback(r, s.runCfg.LookbackDays)
	if err != nil {
		apiError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.getReport(r.Context(), lookback)
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary text failed", "error", err, "lookback", lookback)
		apiError(w, http.StatusBadGateway, "report unavailable")
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "html") {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(report.HTML))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(report.Text))
}

type runJSON struct {
	ID           int64     `json:"id"`
	RunAt        string    `json:"run_at"`
	ReportDate   string    `json:"report_date"`
	Year         int       `json:"year"`
	Month        int       `json:"month"`
	LookbackDays int       `json:"lookback_days"`
	ItemCount    int       `json:"item_count"`
	Spent        moneyJSON `json:"spent"`
	RemainingCF  moneyJSON `json:"remaining_cf"`
	RemainingNW  moneyJSON `json:"remaining_nw"`
}

func runPayload(run storage.ReportRun) runJSON {
	return runJSON{
		ID:           run.ID,
		RunAt:        run.RunAt.UTC().Format(time.RFC3339),
		ReportDate:   run.ReportDate.Format("2006-01-02"),
		Year:         run.Year,
		Month:        run.Month,
		LookbackDays: run.LookbackDays,
		ItemCount:    run.ItemCount,
		Spent:        money(run.Spent),
		RemainingCF:  money(run.RemainingCF),
		RemainingNW:  money(run.RemainingNW),
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		apiError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.runs == nil {
		apiError(w, http.StatusServiceUnavailable, "run history requires a database")
		return
	}
	limit, err := parseLimit(r, 20)
	if err != nil {
		apiError(w, http.StatusBadRequest, err.Error())
		return
	}

	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "List runs failed", "error", err)
		apiError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	resp := struct {
		Runs []runJSON `json:"runs"`
	}{Runs: make([]runJSON, 0, len(runs))}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, runPayload(run))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		apiError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.runs == nil {
		apiError(w, http.StatusServiceUnavailable, "run history requires a database")
		return
	}

	run, err := s.runs.LatestRun(r.Context())
	if errors.Is(err, storage.ErrNoRuns) {
		apiError(w, http.StatusNotFound, "no runs stored yet")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Latest run failed", "error", err)
		apiError(w, http.StatusInternalServerError, "failed to load latest run")
		return
	}
	writeJSON(w, http.StatusOK, runPayload(run))
}

// handleRunTransactions serves the classified transactions stored with a run.
func (s *Server) handleRunTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		apiError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.runs == nil {
		apiError(w, http.StatusServiceUnavailable, "run history requires a database")
		return
	}
	runID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("run_id")), 10, 64)
	if err != nil || runID < 1 {
		apiError(w, http.StatusBadRequest, "run_id must be a positive integer")
		return
	}

	txs, err := s.runs.TransactionsForRun(r.Context(), runID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Run transactions failed", "error", err, "run_id", runID)
		apiError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	type txJSON struct {
		Date        string    `json:"date"`
		Description string    `json:"description"`
		Amount      moneyJSON `json:"amount"`
		RawCategory string    `json:"raw_category"`
		Type        string    `json:"type"`
		Group       string    `json:"group"`
		Subgroup    string    `json:"subgroup"`
	}
	resp := struct {
		RunID        int64    `json:"run_id"`
		Transactions []txJSON `json:"transactions"`
	}{RunID: runID, Transactions: make([]txJSON, 0, len(txs))}
	for _, tx := range txs {
		resp.Transactions = append(resp.Transactions, txJSON{
			Date:        tx.Date.Format("2006-01-02"),
			Description: tx.Description,
			Amount:      money(tx.Amount),
			RawCategory: tx.RawCategory,
			Type:        string(tx.Type),
			Group:       string(tx.Group),
			Subgroup:    tx.Subgroup,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTriggerRun starts a full pipeline run, persisting and publishing
// like a scheduled one, and drops the preview cache so the next GET sees
// the fresh state.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		apiError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	lookback, err := parseLookback(r, s.runCfg.LookbackDays)
	if err != nil {
		apiError(w, http.StatusBadRequest, err.Error())
		return
	}
	subject := strings.TrimSpace(r.URL.Query().Get("subject"))
	if subject == "" {
		subject = s.runCfg.Subject
	}

	report, err := s.reporter.Run(r.Context(), services.RunConfig{LookbackDays: lookback, Subject: subject})
	if err != nil {
		slog.ErrorContext(r.Context(), "Triggered run failed", "error", err, "lookback", lookback)
		apiError(w, http.StatusBadGateway, "report run failed")
		return
	}
	s.reportCache.Purge()

	resp := struct {
		ReportDate string     `json:"report_date"`
		ItemCount  int        `json:"item_count"`
		Pacing     pacingJSON `json:"pacing"`
	}{
		ReportDate: report.Today.Format("2006-01-02"),
		ItemCount:  report.Daily.Count,
		Pacing:     pacingPayload(report.Pacing),
	}
	writeJSON(w, http.StatusOK, resp)
}
