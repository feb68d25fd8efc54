package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mintward/internal/core"
	"mintward/internal/services"
	"mintward/internal/storage"
)

type fakeReporter struct {
	previews int
	runs     int
	lastCfg  services.RunConfig
	report   *core.Report
	err      error
}

func (f *fakeReporter) Preview(_ context.Context, cfg services.RunConfig) (*core.Report, error) {
	f.previews++
	f.lastCfg = cfg
	return f.report, f.err
}

func (f *fakeReporter) Run(_ context.Context, cfg services.RunConfig) (*core.Report, error) {
	f.runs++
	f.lastCfg = cfg
	return f.report, f.err
}

func (f *fakeReporter) CashFlow(_ context.Context, _, _ int) (core.CashFlowTable, error) {
	if f.err != nil {
		return core.CashFlowTable{}, f.err
	}
	return f.report.CashFlow, nil
}

type fakeRuns struct {
	runs []storage.ReportRun
	txs  []core.Transaction
	err  error
}

func (f *fakeRuns) LatestRun(_ context.Context) (storage.ReportRun, error) {
	if f.err != nil {
		return storage.ReportRun{}, f.err
	}
	return f.runs[0], nil
}

func (f *fakeRuns) ListRuns(_ context.Context, limit int) ([]storage.ReportRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.runs) {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

func (f *fakeRuns) TransactionsForRun(_ context.Context, _ int64) ([]core.Transaction, error) {
	return f.txs, f.err
}

func reportFixture() *core.Report {
	remaining := core.Money{Cents: 263401}
	return &core.Report{
		Today: core.NewDate(2021, 2, 10),
		Year:  2021,
		Month: 2,
		Daily: core.DailySummary{
			Count: 1,
			Rows: []core.DaySpend{
				{Label: "Wed 10", Date: core.NewDate(2021, 2, 10), Amount: core.Money{Cents: -575}},
				{Label: "Tue 09", Date: core.NewDate(2021, 2, 9), Amount: core.Money{}},
				{Label: "Total", Amount: core.Money{Cents: -575}},
			},
		},
		CashFlow: core.CashFlowTable{
			Rows: []core.CashFlowRow{
				{
					Key:       core.GroupKey{Group: core.GroupIncome, Subgroup: "Middle-of-Month"},
					Expected:  core.Money{Cents: 250000},
					Realized:  core.Money{Cents: 250000},
					Projected: core.Money{Cents: 250000},
				},
				{
					Key:         core.GroupKey{Group: core.GroupDiscretionary, Subgroup: "Discretionary"},
					Realized:    core.Money{Cents: -575},
					Projected:   core.Money{Cents: -575},
					RemainingCF: &remaining,
					RemainingNW: &remaining,
				},
			},
		},
		Pacing: core.MonthPacing{
			Spent:       core.Money{Cents: -575},
			RemainingCF: remaining,
			RemainingNW: remaining,
			DaysElapsed: 9,
			DaysLeft:    19,
		},
		Text: "1 items:\n\nWed 10  -$5.75\n",
		HTML: "1 items:<br><br><table><tr><td>Wed 10</td><td>-$5.75</td></tr></table>",
	}
}

func newTestServer(reporter Reporter, runs RunReader) *Server {
	return NewServer(":0", reporter, runs, services.RunConfig{LookbackDays: 8})
}

func doRequest(srv *Server, method, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(&fakeReporter{report: reportFixture()}, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doRequest(srv, http.MethodGet, path)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
	}
}

func TestDaySummary(t *testing.T) {
	reporter := &fakeReporter{report: reportFixture()}
	srv := newTestServer(reporter, nil)

	rr := doRequest(srv, http.MethodGet, "/summary/day?lookback=3")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if reporter.lastCfg.LookbackDays != 3 {
		t.Fatalf("reporter lookback = %d, want 3", reporter.lastCfg.LookbackDays)
	}

	var resp struct {
		ReportDate   string `json:"report_date"`
		LookbackDays int    `json:"lookback_days"`
		ItemCount    int    `json:"item_count"`
		Rows         []struct {
			Label  string `json:"label"`
			Date   string `json:"date"`
			Amount struct {
				Cents int64 `json:"cents"`
			} `json:"amount"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ReportDate != "2021-02-10" || resp.LookbackDays != 3 || resp.ItemCount != 1 {
		t.Fatalf("header fields = %+v", resp)
	}
	if len(resp.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(resp.Rows))
	}
	if resp.Rows[0].Date != "2021-02-10" || resp.Rows[0].Amount.Cents != -575 {
		t.Fatalf("first row = %+v", resp.Rows[0])
	}
	// The Total row carries no date.
	if resp.Rows[2].Label != "Total" || resp.Rows[2].Date != "" {
		t.Fatalf("total row = %+v", resp.Rows[2])
	}
}

func TestDaySummaryBadLookback(t *testing.T) {
	srv := newTestServer(&fakeReporter{report: reportFixture()}, nil)
	for _, target := range []string{"/summary/day?lookback=abc", "/summary/day?lookback=0", "/summary/day?lookback=400"} {
		rr := doRequest(srv, http.MethodGet, target)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s status = %d, want 400", target, rr.Code)
		}
	}
}

func TestDaySummaryCached(t *testing.T) {
	reporter := &fakeReporter{report: reportFixture()}
	srv := newTestServer(reporter, nil)

	for i := 0; i < 3; i++ {
		if rr := doRequest(srv, http.MethodGet, "/summary/day"); rr.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rr.Code)
		}
	}
	if reporter.previews != 1 {
		t.Fatalf("previews = %d, want 1 (cached)", reporter.previews)
	}
}

func TestDaySummaryReporterFailure(t *testing.T) {
	srv := newTestServer(&fakeReporter{err: errors.New("feed gone")}, nil)
	rr := doRequest(srv, http.MethodGet, "/summary/day")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
}

func TestCashFlowCurrentMonth(t *testing.T) {
	srv := newTestServer(&fakeReporter{report: reportFixture()}, nil)
	rr := doRequest(srv, http.MethodGet, "/summary/cashflow")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp struct {
		Year  int `json:"year"`
		Month int `json:"month"`
		Rows  []struct {
			Group       string `json:"group"`
			Subgroup    string `json:"subgroup"`
			RemainingCF *struct {
				Cents int64 `json:"cents"`
			} `json:"remaining_cf"`
		} `json:"rows"`
		Pacing *struct {
			DaysElapsed int `json:"days_elapsed"`
			DaysLeft    int `json:"days_left"`
		} `json:"pacing"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	now := time.Now()
	if resp.Year != now.Year() || resp.Month != int(now.Month()) {
		t.Fatalf("year/month = %d/%d", resp.Year, resp.Month)
	}
	if len(resp.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(resp.Rows))
	}
	if resp.Rows[0].RemainingCF != nil {
		t.Fatalf("income row should not carry a remaining balance")
	}
	if resp.Rows[1].RemainingCF == nil || resp.Rows[1].RemainingCF.Cents != 263401 {
		t.Fatalf("discretionary row remaining = %+v", resp.Rows[1].RemainingCF)
	}
	if resp.Pacing == nil || resp.Pacing.DaysElapsed != 9 || resp.Pacing.DaysLeft != 19 {
		t.Fatalf("pacing = %+v", resp.Pacing)
	}
}

func TestCashFlowPastMonth(t *testing.T) {
	srv := newTestServer(&fakeReporter{report: reportFixture()}, nil)
	rr := doRequest(srv, http.MethodGet, "/summary/cashflow?year=2021&month=2")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp struct {
		Year   int               `json:"year"`
		Month  int               `json:"month"`
		Rows   []json.RawMessage `json:"rows"`
		Pacing json.RawMessage   `json:"pacing"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Year != 2021 || resp.Month != 2 {
		t.Fatalf("year/month = %d/%d", resp.Year, resp.Month)
	}
	if len(resp.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(resp.Rows))
	}
	// Past months carry no pacing block.
	if len(resp.Pacing) != 0 {
		t.Fatalf("pacing = %s, want omitted", resp.Pacing)
	}

	rr = doRequest(srv, http.MethodGet, "/summary/cashflow?month=13")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad month status = %d, want 400", rr.Code)
	}
}

func TestSummaryTextFormats(t *testing.T) {
	report := reportFixture()
	srv := newTestServer(&fakeReporter{report: report}, nil)

	rr := doRequest(srv, http.MethodGet, "/summary/text")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type = %q", ct)
	}
	if rr.Body.String() != report.Text {
		t.Fatalf("text body = %q", rr.Body.String())
	}

	rr = doRequest(srv, http.MethodGet, "/summary/text?format=html")
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
	if rr.Body.String() != report.HTML {
		t.Fatalf("html body = %q", rr.Body.String())
	}
}

func TestRunsWithoutStore(t *testing.T) {
	srv := newTestServer(&fakeReporter{report: reportFixture()}, nil)
	for _, target := range []string{"/runs", "/runs/latest", "/runs/transactions?run_id=1"} {
		rr := doRequest(srv, http.MethodGet, target)
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s status = %d, want 503", target, rr.Code)
		}
	}
}

func TestListAndLatestRuns(t *testing.T) {
	stored := storage.ReportRun{
		ID:           3,
		RunAt:        time.Date(2021, 2, 10, 7, 0, 0, 0, time.UTC),
		ReportDate:   core.NewDate(2021, 2, 10),
		Year:         2021,
		Month:        2,
		LookbackDays: 8,
		ItemCount:    1,
		Spent:        core.Money{Cents: -575},
	}
	srv := newTestServer(&fakeReporter{report: reportFixture()}, &fakeRuns{runs: []storage.ReportRun{stored}})

	rr := doRequest(srv, http.MethodGet, "/runs")
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var list struct {
		Runs []struct {
			ID         int64  `json:"id"`
			ReportDate string `json:"report_date"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Runs) != 1 || list.Runs[0].ID != 3 || list.Runs[0].ReportDate != "2021-02-10" {
		t.Fatalf("list = %+v", list)
	}

	rr = doRequest(srv, http.MethodGet, "/runs/latest")
	if rr.Code != http.StatusOK {
		t.Fatalf("latest status = %d", rr.Code)
	}
}

func TestLatestRunNotFound(t *testing.T) {
	srv := newTestServer(&fakeReporter{report: reportFixture()}, &fakeRuns{err: storage.ErrNoRuns})
	rr := doRequest(srv, http.MethodGet, "/runs/latest")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestRunTransactions(t *testing.T) {
	runs := &fakeRuns{txs: []core.Transaction{
		{
			Date:        core.NewDate(2021, 2, 9),
			Description: "STARBUCKS",
			Amount:      core.Money{Cents: -575},
			RawCategory: "Coffee Shops",
			Type:        core.Debit,
			Group:       core.GroupDiscretionary,
			Subgroup:    "Discretionary",
		},
	}}
	srv := newTestServer(&fakeReporter{report: reportFixture()}, runs)

	rr := doRequest(srv, http.MethodGet, "/runs/transactions?run_id=oops")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad run_id status = %d", rr.Code)
	}

	rr = doRequest(srv, http.MethodGet, "/runs/transactions?run_id=3")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		RunID        int64 `json:"run_id"`
		Transactions []struct {
			Description string `json:"description"`
			Group       string `json:"group"`
		} `json:"transactions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RunID != 3 || len(resp.Transactions) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Transactions[0].Description != "STARBUCKS" || resp.Transactions[0].Group != "Discretionary" {
		t.Fatalf("transaction = %+v", resp.Transactions[0])
	}
}

func TestTriggerRun(t *testing.T) {
	reporter := &fakeReporter{report: reportFixture()}
	srv := newTestServer(reporter, nil)

	// Wrong method.
	if rr := doRequest(srv, http.MethodGet, "/report/run"); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d, want 405", rr.Code)
	}

	// Warm the preview cache, trigger a run, confirm the cache was dropped.
	doRequest(srv, http.MethodGet, "/summary/day")
	if rr := doRequest(srv, http.MethodPost, "/report/run"); rr.Code != http.StatusOK {
		t.Fatalf("POST status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if reporter.runs != 1 {
		t.Fatalf("runs = %d, want 1", reporter.runs)
	}
	doRequest(srv, http.MethodGet, "/summary/day")
	if reporter.previews != 2 {
		t.Fatalf("previews = %d, want 2 (cache purged by run)", reporter.previews)
	}
}
