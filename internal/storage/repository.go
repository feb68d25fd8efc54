package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mintward/internal/core"

	_ "modernc.org/sqlite"
)

var ErrNoRuns = errors.New("no report runs stored")

const dateFormat = "2006-01-02"

// ReportRun is one persisted report: the headline numbers plus the rendered
// summaries. The classified transactions that produced it live in their own
// table, keyed by run id.
type ReportRun struct {
	ID           int64
	RunAt        time.Time
	ReportDate   core.Date
	Year         int
	Month        int
	LookbackDays int
	ItemCount    int
	Spent        core.Money
	RemainingCF  core.Money
	RemainingNW  core.Money
	SummaryText  string
	SummaryHTML  string
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveRun stores the run header and its classified transactions in one
// database transaction and returns the new run id.
func (r *SQLiteRepository) SaveRun(ctx context.Context, run ReportRun, txs []core.Transaction) (int64, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx, `
		INSERT INTO report_runs (
			run_at, report_date, year, month, lookback_days, item_count,
			spent_cents, remaining_cf_cents, remaining_nw_cents,
			summary_text, summary_html
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunAt.UTC(), run.ReportDate.Format(dateFormat), run.Year, run.Month,
		run.LookbackDays, run.ItemCount, run.Spent.Cents,
		run.RemainingCF.Cents, run.RemainingNW.Cents,
		run.SummaryText, run.SummaryHTML,
	)
	if err != nil {
		return 0, fmt.Errorf("insert report run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO transactions (
			run_id, date, description, amount_cents, raw_category, tx_type, grp, subgroup
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare transaction insert: %w", err)
	}
	defer stmt.Close()

	for _, tx := range txs {
		if _, err := stmt.ExecContext(ctx,
			runID, tx.Date.Format(dateFormat), tx.Description, tx.Amount.Cents,
			tx.RawCategory, string(tx.Type), string(tx.Group), tx.Subgroup,
		); err != nil {
			return 0, fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}

	slog.InfoContext(ctx, "Report run saved",
		"run_id", runID,
		"report_date", run.ReportDate.Format(dateFormat),
		"transactions", len(txs))

	return runID, nil
}

const runColumns = `
	id, run_at, report_date, year, month, lookback_days, item_count,
	spent_cents, remaining_cf_cents, remaining_nw_cents, summary_text, summary_html`

// LatestRun returns the most recently stored run.
func (r *SQLiteRepository) LatestRun(ctx context.Context) (ReportRun, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM report_runs ORDER BY id DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ReportRun{}, ErrNoRuns
	}
	if err != nil {
		return ReportRun{}, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first.
func (r *SQLiteRepository) ListRuns(ctx context.Context, limit int) ([]ReportRun, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM report_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []ReportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// TransactionsForRun returns the classified transactions stored with a run.
func (r *SQLiteRepository) TransactionsForRun(ctx context.Context, runID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, description, amount_cents, raw_category, tx_type, grp, subgroup
		FROM transactions WHERE run_id = ? ORDER BY date, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("transactions for run %d: %w", runID, err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var (
			tx     core.Transaction
			date   string
			txType string
			group  string
		)
		if err := rows.Scan(&date, &tx.Description, &tx.Amount.Cents,
			&tx.RawCategory, &txType, &group, &tx.Subgroup); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := time.Parse(dateFormat, date)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		tx.Date = core.DateOf(d)
		tx.Type = core.TxType(txType)
		tx.Group = core.Group(group)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (ReportRun, error) {
	var (
		run  ReportRun
		date string
	)
	if err := row.Scan(&run.ID, &run.RunAt, &date, &run.Year, &run.Month,
		&run.LookbackDays, &run.ItemCount, &run.Spent.Cents,
		&run.RemainingCF.Cents, &run.RemainingNW.Cents,
		&run.SummaryText, &run.SummaryHTML); err != nil {
		return ReportRun{}, err
	}
	d, err := time.Parse(dateFormat, date)
	if err != nil {
		return ReportRun{}, fmt.Errorf("stored report date %q: %w", date, err)
	}
	run.ReportDate = core.DateOf(d)
	return run, nil
}
