// Package feed reads transaction exports from disk and turns them into
// classified-ready core transactions. Exports are CSV files named
// "transactions.csv"; repeated downloads get a numbered suffix like
// "transactions (2).csv", and the highest number is the freshest copy.
package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"mintward/internal/core"
)

var (
	ErrNoExport      = errors.New("no transaction export found")
	ErrMissingColumn = errors.New("export is missing a required column")
)

var exportPattern = regexp.MustCompile(`^transactions(?: \((\d+)\))?\.csv$`)

// requiredColumns are the export header names the parser depends on.
var requiredColumns = []string{"Date", "Description", "Amount", "Transaction Type", "Category"}

var dateLayouts = []string{"1/2/2006", "2006-01-02"}

// Source yields the raw transactions a report run works from.
type Source interface {
	Load(ctx context.Context) ([]core.Transaction, error)
}

// FileSource reads a single export file.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()
	txs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(s.Path), err)
	}
	return txs, nil
}

// DirSource reads the freshest export in a download directory.
type DirSource struct {
	Dir string
}

func (s DirSource) Load(ctx context.Context) ([]core.Transaction, error) {
	path, err := LatestExport(s.Dir)
	if err != nil {
		return nil, err
	}
	return FileSource{Path: path}.Load(ctx)
}

// LatestExport returns the path of the most recent export in dir. The bare
// "transactions.csv" counts as instance zero, so any numbered re-download
// supersedes it.
func LatestExport(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read download dir: %w", err)
	}
	best, bestInstance := "", -1
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := exportPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		instance := 0
		if m[1] != "" {
			instance, _ = strconv.Atoi(m[1])
		}
		if instance > bestInstance {
			best, bestInstance = e.Name(), instance
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w in %s", ErrNoExport, dir)
	}
	return filepath.Join(dir, best), nil
}

// RemoveExports deletes every export file in dir and returns how many were
// removed. Used after a run has been persisted so stale downloads never feed
// a later report.
func RemoveExports(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read download dir: %w", err)
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !exportPattern.MatchString(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return removed, fmt.Errorf("remove %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// Parse reads an export and returns its rows as core transactions. Export
// amounts are unsigned magnitudes with the direction carried in the
// Transaction Type column; debits come out negative so every amount
// downstream is signed the same way.
func Parse(r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var txs []core.Transaction
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tx, err := parseRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	return cols, nil
}

func parseRow(record []string, cols map[string]int) (core.Transaction, error) {
	date, err := parseDate(record[cols["Date"]])
	if err != nil {
		return core.Transaction{}, err
	}
	txType := core.TxType(strings.ToLower(strings.TrimSpace(record[cols["Transaction Type"]])))
	if err := txType.Validate(); err != nil {
		return core.Transaction{}, err
	}
	cents, err := core.ParseAmountToCents(record[cols["Amount"]])
	if err != nil {
		return core.Transaction{}, err
	}
	if txType == core.Debit {
		cents = -cents
	}
	return core.Transaction{
		Date:        date,
		Description: strings.TrimSpace(record[cols["Description"]]),
		Amount:      core.Money{Cents: cents},
		RawCategory: strings.TrimSpace(record[cols["Category"]]),
		Type:        txType,
	}, nil
}

func parseDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
}
