package core

import (
	"errors"
	"fmt"
	"sort"
)

var ErrBadLookback = errors.New("lookback window must cover at least one day")

type (
	// DaySpend is one row of the daily spending summary. The Total row has
	// a zero Date.
	DaySpend struct {
		Label  string
		Date   Date
		Amount Money
	}

	// DailySummary covers a trailing lookback window of discretionary
	// spending. Rows are ordered newest first and include zero-activity
	// days; Count is the number of discretionary transactions observed.
	DailySummary struct {
		Rows  []DaySpend
		Count int
	}

	// GroupSpendRow is one line of the monthly group summary. Amounts are
	// signed, so Net is a plain sum of the debit and credit columns.
	GroupSpendRow struct {
		Key    GroupKey
		Debit  Money
		Credit Money
		Net    Money
	}

	// GroupSummary is the month-level pivot of classified transactions by
	// (Group, Subgroup). NetTotal is set when the caller asked for the
	// appended Net row.
	GroupSummary struct {
		Rows     []GroupSpendRow
		NetTotal *Money
	}
)

// SpendingByDay summarizes discretionary spending per calendar day over
// [today-lookback, today]. Every day of the window gets a row even with no
// activity, so the result always has lookback+1 rows before the optional
// Total row. Labels render as weekday plus day of month, e.g. "Fri 05".
func SpendingByDay(store *TransactionStore, today Date, lookback int, appendTotal bool) (DailySummary, error) {
	if lookback < 1 {
		return DailySummary{}, ErrBadLookback
	}
	start := today.AddDays(-lookback)
	discr := store.ByGroup(GroupDiscretionary).InRange(start, today)

	byDay := make(map[string]int64)
	for _, t := range discr.All() {
		byDay[dayKey(t.Date)] += t.Amount.Cents
	}

	summary := DailySummary{Count: discr.Len()}
	var total int64
	for d := today; !d.Before(start.Time); d = d.AddDays(-1) {
		cents := byDay[dayKey(d)]
		total += cents
		summary.Rows = append(summary.Rows, DaySpend{
			Label:  d.Format("Mon 02"),
			Date:   d,
			Amount: Money{Cents: cents},
		})
	}
	if appendTotal {
		summary.Rows = append(summary.Rows, DaySpend{Label: "Total", Amount: Money{Cents: total}})
	}
	return summary, nil
}

// SpendingByGroup pivots one month of classified transactions into
// (Group, Subgroup) rows with debit and credit columns. Missing columns
// fill as zero, rows follow the canonical group order with subgroups
// sorted within each group, and Wash is excluded from the view. When
// appendNet is set, NetTotal carries the sum of every row's net.
func SpendingByGroup(store *TransactionStore, year, month int, appendNet bool) GroupSummary {
	monthTxs := store.InMonth(year, month)

	type cell struct{ debit, credit int64 }
	cells := make(map[GroupKey]*cell)
	for _, t := range monthTxs.All() {
		key := GroupKey{t.Group, t.Subgroup}
		c := cells[key]
		if c == nil {
			c = &cell{}
			cells[key] = c
		}
		switch t.Type {
		case Debit:
			c.debit += t.Amount.Cents
		case Credit:
			c.credit += t.Amount.Cents
		}
	}

	var summary GroupSummary
	var netTotal int64
	for _, g := range reportGroups {
		var subs []string
		for key := range cells {
			if key.Group == g {
				subs = append(subs, key.Subgroup)
			}
		}
		sort.Strings(subs)
		for _, sg := range subs {
			c := cells[GroupKey{g, sg}]
			net := c.debit + c.credit
			netTotal += net
			summary.Rows = append(summary.Rows, GroupSpendRow{
				Key:    GroupKey{g, sg},
				Debit:  Money{Cents: c.debit},
				Credit: Money{Cents: c.credit},
				Net:    Money{Cents: net},
			})
		}
	}
	if appendNet {
		summary.NetTotal = &Money{Cents: netTotal}
	}
	return summary
}

// Realized returns the net amount for the given line item, or zero when the
// period produced no transactions for it.
func (s GroupSummary) Realized(key GroupKey) Money {
	for _, row := range s.Rows {
		if row.Key == key {
			return row.Net
		}
	}
	return Money{}
}

func dayKey(d Date) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), d.Month(), d.Day())
}
