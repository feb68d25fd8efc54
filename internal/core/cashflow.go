package core

import "errors"

var ErrEmptyTemplate = errors.New("budget template has no line items")

type (
	// BudgetLineItem is one row of the template's expected-amount table,
	// joined to transactions by Subgroup. Expected is signed: budgeted
	// outflows are negative, income positive.
	BudgetLineItem struct {
		Subgroup string
		Expected Money
	}

	// BudgetTemplate is one load of the external budget spreadsheet: the
	// ordered recurring and investment rule tables plus the expected
	// monthly amount per line item. Templates are reloaded per run, never
	// cached across runs.
	BudgetTemplate struct {
		Recurring   RuleSet
		Investments RuleSet
		LineItems   []BudgetLineItem
	}

	// CashFlowRow is one line item of the projection. RemainingCF and
	// RemainingNW are only set on the last row of each group; elsewhere
	// they are nil.
	CashFlowRow struct {
		Key         GroupKey
		Expected    Money
		Realized    Money
		Projected   Money
		RemainingCF *Money
		RemainingNW *Money
	}

	CashFlowTable struct {
		Rows []CashFlowRow
	}
)

// Validate reports whether the template can drive a projection. A template
// without line items is treated as missing and fails the whole run.
func (t BudgetTemplate) Validate() error {
	if len(t.LineItems) == 0 {
		return ErrEmptyTemplate
	}
	return nil
}

// Expected returns the budgeted amount for a subgroup, zero when the
// template has no row for it (left-join semantics, never an error).
func (t BudgetTemplate) Expected(subgroup string) Money {
	for _, li := range t.LineItems {
		if li.Subgroup == subgroup {
			return li.Expected
		}
	}
	return Money{}
}

// Row looks up a line item by key.
func (t CashFlowTable) Row(g Group, subgroup string) (CashFlowRow, bool) {
	for _, row := range t.Rows {
		if row.Key.Group == g && row.Key.Subgroup == subgroup {
			return row, true
		}
	}
	return CashFlowRow{}, false
}

// ProjectCashFlow merges one month of realized actuals with the template's
// expected amounts and computes the projected figure and the two remaining
// waterfalls per line item.
//
// Projection per row: income trusts actuals once they post (realized if
// nonzero, else expected); every other row takes the literal
// min(expected, realized). The comparison is signed, so for negative spend
// values the smaller number wins regardless of magnitude.
//
// The remaining balance is a running sum carried across groups in index
// order and attached to the last row of each group: projected income, plus
// projected rent, plus projected recurring, plus projected investment
// transfers (on the cash-flow basis only), plus realized (not projected)
// discretionary spend. The net-worth basis skips the investments stage
// because transfers into own accounts do not change net worth.
func ProjectCashFlow(store *TransactionStore, tpl BudgetTemplate, year, month int) (CashFlowTable, error) {
	if err := tpl.Validate(); err != nil {
		return CashFlowTable{}, err
	}

	realized := SpendingByGroup(store, year, month, false)
	index := GroupIndex(tpl.Recurring, tpl.Investments)

	table := CashFlowTable{Rows: make([]CashFlowRow, 0, len(index))}
	for _, key := range index {
		row := CashFlowRow{
			Key:      key,
			Expected: tpl.Expected(key.Subgroup),
			Realized: realized.Realized(key),
		}
		if key.Group == GroupIncome {
			if !row.Realized.IsZero() {
				row.Projected = row.Realized
			} else {
				row.Projected = row.Expected
			}
		} else {
			row.Projected = Min(row.Expected, row.Realized)
		}
		table.Rows = append(table.Rows, row)
	}

	attachRemaining(table.Rows)
	return table, nil
}

// attachRemaining walks the rows group by group, accumulating the two
// carry-forward balances and pinning them to each group's last row.
func attachRemaining(rows []CashFlowRow) {
	var cf, nw int64
	for _, g := range []Group{GroupIncome, GroupRent, GroupRecurring, GroupInvestments, GroupDiscretionary} {
		last := -1
		var sum int64
		for i, row := range rows {
			if row.Key.Group != g {
				continue
			}
			last = i
			if g == GroupDiscretionary {
				sum += row.Realized.Cents
			} else {
				sum += row.Projected.Cents
			}
		}
		if last < 0 {
			continue
		}
		cf += sum
		if g != GroupInvestments {
			nw += sum
		}
		rows[last].RemainingCF = &Money{Cents: cf}
		rows[last].RemainingNW = &Money{Cents: nw}
	}
}
