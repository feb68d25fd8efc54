package core

import (
	"errors"
	"time"
)

// Transaction groups, in waterfall order. Wash sits outside the canonical
// report ordering because internal transfers are excluded from totals.
const (
	GroupIncome        Group = "Income"
	GroupRent          Group = "Rent"
	GroupRecurring     Group = "Recurring"
	GroupInvestments   Group = "Investments"
	GroupWash          Group = "Wash"
	GroupDiscretionary Group = "Discretionary"
)

const (
	Debit  TxType = "debit"
	Credit TxType = "credit"
)

type (
	Group  string
	TxType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is one row of the export feed. Amount is signed: debits
	// are negative, credits positive. Group and Subgroup are empty until
	// the classifier assigns them, and are never reassigned afterwards.
	Transaction struct {
		Date        Date
		Description string
		Amount      Money
		RawCategory string
		Type        TxType
		Group       Group
		Subgroup    string
	}

	// GroupKey identifies one line item of the budget taxonomy.
	GroupKey struct {
		Group    Group
		Subgroup string
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrBadTxType     = errors.New("transaction type must be debit or credit")
)

// incomeCategories is the fixed set of feed categories treated as income.
// Paycheck rows are split further by day of month.
var incomeCategories = map[string]bool{
	"Income":            true,
	"Bonus":             true,
	"Interest Income":   true,
	"Paycheck":          true,
	"Reimbursement":     true,
	"Rental Income":     true,
	"Returned Purchase": true,
}

// washCategories are internal money movements excluded from spending and
// income totals.
var washCategories = map[string]bool{
	"Credit Card Payment": true,
	"Transfer":            true,
	"Investments":         true,
}

// paycheckSubgroups and otherIncomeSubgroups define the fixed income rows
// of the group index, in report order.
var (
	paycheckSubgroups    = []string{"Middle-of-Month", "End-of-Month"}
	otherIncomeSubgroups = []string{"Bonus", "Interest Income", "Reimbursement",
		"Rental Income", "Returned Purchase", "Income"}
)

// reportGroups is the canonical group ordering for period summaries.
var reportGroups = []Group{GroupIncome, GroupRent, GroupRecurring,
	GroupInvestments, GroupDiscretionary}

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar date in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Year() int  { return d.Time.Year() }
func (d Date) Month() int { return int(d.Time.Month()) }
func (d Date) Day() int   { return d.Time.Day() }

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (t TxType) Validate() error {
	switch t {
	case Debit, Credit:
		return nil
	}
	return ErrBadTxType
}

// GroupIndex returns the canonical ordered (Group, Subgroup) pairs: the
// fixed income and rent rows, the recurring and investment subgroups in
// rule-declaration order, and the single discretionary row. The waterfall
// attaches running balances to the last row of each group, so this ordering
// is load-bearing.
func GroupIndex(recurring, investments RuleSet) []GroupKey {
	var idx []GroupKey
	for _, sg := range paycheckSubgroups {
		idx = append(idx, GroupKey{GroupIncome, sg})
	}
	for _, sg := range otherIncomeSubgroups {
		idx = append(idx, GroupKey{GroupIncome, sg})
	}
	idx = append(idx, GroupKey{GroupRent, "Mortgage & Rent"})
	for _, sg := range recurring.Subgroups() {
		idx = append(idx, GroupKey{GroupRecurring, sg})
	}
	for _, sg := range investments.Subgroups() {
		idx = append(idx, GroupKey{GroupInvestments, sg})
	}
	idx = append(idx, GroupKey{GroupDiscretionary, "Discretionary"})
	return idx
}
