package core

// MonthPacing carries the current-month spending stats used by the
// notification summary: discretionary spend so far, the two remaining
// balances, and each figure averaged per day.
type MonthPacing struct {
	Spent             Money
	SpentPerDay       Money
	RemainingCF       Money
	RemainingCFPerDay Money
	RemainingNW       Money
	RemainingNWPerDay Money
	DaysElapsed       int
	DaysLeft          int
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year, month int) int {
	start := NewDate(year, month, 1)
	next := nextMonthStart(year, month)
	return int(next.Sub(start.Time).Hours() / 24)
}

func nextMonthStart(year, month int) Date {
	month++
	if month == 13 {
		month = 1
		year++
	}
	return NewDate(year, month, 1)
}

// MonthlyPacing derives the pacing stats from the month's cash-flow table.
// Spent-per-day averages over fully elapsed days (today excluded); on the
// first of the month there are none, so the rate reports zero rather than
// dividing through. Remaining-per-day averages over the days left in the
// month including today.
func MonthlyPacing(table CashFlowTable, today Date) MonthPacing {
	pacing := MonthPacing{
		DaysElapsed: today.Day() - 1,
		DaysLeft:    DaysInMonth(today.Year(), today.Month()) - today.Day() + 1,
	}
	row, ok := table.Row(GroupDiscretionary, "Discretionary")
	if !ok {
		return pacing
	}
	pacing.Spent = row.Realized
	if row.RemainingCF != nil {
		pacing.RemainingCF = *row.RemainingCF
	}
	if row.RemainingNW != nil {
		pacing.RemainingNW = *row.RemainingNW
	}
	if pacing.DaysElapsed > 0 {
		pacing.SpentPerDay = pacing.Spent.DivideBy(pacing.DaysElapsed)
	}
	if pacing.DaysLeft > 0 {
		pacing.RemainingCFPerDay = pacing.RemainingCF.DivideBy(pacing.DaysLeft)
		pacing.RemainingNWPerDay = pacing.RemainingNW.DivideBy(pacing.DaysLeft)
	}
	return pacing
}
