package core

import (
	"fmt"
	"strings"
)

// Report bundles everything one pipeline run produces for its consumers:
// the derived tables plus the pre-formatted notification bodies.
type Report struct {
	Today    Date
	Year     int
	Month    int
	Daily    DailySummary
	CashFlow CashFlowTable
	Pacing   MonthPacing
	Text     string
	HTML     string
}

// FormatSummaryText renders the notification body as plain text: the
// day-by-day table, the lookback totals, and the month pacing lines, with
// currency as $X,XXX.XX.
func FormatSummaryText(daily DailySummary, pacing MonthPacing, today Date) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d items:\n\n", daily.Count)
	for _, row := range dayRows(daily) {
		fmt.Fprintf(&b, "%s  %s\n", row.Label, row.Amount.USD())
	}
	total, pace := lookbackStats(daily)
	days := len(dayRows(daily))
	fmt.Fprintf(&b, "\nSpent %dd: %s\n", days-1, total.USD())
	fmt.Fprintf(&b, "Pace %dd: %s\n\n", days-1, pace.USD())
	writePacing(&b, pacing, today, "\n")
	return b.String()
}

// FormatSummaryHTML renders the same summary for HTML mail bodies, using
// a table for the day rows and <br> line breaks.
func FormatSummaryHTML(daily DailySummary, pacing MonthPacing, today Date) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d items:<br><br>", daily.Count)
	b.WriteString("<table>")
	for _, row := range dayRows(daily) {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td></tr>", row.Label, row.Amount.USD())
	}
	b.WriteString("</table>")
	total, pace := lookbackStats(daily)
	days := len(dayRows(daily))
	fmt.Fprintf(&b, "<br>Spent %dd: %s<br>", days-1, total.USD())
	fmt.Fprintf(&b, "Pace %dd: %s<br><br>", days-1, pace.USD())
	writePacing(&b, pacing, today, "<br>")
	return b.String()
}

// dayRows returns the per-day rows, excluding an appended Total row.
func dayRows(daily DailySummary) []DaySpend {
	rows := daily.Rows
	if n := len(rows); n > 0 && rows[n-1].Label == "Total" {
		rows = rows[:n-1]
	}
	return rows
}

func lookbackStats(daily DailySummary) (total, pace Money) {
	rows := dayRows(daily)
	for _, row := range rows {
		total = total.Add(row.Amount)
	}
	if len(rows) > 0 {
		pace = total.DivideBy(len(rows))
	}
	return total, pace
}

func writePacing(b *strings.Builder, pacing MonthPacing, today Date, br string) {
	mon := today.Format("Jan")
	fmt.Fprintf(b, "Spent %s: %s%s", mon, pacing.Spent.USD(), br)
	fmt.Fprintf(b, "Spent/Day: %s%s%s", pacing.SpentPerDay.USD(), br, br)
	fmt.Fprintf(b, "Remaining (CF) %s: %s%s", mon, pacing.RemainingCF.USD(), br)
	fmt.Fprintf(b, "Remaining (CF)/Day: %s%s%s", pacing.RemainingCFPerDay.USD(), br, br)
	fmt.Fprintf(b, "Remaining (NW) %s: %s%s", mon, pacing.RemainingNW.USD(), br)
	fmt.Fprintf(b, "Remaining (NW)/Day: %s%s", pacing.RemainingNWPerDay.USD(), br)
}
