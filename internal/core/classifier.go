package core

// Classify assigns a (Group, Subgroup) to one transaction. The decision
// procedure runs in fixed precedence order, first match wins:
//
//  1. rent by exact category
//  2. income categories, with Paycheck split by day of month
//  3. investment pattern rules
//  4. wash categories
//  5. recurring pattern rules
//  6. discretionary fallthrough
//
// Explicit categories are checked before the heuristic regex stages so a
// categorized row can never be shadowed by a pattern, and investment rules
// run before the wash set so rows the feed categorizes as "Investments"
// still route to their investment subgroup. The function is pure: same
// transaction and rules, same answer, and every transaction gets a label.
func Classify(t Transaction, recurring, investments RuleSet) (Group, string) {
	if t.RawCategory == "Mortgage & Rent" {
		return GroupRent, t.RawCategory
	}
	if incomeCategories[t.RawCategory] {
		if t.RawCategory != "Paycheck" {
			return GroupIncome, t.RawCategory
		}
		// Day 20 is still mid-month; 21 and later is end-of-month.
		if t.Date.Day() <= 20 {
			return GroupIncome, "Middle-of-Month"
		}
		return GroupIncome, "End-of-Month"
	}
	if sg, ok := investments.Match(t); ok {
		return GroupInvestments, sg
	}
	if washCategories[t.RawCategory] {
		return GroupWash, t.RawCategory
	}
	if sg, ok := recurring.Match(t); ok {
		return GroupRecurring, sg
	}
	return GroupDiscretionary, "Discretionary"
}

// ClassifyAll returns a new slice with Group and Subgroup populated on
// every transaction. The input is not mutated.
func ClassifyAll(txs []Transaction, recurring, investments RuleSet) []Transaction {
	out := make([]Transaction, len(txs))
	for i, t := range txs {
		g, sg := Classify(t, recurring, investments)
		t.Group = g
		t.Subgroup = sg
		out[i] = t
	}
	return out
}
