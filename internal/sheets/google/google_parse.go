package google

import (
	"fmt"
	"strings"

	"mintward/internal/core"
)

// parseRuleSheet converts a values matrix (as returned by the Sheets API)
// into a rule set. The first row must carry Subgroup, Column and Pattern
// headers; data rows without a pattern are spacer rows and are skipped.
// Rule order in the sheet is preserved, it decides match ties.
func parseRuleSheet(values [][]interface{}) (core.RuleSet, error) {
	if len(values) == 0 {
		return core.RuleSet{}, nil
	}
	headers := toStrings(values[0])
	colSubgroup := indexOf(headers, "Subgroup")
	colColumn := indexOf(headers, "Column")
	colPattern := indexOf(headers, "Pattern")
	if colSubgroup == -1 || colColumn == -1 || colPattern == -1 {
		return core.RuleSet{}, fmt.Errorf("unexpected rule sheet header: got %v", headers)
	}

	var rules []core.PatternRule
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		pattern := safeGet(row, colPattern)
		if pattern == "" {
			continue
		}
		rule, err := core.NewPatternRule(
			safeGet(row, colSubgroup),
			core.MatchColumn(safeGet(row, colColumn)),
			pattern,
		)
		if err != nil {
			return core.RuleSet{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		rules = append(rules, rule)
	}
	return core.NewRuleSet(rules...), nil
}

// parseBudgetSheet converts a values matrix into budget line items. The
// first row must carry Subgroup and Expected headers; rows without a
// subgroup are skipped, rows with an unparseable amount fail the load.
func parseBudgetSheet(values [][]interface{}) ([]core.BudgetLineItem, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	colSubgroup := indexOf(headers, "Subgroup")
	colExpected := indexOf(headers, "Expected")
	if colSubgroup == -1 || colExpected == -1 {
		return nil, fmt.Errorf("unexpected budget sheet header: got %v", headers)
	}

	var items []core.BudgetLineItem
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		subgroup := safeGet(row, colSubgroup)
		if subgroup == "" {
			continue
		}
		cents, err := core.ParseAmountToCents(safeGet(row, colExpected))
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i+1, subgroup, err)
		}
		items = append(items, core.BudgetLineItem{
			Subgroup: subgroup,
			Expected: core.Money{Cents: cents},
		})
	}
	return items, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
