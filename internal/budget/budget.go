// Package budget loads a budget template from a local TOML file. The file
// mirrors the spreadsheet layout: [[recurring]] and [[investments]] rows
// carry classification patterns, [[budget]] rows carry expected monthly
// amounts per subgroup.
package budget

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"mintward/internal/core"
)

type ruleRow struct {
	Subgroup string `mapstructure:"subgroup"`
	Column   string `mapstructure:"column"`
	Pattern  string `mapstructure:"pattern"`
}

type lineRow struct {
	Subgroup string `mapstructure:"subgroup"`
	Expected string `mapstructure:"expected"`
}

type fileTemplate struct {
	Recurring   []ruleRow `mapstructure:"recurring"`
	Investments []ruleRow `mapstructure:"investments"`
	Budget      []lineRow `mapstructure:"budget"`
}

// LoadFile reads and validates a template file. Rule rows without a pattern
// are skipped, matching how spacer rows behave in the spreadsheet template.
func LoadFile(path string) (core.BudgetTemplate, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return core.BudgetTemplate{}, fmt.Errorf("read template file: %w", err)
	}
	var raw fileTemplate
	if err := v.Unmarshal(&raw); err != nil {
		return core.BudgetTemplate{}, fmt.Errorf("unmarshal template: %w", err)
	}
	return buildTemplate(raw)
}

func buildTemplate(raw fileTemplate) (core.BudgetTemplate, error) {
	recurring, err := buildRules("recurring", raw.Recurring)
	if err != nil {
		return core.BudgetTemplate{}, err
	}
	investments, err := buildRules("investments", raw.Investments)
	if err != nil {
		return core.BudgetTemplate{}, err
	}
	items := make([]core.BudgetLineItem, 0, len(raw.Budget))
	for _, row := range raw.Budget {
		cents, err := core.ParseAmountToCents(row.Expected)
		if err != nil {
			return core.BudgetTemplate{}, fmt.Errorf("budget row %q: %w", row.Subgroup, err)
		}
		items = append(items, core.BudgetLineItem{
			Subgroup: row.Subgroup,
			Expected: core.Money{Cents: cents},
		})
	}
	tpl := core.BudgetTemplate{
		Recurring:   recurring,
		Investments: investments,
		LineItems:   items,
	}
	if err := tpl.Validate(); err != nil {
		return core.BudgetTemplate{}, err
	}
	return tpl, nil
}

func buildRules(section string, rows []ruleRow) (core.RuleSet, error) {
	var rules []core.PatternRule
	for _, row := range rows {
		if row.Pattern == "" {
			continue
		}
		rule, err := core.NewPatternRule(row.Subgroup, core.MatchColumn(row.Column), row.Pattern)
		if err != nil {
			return core.RuleSet{}, fmt.Errorf("%s row %q: %w", section, row.Subgroup, err)
		}
		rules = append(rules, rule)
	}
	return core.NewRuleSet(rules...), nil
}

// Source adapts a template file to the template reader used by the report
// pipeline.
type Source struct {
	Path string
}

func (s Source) ReadTemplate(ctx context.Context) (core.BudgetTemplate, error) {
	if err := ctx.Err(); err != nil {
		return core.BudgetTemplate{}, err
	}
	return LoadFile(s.Path)
}
