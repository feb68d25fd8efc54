package memory

import (
	"context"
	"sync"

	"mintward/internal/core"
)

// Store serves a fixed budget template from memory. Used for local
// development and tests where no spreadsheet is reachable.
type Store struct {
	mu  sync.Mutex
	tpl core.BudgetTemplate
}

func New(tpl core.BudgetTemplate) *Store {
	return &Store{tpl: tpl}
}

// NewDefault returns a store seeded with a small but complete template.
func NewDefault() *Store {
	recurring := mustRules(
		rule{"Netflix", core.MatchDescription, "NETFLIX"},
		rule{"Spotify", core.MatchDescription, "SPOTIFY"},
		rule{"Utilities", core.MatchDescription, "COMED|PEOPLES GAS"},
	)
	investments := mustRules(
		rule{"Brokerage", core.MatchDescription, "VANGUARD|FIDELITY"},
	)
	return New(core.BudgetTemplate{
		Recurring:   recurring,
		Investments: investments,
		LineItems: []core.BudgetLineItem{
			{Subgroup: "Middle-of-Month", Expected: core.Money{Cents: 250000}},
			{Subgroup: "End-of-Month", Expected: core.Money{Cents: 250000}},
			{Subgroup: "Mortgage & Rent", Expected: core.Money{Cents: -150000}},
			{Subgroup: "Netflix", Expected: core.Money{Cents: -1549}},
			{Subgroup: "Spotify", Expected: core.Money{Cents: -999}},
			{Subgroup: "Utilities", Expected: core.Money{Cents: -12000}},
			{Subgroup: "Brokerage", Expected: core.Money{Cents: -50000}},
		},
	})
}

// ReadTemplate returns the stored template.
func (s *Store) ReadTemplate(_ context.Context) (core.BudgetTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tpl, nil
}

// SetTemplate replaces the stored template.
func (s *Store) SetTemplate(tpl core.BudgetTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tpl = tpl
}

type rule struct {
	subgroup string
	column   core.MatchColumn
	pattern  string
}

func mustRules(rows ...rule) core.RuleSet {
	rules := make([]core.PatternRule, 0, len(rows))
	for _, r := range rows {
		pr, err := core.NewPatternRule(r.subgroup, r.column, r.pattern)
		if err != nil {
			panic(err)
		}
		rules = append(rules, pr)
	}
	return core.NewRuleSet(rules...)
}
