package core

import (
	"errors"
	"fmt"
	"regexp"
)

// Columns a pattern rule may test against.
const (
	MatchCategory    MatchColumn = "Category"
	MatchDescription MatchColumn = "Description"
)

type MatchColumn string

var (
	ErrEmptyPattern  = errors.New("empty pattern")
	ErrBadMatchColumn = errors.New("match column must be Category or Description")
)

// PatternRule labels transactions whose match column starts with the given
// pattern. Matching is prefix-anchored: pattern "Foo" matches "Foobar".
type PatternRule struct {
	Subgroup string
	Column   MatchColumn

	re  *regexp.Regexp
	raw string
}

// NewPatternRule compiles a rule. The pattern is wrapped in "^(?:...)" so a
// match must begin at the start of the tested value but need not consume it.
func NewPatternRule(subgroup string, column MatchColumn, pattern string) (PatternRule, error) {
	if pattern == "" {
		return PatternRule{}, ErrEmptyPattern
	}
	if err := column.Validate(); err != nil {
		return PatternRule{}, err
	}
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return PatternRule{}, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return PatternRule{Subgroup: subgroup, Column: column, re: re, raw: pattern}, nil
}

func (c MatchColumn) Validate() error {
	switch c {
	case MatchCategory, MatchDescription:
		return nil
	}
	return ErrBadMatchColumn
}

// Pattern returns the rule's source pattern.
func (r PatternRule) Pattern() string { return r.raw }

func (r PatternRule) matches(t Transaction) bool {
	var value string
	switch r.Column {
	case MatchCategory:
		value = t.RawCategory
	case MatchDescription:
		value = t.Description
	default:
		return false
	}
	return r.re.MatchString(value)
}

// RuleSet is an ordered sequence of pattern rules. Declaration order is the
// canonical tie-break: Match returns the subgroup of the first rule that
// hits, so a template row earlier in the sheet always wins.
type RuleSet struct {
	rules []PatternRule
}

func NewRuleSet(rules ...PatternRule) RuleSet {
	return RuleSet{rules: rules}
}

// Match tests the transaction against each rule in order and returns the
// first matching subgroup.
func (rs RuleSet) Match(t Transaction) (string, bool) {
	for _, r := range rs.rules {
		if r.matches(t) {
			return r.Subgroup, true
		}
	}
	return "", false
}

// Subgroups returns the rule labels in declaration order, deduplicated.
// Multiple patterns may feed the same subgroup (e.g. two billing names for
// one service); the index needs each label once.
func (rs RuleSet) Subgroups() []string {
	seen := make(map[string]bool, len(rs.rules))
	var out []string
	for _, r := range rs.rules {
		if seen[r.Subgroup] {
			continue
		}
		seen[r.Subgroup] = true
		out = append(out, r.Subgroup)
	}
	return out
}

func (rs RuleSet) Len() int { return len(rs.rules) }
