package memory

import (
	"context"
	"testing"

	"mintward/internal/core"
)

func TestDefaultTemplateIsValid(t *testing.T) {
	tpl, err := NewDefault().ReadTemplate(context.Background())
	if err != nil {
		t.Fatalf("ReadTemplate: %v", err)
	}
	if err := tpl.Validate(); err != nil {
		t.Fatalf("default template invalid: %v", err)
	}
	if tpl.Recurring.Len() == 0 || tpl.Investments.Len() == 0 {
		t.Fatalf("default template missing rules")
	}
	if sg, ok := tpl.Recurring.Match(core.Transaction{Description: "SPOTIFY USA"}); !ok || sg != "Spotify" {
		t.Fatalf("seed rule match: got %q, %v", sg, ok)
	}
}

func TestSetTemplate(t *testing.T) {
	s := NewDefault()
	s.SetTemplate(core.BudgetTemplate{
		LineItems: []core.BudgetLineItem{{Subgroup: "Only", Expected: core.Money{Cents: 100}}},
	})
	tpl, err := s.ReadTemplate(context.Background())
	if err != nil {
		t.Fatalf("ReadTemplate: %v", err)
	}
	if len(tpl.LineItems) != 1 || tpl.LineItems[0].Subgroup != "Only" {
		t.Fatalf("template not replaced: %+v", tpl.LineItems)
	}
}
