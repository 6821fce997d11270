package model

import (
	"testing"
	"time"
)

func TestDueOn(t *testing.T) {
	day := time.Date(2025, time.March, 14, 15, 9, 0, 0, time.UTC)

	todo := Todo{DueDate: "2025-03-14"}
	if !todo.DueOn(day) {
		t.Fatalf("expected todo due on %s", day.Format(DueDateLayout))
	}

	todo.DueDate = "2025-03-15"
	if todo.DueOn(day) {
		t.Fatalf("todo due tomorrow reported as due today")
	}

	todo.DueDate = ""
	if todo.DueOn(day) {
		t.Fatalf("todo without due date reported as due")
	}
}

func TestNewSubtaskStartsIncomplete(t *testing.T) {
	st := NewSubtask("Buy flour")
	if st.ID == "" {
		t.Fatalf("expected a generated id")
	}
	if st.Completed {
		t.Fatalf("new subtask must start incomplete")
	}
	if st.Text != "Buy flour" {
		t.Fatalf("unexpected text %q", st.Text)
	}
}

func TestResetTokenValid(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(30 * time.Minute)

	u := User{ResetToken: "tok-1", ResetExpiry: &expiry}

	if !u.ResetTokenValid("tok-1", now) {
		t.Fatalf("unexpired matching token rejected")
	}
	if u.ResetTokenValid("tok-2", now) {
		t.Fatalf("mismatched token accepted")
	}
	if u.ResetTokenValid("tok-1", now.Add(time.Hour)) {
		t.Fatalf("expired token accepted")
	}

	if (User{}).ResetTokenValid("", now) {
		t.Fatalf("user without reset token accepted")
	}
}

func TestPlanCatalog(t *testing.T) {
	plans := Plans()
	if len(plans) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(plans))
	}

	byID := make(map[string]SubscriptionPlan, len(plans))
	for _, p := range plans {
		byID[p.ID] = p
	}

	free, ok := byID[TierFree]
	if !ok {
		t.Fatalf("missing free plan")
	}
	if free.Price != 0 || free.PriceID != "" {
		t.Fatalf("free plan must have no price: %+v", free)
	}

	for _, tier := range []string{TierPro, TierPremium} {
		p, ok := byID[tier]
		if !ok {
			t.Fatalf("missing %s plan", tier)
		}
		if p.Price <= 0 || p.PriceID == "" {
			t.Fatalf("%s plan must be paid with a price id: %+v", tier, p)
		}
	}
}
