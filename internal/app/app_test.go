package app

import (
	"strings"
	"testing"
)

func TestStatusMessageVisibleFromEveryView(t *testing.T) {
	views := []ViewState{ViewList, ViewDetail, ViewLists, ViewPlans, ViewHelp}
	for _, v := range views {
		m := Model{currentView: v, statusMsg: "Suggestion failed: service unavailable"}
		if got := m.keyHints(); got != m.statusMsg {
			t.Fatalf("view %d hides status message, got %q", v, got)
		}
	}
}

func TestKeyHintsReturnWhenStatusClears(t *testing.T) {
	m := Model{currentView: ViewDetail, statusMsg: "Error: boom"}
	if got := m.keyHints(); got != "Error: boom" {
		t.Fatalf("expected error in status bar, got %q", got)
	}

	m.statusMsg = ""
	if got := m.keyHints(); !strings.Contains(got, "suggest") {
		t.Fatalf("expected detail hints after status cleared, got %q", got)
	}
}
