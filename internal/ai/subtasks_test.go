package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseSuggestionsJSONArray(t *testing.T) {
	got := parseSuggestions(`["Research pricing", "Create mockups", "Write copy"]`)
	want := []string{"Research pricing", "Create mockups", "Write copy"}

	if len(got) != len(want) {
		t.Fatalf("expected %d suggestions, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("suggestion %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestParseSuggestionsFallsBackToLines(t *testing.T) {
	text := "Here are the subtasks:\n" +
		"- Research pricing\n" +
		"* Create mockups\n" +
		"3. Write copy\n" +
		"4) Review with team\n" +
		"\n" +
		"5. Ship it\n" +
		"6. One too many"

	got := parseSuggestions(text)
	if len(got) != 5 {
		t.Fatalf("expected truncation to 5 entries, got %d: %v", len(got), got)
	}

	// Leading markers must be stripped; the preamble line survives as-is
	// since line splitting cannot tell prose from list entries.
	if got[1] != "Research pricing" || got[2] != "Create mockups" || got[3] != "Write copy" {
		t.Fatalf("markers not stripped: %v", got)
	}
}

func TestParseSuggestionsEmpty(t *testing.T) {
	if got := parseSuggestions("   \n  \n"); len(got) != 0 {
		t.Fatalf("expected no suggestions from blank text, got %v", got)
	}
}

func TestGenerateSubtasksDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"content": [{"type": "text", "text": "[\"Pack bags\", \"Book flights\", \"Arrange pet sitter\"]"}]
		}`))
	}))
	defer srv.Close()

	g := New("test-key", "", 0)
	g.endpoint = srv.URL

	got, err := g.GenerateSubtasks(context.Background(), "Plan vacation")
	if err != nil {
		t.Fatalf("generate subtasks: %v", err)
	}
	if len(got) != 3 || got[0] != "Pack bags" {
		t.Fatalf("unexpected suggestions: %v", got)
	}
}

func TestGenerateSubtasksServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "slow down"}}`))
	}))
	defer srv.Close()

	g := New("test-key", "", 0)
	g.endpoint = srv.URL

	_, err := g.GenerateSubtasks(context.Background(), "Plan vacation")
	if !errors.Is(err, ErrService) {
		t.Fatalf("expected ErrService, got %v", err)
	}
}
