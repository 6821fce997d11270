package store_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"taskdeck/internal/model"
	"taskdeck/internal/store"
	"taskdeck/tests/testutil"
)

func newTaskStore(t *testing.T, kv *store.KV) *store.TaskStore {
	t.Helper()
	s, err := store.NewTaskStore(context.Background(), kv)
	if err != nil {
		t.Fatalf("creating task store: %v", err)
	}
	return s
}

func collect(seq func(yield func(model.Todo) bool)) []model.Todo {
	var todos []model.Todo
	seq(func(t model.Todo) bool {
		todos = append(todos, t)
		return true
	})
	return todos
}

func TestNewTaskStoreSeedsDefaultList(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newTaskStore(t, kv)

	lists := s.Lists()
	if len(lists) != 1 {
		t.Fatalf("expected 1 seeded list, got %d", len(lists))
	}
	if lists[0].ID != model.DefaultListID {
		t.Fatalf("expected default list id, got %q", lists[0].ID)
	}
}

func TestAddTodoRoundTripsThroughPersistence(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newTaskStore(t, kv)
	ctx := context.Background()

	if _, err := s.AddTodo(ctx, "Buy milk", model.DefaultListID, "u1"); err != nil {
		t.Fatalf("add todo: %v", err)
	}
	if _, err := s.AddTodo(ctx, "Call mom", model.DefaultListID, "u1"); err != nil {
		t.Fatalf("add todo: %v", err)
	}

	// A fresh store over the same KV must see the identical collection.
	reloaded := newTaskStore(t, kv)
	got := collect(reloaded.FilteredTodos(model.DefaultListID))
	want := collect(s.FilteredTodos(model.DefaultListID))

	if len(got) != 2 || len(want) != 2 {
		t.Fatalf("expected 2 todos, got %d (reloaded) and %d (memory)", len(got), len(want))
	}
	for i := range got {
		if got[i].ID != want[i].ID || got[i].Text != want[i].Text ||
			got[i].Order != want[i].Order || got[i].ListID != want[i].ListID ||
			got[i].UserID != want[i].UserID {
			t.Fatalf("todo %d differs after reload: %+v vs %+v", i, got[i], want[i])
		}
		if got[i].Subtasks == nil {
			t.Fatalf("todo %d lost its subtask slice in the round trip", i)
		}
	}
}

func TestAddTodoEmptyTextFails(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newTaskStore(t, kv)

	_, err := s.AddTodo(context.Background(), "   ", model.DefaultListID, "u1")
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if todos := collect(s.FilteredTodos(model.DefaultListID)); len(todos) != 0 {
		t.Fatalf("expected no todos after failed add, got %d", len(todos))
	}
}

func TestUpdateTodoReplacesWholesale(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newTaskStore(t, kv)
	ctx := context.Background()

	if _, err := s.AddTodo(ctx, "Draft report", model.DefaultListID, "u1"); err != nil {
		t.Fatalf("add todo: %v", err)
	}
	todo := collect(s.FilteredTodos(model.DefaultListID))[0]

	todo.Text = "Draft quarterly report"
	todo.Starred = true
	todo.Notes = "include Q3 numbers"
	todo.Subtasks = []model.Subtask{{ID: "s1", Text: "Gather data"}}
	if err := s.UpdateTodo(ctx, todo); err != nil {
		t.Fatalf("update todo: %v", err)
	}

	got, ok := s.TodoByID(todo.ID)
	if !ok {
		t.Fatalf("todo disappeared after update")
	}
	if got.Text != "Draft quarterly report" || !got.Starred || got.Notes != "include Q3 numbers" {
		t.Fatalf("update did not replace fields: %+v", got)
	}
	if len(got.Subtasks) != 1 || got.Subtasks[0].Text != "Gather data" {
		t.Fatalf("update did not replace subtasks: %+v", got.Subtasks)
	}
}

func TestUpdateTodoUnknownIDIsNoOp(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newTaskStore(t, kv)
	ctx := context.Background()

	if _, err := s.AddTodo(ctx, "Keep me", model.DefaultListID, "u1"); err != nil {
		t.Fatalf("add todo: %v", err)
	}
	if err := s.UpdateTodo(ctx, model.Todo{ID: "missing", Text: "ghost"}); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}

	todos := collect(s.FilteredTodos(model.DefaultListID))
	if len(todos) != 1 || todos[0].Text != "Keep me" {
		t.Fatalf("collection changed by unknown-id update: %+v", todos)
	}
}

func TestDeleteTodoRemovesExactlyOne(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newTaskStore(t, kv)
	ctx := context.Background()

	if _, err := s.AddTodo(ctx, "First", model.DefaultListID, "u1"); err != nil {
		t.Fatalf("add todo: %v", err)
	}
	if _, err := s.AddTodo(ctx, "Second", model.DefaultListID, "u1"); err != nil {
		t.Fatalf("add todo: %v", err)
	}

	first := collect(s.FilteredTodos(model.DefaultListID))[0]
	if err := s.DeleteTodo(ctx, first.ID); err != nil {
		t.Fatalf("delete todo: %v", err)
	}
	if err := s.DeleteTodo(ctx, "absent"); err != nil {
		t.Fatalf("expected no-op deleting absent id, got %v", err)
	}

	todos := collect(s.FilteredTodos(model.DefaultListID))
	if len(todos) != 1 || todos[0].Text != "Second" {
		t.Fatalf("expected only 'Second' to remain, got %+v", todos)
	}
}

func TestDeleteDefaultListIsNoOp(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newTaskStore(t, kv)
	ctx := context.Background()

	if _, err := s.AddTodo(ctx, "Survives", model.DefaultListID, "u1"); err != nil {
		t.Fatalf("add todo: %v", err)
	}
	if err := s.DeleteList(ctx, model.DefaultListID); err != nil {
		t.Fatalf("delete default list: %v", err)
	}

	if len(s.Lists()) != 1 {
		t.Fatalf("default list was deleted")
	}
	if todos := collect(s.FilteredTodos(model.DefaultListID)); len(todos) != 1 {
		t.Fatalf("todos changed by default-list delete: %+v", todos)
	}
}

func TestDeleteListCascadesToItsTodos(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newTaskStore(t, kv)
	ctx := context.Background()

	work, err := s.AddList(ctx, "Work", "u1")
	if err != nil {
		t.Fatalf("add list: %v", err)
	}
	if _, err := s.AddTodo(ctx, "Report", work.ID, "u1"); err != nil {
		t.Fatalf("add todo: %v", err)
	}
	if _, err := s.AddTodo(ctx, "Groceries", model.DefaultListID, "u1"); err != nil {
		t.Fatalf("add todo: %v", err)
	}

	if err := s.DeleteList(ctx, work.ID); err != nil {
		t.Fatalf("delete list: %v", err)
	}

	if _, ok := s.ListByID(work.ID); ok {
		t.Fatalf("list %q still present after delete", work.ID)
	}
	for todo := range s.FilteredTodos(model.DefaultListID) {
		if todo.Text == "Report" {
			t.Fatalf("cascade failed: %q still present", todo.Text)
		}
	}
	if todos := collect(s.FilteredTodos(model.DefaultListID)); len(todos) != 1 {
		t.Fatalf("expected 1 surviving todo, got %d", len(todos))
	}
}

func TestEditListRenames(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newTaskStore(t, kv)
	ctx := context.Background()

	work, err := s.AddList(ctx, "Work", "u1")
	if err != nil {
		t.Fatalf("add list: %v", err)
	}

	if err := s.EditList(ctx, work.ID, ""); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty name, got %v", err)
	}
	if err := s.EditList(ctx, work.ID, "Office"); err != nil {
		t.Fatalf("edit list: %v", err)
	}

	got, ok := s.ListByID(work.ID)
	if !ok || got.Name != "Office" {
		t.Fatalf("rename failed: %+v", got)
	}
}

func TestReorderTodosRewritesPositions(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newTaskStore(t, kv)
	ctx := context.Background()

	if _, err := s.AddTodo(ctx, "Buy milk", model.DefaultListID, "u1"); err != nil {
		t.Fatalf("add todo: %v", err)
	}
	if _, err := s.AddTodo(ctx, "Call mom", model.DefaultListID, "u1"); err != nil {
		t.Fatalf("add todo: %v", err)
	}

	todos := collect(s.FilteredTodos(model.DefaultListID))
	if err := s.ReorderTodos(ctx, []model.Todo{todos[1], todos[0]}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	got := collect(s.FilteredTodos(model.DefaultListID))
	if got[0].Text != "Call mom" || got[1].Text != "Buy milk" {
		t.Fatalf("expected [Call mom, Buy milk], got [%s, %s]", got[0].Text, got[1].Text)
	}
}

func TestFilteredTodosStarredSpansLists(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newTaskStore(t, kv)
	ctx := context.Background()

	work, err := s.AddList(ctx, "Work", "u1")
	if err != nil {
		t.Fatalf("add list: %v", err)
	}
	if _, err := s.AddTodo(ctx, "Plain", model.DefaultListID, "u1"); err != nil {
		t.Fatalf("add todo: %v", err)
	}
	if _, err := s.AddTodo(ctx, "Important home", model.DefaultListID, "u1"); err != nil {
		t.Fatalf("add todo: %v", err)
	}
	if _, err := s.AddTodo(ctx, "Important work", work.ID, "u1"); err != nil {
		t.Fatalf("add todo: %v", err)
	}

	for _, text := range []string{"Important home", "Important work"} {
		for todo := range s.FilteredTodos(model.DefaultListID) {
			if todo.Text == text {
				todo.Starred = true
				if err := s.UpdateTodo(ctx, todo); err != nil {
					t.Fatalf("star %q: %v", text, err)
				}
			}
		}
	}

	starred := collect(s.FilteredTodos(model.SelectorStarred))
	if len(starred) != 2 {
		t.Fatalf("expected 2 starred todos, got %d", len(starred))
	}
	if starred[0].Order > starred[1].Order {
		t.Fatalf("starred todos not sorted ascending by order: %+v", starred)
	}
	for _, todo := range starred {
		if !todo.Starred {
			t.Fatalf("unstarred todo in starred selection: %+v", todo)
		}
	}
}

func TestFilteredTodosTodayMatchesCalendarDay(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newTaskStore(t, kv)
	ctx := context.Background()

	if _, err := s.AddTodo(ctx, "Due today", model.DefaultListID, "u1"); err != nil {
		t.Fatalf("add todo: %v", err)
	}
	if _, err := s.AddTodo(ctx, "Due tomorrow", model.DefaultListID, "u1"); err != nil {
		t.Fatalf("add todo: %v", err)
	}

	now := time.Now()
	for todo := range s.FilteredTodos(model.DefaultListID) {
		switch todo.Text {
		case "Due today":
			todo.DueDate = now.Format(model.DueDateLayout)
		case "Due tomorrow":
			todo.DueDate = now.AddDate(0, 0, 1).Format(model.DueDateLayout)
		}
		if err := s.UpdateTodo(ctx, todo); err != nil {
			t.Fatalf("set due date: %v", err)
		}
	}

	today := collect(s.FilteredTodos(model.SelectorToday))
	if len(today) != 1 || today[0].Text != "Due today" {
		t.Fatalf("expected only 'Due today', got %+v", today)
	}
}

func TestCorruptPersistedDocumentFallsBackToDefaults(t *testing.T) {
	kv := testutil.NewTestKV(t)
	ctx := context.Background()

	if err := kv.Put(ctx, "todos", "not json at all"); err != nil {
		t.Fatalf("seeding corrupt value: %v", err)
	}
	if err := kv.Put(ctx, "lists", `{"version":99,"data":[]}`); err != nil {
		t.Fatalf("seeding corrupt value: %v", err)
	}

	s := newTaskStore(t, kv)
	if todos := collect(s.FilteredTodos(model.DefaultListID)); len(todos) != 0 {
		t.Fatalf("expected empty todos after corrupt load, got %d", len(todos))
	}
	lists := s.Lists()
	if len(lists) != 1 || lists[0].ID != model.DefaultListID {
		t.Fatalf("expected re-seeded default list, got %+v", lists)
	}
}

func TestDarkModePersists(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newTaskStore(t, kv)

	if s.DarkMode() {
		t.Fatalf("dark mode should default to off")
	}
	if err := s.SetDarkMode(context.Background(), true); err != nil {
		t.Fatalf("set dark mode: %v", err)
	}

	reloaded := newTaskStore(t, kv)
	if !reloaded.DarkMode() {
		t.Fatalf("dark mode preference did not persist")
	}
}

func TestConcurrentAddAndFilter(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newTaskStore(t, kv)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			if _, err := s.AddTodo(ctx, fmt.Sprintf("todo %d", i), model.DefaultListID, "u1"); err != nil {
				t.Errorf("add todo: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for range s.FilteredTodos(model.DefaultListID) {
			}
		}
	}()
	wg.Wait()

	if got := collect(s.FilteredTodos(model.DefaultListID)); len(got) != n {
		t.Fatalf("expected %d todos after concurrent adds, got %d", n, len(got))
	}
}

func TestFilteredTodosExtremeOrders(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newTaskStore(t, kv)
	ctx := context.Background()

	first, err := s.AddTodo(ctx, "last by order", model.DefaultListID, "u1")
	if err != nil {
		t.Fatalf("add todo: %v", err)
	}
	second, err := s.AddTodo(ctx, "first by order", model.DefaultListID, "u1")
	if err != nil {
		t.Fatalf("add todo: %v", err)
	}

	first.Order = math.MaxInt
	second.Order = math.MinInt
	if err := s.UpdateTodo(ctx, first); err != nil {
		t.Fatalf("update todo: %v", err)
	}
	if err := s.UpdateTodo(ctx, second); err != nil {
		t.Fatalf("update todo: %v", err)
	}

	got := collect(s.FilteredTodos(model.DefaultListID))
	if len(got) != 2 || got[0].ID != second.ID || got[1].ID != first.ID {
		t.Fatalf("extreme order values sorted wrong: %+v", got)
	}
}
