package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskdeck/internal/model"
)

// Persisted keys owned by the task store.
const (
	keyTodos    = "todos"
	keyLists    = "lists"
	keyDarkMode = "darkMode"
)

// TaskStore owns the in-memory todo and list collections and mirrors every
// mutation to the KV adapter synchronously, so the persisted state always
// matches memory after each call.
//
// Callers reach the store from Bubble Tea command goroutines, so a mutex
// guards the collections. Accessors copy results out before returning.
type TaskStore struct {
	mu       sync.Mutex
	kv       *KV
	todos    []model.Todo
	lists    []model.List
	darkMode bool
}

// NewTaskStore loads the persisted collections and seeds the default list
// when no lists have ever been stored. Undecodable persisted documents fall
// back to the empty/default value rather than failing construction.
func NewTaskStore(ctx context.Context, kv *KV) (*TaskStore, error) {
	s := &TaskStore{kv: kv}

	todos, found, err := getJSON[[]model.Todo](ctx, kv, keyTodos)
	if err != nil && !errors.Is(err, ErrValidation) {
		return nil, fmt.Errorf("loading todos: %w", err)
	}
	if found {
		s.todos = todos
	}

	lists, found, err := getJSON[[]model.List](ctx, kv, keyLists)
	if err != nil && !errors.Is(err, ErrValidation) {
		return nil, fmt.Errorf("loading lists: %w", err)
	}
	if found {
		s.lists = lists
	}
	if len(s.lists) == 0 {
		s.lists = []model.List{model.DefaultList()}
		if err := s.persistLists(ctx); err != nil {
			return nil, err
		}
	}

	darkMode, found, err := getJSON[bool](ctx, kv, keyDarkMode)
	if err != nil && !errors.Is(err, ErrValidation) {
		return nil, fmt.Errorf("loading dark mode: %w", err)
	}
	if found {
		s.darkMode = darkMode
	}

	return s, nil
}

// AddTodo creates a todo at the end of the given list and returns it. The
// text must not trim to empty.
func (s *TaskStore) AddTodo(ctx context.Context, text, listID, userID string) (model.Todo, error) {
	if strings.TrimSpace(text) == "" {
		return model.Todo{}, fmt.Errorf("todo text must not be empty: %w", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	todo := model.Todo{
		ID:       uuid.NewString(),
		Text:     text,
		Subtasks: []model.Subtask{},
		ListID:   listID,
		Order:    len(s.todos),
		UserID:   userID,
	}
	s.todos = append(s.todos, todo)

	if err := s.persistTodos(ctx); err != nil {
		return model.Todo{}, err
	}
	return todo, nil
}

// UpdateTodo replaces the stored todo matching todo.ID wholesale
// (last-write-wins). Unknown ids are a no-op.
func (s *TaskStore) UpdateTodo(ctx context.Context, todo model.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.todos, func(t model.Todo) bool { return t.ID == todo.ID })
	if idx < 0 {
		return nil
	}
	s.todos[idx] = todo
	return s.persistTodos(ctx)
}

// DeleteTodo removes the todo with the given id. Absent ids are a no-op.
func (s *TaskStore) DeleteTodo(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.todos, func(t model.Todo) bool { return t.ID == id })
	if idx < 0 {
		return nil
	}
	s.todos = slices.Delete(s.todos, idx, idx+1)
	return s.persistTodos(ctx)
}

// AddList creates a new named list with a fresh identifier and returns it.
func (s *TaskStore) AddList(ctx context.Context, name, userID string) (model.List, error) {
	if strings.TrimSpace(name) == "" {
		return model.List{}, fmt.Errorf("list name must not be empty: %w", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := model.List{ID: uuid.NewString(), Name: name, UserID: userID}
	s.lists = append(s.lists, list)

	if err := s.persistLists(ctx); err != nil {
		return model.List{}, err
	}
	return list, nil
}

// DeleteList removes the list and cascades deletion to every todo that
// belongs to it. Deleting the default list is a silent no-op.
func (s *TaskStore) DeleteList(ctx context.Context, id string) error {
	if id == model.DefaultListID {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists = slices.DeleteFunc(s.lists, func(l model.List) bool { return l.ID == id })
	s.todos = slices.DeleteFunc(s.todos, func(t model.Todo) bool { return t.ListID == id })

	if err := s.persistLists(ctx); err != nil {
		return err
	}
	return s.persistTodos(ctx)
}

// EditList renames a list in place. Unknown ids are a no-op.
func (s *TaskStore) EditList(ctx context.Context, id, newName string) error {
	if strings.TrimSpace(newName) == "" {
		return fmt.Errorf("list name must not be empty: %w", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.lists, func(l model.List) bool { return l.ID == id })
	if idx < 0 {
		return nil
	}
	s.lists[idx].Name = newName
	return s.persistLists(ctx)
}

// ReorderTodos rewrites each matched todo's order to its positional index
// in newSequence. The caller is trusted to pass a valid permutation of a
// list's todos; ids not present in the store are ignored.
func (s *TaskStore) ReorderTodos(ctx context.Context, newSequence []model.Todo) error {
	positions := make(map[string]int, len(newSequence))
	for i, t := range newSequence {
		positions[t.ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.todos {
		if pos, ok := positions[s.todos[i].ID]; ok {
			s.todos[i].Order = pos
		}
	}

	return s.persistTodos(ctx)
}

// FilteredTodos returns a restartable sequence of todos matching selector,
// sorted ascending by order. Ties keep insertion order (stable sort).
//
// Selectors: "starred" (starred todos from any list), "today" (due today by
// the local calendar), "default" (all todos), or an explicit list id.
func (s *TaskStore) FilteredTodos(selector string) iter.Seq[model.Todo] {
	return func(yield func(model.Todo) bool) {
		today := time.Now()

		s.mu.Lock()
		matched := make([]model.Todo, 0, len(s.todos))
		for _, t := range s.todos {
			switch selector {
			case model.SelectorStarred:
				if !t.Starred {
					continue
				}
			case model.SelectorToday:
				if !t.DueOn(today) {
					continue
				}
			case model.DefaultListID:
				// All todos, unfiltered.
			default:
				if t.ListID != selector {
					continue
				}
			}
			matched = append(matched, t)
		}
		s.mu.Unlock()

		slices.SortStableFunc(matched, func(a, b model.Todo) int {
			return cmp.Compare(a.Order, b.Order)
		})

		for _, t := range matched {
			if !yield(t) {
				return
			}
		}
	}
}

// TodoByID returns the todo with the given id.
func (s *TaskStore) TodoByID(id string) (model.Todo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.todos, func(t model.Todo) bool { return t.ID == id })
	if idx < 0 {
		return model.Todo{}, false
	}
	return s.todos[idx], true
}

// Lists returns a copy of the list collection in stored order.
func (s *TaskStore) Lists() []model.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lists)
}

// ListByID returns the list with the given id.
func (s *TaskStore) ListByID(id string) (model.List, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.lists, func(l model.List) bool { return l.ID == id })
	if idx < 0 {
		return model.List{}, false
	}
	return s.lists[idx], true
}

// DarkMode returns the persisted dark-mode preference.
func (s *TaskStore) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.darkMode
}

// SetDarkMode updates and persists the dark-mode preference.
func (s *TaskStore) SetDarkMode(ctx context.Context, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.darkMode = on
	return putJSON(ctx, s.kv, keyDarkMode, on)
}

func (s *TaskStore) persistTodos(ctx context.Context) error {
	return putJSON(ctx, s.kv, keyTodos, s.todos)
}

func (s *TaskStore) persistLists(ctx context.Context) error {
	return putJSON(ctx, s.kv, keyLists, s.lists)
}
