package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/model"
)

// todoChangedResultMsg is sent after a todo mutation is persisted.
type todoChangedResultMsg struct{ err error }

// subtasksSuggestedMsg carries AI subtask suggestions for a todo.
type subtasksSuggestedMsg struct {
	todoID      string
	suggestions []string
	err         error
}

// subscriptionResultMsg is sent after a subscription tier change is
// persisted.
type subscriptionResultMsg struct{ err error }

// createTodo persists a new todo and applies the optional due date and
// star from the form.
func (m *Model) createTodo(text, listID, dueDate string, starred bool) tea.Cmd {
	s := m.tasks
	userID := m.userID()
	return func() tea.Msg {
		ctx := context.Background()
		todo, err := s.AddTodo(ctx, text, listID, userID)
		if err != nil {
			return todoChangedResultMsg{err: err}
		}
		if dueDate != "" || starred {
			todo.DueDate = dueDate
			todo.Starred = starred
			if err := s.UpdateTodo(ctx, todo); err != nil {
				return todoChangedResultMsg{err: err}
			}
		}
		return todoChangedResultMsg{}
	}
}

// updateTodo persists a modified todo wholesale.
func (m *Model) updateTodo(todo model.Todo) tea.Cmd {
	s := m.tasks
	return func() tea.Msg {
		err := s.UpdateTodo(context.Background(), todo)
		return todoChangedResultMsg{err: err}
	}
}

// deleteTodo removes a todo from the store.
func (m *Model) deleteTodo(id string) tea.Cmd {
	s := m.tasks
	return func() tea.Msg {
		err := s.DeleteTodo(context.Background(), id)
		return todoChangedResultMsg{err: err}
	}
}

// toggleTodo flips a todo's completed state.
func (m *Model) toggleTodo(id string) tea.Cmd {
	s := m.tasks
	return func() tea.Msg {
		todo, ok := s.TodoByID(id)
		if !ok {
			return todoChangedResultMsg{}
		}
		todo.Completed = !todo.Completed
		err := s.UpdateTodo(context.Background(), todo)
		return todoChangedResultMsg{err: err}
	}
}

// starTodo flips a todo's starred state.
func (m *Model) starTodo(id string) tea.Cmd {
	s := m.tasks
	return func() tea.Msg {
		todo, ok := s.TodoByID(id)
		if !ok {
			return todoChangedResultMsg{}
		}
		todo.Starred = !todo.Starred
		err := s.UpdateTodo(context.Background(), todo)
		return todoChangedResultMsg{err: err}
	}
}

// moveTodo shifts a todo one position up or down within the current view
// and persists the new ordering.
func (m *Model) moveTodo(id string, delta int) tea.Cmd {
	s := m.tasks
	selector := m.taskList.Selector()
	return func() tea.Msg {
		var sequence []model.Todo
		for t := range s.FilteredTodos(selector) {
			sequence = append(sequence, t)
		}

		idx := -1
		for i, t := range sequence {
			if t.ID == id {
				idx = i
				break
			}
		}
		target := idx + delta
		if idx < 0 || target < 0 || target >= len(sequence) {
			return todoChangedResultMsg{}
		}

		sequence[idx], sequence[target] = sequence[target], sequence[idx]
		err := s.ReorderTodos(context.Background(), sequence)
		return todoChangedResultMsg{err: err}
	}
}

// suggestSubtasks asks the AI generator for subtask suggestions.
func (m *Model) suggestSubtasks(todo model.Todo) tea.Cmd {
	g := m.generator
	return func() tea.Msg {
		suggestions, err := g.GenerateSubtasks(context.Background(), todo.Text)
		return subtasksSuggestedMsg{
			todoID:      todo.ID,
			suggestions: suggestions,
			err:         err,
		}
	}
}

// applySuggestions appends the suggested subtasks to a todo and persists it.
func (m *Model) applySuggestions(todoID string, suggestions []string) tea.Cmd {
	s := m.tasks
	return func() tea.Msg {
		todo, ok := s.TodoByID(todoID)
		if !ok {
			return todoChangedResultMsg{}
		}
		for _, text := range suggestions {
			todo.Subtasks = append(todo.Subtasks, model.NewSubtask(text))
		}
		err := s.UpdateTodo(context.Background(), todo)
		return todoChangedResultMsg{err: err}
	}
}

// changeSubscription records the new tier for the signed-in user.
func (m *Model) changeSubscription(tier string) tea.Cmd {
	sessions := m.sessions
	userID := m.userID()
	return func() tea.Msg {
		err := sessions.UpdateSubscription(context.Background(), userID, tier)
		return subscriptionResultMsg{err: err}
	}
}

// toggleDarkMode flips and persists the dark-mode preference.
func (m *Model) toggleDarkMode() tea.Cmd {
	s := m.tasks
	on := !s.DarkMode()
	return func() tea.Msg {
		err := s.SetDarkMode(context.Background(), on)
		return todoChangedResultMsg{err: err}
	}
}

// signOut clears the session.
func (m *Model) signOut() tea.Cmd {
	sessions := m.sessions
	return func() tea.Msg {
		err := sessions.SignOut(context.Background())
		return signedOutMsg{err: err}
	}
}

// signedOutMsg is sent after the session is cleared.
type signedOutMsg struct{ err error }
