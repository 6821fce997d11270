package model

import (
	"time"

	"github.com/google/uuid"
)

// DueDateLayout is the calendar-date format used for todo due dates.
// Due dates carry no time component.
const DueDateLayout = "2006-01-02"

// Todo is a single task item owned by a user and belonging to a list.
type Todo struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Starred   bool      `json:"starred"`
	DueDate   string    `json:"dueDate,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Subtasks  []Subtask `json:"subtasks"`
	ListID    string    `json:"listId"`

	// Order defines the display position within a list. Values may
	// collide or gap; ties are broken by insertion order.
	Order int `json:"order"`

	UserID string `json:"userId"`
}

// DueOn reports whether the todo's due date falls on the given calendar day.
// Todos without a due date are never due.
func (t Todo) DueOn(day time.Time) bool {
	if t.DueDate == "" {
		return false
	}
	return t.DueDate == day.Format(DueDateLayout)
}

// Subtask is a simple sub-entry within a todo. Subtasks have no due date
// and cannot be nested.
type Subtask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// NewSubtask creates an incomplete subtask with a fresh identifier.
func NewSubtask(text string) Subtask {
	return Subtask{ID: uuid.NewString(), Text: text}
}
