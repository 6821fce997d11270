package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/model"
	"taskdeck/internal/theme"
)

// TodoItem wraps a model.Todo so it can be used in a bubbles/list.
type TodoItem struct {
	Todo model.Todo
}

// FilterValue returns the string used for fuzzy filtering.
func (i TodoItem) FilterValue() string { return i.Todo.Text }

// Title returns the todo text for the list.
func (i TodoItem) Title() string { return i.Todo.Text }

// Description returns a short summary line for the list.
func (i TodoItem) Description() string {
	parts := []string{}
	if i.Todo.DueDate != "" {
		parts = append(parts, i.Todo.DueDate)
	}
	if n := len(i.Todo.Subtasks); n > 0 {
		parts = append(parts, fmt.Sprintf("%d subtasks", n))
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering todo lines.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single todo line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	wrapper, ok := item.(TodoItem)
	if !ok {
		return
	}

	t := wrapper.Todo
	isSelected := index == m.Index()

	var prefix string
	if t.Completed {
		prefix = "✓"
	} else {
		prefix = "○"
	}

	star := ""
	if t.Starred {
		star = theme.StarStyle.Render(" ★")
	}

	subtasks := ""
	if total := len(t.Subtasks); total > 0 {
		done := 0
		for _, st := range t.Subtasks {
			if st.Completed {
				done++
			}
		}
		subtasks = theme.HelpStyle.Render(fmt.Sprintf(" [%d/%d]", done, total))
	}

	line := fmt.Sprintf("%s %s%s%s%s", prefix, t.Text, star, subtasks, dueBadge(t))

	// Completed items are dimmed before selection styling so the
	// strikethrough survives the highlight.
	if t.Completed {
		line = theme.CompletedStyle.Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// dueBadge renders the due-date portion of a todo line, flagging dates in
// the past for incomplete todos.
func dueBadge(t model.Todo) string {
	if t.DueDate == "" {
		return ""
	}

	due, err := time.ParseInLocation(model.DueDateLayout, t.DueDate, time.Local)
	if err != nil {
		return ""
	}

	badge := theme.DueDateStyle.Render(" " + due.Format("Jan 02"))

	today := time.Now()
	startOfToday := time.Date(
		today.Year(), today.Month(), today.Day(),
		0, 0, 0, 0, time.Local,
	)
	if due.Before(startOfToday) && !t.Completed {
		badge += theme.OverdueStyle.Render(" OVERDUE")
	}

	return badge
}
