package todoform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/model"
	"taskdeck/internal/theme"
)

// TodoCreatedMsg is dispatched when a new todo is submitted via the form.
type TodoCreatedMsg struct {
	Text    string
	ListID  string
	DueDate string
	Starred bool
}

// TodoUpdatedMsg is dispatched when an existing todo is updated via the form.
type TodoUpdatedMsg struct {
	Todo model.Todo
}

// TodoFormCancelMsg is dispatched when the user cancels the form.
type TodoFormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	text    string
	listID  string
	dueDate string
	starred bool
	notes   string
}

// Model is the Bubble Tea model for the todo create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	base     model.Todo
	lists    []model.List
	width    int
	height   int
}

// New creates a new todo form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{listID: model.DefaultListID},
		width:  width,
		height: height,
	}
}

// SetLists sets the available lists for the form's list selector.
func (m *Model) SetLists(lists []model.List) {
	m.lists = lists
}

// StartCreate initializes the form for creating a new todo in the
// given list.
func (m *Model) StartCreate(listID string) tea.Cmd {
	m.editMode = false
	m.base = model.Todo{}
	m.fb.text = ""
	m.fb.listID = listID
	m.fb.dueDate = ""
	m.fb.starred = false
	m.fb.notes = ""
	m.form = m.buildForm(false)
	return m.form.Init()
}

// StartEdit initializes the form for editing an existing todo.
func (m *Model) StartEdit(todo model.Todo) tea.Cmd {
	m.editMode = true
	m.base = todo
	m.fb.text = todo.Text
	m.fb.listID = todo.ListID
	m.fb.dueDate = todo.DueDate
	m.fb.starred = todo.Starred
	m.fb.notes = todo.Notes
	m.form = m.buildForm(true)
	return m.form.Init()
}

// Update handles messages for the todo form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return TodoFormCancelMsg{} }
	}

	return m, cmd
}

// View renders the todo form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Todo"
	if m.editMode {
		titleText = "Edit Todo"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm(edit bool) *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Todo").
			Placeholder("What needs to be done?").
			Value(&m.fb.text).
			Validate(validateRequired("Todo")),
		m.listField(),
		huh.NewInput().
			Title("Due Date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.dueDate).
			Validate(validateOptionalDate),
		huh.NewConfirm().
			Title("Starred").
			Affirmative("Yes").
			Negative("No").
			Value(&m.fb.starred),
	}

	if edit {
		fields = append(fields,
			huh.NewText().
				Title("Notes").
				Placeholder("Optional notes...").
				Value(&m.fb.notes),
		)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) listField() huh.Field {
	opts := make([]huh.Option[string], 0, len(m.lists))
	for _, l := range m.lists {
		opts = append(opts, huh.NewOption(l.Name, l.ID))
	}
	return huh.NewSelect[string]().
		Title("List").
		Options(opts...).
		Value(&m.fb.listID)
}

func (m Model) handleSubmit() tea.Cmd {
	if m.editMode {
		todo := m.base
		todo.Text = m.fb.text
		todo.ListID = m.fb.listID
		todo.DueDate = strings.TrimSpace(m.fb.dueDate)
		todo.Starred = m.fb.starred
		todo.Notes = m.fb.notes
		return func() tea.Msg { return TodoUpdatedMsg{Todo: todo} }
	}

	created := TodoCreatedMsg{
		Text:    m.fb.text,
		ListID:  m.fb.listID,
		DueDate: strings.TrimSpace(m.fb.dueDate),
		Starred: m.fb.starred,
	}
	return func() tea.Msg { return created }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(model.DueDateLayout, s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
