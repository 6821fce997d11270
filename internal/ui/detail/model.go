package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/keys"
	"taskdeck/internal/model"
	"taskdeck/internal/store"
	"taskdeck/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// TodoChangedMsg carries a modified todo for the parent to persist.
type TodoChangedMsg struct {
	Todo model.Todo
}

// EditMsg asks the parent to open the edit form for the current todo.
type EditMsg struct {
	TodoID string
}

// SuggestRequestedMsg asks the parent to generate subtask suggestions
// for the current todo.
type SuggestRequestedMsg struct {
	Todo model.Todo
}

// Model is the todo detail view component.
type Model struct {
	todo       model.Todo
	hasTodo    bool
	store      *store.TaskStore
	keys       *keys.KeyMap
	cursor     int
	adding     bool
	addInput   textinput.Model
	suggesting bool
	width      int
	height     int
}

// New creates a new detail view model.
func New(s *store.TaskStore, k *keys.KeyMap, width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "New subtask..."
	ti.Prompt = "+ "
	ti.Width = width - 8

	return Model{
		store:    s,
		keys:     k,
		addInput: ti,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetTodo updates the todo being displayed.
func (m *Model) SetTodo(todo model.Todo) {
	m.todo = todo
	m.hasTodo = true
	m.suggesting = false
	if m.cursor >= len(todo.Subtasks) {
		m.cursor = max(0, len(todo.Subtasks)-1)
	}
}

// SetSuggesting toggles the AI-suggestion spinner line.
func (m *Model) SetSuggesting(on bool) {
	m.suggesting = on
}

// TodoID returns the id of the displayed todo.
func (m Model) TodoID() string {
	return m.todo.ID
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.adding {
		return m.handleAddKeys(keyMsg)
	}
	return m.handleNormalKeys(keyMsg)
}

// handleAddKeys processes key input while the new-subtask input is open.
func (m Model) handleAddKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.addInput.Value())
		m.adding = false
		m.addInput.Reset()
		if text == "" {
			return m, nil
		}
		m.todo.Subtasks = append(m.todo.Subtasks, model.NewSubtask(text))
		return m, m.emitChange()

	case "esc":
		m.adding = false
		m.addInput.Reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.addInput, cmd = m.addInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in browse mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.todo.Subtasks)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.adding = true
		m.addInput.Reset()
		return m, m.addInput.Focus()

	case key.Matches(msg, m.keys.Edit):
		return m, func() tea.Msg { return EditMsg{TodoID: m.todo.ID} }

	case key.Matches(msg, m.keys.ToggleDone):
		if m.cursor < len(m.todo.Subtasks) {
			m.todo.Subtasks[m.cursor].Completed = !m.todo.Subtasks[m.cursor].Completed
			return m, m.emitChange()
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if m.cursor < len(m.todo.Subtasks) {
			m.todo.Subtasks = append(
				m.todo.Subtasks[:m.cursor],
				m.todo.Subtasks[m.cursor+1:]...,
			)
			if m.cursor >= len(m.todo.Subtasks) {
				m.cursor = max(0, len(m.todo.Subtasks)-1)
			}
			return m, m.emitChange()
		}
		return m, nil

	case key.Matches(msg, m.keys.Star):
		m.todo.Starred = !m.todo.Starred
		return m, m.emitChange()

	case key.Matches(msg, m.keys.Suggest):
		if m.suggesting {
			return m, nil
		}
		todo := m.todo
		return m, func() tea.Msg { return SuggestRequestedMsg{Todo: todo} }
	}

	return m, nil
}

// emitChange hands the modified todo to the parent for persistence.
func (m Model) emitChange() tea.Cmd {
	todo := m.todo
	return func() tea.Msg { return TodoChangedMsg{Todo: todo} }
}

// View renders the detail view.
func (m Model) View() string {
	if !m.hasTodo {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No todo selected")
	}

	t := m.todo
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	title := t.Text
	if t.Completed {
		title = theme.CompletedStyle.Render(title)
	} else {
		title = titleStyle.Render(title)
	}
	if t.Starred {
		title += theme.StarStyle.Render(" ★")
	}
	sections = append(sections, title)
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	if l, ok := m.store.ListByID(t.ListID); ok {
		sections = append(sections, fmt.Sprintf(
			"%s      %s",
			metaStyle.Render("List:"),
			valStyle.Render(l.Name),
		))
	}
	if t.DueDate != "" {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Due date:"),
			theme.DueDateStyle.Render(t.DueDate),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, headerStyle.Render(
		fmt.Sprintf("Subtasks (%d)", len(t.Subtasks)),
	))
	sections = append(sections, "")

	if len(t.Subtasks) == 0 && !m.adding {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No subtasks. Press n to add one, a to suggest."))
	}

	for i, st := range t.Subtasks {
		var prefix string
		if st.Completed {
			prefix = "✓"
		} else {
			prefix = "○"
		}

		line := fmt.Sprintf("%s %s", prefix, st.Text)
		if st.Completed {
			line = theme.CompletedStyle.Render(line)
		}
		if i == m.cursor && !m.adding {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		sections = append(sections, line)
	}

	if m.adding {
		sections = append(sections, m.addInput.View())
	}

	if m.suggesting {
		sections = append(sections, "")
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true).
			Render("Generating suggestions..."))
	}

	if t.Notes != "" {
		sections = append(sections, "")
		sections = append(sections, separator)
		sections = append(sections, "")
		sections = append(sections, headerStyle.Render("Notes"))
		sections = append(sections, t.Notes)
	}

	sections = append(sections, "")
	sections = append(sections, theme.HelpStyle.Render(
		"space toggle | n add | x delete | a suggest | e edit | * star | esc back",
	))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return theme.DetailPanelStyle.Width(m.width - 4).Render(content)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.addInput.Width = width - 8
}
