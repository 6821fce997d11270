package tasklist

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/keys"
	"taskdeck/internal/model"
	"taskdeck/internal/store"
	"taskdeck/internal/theme"
)

// TodosLoadedMsg is sent when todos have been loaded from the store.
type TodosLoadedMsg struct {
	Todos []model.Todo
}

// SelectedTodoMsg is sent when the user opens a todo's detail view.
type SelectedTodoMsg struct {
	TodoID string
}

// ToggleTodoMsg asks the app to flip a todo's completed state.
type ToggleTodoMsg struct {
	TodoID string
}

// StarTodoMsg asks the app to flip a todo's starred state.
type StarTodoMsg struct {
	TodoID string
}

// DeleteTodoMsg asks the app to delete a todo.
type DeleteTodoMsg struct {
	TodoID string
}

// MoveTodoMsg asks the app to move a todo up or down within the
// current view. Delta is -1 or +1.
type MoveTodoMsg struct {
	TodoID string
	Delta  int
}

// NewTodoMsg asks the app to open the create form.
type NewTodoMsg struct{}

// EditTodoMsg asks the app to open the edit form for a todo.
type EditTodoMsg struct {
	TodoID string
}

// Model is the main todo list view component.
type Model struct {
	list        list.Model
	store       *store.TaskStore
	keys        *keys.KeyMap
	selector    string
	query       string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new todo list model showing the default list.
func New(s *store.TaskStore, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "My Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search todos..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		store:       s,
		keys:        k,
		selector:    model.DefaultListID,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial set of todos.
func (m Model) Init() tea.Cmd {
	return m.LoadTodos()
}

// Selector returns the active view selector.
func (m Model) Selector() string {
	return m.selector
}

// Searching reports whether the search input currently has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// SetSelector switches the active view and retitles the list.
func (m *Model) SetSelector(selector string) {
	m.selector = selector

	switch selector {
	case model.SelectorStarred:
		m.list.Title = "Starred"
	case model.SelectorToday:
		m.list.Title = "Today"
	default:
		if l, ok := m.store.ListByID(selector); ok {
			m.list.Title = l.Name
		} else {
			m.list.Title = "My Tasks"
		}
	}
}

// Update handles messages for the todo list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TodosLoadedMsg:
		items := make([]list.Item, len(msg.Todos))
		for i, todo := range msg.Todos {
			items[i] = TodoItem{Todo: todo}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	// Delegate to list model for other messages
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = m.searchInput.Value()
		return m, m.LoadTodos()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		return m, m.LoadTodos()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		if id, ok := m.selectedID(); ok {
			return m, func() tea.Msg { return SelectedTodoMsg{TodoID: id} }
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.New):
		return m, func() tea.Msg { return NewTodoMsg{} }

	case key.Matches(msg, m.keys.Edit):
		if id, ok := m.selectedID(); ok {
			return m, func() tea.Msg { return EditTodoMsg{TodoID: id} }
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleDone):
		if id, ok := m.selectedID(); ok {
			return m, func() tea.Msg { return ToggleTodoMsg{TodoID: id} }
		}
		return m, nil

	case key.Matches(msg, m.keys.Star):
		if id, ok := m.selectedID(); ok {
			return m, func() tea.Msg { return StarTodoMsg{TodoID: id} }
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if id, ok := m.selectedID(); ok {
			return m, func() tea.Msg { return DeleteTodoMsg{TodoID: id} }
		}
		return m, nil

	case key.Matches(msg, m.keys.MoveUp):
		if id, ok := m.selectedID(); ok {
			return m, func() tea.Msg { return MoveTodoMsg{TodoID: id, Delta: -1} }
		}
		return m, nil

	case key.Matches(msg, m.keys.MoveDown):
		if id, ok := m.selectedID(); ok {
			return m, func() tea.Msg { return MoveTodoMsg{TodoID: id, Delta: 1} }
		}
		return m, nil

	case key.Matches(msg, m.keys.FilterStarred):
		m.SetSelector(model.SelectorStarred)
		return m, m.LoadTodos()

	case key.Matches(msg, m.keys.FilterToday):
		m.SetSelector(model.SelectorToday)
		return m, m.LoadTodos()

	case key.Matches(msg, m.keys.FilterAll):
		m.SetSelector(model.DefaultListID)
		return m, m.LoadTodos()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// selectedID returns the id of the currently highlighted todo.
func (m Model) selectedID() (string, bool) {
	item, ok := m.list.SelectedItem().(TodoItem)
	if !ok {
		return "", false
	}
	return item.Todo.ID, true
}

// View renders the todo list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when the current view has no todos.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" {
		return style.Render("No matching todos.\nPress esc to clear the search.")
	}

	switch m.selector {
	case model.SelectorStarred:
		return style.Render("No starred todos.\nPress * on a todo to star it.")
	case model.SelectorToday:
		return style.Render("Nothing due today.")
	default:
		return style.Render("No todos yet.\n\nPress n to add one.")
	}
}

// LoadTodos returns a tea.Cmd that reads the store with the current
// selector and search query.
func (m Model) LoadTodos() tea.Cmd {
	s := m.store
	selector := m.selector
	query := strings.ToLower(m.query)

	return func() tea.Msg {
		var todos []model.Todo
		for t := range s.FilteredTodos(selector) {
			if query != "" && !strings.Contains(strings.ToLower(t.Text), query) {
				continue
			}
			todos = append(todos, t)
		}
		return TodosLoadedMsg{Todos: todos}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
