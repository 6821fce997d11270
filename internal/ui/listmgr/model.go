package listmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/keys"
	"taskdeck/internal/model"
	"taskdeck/internal/store"
	"taskdeck/internal/theme"
)

// ListViewCloseMsg signals the parent to close the list manager.
type ListViewCloseMsg struct{}

// ListSelectedMsg signals that the user picked a view to show. Selector is
// a list id or one of the smart-view selectors.
type ListSelectedMsg struct {
	Selector string
}

// ListsChangedMsg signals that lists were modified (created/renamed/deleted).
type ListsChangedMsg struct{}

type listMode int

const (
	modeList listMode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	name    string
	confirm bool
}

// entry is one selectable row: a smart view or a real list.
type entry struct {
	selector string
	label    string
	smart    bool
}

type entriesLoadedMsg struct {
	entries []entry
}

type listSavedMsg struct{ err error }
type listDeletedMsg struct{ err error }

// Model is the Bubble Tea model for list management.
type Model struct {
	mode        listMode
	store       *store.TaskStore
	keys        *keys.KeyMap
	entries     []entry
	selectedIdx int
	editingID   string
	isNew       bool
	userID      string
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new list manager model.
func New(s *store.TaskStore, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeList,
		store: s,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// SetUser sets the owner recorded on newly created lists.
func (m *Model) SetUser(userID string) {
	m.userID = userID
}

// Init loads the entries from the store.
func (m Model) Init() tea.Cmd {
	return m.loadEntries()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case entriesLoadedMsg:
		m.entries = msg.entries
		if m.selectedIdx >= len(m.entries) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.entries) - 1
		}
		return m, nil

	case listSavedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "List saved"
		}
		m.mode = modeList
		return m, tea.Batch(m.loadEntries(), func() tea.Msg { return ListsChangedMsg{} })

	case listDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "List deleted"
		}
		m.mode = modeList
		return m, tea.Batch(m.loadEntries(), func() tea.Msg { return ListsChangedMsg{} })

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		return m.handleListKey(msg)
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ListViewCloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.entries) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.entries)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.entries) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.entries) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if len(m.entries) == 0 {
			return m, nil
		}
		e := m.entries[m.selectedIdx]
		return m, func() tea.Msg { return ListSelectedMsg{Selector: e.selector} }

	case msg.String() == "n":
		m.isNew = true
		m.editingID = ""
		m.fb.name = ""
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case msg.String() == "e":
		e, ok := m.selectedList()
		if !ok {
			return m, nil
		}
		m.isNew = false
		m.editingID = e.selector
		m.fb.name = e.label
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case msg.String() == "d":
		e, ok := m.selectedList()
		if !ok || e.selector == model.DefaultListID {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm(e.label)
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

// selectedList returns the selected entry when it is a real list.
func (m Model) selectedList() (entry, bool) {
	if m.selectedIdx >= len(m.entries) {
		return entry{}, false
	}
	e := m.entries[m.selectedIdx]
	if e.smart {
		return entry{}, false
	}
	return e, true
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("List name").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm(name string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete list %q?", name)).
				Description("All todos in this list will be deleted too.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		return m, m.saveList()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		if m.fb.confirm {
			return m, m.deleteList(m.entries[m.selectedIdx].selector)
		}
		m.mode = modeList
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

// View renders the list manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Lists"))
	b.WriteString("\n\n")

	for i, e := range m.entries {
		label := e.label
		if e.smart {
			label = theme.StarStyle.Render(label)
		}
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"enter open | n new | e rename | d delete | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
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

func (m Model) loadEntries() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		entries := []entry{
			{selector: model.SelectorStarred, label: "★ Starred", smart: true},
			{selector: model.SelectorToday, label: "☀ Today", smart: true},
		}
		for _, l := range s.Lists() {
			entries = append(entries, entry{selector: l.ID, label: l.Name})
		}
		return entriesLoadedMsg{entries: entries}
	}
}

func (m Model) saveList() tea.Cmd {
	s := m.store
	name := m.fb.name
	editID := m.editingID
	isNew := m.isNew
	userID := m.userID
	return func() tea.Msg {
		if isNew {
			_, err := s.AddList(context.Background(), name, userID)
			return listSavedMsg{err: err}
		}
		err := s.EditList(context.Background(), editID, name)
		return listSavedMsg{err: err}
	}
}

func (m Model) deleteList(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.DeleteList(context.Background(), id)
		return listDeletedMsg{err: err}
	}
}
