package app

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	aiservice "taskdeck/internal/ai"
	"taskdeck/internal/billing"
	"taskdeck/internal/credential"
	"taskdeck/internal/model"
	"taskdeck/internal/notify"
	"taskdeck/internal/store"
	"taskdeck/internal/ui"
	"taskdeck/internal/ui/authform"
	"taskdeck/internal/ui/detail"
	helpview "taskdeck/internal/ui/help"
	"taskdeck/internal/ui/listmgr"
	"taskdeck/internal/ui/plans"
	"taskdeck/internal/ui/tasklist"
	"taskdeck/internal/ui/todoform"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewAuth ViewState = iota
	ViewList
	ViewDetail
	ViewLists
	ViewPlans
	ViewHelp
	ViewTodoCreate
	ViewTodoEdit
)

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the persistence layer.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	tasks        *store.TaskStore
	sessions     *store.SessionStore
	mailer       *notify.Mailer
	keys         *KeyMap
	generator    *aiservice.Generator
	taskList     tasklist.Model
	detail       detail.Model
	listView     listmgr.Model
	planView     plans.Model
	authView     authform.Model
	helpView     helpview.Model
	todoFormView todoform.Model
	ready        bool
	statusMsg    string
}

// New creates a new root application model wired to the given stores and
// service clients.
func New(
	tasks *store.TaskStore,
	sessions *store.SessionStore,
	billingClient *billing.Client,
	mailer *notify.Mailer,
	aiModel string,
	aiMaxTokens int,
) Model {
	keys := DefaultKeyMap()

	lipgloss.SetHasDarkBackground(tasks.DarkMode())

	startView := ViewAuth
	if _, ok := sessions.CurrentUser(); ok {
		startView = ViewList
	}

	m := Model{
		currentView:  startView,
		tasks:        tasks,
		sessions:     sessions,
		mailer:       mailer,
		keys:         keys,
		generator:    loadSubtaskGenerator(aiModel, aiMaxTokens),
		taskList:     tasklist.New(tasks, keys, 80, 24),
		detail:       detail.New(tasks, keys, 80, 24),
		listView:     listmgr.New(tasks, keys, 80, 24),
		planView:     plans.New(billingClient, keys, 80, 24),
		authView:     authform.New(sessions, mailer, 80, 24),
		helpView:     helpview.New(keys, 80, 24),
		todoFormView: todoform.New(80, 24),
	}

	if user, ok := sessions.CurrentUser(); ok {
		m.applyUser(user)
	}

	return m
}

// loadSubtaskGenerator attempts to create the AI generator by loading the
// API key from the environment variable or system keyring. Returns nil if
// no key is available.
func loadSubtaskGenerator(modelName string, maxTokens int) *aiservice.Generator {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		var err error
		apiKey, err = credential.Get("anthropic-api-key")
		if err != nil || apiKey == "" {
			return nil
		}
	}

	return aiservice.New(apiKey, modelName, maxTokens)
}

// applyUser propagates the signed-in user to the sub-views that need it.
func (m *Model) applyUser(user model.User) {
	m.listView.SetUser(user.ID)

	tier := model.TierFree
	if user.Subscription != nil {
		tier = user.Subscription.Status
	}
	m.planView.SetUser(user.ID, tier)
}

// userID returns the id of the signed-in user, or "" when signed out.
func (m *Model) userID() string {
	user, ok := m.sessions.CurrentUser()
	if !ok {
		return ""
	}
	return user.ID
}

// Init returns the initial command for the start view.
func (m Model) Init() tea.Cmd {
	if m.currentView == ViewAuth {
		return m.authView.Init()
	}
	return m.taskList.Init()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.taskList.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.listView.SetSize(contentWidth, contentHeight)
		m.planView.SetSize(contentWidth, contentHeight)
		m.authView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.todoFormView.SetSize(contentWidth, contentHeight)
		// Forward to the active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case authform.SignedInMsg:
		m.applyUser(msg.User)
		m.currentView = ViewList
		m.statusMsg = ""
		return m, m.taskList.LoadTodos()

	case signedOutMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.currentView = ViewAuth
		m.authView = authform.New(m.sessions, m.mailer, m.layout.Width, m.layout.Height)
		m.authView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		return m, m.authView.Init()

	case tasklist.SelectedTodoMsg:
		todo, ok := m.tasks.TodoByID(msg.TodoID)
		if !ok {
			return m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetTodo(todo)
		return m, nil

	case tasklist.NewTodoMsg:
		return m.openCreateForm()

	case tasklist.EditTodoMsg:
		return m.openEditForm(msg.TodoID)

	case tasklist.ToggleTodoMsg:
		return m, m.toggleTodo(msg.TodoID)

	case tasklist.StarTodoMsg:
		return m, m.starTodo(msg.TodoID)

	case tasklist.DeleteTodoMsg:
		return m, m.deleteTodo(msg.TodoID)

	case tasklist.MoveTodoMsg:
		return m, m.moveTodo(msg.TodoID, msg.Delta)

	case todoform.TodoCreatedMsg:
		m.currentView = ViewList
		return m, m.createTodo(msg.Text, msg.ListID, msg.DueDate, msg.Starred)

	case todoform.TodoUpdatedMsg:
		m.currentView = m.previousView
		if m.currentView == ViewDetail {
			m.detail.SetTodo(msg.Todo)
		}
		return m, m.updateTodo(msg.Todo)

	case todoform.TodoFormCancelMsg:
		m.currentView = m.previousView
		return m, nil

	case todoChangedResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = ""
		}
		if m.currentView == ViewDetail {
			if todo, ok := m.tasks.TodoByID(m.detail.TodoID()); ok {
				m.detail.SetTodo(todo)
			}
		}
		return m, m.taskList.LoadTodos()

	case detail.BackMsg:
		m.currentView = ViewList
		return m, m.taskList.LoadTodos()

	case detail.TodoChangedMsg:
		m.detail.SetTodo(msg.Todo)
		return m, m.updateTodo(msg.Todo)

	case detail.EditMsg:
		return m.openEditForm(msg.TodoID)

	case detail.SuggestRequestedMsg:
		if m.generator == nil {
			m.statusMsg = "AI unavailable: set ANTHROPIC_API_KEY or store a key with taskdeck auth"
			return m, nil
		}
		m.detail.SetSuggesting(true)
		return m, m.suggestSubtasks(msg.Todo)

	case subtasksSuggestedMsg:
		m.detail.SetSuggesting(false)
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Suggestion failed: %v", msg.err)
			return m, nil
		}
		if len(msg.suggestions) == 0 {
			m.statusMsg = "No suggestions returned."
			return m, nil
		}
		return m, m.applySuggestions(msg.todoID, msg.suggestions)

	case listmgr.ListViewCloseMsg:
		m.currentView = ViewList
		return m, nil

	case listmgr.ListSelectedMsg:
		m.currentView = ViewList
		m.taskList.SetSelector(msg.Selector)
		return m, m.taskList.LoadTodos()

	case listmgr.ListsChangedMsg:
		return m, m.taskList.LoadTodos()

	case plans.PlansCloseMsg:
		m.currentView = ViewList
		return m, nil

	case plans.SubscriptionChangedMsg:
		return m, m.changeSubscription(msg.Tier)

	case subscriptionResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else if user, ok := m.sessions.CurrentUser(); ok {
			m.applyUser(user)
		}
		return m, nil

	case tea.KeyMsg:
		// Any key dismisses a pending notification.
		m.statusMsg = ""
		if handled, mdl, cmd := m.handleGlobalKey(msg); handled {
			return mdl, cmd
		}
	}

	// Delegate to the active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of the focused view.
// Text inputs keep priority: global shortcuts only fire outside form views.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return true, m, tea.Quit
	}

	// Forms, the auth screen, and the search input own the keyboard.
	switch m.currentView {
	case ViewAuth, ViewTodoCreate, ViewTodoEdit:
		return false, m, nil
	}
	if m.currentView == ViewList && m.taskList.Searching() {
		return false, m, nil
	}

	switch msg.String() {
	case "q":
		if m.currentView == ViewList {
			return true, m, tea.Quit
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case "l":
		if m.currentView == ViewList {
			m.previousView = m.currentView
			m.currentView = ViewLists
			return true, m, m.listView.Init()
		}

	case "p":
		if m.currentView == ViewList {
			m.previousView = m.currentView
			m.currentView = ViewPlans
			return true, m, m.planView.Init()
		}

	case "d":
		if m.currentView == ViewList {
			lipgloss.SetHasDarkBackground(!m.tasks.DarkMode())
			return true, m, m.toggleDarkMode()
		}

	case "O":
		if m.currentView == ViewList {
			return true, m, m.signOut()
		}
	}

	return false, m, nil
}

// openCreateForm shows the todo form in create mode, defaulting to the
// list behind the current view.
func (m Model) openCreateForm() (tea.Model, tea.Cmd) {
	listID := m.taskList.Selector()
	if listID == model.SelectorStarred || listID == model.SelectorToday {
		listID = model.DefaultListID
	}
	if _, ok := m.tasks.ListByID(listID); !ok {
		listID = model.DefaultListID
	}

	m.previousView = m.currentView
	m.currentView = ViewTodoCreate
	m.todoFormView.SetLists(m.tasks.Lists())
	return m, m.todoFormView.StartCreate(listID)
}

// openEditForm shows the todo form in edit mode.
func (m Model) openEditForm(todoID string) (tea.Model, tea.Cmd) {
	todo, ok := m.tasks.TodoByID(todoID)
	if !ok {
		return m, nil
	}
	m.previousView = m.currentView
	m.currentView = ViewTodoEdit
	m.todoFormView.SetLists(m.tasks.Lists())
	return m, m.todoFormView.StartEdit(todo)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewAuth:
		m.authView, cmd = m.authView.Update(msg)
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewLists:
		m.listView, cmd = m.listView.Update(msg)
	case ViewPlans:
		m.planView, cmd = m.planView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewTodoCreate, ViewTodoEdit:
		m.todoFormView, cmd = m.todoFormView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Taskdeck", m.sessionLabel())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewAuth:
		return m.authView.View()
	case ViewList:
		return m.taskList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewLists:
		return m.listView.View()
	case ViewPlans:
		return m.planView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewTodoCreate, ViewTodoEdit:
		return m.todoFormView.View()
	default:
		return ""
	}
}

// sessionLabel describes the signed-in user for the header.
func (m Model) sessionLabel() string {
	user, ok := m.sessions.CurrentUser()
	if !ok {
		return "signed out"
	}

	tier := model.TierFree
	if user.Subscription != nil {
		tier = user.Subscription.Status
	}
	return fmt.Sprintf("%s (%s)", user.Email, tier)
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	// Errors take over the status bar in whichever view the failing flow
	// left the user, e.g. a suggestion failure raised from the detail view.
	if m.statusMsg != "" {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewAuth:
		return "enter submit | ctrl+s sign up | ctrl+r forgot password"
	case ViewHelp:
		return "? close help | esc back"
	case ViewDetail:
		return "space toggle | n add subtask | a suggest | esc back"
	case ViewLists:
		return "enter open | n new | e rename | d delete | esc back"
	case ViewPlans:
		return "enter choose | m manage | esc back"
	case ViewTodoCreate, ViewTodoEdit:
		return "enter submit | esc cancel"
	default:
		return "q quit | ? help | n new | space done | * star | l lists | p plans"
	}
}
