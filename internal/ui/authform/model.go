package authform

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/model"
	"taskdeck/internal/notify"
	"taskdeck/internal/store"
	"taskdeck/internal/theme"
)

// SignedInMsg is dispatched after a successful sign-in or sign-up.
type SignedInMsg struct {
	User model.User
}

// authResultMsg carries the outcome of a sign-in/sign-up attempt.
type authResultMsg struct {
	user model.User
	err  error
}

// resetRequestedMsg carries the outcome of a password-reset request.
type resetRequestedMsg struct {
	err error
}

// resetDoneMsg carries the outcome of applying a reset token.
type resetDoneMsg struct {
	err error
}

type authMode int

const (
	modeSignIn authMode = iota
	modeSignUp
	modeRequestReset
	modeApplyReset
)

type formBindings struct {
	email    string
	password string
	name     string
	token    string
}

// Model is the Bubble Tea model for the sign-in/sign-up screen.
type Model struct {
	mode      authMode
	form      *huh.Form
	fb        *formBindings
	sessions  *store.SessionStore
	mailer    *notify.Mailer
	statusMsg string
	errMsg    string
	width     int
	height    int
}

// New creates the auth screen in sign-in mode.
func New(sessions *store.SessionStore, mailer *notify.Mailer, width, height int) Model {
	m := Model{
		mode:     modeSignIn,
		fb:       &formBindings{},
		sessions: sessions,
		mailer:   mailer,
		width:    width,
		height:   height,
	}
	m.form = m.buildForm()
	return m
}

// Init starts the active form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the auth screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case authResultMsg:
		if msg.err != nil {
			m.errMsg = authErrorText(msg.err)
			m.statusMsg = ""
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		user := msg.user
		return m, func() tea.Msg { return SignedInMsg{User: user} }

	case resetRequestedMsg:
		if msg.err != nil {
			m.errMsg = authErrorText(msg.err)
			m.statusMsg = ""
		} else {
			m.errMsg = ""
			m.statusMsg = "Reset mail written to the outbox. Enter the token to continue."
			m.mode = modeApplyReset
		}
		m.form = m.buildForm()
		return m, m.form.Init()

	case resetDoneMsg:
		if msg.err != nil {
			m.errMsg = authErrorText(msg.err)
			m.statusMsg = ""
		} else {
			m.errMsg = ""
			m.statusMsg = "Password updated. Sign in with your new password."
			m.mode = modeSignIn
		}
		m.form = m.buildForm()
		return m, m.form.Init()

	case tea.KeyMsg:
		// Mode switches are plain keys so they work from any field.
		switch msg.String() {
		case "ctrl+s":
			m.switchMode(modeSignUp)
			return m, m.form.Init()
		case "ctrl+l":
			m.switchMode(modeSignIn)
			return m, m.form.Init()
		case "ctrl+r":
			m.switchMode(modeRequestReset)
			return m, m.form.Init()
		}
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.submit()
	}
	if m.form.State == huh.StateAborted {
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	return m, cmd
}

func (m *Model) switchMode(mode authMode) {
	m.mode = mode
	m.errMsg = ""
	m.statusMsg = ""
	m.fb.password = ""
	m.fb.token = ""
	m.form = m.buildForm()
}

func (m *Model) buildForm() *huh.Form {
	var fields []huh.Field

	switch m.mode {
	case modeSignUp:
		fields = []huh.Field{
			huh.NewInput().
				Title("Name").
				Placeholder("Your name").
				Value(&m.fb.name).
				Validate(validateRequired("Name")),
			m.emailField(),
			m.passwordField(),
		}
	case modeRequestReset:
		fields = []huh.Field{m.emailField()}
	case modeApplyReset:
		fields = []huh.Field{
			huh.NewInput().
				Title("Reset Token").
				Placeholder("Token from the reset mail").
				Value(&m.fb.token).
				Validate(validateRequired("Reset token")),
			m.passwordField(),
		}
	default:
		fields = []huh.Field{m.emailField(), m.passwordField()}
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) emailField() huh.Field {
	return huh.NewInput().
		Title("Email").
		Placeholder("you@example.com").
		Value(&m.fb.email).
		Validate(validateEmail)
}

func (m *Model) passwordField() huh.Field {
	return huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&m.fb.password).
		Validate(validateRequired("Password"))
}

func (m Model) submit() tea.Cmd {
	sessions := m.sessions
	mailer := m.mailer
	fb := *m.fb

	switch m.mode {
	case modeSignUp:
		return func() tea.Msg {
			user, err := sessions.SignUp(context.Background(), fb.email, fb.password, fb.name)
			return authResultMsg{user: user, err: err}
		}

	case modeRequestReset:
		return func() tea.Msg {
			token, err := sessions.RequestPasswordReset(context.Background(), fb.email)
			if err != nil {
				return resetRequestedMsg{err: err}
			}
			name := ""
			for _, u := range sessions.Users() {
				if u.Email == fb.email {
					name = u.Name
					break
				}
			}
			if _, err := mailer.SendPasswordReset(fb.email, name, token); err != nil {
				return resetRequestedMsg{err: err}
			}
			return resetRequestedMsg{}
		}

	case modeApplyReset:
		return func() tea.Msg {
			err := sessions.ResetPassword(context.Background(), fb.token, fb.password)
			return resetDoneMsg{err: err}
		}

	default:
		return func() tea.Msg {
			user, err := sessions.SignIn(context.Background(), fb.email, fb.password)
			return authResultMsg{user: user, err: err}
		}
	}
}

// View renders the auth screen.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var title string
	switch m.mode {
	case modeSignUp:
		title = "Create Account"
	case modeRequestReset:
		title = "Forgot Password"
	case modeApplyReset:
		title = "Reset Password"
	default:
		title = "Sign In"
	}

	var sections []string
	sections = append(sections, titleStyle.Render(title))

	if m.errMsg != "" {
		sections = append(sections, theme.ErrorStyle.Render(m.errMsg))
		sections = append(sections, "")
	}
	if m.statusMsg != "" {
		sections = append(sections, theme.SuccessStyle.Render(m.statusMsg))
		sections = append(sections, "")
	}

	sections = append(sections, m.form.View())
	sections = append(sections, theme.HelpStyle.Render(
		"ctrl+l sign in | ctrl+s sign up | ctrl+r forgot password",
	))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(theme.BorderStyle.Padding(1, 3).Render(content))
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width / 2
	if w < 40 {
		w = 40
	}
	if w > 60 {
		w = 60
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 10
	if h < 8 {
		h = 8
	}
	return h
}

// authErrorText maps store errors onto user-facing text.
func authErrorText(err error) string {
	switch {
	case errors.Is(err, store.ErrAuth):
		return "Invalid credentials."
	case errors.Is(err, store.ErrConflict):
		return "An account with that email already exists."
	case errors.Is(err, store.ErrNotFound):
		return "No account with that email."
	default:
		return err.Error()
	}
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateEmail(s string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("invalid email address")
	}
	return nil
}
