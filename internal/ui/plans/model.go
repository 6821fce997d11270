package plans

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/billing"
	"taskdeck/internal/keys"
	"taskdeck/internal/model"
	"taskdeck/internal/theme"
)

// PlansCloseMsg signals the parent to close the plans screen.
type PlansCloseMsg struct{}

// SubscriptionChangedMsg asks the parent to record the new tier for the
// signed-in user.
type SubscriptionChangedMsg struct {
	Tier string
}

// checkoutMsg carries the outcome of a checkout-session request.
type checkoutMsg struct {
	tier    string
	session billing.Session
	err     error
}

// portalMsg carries the outcome of a portal-session request.
type portalMsg struct {
	session billing.Session
	err     error
}

// Model is the subscription plans screen.
type Model struct {
	plans       []model.SubscriptionPlan
	billing     *billing.Client
	keys        *keys.KeyMap
	userID      string
	currentTier string
	selectedIdx int
	pending     bool
	statusMsg   string
	errMsg      string
	width       int
	height      int
}

// New creates the plans screen.
func New(b *billing.Client, k *keys.KeyMap, width, height int) Model {
	return Model{
		plans:   model.Plans(),
		billing: b,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// SetUser sets the signed-in user and their current tier.
func (m *Model) SetUser(userID, tier string) {
	m.userID = userID
	m.currentTier = tier
	m.statusMsg = ""
	m.errMsg = ""
}

// Init returns the initial command for the plans screen.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the plans screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case checkoutMsg:
		m.pending = false
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("Checkout failed: %v", msg.err)
			return m, nil
		}
		m.errMsg = ""
		m.statusMsg = "Checkout: " + msg.session.URL
		m.currentTier = msg.tier
		tier := msg.tier
		return m, func() tea.Msg { return SubscriptionChangedMsg{Tier: tier} }

	case portalMsg:
		m.pending = false
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("Portal unavailable: %v", msg.err)
			return m, nil
		}
		m.errMsg = ""
		m.statusMsg = "Manage your subscription: " + msg.session.URL
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return PlansCloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		m.selectedIdx = (m.selectedIdx + 1) % len(m.plans)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.selectedIdx--
		if m.selectedIdx < 0 {
			m.selectedIdx = len(m.plans) - 1
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if m.pending {
			return m, nil
		}
		return m.choosePlan(m.plans[m.selectedIdx])

	case msg.String() == "m":
		if m.pending {
			return m, nil
		}
		m.pending = true
		return m, m.openPortal()
	}

	return m, nil
}

// choosePlan starts a checkout for paid plans and downgrades
// immediately for the free one.
func (m Model) choosePlan(plan model.SubscriptionPlan) (Model, tea.Cmd) {
	if plan.ID == m.currentTier {
		m.statusMsg = "You are already on this plan."
		return m, nil
	}

	if plan.PriceID == "" {
		m.currentTier = plan.ID
		m.statusMsg = "Switched to the free plan."
		tier := plan.ID
		return m, func() tea.Msg { return SubscriptionChangedMsg{Tier: tier} }
	}

	m.pending = true
	m.statusMsg = "Contacting payment provider..."
	b := m.billing
	userID := m.userID
	return m, func() tea.Msg {
		session, err := b.CreateCheckoutSession(context.Background(), plan.PriceID, userID)
		return checkoutMsg{tier: plan.ID, session: session, err: err}
	}
}

func (m Model) openPortal() tea.Cmd {
	b := m.billing
	userID := m.userID
	return func() tea.Msg {
		session, err := b.CreatePortalSession(context.Background(), userID)
		return portalMsg{session: session, err: err}
	}
}

// View renders the plans screen.
func (m Model) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Subscription Plans"))
	b.WriteString("\n\n")

	for i, plan := range m.plans {
		b.WriteString(m.renderPlan(plan, i == m.selectedIdx))
		b.WriteString("\n")
	}

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.ErrorStyle.Render(m.errMsg))
	}
	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("enter choose | m manage subscription | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) renderPlan(plan model.SubscriptionPlan, selected bool) string {
	price := fmt.Sprintf("$%.2f/mo", plan.Price)
	if plan.Price == 0 {
		price = "Free"
	}

	header := fmt.Sprintf("%s  %s", plan.Name, theme.TierStyle(plan.ID).Render(price))
	if plan.ID == m.currentTier {
		header += theme.SuccessStyle.Render(" (current)")
	}

	lines := []string{header}
	for _, f := range plan.Features {
		lines = append(lines, "  · "+f)
	}

	block := strings.Join(lines, "\n")
	if selected {
		return theme.SelectedItemStyle.Render(block)
	}
	return theme.ListItemStyle.Render(block)
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
