package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Help toggle
	Help key.Binding

	// Todo actions
	New        key.Binding
	Edit       key.Binding
	Delete     key.Binding
	ToggleDone key.Binding
	Star       key.Binding
	MoveUp     key.Binding
	MoveDown   key.Binding

	// View filters
	FilterStarred key.Binding
	FilterToday   key.Binding
	FilterAll     key.Binding

	// Screens
	Lists key.Binding
	Plans key.Binding

	// AI suggestions
	Suggest key.Binding

	// Session / appearance
	DarkMode key.Binding
	SignOut  key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new todo"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete"),
		),
		ToggleDone: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle done"),
		),
		Star: key.NewBinding(
			key.WithKeys("*"),
			key.WithHelp("*", "star"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move down"),
		),
		FilterStarred: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "starred"),
		),
		FilterToday: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "today"),
		),
		FilterAll: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "all todos"),
		),
		Lists: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "lists"),
		),
		Plans: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "plans"),
		),
		Suggest: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "suggest subtasks"),
		),
		DarkMode: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dark mode"),
		),
		SignOut: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "sign out"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.New,
		k.ToggleDone, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.New, k.Edit, k.Delete, k.ToggleDone, k.Star},
		{k.MoveUp, k.MoveDown, k.FilterStarred, k.FilterToday, k.FilterAll},
		{k.Lists, k.Plans, k.Suggest, k.DarkMode, k.SignOut},
	}
}
