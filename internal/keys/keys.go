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

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Views
	NextView      key.Binding
	PrevView      key.Binding
	Notifications key.Binding

	// Layout
	ToggleSidebar key.Binding
	ToggleTheme   key.Binding
	SwitchUser    key.Binding

	// Inbox paging
	NextPage  key.Binding
	PrevPage  key.Binding
	FirstPage key.Binding

	// Inbox filters and sorting
	CycleAccount key.Binding
	CycleFolder  key.Binding
	SortFrom     key.Binding
	SortSubject  key.Binding
	SortDate     key.Binding
	Narrower     key.Binding
	Wider        key.Binding

	// Actions
	New     key.Binding
	Delete  key.Binding
	Toggle  key.Binding
	Sync    key.Binding
	Move    key.Binding
	Mark    key.Binding
	MarkAll key.Binding
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
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		NextView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab/1-8", "next view"),
		),
		PrevView: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous view"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "notifications"),
		),
		ToggleSidebar: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("ctrl+b", "toggle sidebar"),
		),
		ToggleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "toggle theme"),
		),
		SwitchUser: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "switch user"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("l", "right", "pgdown"),
			key.WithHelp("l/→", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("h", "left", "pgup"),
			key.WithHelp("h/←", "previous page"),
		),
		FirstPage: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first page"),
		),
		CycleAccount: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "cycle account"),
		),
		CycleFolder: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "cycle folder"),
		),
		SortFrom: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "sort by sender"),
		),
		SortSubject: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "sort by subject"),
		),
		SortDate: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "sort by date"),
		),
		Narrower: key.NewBinding(
			key.WithKeys("<"),
			key.WithHelp("<", "narrow sort column"),
		),
		Wider: key.NewBinding(
			key.WithKeys(">"),
			key.WithHelp(">", "widen sort column"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle"),
		),
		Sync: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sync"),
		),
		Move: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "move"),
		),
		Mark: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "select"),
		),
		MarkAll: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "select all / mark all read"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.NextView,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Command, k.Help, k.Refresh, k.NextView, k.PrevView, k.Notifications},
		{k.ToggleSidebar, k.ToggleTheme, k.SwitchUser},
		{k.NextPage, k.PrevPage, k.FirstPage, k.CycleAccount, k.CycleFolder},
		{k.SortFrom, k.SortSubject, k.SortDate, k.Narrower, k.Wider},
		{k.New, k.Delete, k.Toggle, k.Sync, k.Move, k.Mark, k.MarkAll},
	}
}
