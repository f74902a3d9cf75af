package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailboard/internal/state"
	"github.com/nhle/mailboard/internal/theme"
)

// Kind is the verb of a palette command.
type Kind string

const (
	KindView    Kind = "view"
	KindUser    Kind = "user"
	KindTheme   Kind = "theme"
	KindSidebar Kind = "sidebar"
	KindRefresh Kind = "refresh"
	KindQuit    Kind = "quit"
)

// Command is a parsed palette entry.
type Command struct {
	Kind Kind
	Arg  string
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Command Command
}

// ErrorMsg is emitted when the input does not parse.
type ErrorMsg struct {
	Input string
	Err   error
}

// Parse turns palette input into a Command. A bare view name such as
// "inbox" switches to that view.
func Parse(input string) (Command, error) {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	verb, args := fields[0], fields[1:]

	if v := state.View(verb); v.Valid() {
		return Command{Kind: KindView, Arg: string(v)}, nil
	}

	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}

	switch Kind(verb) {
	case KindView:
		if !state.View(arg).Valid() {
			return Command{}, fmt.Errorf("unknown view %q", arg)
		}
		return Command{Kind: KindView, Arg: arg}, nil
	case KindUser:
		if arg == "" {
			return Command{}, fmt.Errorf("usage: user <id>")
		}
		return Command{Kind: KindUser, Arg: arg}, nil
	case KindTheme:
		switch arg {
		case state.ThemeLight, state.ThemeDark, state.ThemeSystem:
			return Command{Kind: KindTheme, Arg: arg}, nil
		}
		return Command{}, fmt.Errorf("usage: theme light|dark|system")
	case KindSidebar, KindRefresh:
		return Command{Kind: Kind(verb)}, nil
	case KindQuit, "q":
		return Command{Kind: KindQuit}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", verb)
}

func suggestions() []string {
	out := make([]string, 0, len(state.Views)+6)
	for _, v := range state.Views {
		out = append(out, string(v))
	}
	return append(out,
		"user ",
		"theme light", "theme dark", "theme system",
		"sidebar", "refresh", "quit",
	)
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "inbox, user 2, theme dark, refresh..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(suggestions())
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			input := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if input == "" {
				return m, nil
			}
			c, err := Parse(input)
			return m, func() tea.Msg {
				if err != nil {
					return ErrorMsg{Input: input, Err: err}
				}
				return CommandMsg{Command: c}
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	input := m.input.View()

	content := lipgloss.JoinVertical(lipgloss.Left, title, input)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
