package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailboard/internal/keys"
	"github.com/nhle/mailboard/internal/state"
	"github.com/nhle/mailboard/internal/theme"
	"github.com/nhle/mailboard/internal/ui"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int

	viewName string
	hints    string
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// SetContext records the active view and its key hints, shown above the
// global bindings.
func (m *Model) SetContext(viewName, hints string) {
	m.viewName = viewName
	m.hints = hints
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	sections := []string{titleStyle.Render("Keyboard Shortcuts")}

	if m.hints != "" {
		sections = append(sections,
			lipgloss.NewStyle().Bold(true).Render(m.viewName),
			theme.HelpStyle.MarginBottom(1).Render(m.hints),
		)
	}

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	sections = append(sections,
		m.help.View(m.keys),
		"",
		lipgloss.NewStyle().Bold(true).Render("Views"),
		viewLegend(),
		"",
		theme.DimmedStyle.Render("esc, ? or q to close"),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}

// viewLegend lists the digit shortcut of every view, two per line.
func viewLegend() string {
	var b strings.Builder
	for i, v := range state.Views {
		entry := fmt.Sprintf("%d %-16s", i+1, ui.ViewLabel(v))
		b.WriteString(theme.HelpStyle.Render(entry))
		if i%2 == 1 || i == len(state.Views)-1 {
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
