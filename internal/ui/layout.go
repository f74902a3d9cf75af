package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailboard/internal/state"
	"github.com/nhle/mailboard/internal/theme"
)

const (
	sidebarWidth          = 20
	collapsedSidebarWidth = 5
)

// Layout manages the multi-panel terminal layout dimensions.
type Layout struct {
	Width            int
	Height           int
	HeaderHeight     int
	StatusBarHeight  int
	SidebarCollapsed bool
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// SidebarWidth returns the width taken by the navigation sidebar.
func (l Layout) SidebarWidth() int {
	if l.SidebarCollapsed {
		return collapsedSidebarWidth
	}
	return sidebarWidth
}

// ContentWidth returns the width left of the sidebar.
func (l Layout) ContentWidth() int {
	return max(0, l.Width-l.SidebarWidth())
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return max(0, l.Height-l.HeaderHeight-l.StatusBarHeight)
}

// RenderHeader renders the top header bar with a title and sync status.
func (l Layout) RenderHeader(title string, syncStatus string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(syncStatus)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// viewLabels are the sidebar entries in navigation order.
var viewLabels = map[state.View]string{
	state.ViewDashboard:     "Dashboard",
	state.ViewInbox:         "Inbox",
	state.ViewAccounts:      "Accounts",
	state.ViewRules:         "Rules",
	state.ViewLists:         "Lists",
	state.ViewContacts:      "Contacts",
	state.ViewAnalytics:     "Analytics",
	state.ViewNotifications: "Notifications",
}

// ViewLabel returns the display name of a view.
func ViewLabel(v state.View) string {
	if label, ok := viewLabels[v]; ok {
		return label
	}
	return string(v)
}

// RenderSidebar renders the navigation sidebar with the active view
// highlighted. When collapsed only the shortcut digits are shown.
func (l Layout) RenderSidebar(active state.View, unread int) string {
	var b strings.Builder

	for i, v := range state.Views {
		label := fmt.Sprintf("%d %s", i+1, ViewLabel(v))
		if v == state.ViewNotifications && unread > 0 {
			label += fmt.Sprintf(" (%d)", unread)
		}
		if l.SidebarCollapsed {
			label = fmt.Sprintf("%d", i+1)
		}

		if v == active {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Width(l.SidebarWidth()-1).
		Height(l.ContentHeight()).
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(theme.ColorBorder).
		Render(b.String())
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, sidebar plus content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	sidebar string,
	content string,
	statusBar string,
) string {
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, content)
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		body,
		statusBar,
	)
}

// Placeholder centers a gray message in the given area. Views use it for
// empty collections.
func Placeholder(width, height int, message string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(message)
}

// ErrorPlaceholder replaces a view's content after a failed load.
func ErrorPlaceholder(width, height int, what string, err error) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(theme.ErrorStyle.Render(fmt.Sprintf("Failed to load %s", what)) +
			"\n" + theme.DimmedStyle.Render(err.Error()) +
			"\n\n" + theme.HelpStyle.Render("press r to retry"))
}

// AlertMsg asks the root model to show a blocking alert. Views emit it
// when an action fails or needs acknowledgement.
type AlertMsg struct {
	Title   string
	Message string
}

// Alert returns a tea.Cmd emitting AlertMsg.
func Alert(title, message string) tea.Cmd {
	return func() tea.Msg {
		return AlertMsg{Title: title, Message: message}
	}
}

// ActionFailed returns a tea.Cmd raising the standard alert for a failed
// user action, e.g. "Failed to delete rule: HTTP 500".
func ActionFailed(action string, err error) tea.Cmd {
	return Alert("Error", fmt.Sprintf("Failed to %s: %v", action, err))
}

// RenderAlert draws an alert box centered in the given area.
func RenderAlert(width, height int, a AlertMsg) string {
	title := a.Title
	if title == "" {
		title = "Notice"
	}

	box := theme.DetailPanelStyle.
		BorderForeground(theme.ColorYellow).
		Width(min(60, max(20, width-8))).
		Render(
			theme.TitleStyle.Render(title) + "\n" +
				a.Message + "\n\n" +
				theme.HelpStyle.Render("enter/esc to dismiss"),
		)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// DispatchMsg asks the root model to apply a view state action and
// persist the result.
type DispatchMsg struct {
	Action state.Action
}

// Dispatch returns a tea.Cmd emitting DispatchMsg.
func Dispatch(a state.Action) tea.Cmd {
	return func() tea.Msg {
		return DispatchMsg{Action: a}
	}
}

// FormWidth returns the width for a huh form inside a view of width w.
func FormWidth(w int) int {
	return min(100, max(40, w-4))
}

// FormHeight returns the height for a huh form inside a view of height h.
func FormHeight(h int) int {
	return max(10, h-4)
}

// FormKeyMap is huh's default key map with esc aborting the form.
func FormKeyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))
	return km
}
