package notifications

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/keys"
	"github.com/nhle/mailboard/internal/state"
	"github.com/nhle/mailboard/internal/theme"
	"github.com/nhle/mailboard/internal/ui"
	"github.com/nhle/mailboard/internal/ui/format"
	"github.com/nhle/mailboard/internal/ui/skeleton"
)

// MaxShown is how many of the most recent notifications are listed.
const MaxShown = 10

// Backend is the notifications API. *api.NotificationsService satisfies it.
type Backend interface {
	List(ctx context.Context) ([]api.Notification, error)
	MarkRead(ctx context.Context, id api.ID) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id api.ID) error
}

// ChangedMsg tells the root model the unread count may have changed.
type ChangedMsg struct{}

type loadedMsg struct {
	items []api.Notification
	err   error
}

type doneMsg struct {
	action string
	jump   state.View
	err    error
}

// Model lists recent notifications.
type Model struct {
	backend Backend
	keys    *keys.KeyMap
	now     func() time.Time

	items       []api.Notification
	selectedIdx int
	loading     bool
	err         error

	width  int
	height int
}

// New creates the notifications view.
func New(b Backend, k *keys.KeyMap, width, height int) Model {
	return Model{
		backend: b,
		keys:    k,
		now:     time.Now,
		loading: true,
		width:   width,
		height:  height,
	}
}

// Init loads the notifications.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Reload refetches the notifications.
func (m *Model) Reload() tea.Cmd {
	m.loading = true
	return m.load()
}

// ActionView maps a notification action URL such as "/accounts" to a view.
func ActionView(actionURL string) (state.View, bool) {
	path, _, _ := strings.Cut(actionURL, "?")
	v := state.View(strings.Trim(path, "/"))
	if v == "" || !v.Valid() {
		return "", false
	}
	return v, true
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			items := msg.items
			if len(items) > MaxShown {
				items = items[:MaxShown]
			}
			m.items = slices.Clone(items)
		}
		if m.selectedIdx >= len(m.items) {
			m.selectedIdx = max(0, len(m.items)-1)
		}
		return m, nil

	case doneMsg:
		if msg.err != nil {
			return m, tea.Batch(ui.ActionFailed(msg.action, msg.err), m.Reload())
		}
		cmds := []tea.Cmd{m.Reload(), func() tea.Msg { return ChangedMsg{} }}
		if msg.jump != "" {
			cmds = append(cmds, ui.Dispatch(state.SwitchView{View: msg.jump}))
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.items) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.items)
		}
	case key.Matches(msg, m.keys.Up):
		if len(m.items) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.items) - 1
			}
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, m.Reload()
	case key.Matches(msg, m.keys.Select):
		if m.selectedIdx < len(m.items) {
			n := m.items[m.selectedIdx]
			m.items[m.selectedIdx].Read = true
			return m, m.open(n)
		}
	case key.Matches(msg, m.keys.MarkAll):
		return m, m.markAll()
	case key.Matches(msg, m.keys.Delete):
		if m.selectedIdx < len(m.items) {
			return m, m.remove(m.items[m.selectedIdx].ID)
		}
	}
	return m, nil
}

// Unread counts unread notifications among those shown.
func (m Model) Unread() int {
	n := 0
	for _, item := range m.items {
		if !item.Read {
			n++
		}
	}
	return n
}

// Capturing always reports false; the view has no text input.
func (m Model) Capturing() bool {
	return false
}

// Hints returns the status bar key hints.
func (m Model) Hints() string {
	return "enter open | A mark all read | d delete | r refresh"
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the notifications view.
func (m Model) View() string {
	width := max(20, m.width-4)

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Notifications"))
	if n := m.Unread(); n > 0 {
		b.WriteString("  ")
		b.WriteString(theme.WarningStyle.Render(format.Plural(n, "unread notification")))
	}
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(ui.ErrorPlaceholder(width, max(1, m.height-6), "notifications", m.err))
	case m.loading && m.items == nil:
		b.WriteString(skeleton.List(width, 4))
	case len(m.items) == 0:
		b.WriteString(theme.DimmedStyle.Italic(true).Render("No notifications"))
	default:
		now := m.now()
		for i, n := range m.items {
			title := n.Title
			if !n.Read {
				title = theme.UnreadStyle.Render("● " + title)
			}
			line := title + "\n" + n.Message + "\n" + theme.DimmedStyle.Render(format.TimeAgo(n.CreatedAt.Time, now))
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(line))
			} else {
				b.WriteString(theme.ListItemStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) load() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		items, err := b.List(context.Background())
		return loadedMsg{items: items, err: err}
	}
}

func (m Model) open(n api.Notification) tea.Cmd {
	b := m.backend
	jump, _ := ActionView(n.ActionURL)
	return func() tea.Msg {
		if !n.Read {
			if err := b.MarkRead(context.Background(), n.ID); err != nil {
				return doneMsg{action: "mark notification read", err: err}
			}
		}
		return doneMsg{jump: jump}
	}
}

func (m Model) markAll() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		if err := b.MarkAllRead(context.Background()); err != nil {
			return doneMsg{action: "mark all read", err: err}
		}
		return doneMsg{}
	}
}

func (m Model) remove(id api.ID) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		if err := b.Delete(context.Background(), id); err != nil {
			return doneMsg{action: "delete notification", err: err}
		}
		return doneMsg{}
	}
}
