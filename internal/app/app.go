package app

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/keys"
	"github.com/nhle/mailboard/internal/pager"
	"github.com/nhle/mailboard/internal/state"
	appsync "github.com/nhle/mailboard/internal/sync"
	"github.com/nhle/mailboard/internal/theme"
	"github.com/nhle/mailboard/internal/ui"
	"github.com/nhle/mailboard/internal/ui/accounts"
	"github.com/nhle/mailboard/internal/ui/analytics"
	"github.com/nhle/mailboard/internal/ui/command"
	"github.com/nhle/mailboard/internal/ui/contacts"
	"github.com/nhle/mailboard/internal/ui/dashboard"
	"github.com/nhle/mailboard/internal/ui/detail"
	"github.com/nhle/mailboard/internal/ui/format"
	helpview "github.com/nhle/mailboard/internal/ui/help"
	"github.com/nhle/mailboard/internal/ui/inbox"
	"github.com/nhle/mailboard/internal/ui/lists"
	"github.com/nhle/mailboard/internal/ui/notifications"
	"github.com/nhle/mailboard/internal/ui/rules"
	"github.com/nhle/mailboard/internal/ui/toast"
)

// overlay is a panel drawn over the active view.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlayCommand
	overlayUsers
)

// healthMsg carries the result of the startup health check.
type healthMsg struct {
	status string
	err    error
}

// Options wires the root model to its collaborators. Prober may be nil
// to create IMAP accounts without verifying credentials first.
type Options struct {
	Client  *api.Client
	Pager   *pager.Pager
	State   *state.Manager
	Theme   *theme.Mode
	Monitor *appsync.Monitor
	Poller  *appsync.NotificationPoller
	Prober  accounts.Prober
	Logger  *logrus.Logger
}

// Model is the root Bubble Tea model. It owns the view state, routes
// messages to the views and draws the frame around them.
type Model struct {
	client  *api.Client
	pager   *pager.Pager
	manager *state.Manager
	theme   *theme.Mode
	monitor *appsync.Monitor
	poller  *appsync.NotificationPoller
	logger  *logrus.Logger
	keys    *keys.KeyMap

	current    state.View
	overlay    overlay
	showDetail bool
	alert      *ui.AlertMsg
	layout     ui.Layout
	ready      bool

	dashboard     dashboard.Model
	inbox         inbox.Model
	detail        detail.Model
	accounts      accounts.Model
	rules         rules.Model
	lists         lists.Model
	contacts      contacts.Model
	analytics     analytics.Model
	notifications notifications.Model
	helpView      helpview.Model
	commandView   command.Model

	userForm *huh.Form
	ub       *userBindings
	toasts   toast.Stack

	unread    int
	health    string
	healthErr error
	syncJob   *api.SyncJob
}

// New creates the root model. The persisted view state is applied
// immediately so the first frame already shows the right view.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	km := keys.DefaultKeyMap()
	c := opts.Client
	const w, h = 80, 24

	m := Model{
		client:  c,
		pager:   opts.Pager,
		manager: opts.State,
		theme:   opts.Theme,
		monitor: opts.Monitor,
		poller:  opts.Poller,
		logger:  logger,
		keys:    km,
		ub:      &userBindings{},
		toasts:  toast.New(40),

		dashboard: dashboard.New(dashboard.Deps{
			Accounts: c.Accounts,
			Rules:    c.Rules,
			Contacts: c.Contacts,
			Lists:    c.Lists,
			Summary:  c.Analytics,
		}, w, h),
		inbox:    inbox.New(c.Accounts, opts.Pager, km, w, h),
		detail:   detail.New(c.Accounts, km, w, h),
		accounts: accounts.New(c.Accounts, c.OAuth, opts.Prober, km, w, h),
		rules:    rules.New(c.Rules, km, w, h),
		lists:    lists.New(c.Lists, km, w, h),
		contacts: contacts.New(c.Contacts, km, w, h),
		analytics: analytics.New(analytics.Deps{
			Analytics: c.Analytics,
			Spam:      c.Spam,
			Bulk:      c.Bulk,
			Watcher:   opts.Monitor,
		}, km, w, h),
		notifications: notifications.New(c.Notifications, km, w, h),
		helpView:      helpview.New(km, w, h),
		commandView:   command.New(w, h),
	}

	s := m.manager.State()
	m.current = s.View
	m.layout.SidebarCollapsed = s.SidebarCollapsed
	m.client.SetUserID(s.UserID)
	m.inbox.ApplyState(s)
	m.lists.ApplyState(s)
	if m.theme != nil {
		m.theme.Set(s.Theme)
		m.theme.Apply()
	}

	return m
}

// Init loads the active view, checks the backend and starts the pollers.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.initView(m.current),
		m.checkHealth(),
		m.monitor.Start(),
		m.poller.Start(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Width = msg.Width
		m.layout.Height = msg.Height
		m.layout.HeaderHeight = 1
		m.layout.StatusBarHeight = 1
		m.ready = true
		m.resize()
		return m.broadcast(tea.WindowSizeMsg{
			Width:  m.layout.ContentWidth(),
			Height: m.layout.ContentHeight(),
		})

	case healthMsg:
		m.health = msg.status
		m.healthErr = msg.err
		if msg.err != nil {
			m.logger.WithError(msg.err).Warn("Backend health check failed")
		}
		return m, nil

	case appsync.UnreadCountMsg:
		m.unread = msg.Count
		return m, m.poller.WaitForNext()

	case appsync.SyncProgressMsg:
		job := msg.Job
		m.syncJob = &job
		var cmd tea.Cmd
		m, cmd = m.broadcast(msg)
		return m, tea.Batch(cmd, m.monitor.WaitForNext())

	case appsync.SyncFinishedMsg:
		m.syncJob = nil
		var cmd tea.Cmd
		m, cmd = m.broadcast(msg)
		return m, tea.Batch(cmd, m.monitor.WaitForNext(), m.dashboard.Reload())

	case ui.DispatchMsg:
		return m.dispatch(msg.Action)

	case ui.AlertMsg:
		alert := msg
		m.alert = &alert
		return m, nil

	case toast.ShowMsg, toast.ExpiredMsg:
		var cmd tea.Cmd
		m.toasts, cmd = m.toasts.Update(msg)
		return m, cmd

	case inbox.OpenMessageMsg:
		m.showDetail = true
		return m, m.detail.Open(msg.AccountID, msg.AccountEmail, msg.MessageID)

	case detail.BackMsg:
		m.showDetail = false
		return m, nil

	case accounts.ChangedMsg:
		m.pager.Reset()
		return m, tea.Batch(m.inbox.Load(), m.dashboard.Reload())

	case notifications.ChangedMsg:
		m.poller.Refresh()
		return m, nil

	case command.CommandMsg:
		m.overlay = overlayNone
		return m.execute(msg.Command)

	case command.ErrorMsg:
		m.overlay = overlayNone
		return m, toast.Show(toast.Error, msg.Err.Error())

	case usersLoadedMsg:
		return m.handleUsers(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var overlayCmd tea.Cmd
	switch m.overlay {
	case overlayUsers:
		m, overlayCmd = m.updateUserForm(msg)
	case overlayCommand:
		m.commandView, overlayCmd = m.commandView.Update(msg)
	}

	var cmd tea.Cmd
	m, cmd = m.broadcast(msg)
	return m, tea.Batch(overlayCmd, cmd)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	if m.alert != nil {
		switch msg.String() {
		case "enter", "esc":
			m.alert = nil
		}
		return m, nil
	}

	switch m.overlay {
	case overlayHelp:
		switch msg.String() {
		case "?", "esc", "q":
			m.overlay = overlayNone
		}
		return m, nil
	case overlayCommand:
		if msg.String() == "esc" {
			m.overlay = overlayNone
			return m, nil
		}
		var cmd tea.Cmd
		m.commandView, cmd = m.commandView.Update(msg)
		return m, cmd
	case overlayUsers:
		return m.updateUserForm(msg)
	}

	if m.capturing() {
		return m.updateActiveView(msg)
	}

	switch s := msg.String(); s {
	case "q":
		return m.quit()
	case "?":
		m.helpView.SetContext(m.title(), m.activeHints())
		m.overlay = overlayHelp
		return m, nil
	case ":":
		m.overlay = overlayCommand
		return m, m.commandView.Focus()
	case "tab":
		return m.dispatch(state.SwitchView{View: m.neighbour(1)})
	case "shift+tab":
		return m.dispatch(state.SwitchView{View: m.neighbour(-1)})
	case "N":
		return m.dispatch(state.SwitchView{View: state.ViewNotifications})
	case "ctrl+b":
		return m.dispatch(state.ToggleSidebar{})
	case "ctrl+t":
		if m.theme == nil {
			return m.dispatch(state.SetTheme{Theme: theme.Dark})
		}
		return m.dispatch(state.SetTheme{Theme: m.theme.Toggle()})
	case "ctrl+u":
		return m, m.loadUsers()
	case "1", "2", "3", "4", "5", "6", "7", "8":
		return m.dispatch(state.SwitchView{View: state.Views[int(s[0]-'1')]})
	case "r":
		if m.current == state.ViewDashboard && !m.showDetail {
			return m, m.dashboard.Reload()
		}
	}

	return m.updateActiveView(msg)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.monitor.Stop()
	m.poller.Stop()
	return m, tea.Quit
}

// neighbour returns the view step positions away from the current one.
func (m Model) neighbour(step int) state.View {
	idx := 0
	for i, v := range state.Views {
		if v == m.current {
			idx = i
			break
		}
	}
	n := len(state.Views)
	return state.Views[((idx+step)%n+n)%n]
}

// dispatch applies a to the view state and brings the views in line with
// the result.
func (m Model) dispatch(a state.Action) (tea.Model, tea.Cmd) {
	prev := m.manager.State()
	next, err := m.manager.Dispatch(context.Background(), a)

	var cmds []tea.Cmd
	if err != nil {
		cmds = append(cmds, toast.Show(toast.Warning, "Preference not saved: "+err.Error()))
	}

	var cmd tea.Cmd
	m, cmd = m.apply(prev, next)
	return m, tea.Batch(append(cmds, cmd)...)
}

// apply updates the layout, theme, identity and views for a state change.
func (m Model) apply(prev, next state.ViewState) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	if prev.SidebarCollapsed != next.SidebarCollapsed {
		m.layout.SidebarCollapsed = next.SidebarCollapsed
		if m.ready {
			m.resize()
		}
	}

	if prev.Theme != next.Theme && m.theme != nil {
		m.theme.Set(next.Theme)
		m.theme.Apply()
	}

	if prev.UserID != next.UserID {
		m.client.SetUserID(next.UserID)
		m.pager.Reset()
		m.poller.Refresh()
		m.showDetail = false
		m.logger.WithField("user_id", next.UserID).Info("Switched user")
		cmds = append(cmds,
			toast.Show(toast.Info, "Switched to user "+next.UserID),
			m.inbox.Load(),
			m.reloadAll(),
		)
	} else {
		cmds = append(cmds, m.inbox.ApplyState(next))
	}

	if prev.ListType != next.ListType {
		cmds = append(cmds, m.lists.ApplyState(next))
	}

	if prev.View != next.View {
		m.current = next.View
		m.showDetail = false
		cmds = append(cmds, m.reloadView(next.View))
	}

	return m, tea.Batch(cmds...)
}

// execute runs a command palette entry.
func (m Model) execute(c command.Command) (tea.Model, tea.Cmd) {
	switch c.Kind {
	case command.KindView:
		return m.dispatch(state.SwitchView{View: state.View(c.Arg)})
	case command.KindUser:
		return m.dispatch(state.SwitchUser{UserID: c.Arg})
	case command.KindTheme:
		return m.dispatch(state.SetTheme{Theme: c.Arg})
	case command.KindSidebar:
		return m.dispatch(state.ToggleSidebar{})
	case command.KindRefresh:
		m.poller.Refresh()
		return m, m.reloadView(m.current)
	case command.KindQuit:
		return m.quit()
	}
	return m, nil
}

func (m Model) checkHealth() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		h, err := c.Health(context.Background())
		if err != nil {
			return healthMsg{err: err}
		}
		return healthMsg{status: h.Status}
	}
}

// resize propagates the content area size to every view.
func (m *Model) resize() {
	w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
	m.dashboard.SetSize(w, h)
	m.inbox.SetSize(w, h)
	m.detail.SetSize(w, h)
	m.accounts.SetSize(w, h)
	m.rules.SetSize(w, h)
	m.lists.SetSize(w, h)
	m.contacts.SetSize(w, h)
	m.analytics.SetSize(w, h)
	m.notifications.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
	m.toasts.SetWidth(min(60, max(20, w/2)))
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.syncStatus())
	sidebar := m.layout.RenderSidebar(m.current, m.unread)
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, sidebar, content, statusBar)
}

func (m Model) headerTitle() string {
	title := "mailboard · " + m.title()
	if m.unread > 0 {
		title += fmt.Sprintf(" [%d new]", m.unread)
	}
	return title
}

// syncStatus describes the analytics sync and the backend connection.
func (m Model) syncStatus() string {
	status := "user " + m.client.UserID()
	if m.theme != nil {
		status += " | " + m.theme.Label()
	}
	switch {
	case m.syncJob != nil:
		return fmt.Sprintf("%s | syncing %s", status, format.Percent(m.syncJob.Progress))
	case m.healthErr != nil:
		if code := api.StatusCode(m.healthErr); code != 0 {
			return fmt.Sprintf("%s | ⚠ backend HTTP %d", status, code)
		}
		return status + " | ⚠ backend unreachable"
	case m.health != "":
		return status + " | backend " + m.health
	}
	return status
}

// renderContent returns the content area: an alert, an overlay or the
// active view, with any toasts stacked underneath.
func (m Model) renderContent() string {
	w, h := m.layout.ContentWidth(), m.layout.ContentHeight()

	var body string
	switch {
	case m.alert != nil:
		return ui.RenderAlert(w, h, *m.alert)
	case m.overlay == overlayHelp:
		body = m.helpView.View()
	case m.overlay == overlayCommand:
		body = m.commandView.View()
	case m.overlay == overlayUsers && m.userForm != nil:
		body = lipgloss.NewStyle().Padding(1, 2).Render(m.userForm.View())
	default:
		body = m.activeView()
	}

	toasts := m.toasts.View()
	if toasts == "" {
		return body
	}
	toastHeight := lipgloss.Height(toasts)
	body = lipgloss.NewStyle().MaxHeight(max(0, h-toastHeight)).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		lipgloss.PlaceHorizontal(w, lipgloss.Right, toasts),
	)
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch {
	case m.alert != nil:
		return "enter/esc dismiss"
	case m.overlay == overlayHelp:
		return "? close help | esc back"
	case m.overlay == overlayCommand:
		return "enter execute | tab complete | esc back"
	case m.overlay == overlayUsers:
		return "enter switch | esc cancel"
	}
	return m.activeHints()
}
