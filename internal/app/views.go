package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailboard/internal/state"
	"github.com/nhle/mailboard/internal/ui"
)

// title names what the content area shows.
func (m Model) title() string {
	if m.showDetail && m.current == state.ViewInbox {
		return "Message"
	}
	return ui.ViewLabel(m.current)
}

// capturing reports whether the active view is consuming raw key input.
func (m Model) capturing() bool {
	if m.showDetail {
		return false
	}
	switch m.current {
	case state.ViewInbox:
		return m.inbox.Capturing()
	case state.ViewAccounts:
		return m.accounts.Capturing()
	case state.ViewRules:
		return m.rules.Capturing()
	case state.ViewLists:
		return m.lists.Capturing()
	case state.ViewContacts:
		return m.contacts.Capturing()
	case state.ViewAnalytics:
		return m.analytics.Capturing()
	case state.ViewNotifications:
		return m.notifications.Capturing()
	}
	return m.dashboard.Capturing()
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.showDetail {
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}

	switch m.current {
	case state.ViewDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case state.ViewInbox:
		m.inbox, cmd = m.inbox.Update(msg)
	case state.ViewAccounts:
		m.accounts, cmd = m.accounts.Update(msg)
	case state.ViewRules:
		m.rules, cmd = m.rules.Update(msg)
	case state.ViewLists:
		m.lists, cmd = m.lists.Update(msg)
	case state.ViewContacts:
		m.contacts, cmd = m.contacts.Update(msg)
	case state.ViewAnalytics:
		m.analytics, cmd = m.analytics.Update(msg)
	case state.ViewNotifications:
		m.notifications, cmd = m.notifications.Update(msg)
	}

	return m, cmd
}

// broadcast delivers a non-key message to every view. Load results are
// private to the view that requested them, so the others ignore them.
func (m Model) broadcast(msg tea.Msg) (Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 9)
	m.dashboard, cmds[0] = m.dashboard.Update(msg)
	m.inbox, cmds[1] = m.inbox.Update(msg)
	m.detail, cmds[2] = m.detail.Update(msg)
	m.accounts, cmds[3] = m.accounts.Update(msg)
	m.rules, cmds[4] = m.rules.Update(msg)
	m.lists, cmds[5] = m.lists.Update(msg)
	m.contacts, cmds[6] = m.contacts.Update(msg)
	m.analytics, cmds[7] = m.analytics.Update(msg)
	m.notifications, cmds[8] = m.notifications.Update(msg)
	return m, tea.Batch(cmds...)
}

// initView returns the first load of v.
func (m Model) initView(v state.View) tea.Cmd {
	switch v {
	case state.ViewDashboard:
		return m.dashboard.Init()
	case state.ViewInbox:
		return m.inbox.Init()
	case state.ViewAccounts:
		return m.accounts.Init()
	case state.ViewRules:
		return m.rules.Init()
	case state.ViewLists:
		return m.lists.Init()
	case state.ViewContacts:
		return m.contacts.Init()
	case state.ViewAnalytics:
		return m.analytics.Init()
	case state.ViewNotifications:
		return m.notifications.Init()
	}
	return nil
}

// reloadView refetches v's collection. Views are reloaded on every
// navigation so they never show data older than the last visit.
func (m *Model) reloadView(v state.View) tea.Cmd {
	switch v {
	case state.ViewDashboard:
		return m.dashboard.Reload()
	case state.ViewInbox:
		return m.inbox.Load()
	case state.ViewAccounts:
		return m.accounts.Reload()
	case state.ViewRules:
		return m.rules.Reload()
	case state.ViewLists:
		return m.lists.Reload()
	case state.ViewContacts:
		return m.contacts.Reload()
	case state.ViewAnalytics:
		return m.analytics.Reload()
	case state.ViewNotifications:
		return m.notifications.Reload()
	}
	return nil
}

// reloadAll refetches every view except the inbox, whose reload the
// caller controls.
func (m *Model) reloadAll() tea.Cmd {
	return tea.Batch(
		m.dashboard.Reload(),
		m.accounts.Reload(),
		m.rules.Reload(),
		m.lists.Reload(),
		m.contacts.Reload(),
		m.analytics.Reload(),
		m.notifications.Reload(),
	)
}

// activeView renders the current view.
func (m Model) activeView() string {
	if m.showDetail {
		return m.detail.View()
	}
	switch m.current {
	case state.ViewDashboard:
		return m.dashboard.View()
	case state.ViewInbox:
		return m.inbox.View()
	case state.ViewAccounts:
		return m.accounts.View()
	case state.ViewRules:
		return m.rules.View()
	case state.ViewLists:
		return m.lists.View()
	case state.ViewContacts:
		return m.contacts.View()
	case state.ViewAnalytics:
		return m.analytics.View()
	case state.ViewNotifications:
		return m.notifications.View()
	}
	return ""
}

// activeHints returns the status bar hints of the current view.
func (m Model) activeHints() string {
	if m.showDetail {
		return m.detail.Hints()
	}
	switch m.current {
	case state.ViewInbox:
		return m.inbox.Hints()
	case state.ViewAccounts:
		return m.accounts.Hints()
	case state.ViewRules:
		return m.rules.Hints()
	case state.ViewLists:
		return m.lists.Hints()
	case state.ViewContacts:
		return m.contacts.Hints()
	case state.ViewAnalytics:
		return m.analytics.Hints()
	case state.ViewNotifications:
		return m.notifications.Hints()
	}
	return m.dashboard.Hints()
}
