package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/state"
	"github.com/nhle/mailboard/internal/ui"
)

type usersLoadedMsg struct {
	users []api.User
	err   error
}

type userBindings struct {
	userID string
}

func (m Model) loadUsers() tea.Cmd {
	users := m.client.Users
	return func() tea.Msg {
		list, err := users.List(context.Background())
		return usersLoadedMsg{users: list, err: err}
	}
}

func userLabel(u api.User) string {
	switch {
	case u.DisplayName != "" && u.Email != "":
		return fmt.Sprintf("%s <%s>", u.DisplayName, u.Email)
	case u.Email != "":
		return u.Email
	case u.DisplayName != "":
		return u.DisplayName
	}
	return "User " + u.ID.String()
}

func (m Model) handleUsers(msg usersLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, ui.ActionFailed("load users", msg.err)
	}
	if len(msg.users) == 0 {
		return m, ui.Alert("Switch user", "No users available")
	}

	current := m.client.UserID()
	opts := make([]huh.Option[string], 0, len(msg.users))
	for _, u := range msg.users {
		label := userLabel(u)
		if u.ID.String() == current {
			label += " (current)"
		}
		opts = append(opts, huh.NewOption(label, u.ID.String()))
	}

	m.ub.userID = current
	m.userForm = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Switch user").
				Options(opts...).
				Value(&m.ub.userID),
		),
	).WithWidth(ui.FormWidth(m.layout.ContentWidth())).
		WithShowHelp(false).
		WithKeyMap(ui.FormKeyMap())
	m.overlay = overlayUsers

	return m, m.userForm.Init()
}

func (m Model) updateUserForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.userForm == nil {
		return m, nil
	}
	mdl, cmd := m.userForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.userForm = f
	}

	switch m.userForm.State {
	case huh.StateCompleted:
		m.userForm = nil
		m.overlay = overlayNone
		if m.ub.userID == "" || m.ub.userID == m.client.UserID() {
			return m, nil
		}
		return m, ui.Dispatch(state.SwitchUser{UserID: m.ub.userID})
	case huh.StateAborted:
		m.userForm = nil
		m.overlay = overlayNone
		return m, nil
	}

	return m, cmd
}
