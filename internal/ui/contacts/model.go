package contacts

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/keys"
	"github.com/nhle/mailboard/internal/theme"
	"github.com/nhle/mailboard/internal/ui"
	"github.com/nhle/mailboard/internal/ui/skeleton"
	"github.com/nhle/mailboard/internal/ui/toast"
)

// Backend is the contacts API. *api.ContactsService satisfies it.
type Backend interface {
	ListGroups(ctx context.Context) ([]api.ContactList, error)
	GetGroup(ctx context.Context, id api.ID) (*api.ContactList, error)
	CreateGroup(ctx context.Context, g api.ContactList) (*api.ContactList, error)
	AddContact(ctx context.Context, groupID api.ID, c api.Contact) (*api.Contact, error)
	RemoveContact(ctx context.Context, groupID, contactID api.ID) error
}

type mode int

const (
	modeGroups mode = iota
	modeMembers
	modeGroupForm
	modeContactForm
	modeConfirmRemove
)

type formBindings struct {
	name        string
	description string
	email       string
	confirm     bool
}

type groupsMsg struct {
	groups []api.ContactList
	err    error
}

type groupMsg struct {
	group *api.ContactList
	err   error
}

type doneMsg struct {
	action  string
	success string
	err     error
}

// Model is the contact groups view. Enter opens a group's members.
type Model struct {
	mode    mode
	backend Backend
	keys    *keys.KeyMap

	groups      []api.ContactList
	selectedIdx int
	loading     bool
	err         error

	group     *api.ContactList
	memberIdx int
	groupErr  error

	form *huh.Form
	fb   *formBindings

	width  int
	height int
}

// New creates the contacts view.
func New(b Backend, k *keys.KeyMap, width, height int) Model {
	return Model{
		backend: b,
		keys:    k,
		loading: true,
		fb:      &formBindings{},
		width:   width,
		height:  height,
	}
}

// Init loads the groups.
func (m Model) Init() tea.Cmd {
	return m.loadGroups()
}

// Reload refetches the groups, and the open group if any.
func (m *Model) Reload() tea.Cmd {
	m.loading = true
	if m.group != nil {
		return tea.Batch(m.loadGroups(), m.loadGroup(m.group.ID))
	}
	return m.loadGroups()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case groupsMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.groups = msg.groups
		}
		if m.selectedIdx >= len(m.groups) {
			m.selectedIdx = max(0, len(m.groups)-1)
		}
		return m, nil

	case groupMsg:
		if m.group == nil || (msg.group != nil && msg.group.ID != m.group.ID) {
			return m, nil
		}
		m.groupErr = msg.err
		if msg.err == nil {
			m.group = msg.group
		}
		if m.memberIdx >= len(m.group.Contacts) {
			m.memberIdx = max(0, len(m.group.Contacts)-1)
		}
		return m, nil

	case doneMsg:
		m.mode = m.baseMode()
		if msg.err != nil {
			return m, ui.ActionFailed(msg.action, msg.err)
		}
		return m, tea.Batch(toast.Show(toast.Success, msg.success), m.Reload())

	case tea.KeyMsg:
		switch m.mode {
		case modeGroupForm, modeContactForm, modeConfirmRemove:
			return m.updateForm(msg)
		case modeMembers:
			return m.handleMemberKey(msg)
		}
		return m.handleGroupKey(msg)
	}

	switch m.mode {
	case modeGroupForm, modeContactForm, modeConfirmRemove:
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) baseMode() mode {
	if m.group != nil {
		return modeMembers
	}
	return modeGroups
}

func (m Model) handleGroupKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.groups) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.groups)
		}
	case key.Matches(msg, m.keys.Up):
		if len(m.groups) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.groups) - 1
			}
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, m.Reload()
	case key.Matches(msg, m.keys.New):
		*m.fb = formBindings{}
		m.form = m.buildGroupForm()
		m.mode = modeGroupForm
		return m, m.form.Init()
	case key.Matches(msg, m.keys.Select):
		if m.selectedIdx < len(m.groups) {
			g := m.groups[m.selectedIdx]
			m.group = &g
			m.memberIdx = 0
			m.groupErr = nil
			m.mode = modeMembers
			return m, m.loadGroup(g.ID)
		}
	}
	return m, nil
}

func (m Model) handleMemberKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	members := m.group.Contacts
	switch {
	case key.Matches(msg, m.keys.Back):
		m.group = nil
		m.mode = modeGroups
	case key.Matches(msg, m.keys.Down):
		if len(members) > 0 {
			m.memberIdx = (m.memberIdx + 1) % len(members)
		}
	case key.Matches(msg, m.keys.Up):
		if len(members) > 0 {
			m.memberIdx--
			if m.memberIdx < 0 {
				m.memberIdx = len(members) - 1
			}
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, m.Reload()
	case key.Matches(msg, m.keys.New):
		*m.fb = formBindings{}
		m.form = m.buildContactForm()
		m.mode = modeContactForm
		return m, m.form.Init()
	case key.Matches(msg, m.keys.Delete):
		if m.memberIdx < len(members) {
			m.fb.confirm = false
			m.form = m.buildConfirmForm(members[m.memberIdx])
			m.mode = modeConfirmRemove
			return m, m.form.Init()
		}
	}
	return m, nil
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func (m Model) buildGroupForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Group name").
				Placeholder("e.g., Family, Work, VIPs").
				Value(&m.fb.name).
				Validate(required("name")),
			huh.NewText().
				Title("Description (optional)").
				Lines(3).
				Value(&m.fb.description),
		).Title("Create Contact Group"),
	).WithWidth(ui.FormWidth(m.width)).
		WithHeight(ui.FormHeight(m.height)).
		WithKeyMap(ui.FormKeyMap())
}

func (m Model) buildContactForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("name@example.com").
				Value(&m.fb.email).
				Validate(func(s string) error {
					if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("enter a valid email address")
					}
					return nil
				}),
			huh.NewInput().
				Title("Name (optional)").
				Value(&m.fb.name),
		).Title("Add to " + m.group.Name),
	).WithWidth(ui.FormWidth(m.width)).
		WithHeight(ui.FormHeight(m.height)).
		WithKeyMap(ui.FormKeyMap())
}

func (m Model) buildConfirmForm(c api.Contact) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Remove %s from %s?", c.Email, m.group.Name)).
				Affirmative("Remove").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(ui.FormWidth(m.width)).
		WithHeight(ui.FormHeight(m.height)).
		WithKeyMap(ui.FormKeyMap())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		done := m.mode
		m.mode = m.baseMode()
		switch done {
		case modeGroupForm:
			return m, m.createGroup()
		case modeContactForm:
			return m, m.addContact(m.group.ID)
		case modeConfirmRemove:
			if m.fb.confirm && m.memberIdx < len(m.group.Contacts) {
				return m, m.removeContact(m.group.ID, m.group.Contacts[m.memberIdx])
			}
		}
		return m, nil
	case huh.StateAborted:
		m.mode = m.baseMode()
		return m, nil
	}
	return m, cmd
}

// Capturing reports whether a form is consuming key input. The members
// pane captures too so esc returns to the groups.
func (m Model) Capturing() bool {
	return m.mode != modeGroups
}

// Hints returns the status bar key hints.
func (m Model) Hints() string {
	switch m.mode {
	case modeGroups:
		return "enter open | n new group | r refresh"
	case modeMembers:
		return "n add contact | d remove | esc back"
	}
	return "enter confirm | esc cancel"
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the contacts view.
func (m Model) View() string {
	switch m.mode {
	case modeGroupForm, modeContactForm, modeConfirmRemove:
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	case modeMembers:
		return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(m.renderMembers())
	}

	width := max(20, m.width-4)

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Contact Groups"))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(ui.ErrorPlaceholder(width, max(1, m.height-6), "contact groups", m.err))
	case m.loading && m.groups == nil:
		b.WriteString(skeleton.List(width, 4))
	case len(m.groups) == 0:
		b.WriteString(theme.DimmedStyle.Italic(true).Render("No contact lists created. Press 'n' to create one."))
	default:
		for i, g := range m.groups {
			desc := g.Description
			if desc == "" {
				desc = "No description"
			}
			line := fmt.Sprintf("%s  %s\n%s",
				lipgloss.NewStyle().Bold(true).Render(g.Name),
				theme.DimmedStyle.Render(contactCount(len(g.Contacts))),
				theme.DimmedStyle.Render(desc))
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

func (m Model) renderMembers() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render(m.group.Name))
	b.WriteString("  ")
	b.WriteString(theme.DimmedStyle.Render(contactCount(len(m.group.Contacts))))
	b.WriteString("\n\n")

	if m.groupErr != nil {
		b.WriteString(ui.ErrorPlaceholder(max(20, m.width-4), max(1, m.height-6), "contacts", m.groupErr))
		return b.String()
	}
	if len(m.group.Contacts) == 0 {
		b.WriteString(theme.DimmedStyle.Italic(true).Render("No contacts in this group. Press 'n' to add one."))
		return b.String()
	}
	for i, c := range m.group.Contacts {
		line := c.Email
		if c.Name != "" {
			line = fmt.Sprintf("%s <%s>", c.Name, c.Email)
		}
		if i == m.memberIdx {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func contactCount(n int) string {
	if n == 1 {
		return "1 contact"
	}
	return fmt.Sprintf("%d contacts", n)
}

func (m Model) loadGroups() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		groups, err := b.ListGroups(context.Background())
		return groupsMsg{groups: groups, err: err}
	}
}

func (m Model) loadGroup(id api.ID) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		g, err := b.GetGroup(context.Background(), id)
		return groupMsg{group: g, err: err}
	}
}

func (m Model) createGroup() tea.Cmd {
	b := m.backend
	g := api.ContactList{
		Name:        strings.TrimSpace(m.fb.name),
		Description: strings.TrimSpace(m.fb.description),
	}
	return func() tea.Msg {
		if _, err := b.CreateGroup(context.Background(), g); err != nil {
			return doneMsg{action: "create contact group", err: err}
		}
		return doneMsg{success: fmt.Sprintf("Group %s created", g.Name)}
	}
}

func (m Model) addContact(groupID api.ID) tea.Cmd {
	b := m.backend
	c := api.Contact{
		Email: strings.TrimSpace(m.fb.email),
		Name:  strings.TrimSpace(m.fb.name),
	}
	return func() tea.Msg {
		if _, err := b.AddContact(context.Background(), groupID, c); err != nil {
			return doneMsg{action: "add contact", err: err}
		}
		return doneMsg{success: fmt.Sprintf("Added %s", c.Email)}
	}
}

func (m Model) removeContact(groupID api.ID, c api.Contact) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		if err := b.RemoveContact(context.Background(), groupID, c.ID); err != nil {
			return doneMsg{action: "remove contact", err: err}
		}
		return doneMsg{success: fmt.Sprintf("Removed %s", c.Email)}
	}
}
