package lists

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/keys"
	"github.com/nhle/mailboard/internal/state"
	"github.com/nhle/mailboard/internal/theme"
	"github.com/nhle/mailboard/internal/ui"
	"github.com/nhle/mailboard/internal/ui/skeleton"
	"github.com/nhle/mailboard/internal/ui/toast"
)

// Types lists the tabs in display order.
var Types = []string{api.ListTypeWhitelist, api.ListTypeBlacklist}

// Backend is the lists API. *api.ListsService satisfies it.
type Backend interface {
	List(ctx context.Context, listType string) ([]api.EmailList, error)
	EnsureList(ctx context.Context, listType string) (*api.EmailList, error)
	AddEntry(ctx context.Context, listID api.ID, entry api.ListEntry) (*api.ListEntry, error)
	RemoveEntry(ctx context.Context, listID, entryID api.ID) error
}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	pattern string
	notes   string
	confirm bool
}

type loadedMsg struct {
	listType string
	list     *api.EmailList
	err      error
}

type doneMsg struct {
	action  string
	success string
	err     error
}

// Model is the allow/block list view. It shows the first list of the
// selected type.
type Model struct {
	mode    mode
	backend Backend
	keys    *keys.KeyMap

	listType    string
	list        *api.EmailList
	selectedIdx int
	loading     bool
	err         error

	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings

	width  int
	height int
}

// New creates the lists view showing the whitelist.
func New(b Backend, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:     modeList,
		backend:  b,
		keys:     k,
		listType: api.ListTypeWhitelist,
		loading:  true,
		fb:       &formBindings{},
		width:    width,
		height:   height,
	}
}

// Init loads the current list.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Reload refetches the current list.
func (m *Model) Reload() tea.Cmd {
	m.loading = true
	return m.load()
}

// ApplyState switches to the persisted list type, reloading when it
// changed.
func (m *Model) ApplyState(s state.ViewState) tea.Cmd {
	if s.ListType == "" || s.ListType == m.listType {
		return nil
	}
	m.listType = s.ListType
	m.list = nil
	m.selectedIdx = 0
	return m.Reload()
}

// ListType returns the selected list type.
func (m Model) ListType() string {
	return m.listType
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.listType != m.listType {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.list = msg.list
		}
		if n := len(m.entries()); m.selectedIdx >= n {
			m.selectedIdx = max(0, n-1)
		}
		return m, nil

	case doneMsg:
		m.mode = modeList
		if msg.err != nil {
			return m, ui.ActionFailed(msg.action, msg.err)
		}
		m.loading = true
		return m, tea.Batch(toast.Show(toast.Success, msg.success), m.load())

	case tea.KeyMsg:
		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m.handleListKey(msg)
	}

	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) entries() []api.ListEntry {
	if m.list == nil {
		return nil
	}
	return m.list.Entries
}

func (m Model) otherType() string {
	if m.listType == api.ListTypeWhitelist {
		return api.ListTypeBlacklist
	}
	return api.ListTypeWhitelist
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	entries := m.entries()

	switch {
	case key.Matches(msg, m.keys.Down):
		if len(entries) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(entries)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(entries) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(entries) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle),
		key.Matches(msg, m.keys.NextPage),
		key.Matches(msg, m.keys.PrevPage):
		return m, ui.Dispatch(state.SelectListType{ListType: m.otherType()})

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Reload()

	case key.Matches(msg, m.keys.New):
		*m.fb = formBindings{}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if m.selectedIdx >= len(entries) {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Add to "+m.listType).
				Description("Email or domain pattern").
				Placeholder("email@example.com or @domain.com").
				Value(&m.fb.pattern).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("pattern is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Notes (optional)").
				Placeholder("Why are you adding this?").
				Value(&m.fb.notes),
		),
	).WithWidth(ui.FormWidth(m.width)).
		WithHeight(ui.FormHeight(m.height)).
		WithKeyMap(ui.FormKeyMap())
}

func (m Model) buildConfirmForm() *huh.Form {
	pattern := ""
	if e := m.entries(); m.selectedIdx < len(e) {
		pattern = e[m.selectedIdx].Pattern
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Remove this entry?").
				Description(pattern).
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
		m.mode = modeList
		return m, m.add()
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		m.mode = modeList
		entries := m.entries()
		if m.fb.confirm && m.list != nil && m.selectedIdx < len(entries) {
			return m, m.remove(m.list.ID, entries[m.selectedIdx].ID)
		}
		return m, nil
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// Capturing reports whether a form is consuming key input.
func (m Model) Capturing() bool {
	return m.mode != modeList
}

// Hints returns the status bar key hints.
func (m Model) Hints() string {
	if m.mode != modeList {
		return "enter confirm | esc cancel"
	}
	return "t/h/l switch list | n add | d remove | r refresh"
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the lists view.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	case modeConfirmDelete:
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	width := max(20, m.width-4)

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Email Lists"))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	entries := m.entries()
	switch {
	case m.err != nil:
		b.WriteString(ui.ErrorPlaceholder(width, max(1, m.height-8), "list", m.err))
	case m.loading && m.list == nil:
		b.WriteString(skeleton.Table(width, 4, 2))
	case len(entries) == 0:
		b.WriteString(theme.DimmedStyle.Italic(true).Render("No entries in this list. Press 'n' to add one."))
	default:
		b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf("%d entries", len(entries))))
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGray).Render(
			fmt.Sprintf("  %-40s %-10s %s", "Pattern", "Type", "Notes")))
		b.WriteString("\n")
		for i, e := range entries {
			line := fmt.Sprintf("%-40s %-10s %s", e.Pattern, e.MatchType, theme.DimmedStyle.Render(e.Notes))
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

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(Types))
	for _, t := range Types {
		label := api.DefaultListName(t)
		if t == m.listType {
			tabs = append(tabs, theme.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, theme.TabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
}

func (m Model) load() tea.Cmd {
	b := m.backend
	listType := m.listType
	return func() tea.Msg {
		lists, err := b.List(context.Background(), listType)
		if err != nil {
			return loadedMsg{listType: listType, err: err}
		}
		for i := range lists {
			if lists[i].ListType == listType || lists[i].ListType == "" {
				return loadedMsg{listType: listType, list: &lists[i]}
			}
		}
		return loadedMsg{listType: listType}
	}
}

func (m Model) add() tea.Cmd {
	b := m.backend
	listType := m.listType
	entry := api.ListEntry{
		Pattern: strings.TrimSpace(m.fb.pattern),
		Notes:   strings.TrimSpace(m.fb.notes),
	}
	return func() tea.Msg {
		list, err := b.EnsureList(context.Background(), listType)
		if err != nil {
			return doneMsg{action: "add entry", err: err}
		}
		if _, err := b.AddEntry(context.Background(), list.ID, entry); err != nil {
			return doneMsg{action: "add entry", err: err}
		}
		return doneMsg{success: fmt.Sprintf("Added %s to %s", entry.Pattern, api.DefaultListName(listType))}
	}
}

func (m Model) remove(listID, entryID api.ID) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		if err := b.RemoveEntry(context.Background(), listID, entryID); err != nil {
			return doneMsg{action: "remove entry", err: err}
		}
		return doneMsg{success: "Entry removed"}
	}
}
