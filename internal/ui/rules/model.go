package rules

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/keys"
	"github.com/nhle/mailboard/internal/theme"
	"github.com/nhle/mailboard/internal/ui"
	"github.com/nhle/mailboard/internal/ui/skeleton"
	"github.com/nhle/mailboard/internal/ui/toast"
)

// Condition logic values.
const (
	LogicAll = "ALL"
	LogicAny = "ANY"
)

// Backend is the rules API. *api.RulesService satisfies it.
type Backend interface {
	List(ctx context.Context) ([]api.Rule, error)
	Create(ctx context.Context, r api.Rule) (*api.Rule, error)
	Update(ctx context.Context, id api.ID, r api.Rule) (*api.Rule, error)
	Delete(ctx context.Context, id api.ID) error
	Toggle(ctx context.Context, id api.ID, enabled bool) error
}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	name        string
	description string
	logic       string
	confirm     bool
}

type loadedMsg struct {
	rules []api.Rule
	err   error
}

type doneMsg struct {
	action  string
	success string
	err     error
}

// Model is the automation rules view.
type Model struct {
	mode    mode
	backend Backend
	keys    *keys.KeyMap

	rules       []api.Rule
	selectedIdx int
	loading     bool
	err         error

	editing     *api.Rule
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings

	width  int
	height int
}

// New creates the rules view.
func New(b Backend, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:    modeList,
		backend: b,
		keys:    k,
		loading: true,
		fb:      &formBindings{},
		width:   width,
		height:  height,
	}
}

// Init loads the rules.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Reload refetches the rules.
func (m *Model) Reload() tea.Cmd {
	m.loading = true
	return m.load()
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
			m.rules = slices.Clone(msg.rules)
		}
		if m.selectedIdx >= len(m.rules) {
			m.selectedIdx = max(0, len(m.rules)-1)
		}
		return m, nil

	case doneMsg:
		m.mode = modeList
		m.loading = true
		if msg.err != nil {
			return m, tea.Batch(ui.ActionFailed(msg.action, msg.err), m.load())
		}
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

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.rules) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.rules)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.rules) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.rules) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Reload()

	case key.Matches(msg, m.keys.New):
		m.editing = nil
		*m.fb = formBindings{logic: LogicAll}
		m.form = m.buildForm("Create Rule")
		m.mode = modeForm
		return m, m.form.Init()

	case msg.String() == "e", key.Matches(msg, m.keys.Select):
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.editing = &r
		*m.fb = formBindings{name: r.Name, description: r.Description, logic: r.ConditionLogic}
		if m.fb.logic == "" {
			m.fb.logic = LogicAll
		}
		m.form = m.buildForm("Edit Rule")
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Toggle):
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.rules[m.selectedIdx].Enabled = !r.Enabled
		return m, m.toggle(r.ID, !r.Enabled)

	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.selected(); !ok {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) selected() (api.Rule, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.rules) {
		return api.Rule{}, false
	}
	return m.rules[m.selectedIdx], true
}

func (m Model) buildForm(title string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description("Rule name").
				Placeholder("e.g., Move newsletters to folder").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Placeholder("What does this rule do?").
				Value(&m.fb.description),
			huh.NewSelect[string]().
				Title("Condition logic").
				Options(
					huh.NewOption("ALL conditions must match (AND)", LogicAll),
					huh.NewOption("ANY condition can match (OR)", LogicAny),
				).
				Value(&m.fb.logic),
		),
	).WithWidth(ui.FormWidth(m.width)).
		WithHeight(ui.FormHeight(m.height)).
		WithKeyMap(ui.FormKeyMap())
}

func (m Model) buildConfirmForm() *huh.Form {
	r, _ := m.selected()
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete rule %q?", r.Name)).
				Description("Are you sure you want to delete this rule?").
				Affirmative("Yes, delete").
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
		return m, m.save()
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
		if r, ok := m.selected(); ok && m.fb.confirm {
			return m, m.remove(r.ID)
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
	return "n new | e edit | t toggle | d delete | r refresh"
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Count returns the number of loaded rules.
func (m Model) Count() int {
	return len(m.rules)
}

// View renders the rules view.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	case modeConfirmDelete:
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	width := max(20, m.width-4)
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(
			ui.ErrorPlaceholder(width, max(1, m.height-2), "rules", m.err))
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Rules"))
	b.WriteString("\n")

	switch {
	case m.loading && len(m.rules) == 0:
		b.WriteString(skeleton.Card(width, 3))
	case len(m.rules) == 0:
		b.WriteString(theme.DimmedStyle.Italic(true).Render("No rules configured"))
	default:
		for i, r := range m.rules {
			b.WriteString(renderRule(r, i == m.selectedIdx))
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func renderRule(r api.Rule, selected bool) string {
	toggle := theme.DimmedStyle.Render("[ off ]")
	if r.Enabled {
		toggle = theme.SuccessStyle.Render("[ on  ]")
	}

	logic := r.ConditionLogic
	if logic == "" {
		logic = LogicAll
	}

	line := fmt.Sprintf("%s %s %s", toggle, r.Name, theme.DimmedStyle.Render(logic))
	if n := len(r.Conditions); n > 0 {
		line += theme.DimmedStyle.Render(fmt.Sprintf(" · %d conditions, %d actions", n, len(r.Actions)))
	}

	desc := r.Description
	if desc == "" {
		desc = "No description"
	}

	if selected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	return line + "\n" + theme.ListItemStyle.Render("        "+theme.DimmedStyle.Render(desc))
}

func (m Model) load() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		rules, err := b.List(context.Background())
		return loadedMsg{rules: rules, err: err}
	}
}

func (m Model) save() tea.Cmd {
	b := m.backend
	fb := *m.fb
	var editing *api.Rule
	if m.editing != nil {
		r := *m.editing
		editing = &r
	}
	return func() tea.Msg {
		if editing == nil {
			r := api.Rule{
				Name:           strings.TrimSpace(fb.name),
				Description:    strings.TrimSpace(fb.description),
				ConditionLogic: fb.logic,
				Enabled:        true,
			}
			if _, err := b.Create(context.Background(), r); err != nil {
				return doneMsg{action: "create rule", err: err}
			}
			return doneMsg{success: "Rule created"}
		}

		r := *editing
		r.Name = strings.TrimSpace(fb.name)
		r.Description = strings.TrimSpace(fb.description)
		r.ConditionLogic = fb.logic
		if _, err := b.Update(context.Background(), r.ID, r); err != nil {
			return doneMsg{action: "update rule", err: err}
		}
		return doneMsg{success: "Rule updated"}
	}
}

func (m Model) toggle(id api.ID, enabled bool) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		if err := b.Toggle(context.Background(), id, enabled); err != nil {
			return doneMsg{action: "toggle rule", err: err}
		}
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		return doneMsg{success: "Rule " + state}
	}
}

func (m Model) remove(id api.ID) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		if err := b.Delete(context.Background(), id); err != nil {
			return doneMsg{action: "delete rule", err: err}
		}
		return doneMsg{success: "Rule deleted"}
	}
}
