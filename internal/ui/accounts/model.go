package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/imapprobe"
	"github.com/nhle/mailboard/internal/keys"
	"github.com/nhle/mailboard/internal/theme"
	"github.com/nhle/mailboard/internal/ui"
	"github.com/nhle/mailboard/internal/ui/format"
	"github.com/nhle/mailboard/internal/ui/skeleton"
	"github.com/nhle/mailboard/internal/ui/toast"
)

// ProviderIMAP is the provider value the backend expects for custom IMAP
// accounts.
const ProviderIMAP = "IMAP_CUSTOM"

// Form choices for the provider select.
const (
	choiceGmail   = "gmail"
	choiceOutlook = "outlook"
	choiceIMAP    = "imap"
)

// Backend is the part of the API the accounts view needs.
type Backend interface {
	List(ctx context.Context) ([]api.Account, error)
	Create(ctx context.Context, req api.CreateAccountRequest) (*api.Account, error)
	Delete(ctx context.Context, id api.ID) error
	Sync(ctx context.Context, id api.ID) error
}

// Authorizer starts OAuth flows. *api.OAuthService satisfies it.
type Authorizer interface {
	Authorize(ctx context.Context, provider, loginHint string) (*api.OAuthStart, error)
}

// Prober verifies IMAP credentials. *imapprobe.Prober satisfies it.
type Prober interface {
	Probe(ctx context.Context, s imapprobe.Settings) (*imapprobe.Result, error)
}

// ChangedMsg signals that accounts were added, removed or synced.
type ChangedMsg struct{}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	provider string
	email    string
	host     string
	port     string
	username string
	password string
	confirm  bool
}

type loadedMsg struct {
	accounts []api.Account
	err      error
}

type doneMsg struct {
	action  string
	success string
	err     error
}

type authMsg struct {
	label string
	url   string
	err   error
}

// Model is the linked accounts view.
type Model struct {
	mode    mode
	backend Backend
	oauth   Authorizer
	prober  Prober
	keys    *keys.KeyMap

	accounts    []api.Account
	selectedIdx int
	loading     bool
	err         error

	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings

	width  int
	height int
}

// New creates the accounts view. prober may be nil to skip the IMAP
// credential check.
func New(b Backend, o Authorizer, p Prober, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:    modeList,
		backend: b,
		oauth:   o,
		prober:  p,
		keys:    k,
		loading: true,
		fb:      &formBindings{},
		width:   width,
		height:  height,
	}
}

// Init loads the accounts.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Reload refetches the accounts.
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
			m.accounts = msg.accounts
		}
		if m.selectedIdx >= len(m.accounts) {
			m.selectedIdx = max(0, len(m.accounts)-1)
		}
		return m, nil

	case doneMsg:
		m.mode = modeList
		if msg.err != nil {
			return m, ui.ActionFailed(msg.action, msg.err)
		}
		m.loading = true
		return m, tea.Batch(
			toast.Show(toast.Success, msg.success),
			m.load(),
			func() tea.Msg { return ChangedMsg{} },
		)

	case authMsg:
		m.mode = modeList
		if msg.err != nil {
			return m, ui.ActionFailed("connect "+msg.label, msg.err)
		}
		return m, ui.Alert("Connect "+msg.label,
			"Open this URL in your browser to authorize the account, then press r to refresh:\n\n"+msg.url)

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
		if len(m.accounts) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.accounts)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.accounts) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.accounts) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Reload()

	case key.Matches(msg, m.keys.New):
		*m.fb = formBindings{provider: choiceGmail, port: strconv.Itoa(imapprobe.DefaultPort)}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Select):
		a, ok := m.selected()
		if !ok {
			return m, nil
		}
		if !a.NeedsReauth() {
			return m, toast.Show(toast.Info, a.EmailAddress+" is connected")
		}
		return m, m.authorize(oauthProvider(a.Provider), a.EmailAddress, providerLabel(a.Provider))

	case key.Matches(msg, m.keys.Sync):
		a, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.sync(a)

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

func (m Model) selected() (api.Account, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.accounts) {
		return api.Account{}, false
	}
	return m.accounts[m.selectedIdx], true
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func (m Model) buildForm() *huh.Form {
	fb := m.fb
	notIMAP := func() bool { return fb.provider != choiceIMAP }

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Add email account").
				Options(
					huh.NewOption("Gmail", choiceGmail),
					huh.NewOption("Outlook", choiceOutlook),
					huh.NewOption("Custom IMAP", choiceIMAP),
				).
				Value(&fb.provider),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Email address").
				Placeholder("you@example.com").
				Value(&fb.email).
				Validate(func(s string) error {
					if !strings.Contains(s, "@") {
						return errors.New("enter a valid email address")
					}
					return nil
				}),
			huh.NewInput().
				Title("IMAP host").
				Placeholder("imap.example.com").
				Value(&fb.host).
				Validate(required("host")),
			huh.NewInput().
				Title("Port").
				Value(&fb.port).
				Validate(func(s string) error {
					if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n <= 0 || n > 65535 {
						return errors.New("port must be a number between 1 and 65535")
					}
					return nil
				}),
			huh.NewInput().
				Title("Username").
				Value(&fb.username).
				Validate(required("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&fb.password).
				Validate(required("password")),
		).WithHideFunc(notIMAP),
	).WithWidth(ui.FormWidth(m.width)).
		WithHeight(ui.FormHeight(m.height)).
		WithKeyMap(ui.FormKeyMap())
}

func (m Model) buildConfirmForm() *huh.Form {
	a, _ := m.selected()
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Remove %s?", a.EmailAddress)).
				Description(fmt.Sprintf(
					"Are you sure you want to remove %s? This will disconnect the account from Email Utilities.",
					a.EmailAddress)).
				Affirmative("Yes, remove").
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
		switch m.fb.provider {
		case choiceGmail:
			return m, m.authorize("google", "", "Gmail")
		case choiceOutlook:
			return m, m.authorize("microsoft", "", "Outlook")
		default:
			return m, m.createIMAP()
		}
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
		if a, ok := m.selected(); ok && m.fb.confirm {
			return m, m.remove(a)
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
	return "n add | enter reconnect | s sync | d remove | r refresh"
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Accounts returns the loaded accounts.
func (m Model) Accounts() []api.Account {
	return m.accounts
}

// View renders the accounts view.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	case modeConfirmDelete:
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	width := max(20, m.width-4)
	bodyHeight := max(1, m.height-2)

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Email Accounts"))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		return lipgloss.NewStyle().Padding(1, 2).Render(ui.ErrorPlaceholder(width, bodyHeight, "accounts", m.err))
	case m.loading && len(m.accounts) == 0:
		b.WriteString(skeleton.List(width, 3))
	case len(m.accounts) == 0:
		b.WriteString(theme.DimmedStyle.Italic(true).Render("No email accounts connected. Press 'n' to add one."))
	default:
		for i, a := range m.accounts {
			b.WriteString(m.renderAccount(a, i == m.selectedIdx))
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) renderAccount(a api.Account, selected bool) string {
	status := a.SyncStatus
	if a.NeedsReauth() {
		status = "Disconnected"
	}

	line := fmt.Sprintf("%s %s %s  %s",
		a.EmailAddress,
		theme.ProviderStyle(a.Provider).Render(providerLabel(a.Provider)),
		theme.SyncStatusStyle(a.SyncStatus, a.NeedsReauth()).Render(status),
		theme.DimmedStyle.Render(format.LastSync(a.LastSyncAt.Time)),
	)

	var detail string
	switch {
	case a.NeedsReauth():
		detail = theme.WarningStyle.Render("Authentication expired - please reconnect")
	case a.LastSyncError != "":
		detail = theme.ErrorStyle.Render(a.LastSyncError)
	}

	if selected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	if detail != "" {
		line += "\n" + theme.ListItemStyle.Render("  "+detail)
	}
	return line
}

// providerLabel returns the display name of a backend provider value.
func providerLabel(provider string) string {
	switch strings.ToUpper(provider) {
	case "GMAIL":
		return "Gmail"
	case "OUTLOOK":
		return "Outlook"
	case ProviderIMAP, "IMAP":
		return "IMAP"
	}
	return provider
}

// oauthProvider maps an account provider to the authorize endpoint name.
func oauthProvider(provider string) string {
	switch strings.ToLower(provider) {
	case "gmail":
		return "google"
	case "outlook":
		return "microsoft"
	}
	return strings.ToLower(provider)
}

func (m Model) load() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		accounts, err := b.List(context.Background())
		return loadedMsg{accounts: accounts, err: err}
	}
}

func (m Model) authorize(provider, loginHint, label string) tea.Cmd {
	o := m.oauth
	return func() tea.Msg {
		start, err := o.Authorize(context.Background(), provider, loginHint)
		if err != nil {
			return authMsg{label: label, err: err}
		}
		return authMsg{label: label, url: start.AuthURL}
	}
}

func (m Model) createIMAP() tea.Cmd {
	b := m.backend
	p := m.prober
	fb := *m.fb
	return func() tea.Msg {
		port, _ := strconv.Atoi(strings.TrimSpace(fb.port))
		req := api.CreateAccountRequest{
			EmailAddress: strings.TrimSpace(fb.email),
			Provider:     ProviderIMAP,
			IMAPHost:     strings.TrimSpace(fb.host),
			IMAPPort:     port,
			Username:     strings.TrimSpace(fb.username),
			Password:     fb.password,
		}

		if p != nil {
			_, err := p.Probe(context.Background(), imapprobe.Settings{
				Host:     req.IMAPHost,
				Port:     req.IMAPPort,
				Username: req.Username,
				Password: req.Password,
			})
			if err != nil {
				return doneMsg{action: "verify IMAP account", err: err}
			}
		}

		if _, err := b.Create(context.Background(), req); err != nil {
			return doneMsg{action: "add account", err: err}
		}
		return doneMsg{success: "Account " + req.EmailAddress + " added"}
	}
}

func (m Model) sync(a api.Account) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		if err := b.Sync(context.Background(), a.ID); err != nil {
			return doneMsg{action: "sync account", err: err}
		}
		return doneMsg{success: "Sync started for " + a.EmailAddress}
	}
}

func (m Model) remove(a api.Account) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		if err := b.Delete(context.Background(), a.ID); err != nil {
			return doneMsg{action: "remove account", err: err}
		}
		return doneMsg{success: "Account " + a.EmailAddress + " removed"}
	}
}
