package detail

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jaytaylor/html2text"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/keys"
	"github.com/nhle/mailboard/internal/theme"
	"github.com/nhle/mailboard/internal/ui"
)

// Loader fetches a full message. *api.AccountsService satisfies it.
type Loader interface {
	Email(ctx context.Context, id api.ID, messageID string) (*api.EmailDetail, error)
}

// BackMsg signals the parent to navigate back to the inbox.
type BackMsg struct{}

type loadedMsg struct {
	accountID api.ID
	messageID string
	email     *api.EmailDetail
	err       error
}

// Model is the message detail view component.
type Model struct {
	loader   Loader
	keys     *keys.KeyMap
	viewport viewport.Model

	accountID    api.ID
	accountEmail string
	messageID    string

	email   *api.EmailDetail
	err     error
	loading bool

	width  int
	height int
}

// New creates a new detail view model.
func New(l Loader, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, max(1, height-2))
	vp.Style = lipgloss.NewStyle()

	return Model{
		loader:   l,
		keys:     k,
		viewport: vp,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Open starts loading a message, replacing whatever was shown.
func (m *Model) Open(accountID api.ID, accountEmail, messageID string) tea.Cmd {
	m.accountID = accountID
	m.accountEmail = accountEmail
	m.messageID = messageID
	m.email = nil
	m.err = nil
	m.loading = true

	l := m.loader
	return func() tea.Msg {
		email, err := l.Email(context.Background(), accountID, messageID)
		return loadedMsg{accountID: accountID, messageID: messageID, email: email, err: err}
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.accountID != m.accountID || msg.messageID != m.messageID {
			return m, nil
		}
		m.loading = false
		m.email = msg.email
		m.err = msg.err
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}
		case key.Matches(msg, m.keys.Refresh):
			if m.messageID != "" {
				return m, m.Open(m.accountID, m.accountEmail, m.messageID)
			}
			return m, nil
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// SetSize updates dimensions and re-wraps the body.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(1, height-2)
	if m.email != nil {
		m.viewport.SetContent(m.renderContent())
	}
}

// Hints returns the status bar key hints.
func (m Model) Hints() string {
	return "j/k scroll | esc back | r reload"
}

// View renders the detail view.
func (m Model) View() string {
	switch {
	case m.loading:
		return ui.Placeholder(m.width, m.height, "Loading message...")
	case m.err != nil:
		return ui.ErrorPlaceholder(m.width, m.height, "message", m.err)
	case m.email == nil:
		return ui.Placeholder(m.width, m.height, "No message selected")
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.email == nil {
		return ""
	}

	e := m.email
	var sections []string

	subject := e.Subject
	if subject == "" {
		subject = "(No subject)"
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(subject))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(9)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	field := func(label, value string) {
		if value == "" {
			return
		}
		sections = append(sections, metaStyle.Render(label+":")+valStyle.Render(value))
	}

	field("From", e.From)
	field("To", e.To)
	field("Cc", e.Cc)
	if !e.Date.IsZero() {
		field("Date", e.Date.Local().Format("Mon, Jan 2, 2006 3:04 PM"))
	}
	field("Account", m.accountEmail)

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	sections = append(sections, "")
	sections = append(sections, sepStyle.Render(strings.Repeat("─", max(1, min(m.width-4, 80)))))
	sections = append(sections, "")

	body := Body(e.Body)
	if body == "" {
		body = e.Snippet
	}
	if body == "" {
		body = lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).Render("No content")
	}
	sections = append(sections, lipgloss.NewStyle().Width(max(20, m.width-2)).Render(body))

	return strings.Join(sections, "\n")
}

var htmlTag = regexp.MustCompile(`(?i)<(html|body|div|p|br|table|span|a)[\s>/]`)

// Body returns a message body as plain text. HTML bodies are converted;
// anything else is returned with normalized line endings.
func Body(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	if !htmlTag.MatchString(raw) {
		return strings.TrimSpace(raw)
	}

	text, err := html2text.FromString(raw, html2text.Options{PrettyTables: true})
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(text)
}

// Title returns a short label for the header while a message is open.
func (m Model) Title() string {
	if m.email == nil {
		return "Message"
	}
	return fmt.Sprintf("Message · %s", m.email.Subject)
}
