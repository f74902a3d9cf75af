// Package dashboard renders the landing view: headline counts and the
// accounts that need attention.
package dashboard

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/theme"
	"github.com/nhle/mailboard/internal/ui"
	"github.com/nhle/mailboard/internal/ui/skeleton"
)

// Deps are the collections the dashboard counts. Summary is optional;
// analytics may not have synced yet.
type Deps struct {
	Accounts interface {
		List(ctx context.Context) ([]api.Account, error)
	}
	Rules interface {
		List(ctx context.Context) ([]api.Rule, error)
	}
	Contacts interface {
		ListGroups(ctx context.Context) ([]api.ContactList, error)
	}
	Lists interface {
		List(ctx context.Context, listType string) ([]api.EmailList, error)
	}
	Summary interface {
		Summary(ctx context.Context) (*api.AnalyticsSummary, error)
	}
}

// Stats are the dashboard's headline numbers.
type Stats struct {
	Accounts     int
	NeedsReauth  []string
	Rules        int
	EnabledRules int
	Groups       int
	Contacts     int
	Blocked      int
	Allowed      int
	Summary      *api.AnalyticsSummary
}

type loadedMsg struct {
	stats Stats
	err   error
}

// Model is the dashboard view.
type Model struct {
	deps    Deps
	stats   *Stats
	loading bool
	err     error

	width  int
	height int
}

// New creates the dashboard view.
func New(deps Deps, width, height int) Model {
	return Model{deps: deps, loading: true, width: width, height: height}
}

// Init loads the counts.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Reload refetches the counts.
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
	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			s := msg.stats
			m.stats = &s
		}
	}
	return m, nil
}

// Capturing always reports false.
func (m Model) Capturing() bool {
	return false
}

// Hints returns the status bar key hints.
func (m Model) Hints() string {
	return "tab next view | 1-8 jump | r refresh | ? help"
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the dashboard.
func (m Model) View() string {
	width := max(20, m.width-4)

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Dashboard"))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(ui.ErrorPlaceholder(width, max(1, m.height-6), "dashboard", m.err))
	case m.stats == nil:
		b.WriteString(skeleton.Stats(width, 4))
	default:
		b.WriteString(m.renderStats())
		if s := m.stats.Summary; s != nil {
			b.WriteString("\n\n")
			fmt.Fprintf(&b, "%s emails analysed, %s unread from %s senders",
				humanize.Comma(s.TotalEmails), humanize.Comma(s.UnreadEmails), humanize.Comma(s.UniqueSenders))
		}
		if len(m.stats.NeedsReauth) > 0 {
			b.WriteString("\n\n")
			b.WriteString(theme.WarningStyle.Render("Accounts needing reconnection:"))
			for _, email := range m.stats.NeedsReauth {
				b.WriteString("\n  " + email)
			}
		}
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) renderStats() string {
	s := m.stats
	card := func(label, value, detail string) string {
		body := theme.DimmedStyle.Render(label) + "\n" +
			lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render(value)
		if detail != "" {
			body += "\n" + theme.DimmedStyle.Render(detail)
		}
		return theme.DetailPanelStyle.Padding(0, 2).Render(body)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Accounts", humanize.Comma(int64(s.Accounts)), ""),
		card("Rules", humanize.Comma(int64(s.Rules)), fmt.Sprintf("%d enabled", s.EnabledRules)),
		card("Contacts", humanize.Comma(int64(s.Contacts)), fmt.Sprintf("in %d groups", s.Groups)),
		card("Blocked", humanize.Comma(int64(s.Blocked)), fmt.Sprintf("%d allowed", s.Allowed)),
	)
}

func entryCount(lists []api.EmailList, listType string) int {
	n := 0
	for _, l := range lists {
		if l.ListType == listType || l.ListType == "" {
			n += len(l.Entries)
		}
	}
	return n
}

// Collect fetches every count in parallel. The first failure cancels the
// rest; a missing analytics summary is not an error.
func Collect(ctx context.Context, deps Deps) (Stats, error) {
	var s Stats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		accounts, err := deps.Accounts.List(ctx)
		if err != nil {
			return err
		}
		s.Accounts = len(accounts)
		for _, a := range accounts {
			if a.NeedsReauth() {
				s.NeedsReauth = append(s.NeedsReauth, a.EmailAddress)
			}
		}
		return nil
	})
	g.Go(func() error {
		rules, err := deps.Rules.List(ctx)
		if err != nil {
			return err
		}
		s.Rules = len(rules)
		for _, r := range rules {
			if r.Enabled {
				s.EnabledRules++
			}
		}
		return nil
	})
	g.Go(func() error {
		groups, err := deps.Contacts.ListGroups(ctx)
		if err != nil {
			return err
		}
		s.Groups = len(groups)
		for _, grp := range groups {
			s.Contacts += len(grp.Contacts)
		}
		return nil
	})
	g.Go(func() error {
		lists, err := deps.Lists.List(ctx, api.ListTypeBlacklist)
		if err != nil {
			return err
		}
		s.Blocked = entryCount(lists, api.ListTypeBlacklist)
		return nil
	})
	g.Go(func() error {
		lists, err := deps.Lists.List(ctx, api.ListTypeWhitelist)
		if err != nil {
			return err
		}
		s.Allowed = entryCount(lists, api.ListTypeWhitelist)
		return nil
	})
	if deps.Summary != nil {
		g.Go(func() error {
			if sum, err := deps.Summary.Summary(ctx); err == nil {
				s.Summary = sum
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return s, nil
}

func (m Model) load() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		stats, err := Collect(context.Background(), deps)
		return loadedMsg{stats: stats, err: err}
	}
}
