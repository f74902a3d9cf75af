package inbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/keys"
	"github.com/nhle/mailboard/internal/pager"
	"github.com/nhle/mailboard/internal/state"
	"github.com/nhle/mailboard/internal/ui"
	"github.com/nhle/mailboard/internal/ui/toast"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeBackend struct {
	mu       sync.Mutex
	accounts []api.Account
	emails   map[api.ID][]api.Email
	folders  map[api.ID][]api.Folder
	failing  map[api.ID]bool
	moved    []api.MoveEmailRequest
	calls    int
}

func (f *fakeBackend) List(context.Context) ([]api.Account, error) {
	return f.accounts, nil
}

func (f *fakeBackend) Folders(_ context.Context, id api.ID) ([]api.Folder, error) {
	return f.folders[id], nil
}

func (f *fakeBackend) Move(_ context.Context, _ api.ID, _ string, req api.MoveEmailRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moved = append(f.moved, req)
	return nil
}

func (f *fakeBackend) Emails(_ context.Context, id api.ID, q api.EmailQuery) (*api.EmailPage, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.failing[id] {
		return nil, errors.New("HTTP 502")
	}

	var out []api.Email
	for _, e := range f.emails[id] {
		if q.Before != nil && !e.Date.Before(*q.Before) {
			continue
		}
		if len(out) == q.MaxResults {
			break
		}
		out = append(out, e)
	}
	return &api.EmailPage{Emails: out, Total: len(f.emails[id])}, nil
}

func (f *fakeBackend) FolderEmails(ctx context.Context, id api.ID, _ string, q api.EmailQuery) (*api.EmailPage, error) {
	return f.Emails(ctx, id, q)
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// inboxFor builds n emails per account, newest first, with account dates
// interleaved so merged pages mix both accounts.
func inboxFor(offset time.Duration, n int, prefix string) []api.Email {
	emails := make([]api.Email, n)
	for i := range emails {
		emails[i] = api.Email{
			ID:      api.ID(fmt.Sprintf("%s%d", prefix, i)),
			From:    fmt.Sprintf("%s sender <%s%d@example.com>", prefix, prefix, i),
			Subject: fmt.Sprintf("%s subject %d", prefix, i),
			Date:    api.Timestamp{Time: base.Add(-time.Duration(i)*time.Hour - offset)},
		}
	}
	return emails
}

func twoAccounts() *fakeBackend {
	return &fakeBackend{
		accounts: []api.Account{
			{ID: "1", EmailAddress: "alice@example.com", SyncStatus: api.SyncStatusIdle},
			{ID: "2", EmailAddress: "bob@example.com", SyncStatus: api.SyncStatusIdle},
		},
		emails: map[api.ID][]api.Email{
			"1": inboxFor(0, 6, "a"),
			"2": inboxFor(30*time.Minute, 6, "b"),
		},
		folders: map[api.ID][]api.Folder{
			"1": {{ID: "f9", Name: "Receipts"}, {ID: "f1", Name: "INBOX", UnreadCount: 2}},
		},
	}
}

type collected struct {
	dispatches []state.Action
	toasts     []toast.ShowMsg
	alerts     []ui.AlertMsg
	opened     []OpenMessageMsg
}

// run executes cmd and feeds the resulting messages back into m until no
// command is left, collecting messages meant for the parent.
func run(m Model, cmd tea.Cmd, c *collected) Model {
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, sub := range msg {
			m = run(m, sub, c)
		}
	case ui.DispatchMsg:
		c.dispatches = append(c.dispatches, msg.Action)
	case toast.ShowMsg:
		c.toasts = append(c.toasts, msg)
	case ui.AlertMsg:
		c.alerts = append(c.alerts, msg)
	case OpenMessageMsg:
		c.opened = append(c.opened, msg)
	default:
		var next tea.Cmd
		m, next = m.Update(msg)
		m = run(m, next, c)
	}
	return m
}

func press(m Model, k string, c *collected) Model {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	m, cmd := m.Update(msg)
	return run(m, cmd, c)
}

func newInbox(b *fakeBackend, pageSize int) Model {
	m := New(b, pager.New(b, pageSize, nil), keys.DefaultKeyMap(), 160, 40)
	m.now = func() time.Time { return base }
	return m
}

func TestInbox_LoadMergesAccounts(t *testing.T) {
	b := twoAccounts()
	m := newInbox(b, 4)
	c := &collected{}

	m = run(m, m.Init(), c)

	require.Len(t, m.Rows(), 4)
	for i := 1; i < len(m.Rows()); i++ {
		assert.False(t, m.Rows()[i].Date.After(m.Rows()[i-1].Date.Time))
	}
	assert.Equal(t, api.ID("1"), m.Rows()[0].AccountID)
	assert.Equal(t, api.ID("2"), m.Rows()[1].AccountID)
	assert.Equal(t, 2, b.callCount())

	view := m.View()
	assert.Contains(t, view, "alice")
	assert.Contains(t, view, "bob")
	assert.Contains(t, view, "1-4 of 12+")
	assert.Empty(t, c.toasts)
}

func TestInbox_NoAccounts(t *testing.T) {
	m := newInbox(&fakeBackend{}, 4)

	m = run(m, m.Init(), &collected{})

	assert.Contains(t, m.View(), "Connect an email account")
}

func TestInbox_PagingForwardAndBack(t *testing.T) {
	m := newInbox(twoAccounts(), 4)
	c := &collected{}
	m = run(m, m.Init(), c)
	first := m.Rows()

	m = press(m, "l", c)
	require.Len(t, m.Rows(), 4)
	assert.True(t, m.Rows()[0].Date.Before(first[len(first)-1].Date.Time))
	assert.Contains(t, m.View(), "5-8 of 12+")

	m = press(m, "h", c)
	assert.Equal(t, first, m.Rows())
}

func TestInbox_SortIsLocal(t *testing.T) {
	b := twoAccounts()
	m := newInbox(b, 4)
	m = run(m, m.Init(), &collected{})
	calls := b.callCount()

	vs := state.Default()
	vs.SortColumn = string(pager.ColumnSubject)
	vs.SortDirection = state.SortAsc
	cmd := m.ApplyState(vs)

	assert.Nil(t, cmd)
	assert.Equal(t, calls, b.callCount())
	for i := 1; i < len(m.Rows()); i++ {
		assert.LessOrEqual(t, m.Rows()[i-1].Subject, m.Rows()[i].Subject)
	}
}

func TestInbox_SortKeysDispatch(t *testing.T) {
	m := newInbox(twoAccounts(), 4)
	c := &collected{}
	m = run(m, m.Init(), c)

	m = press(m, "F", c)
	m = press(m, ">", c)

	require.Len(t, c.dispatches, 2)
	assert.Equal(t, state.SortBy{Column: "from"}, c.dispatches[0])
	// Width applies to the sort column active in the view, still date.
	assert.Equal(t, state.ResizeColumn{Column: "date", Width: 14}, c.dispatches[1])
}

func TestInbox_SelectAccountLoadsFolders(t *testing.T) {
	m := newInbox(twoAccounts(), 4)
	c := &collected{}
	m = run(m, m.Init(), c)

	m = press(m, "a", c)
	require.Equal(t, []state.Action{state.SelectAccount{AccountID: "1"}}, c.dispatches)

	vs := state.Default()
	vs.AccountID = "1"
	m = run(m, m.ApplyState(vs), c)

	for _, row := range m.Rows() {
		assert.Equal(t, api.ID("1"), row.AccountID)
	}
	require.Len(t, m.folders, 2)
	assert.Equal(t, "INBOX", m.folders[0].Name)
	assert.Contains(t, m.View(), "INBOX (2)")

	m = press(m, "f", c)
	assert.Equal(t, state.SelectFolder{FolderID: "f1"}, c.dispatches[len(c.dispatches)-1])
}

func TestInbox_UnknownPersistedAccountFallsBack(t *testing.T) {
	m := newInbox(twoAccounts(), 4)
	vs := state.Default()
	vs.AccountID = "99"
	m.ApplyState(vs)

	c := &collected{}
	m = run(m, m.Init(), c)

	assert.Equal(t, []state.Action{state.SelectAccount{AccountID: state.All}}, c.dispatches)
	assert.Len(t, m.Rows(), 4)
}

func TestInbox_PartialFailureWarns(t *testing.T) {
	b := twoAccounts()
	b.failing = map[api.ID]bool{"2": true}
	m := newInbox(b, 4)
	c := &collected{}

	m = run(m, m.Init(), c)

	require.Len(t, c.toasts, 1)
	assert.Equal(t, toast.Warning, c.toasts[0].Kind)
	for _, row := range m.Rows() {
		assert.Equal(t, api.ID("1"), row.AccountID)
	}
}

func TestInbox_AllFailedShowsError(t *testing.T) {
	b := twoAccounts()
	b.failing = map[api.ID]bool{"1": true, "2": true}
	m := newInbox(b, 4)

	m = run(m, m.Init(), &collected{})

	assert.Contains(t, m.View(), "Failed to load inbox")
}

func TestInbox_OpenSelected(t *testing.T) {
	m := newInbox(twoAccounts(), 4)
	c := &collected{}
	m = run(m, m.Init(), c)

	m = press(m, "j", c)
	m = press(m, "enter", c)

	require.Len(t, c.opened, 1)
	assert.Equal(t, OpenMessageMsg{
		AccountID:    "2",
		AccountEmail: "bob@example.com",
		MessageID:    "b0",
	}, c.opened[0])
}

func TestCell(t *testing.T) {
	assert.Equal(t, "abc  ", cell("abc", 5))
	assert.Equal(t, "abcd…", cell("abcdefgh", 5))
	assert.Equal(t, "a b  ", cell("a\n b", 5))
	assert.Equal(t, "", cell("abc", 0))
}
