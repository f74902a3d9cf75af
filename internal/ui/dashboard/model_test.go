package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailboard/internal/api"
)

type fakeAccounts struct{ err error }

func (f fakeAccounts) List(context.Context) ([]api.Account, error) {
	return []api.Account{
		{EmailAddress: "alice@gmail.com", SyncStatus: api.SyncStatusIdle},
		{EmailAddress: "bob@outlook.com", SyncStatus: api.SyncStatusError, LastSyncError: "invalid_grant"},
	}, f.err
}

type fakeRules struct{}

func (fakeRules) List(context.Context) ([]api.Rule, error) {
	return []api.Rule{{Enabled: true}, {Enabled: false}, {Enabled: true}}, nil
}

type fakeContacts struct{}

func (fakeContacts) ListGroups(context.Context) ([]api.ContactList, error) {
	return []api.ContactList{
		{Contacts: make([]api.Contact, 3)},
		{Contacts: make([]api.Contact, 2)},
	}, nil
}

type fakeLists struct{}

func (fakeLists) List(_ context.Context, listType string) ([]api.EmailList, error) {
	if listType == api.ListTypeBlacklist {
		return []api.EmailList{{ListType: listType, Entries: make([]api.ListEntry, 4)}}, nil
	}
	return []api.EmailList{{ListType: listType, Entries: make([]api.ListEntry, 1)}}, nil
}

type fakeSummary struct{ err error }

func (f fakeSummary) Summary(context.Context) (*api.AnalyticsSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &api.AnalyticsSummary{TotalEmails: 1234567, UnreadEmails: 890, UniqueSenders: 1200}, nil
}

func deps() Deps {
	return Deps{
		Accounts: fakeAccounts{},
		Rules:    fakeRules{},
		Contacts: fakeContacts{},
		Lists:    fakeLists{},
		Summary:  fakeSummary{},
	}
}

func TestCollect(t *testing.T) {
	s, err := Collect(context.Background(), deps())

	require.NoError(t, err)
	assert.Equal(t, 2, s.Accounts)
	assert.Equal(t, []string{"bob@outlook.com"}, s.NeedsReauth)
	assert.Equal(t, 3, s.Rules)
	assert.Equal(t, 2, s.EnabledRules)
	assert.Equal(t, 2, s.Groups)
	assert.Equal(t, 5, s.Contacts)
	assert.Equal(t, 4, s.Blocked)
	assert.Equal(t, 1, s.Allowed)
	require.NotNil(t, s.Summary)
}

func TestCollect_SummaryIsOptional(t *testing.T) {
	d := deps()
	d.Summary = fakeSummary{err: errors.New("HTTP 404")}

	s, err := Collect(context.Background(), d)

	require.NoError(t, err)
	assert.Nil(t, s.Summary)
}

func TestCollect_FailurePropagates(t *testing.T) {
	d := deps()
	d.Accounts = fakeAccounts{err: errors.New("HTTP 500")}

	_, err := Collect(context.Background(), d)

	assert.EqualError(t, err, "HTTP 500")
}

func TestModel_View(t *testing.T) {
	m := New(deps(), 140, 40)
	assert.NotContains(t, m.View(), "Accounts needing reconnection")

	m, _ = m.Update(m.Init()())

	view := m.View()
	assert.Contains(t, view, "2 enabled")
	assert.Contains(t, view, "in 2 groups")
	assert.Contains(t, view, "1,234,567 emails analysed")
	assert.Contains(t, view, "Accounts needing reconnection:")
	assert.Contains(t, view, "bob@outlook.com")
}

func TestModel_Error(t *testing.T) {
	d := deps()
	d.Accounts = fakeAccounts{err: errors.New("HTTP 503")}

	m := New(d, 140, 40)
	m, _ = m.Update(m.Init()())

	assert.Contains(t, m.View(), "Failed to load dashboard")
}
