package contacts

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/keys"
	"github.com/nhle/mailboard/internal/ui"
)

type fakeBackend struct {
	groups  []api.ContactList
	created []api.ContactList
	added   []api.Contact
	removed []api.ID
	err     error
}

func (f *fakeBackend) ListGroups(context.Context) ([]api.ContactList, error) {
	return f.groups, f.err
}

func (f *fakeBackend) GetGroup(_ context.Context, id api.ID) (*api.ContactList, error) {
	for _, g := range f.groups {
		if g.ID == id {
			return &g, nil
		}
	}
	return nil, errors.New("HTTP 404")
}

func (f *fakeBackend) CreateGroup(_ context.Context, g api.ContactList) (*api.ContactList, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, g)
	return &g, nil
}

func (f *fakeBackend) AddContact(_ context.Context, _ api.ID, c api.Contact) (*api.Contact, error) {
	f.added = append(f.added, c)
	return &c, nil
}

func (f *fakeBackend) RemoveContact(_ context.Context, _, contactID api.ID) error {
	f.removed = append(f.removed, contactID)
	return nil
}

func sampleGroups() []api.ContactList {
	return []api.ContactList{
		{ID: "1", Name: "Family", Description: "Close relatives", Contacts: []api.Contact{
			{ID: "10", Email: "mom@example.com", Name: "Mom"},
			{ID: "11", Email: "dad@example.com"},
		}},
		{ID: "2", Name: "VIPs", Contacts: []api.Contact{{ID: "20", Email: "ceo@example.com"}}},
	}
}

func loaded(t *testing.T, b *fakeBackend) Model {
	t.Helper()
	m := New(b, keys.DefaultKeyMap(), 120, 30)
	m, _ = m.Update(m.Init()())
	return m
}

func TestContacts_RenderGroups(t *testing.T) {
	m := loaded(t, &fakeBackend{groups: sampleGroups()})

	view := m.View()
	assert.Contains(t, view, "Family")
	assert.Contains(t, view, "2 contacts")
	assert.Contains(t, view, "1 contact")
	assert.Contains(t, view, "Close relatives")
	assert.Contains(t, view, "No description")
}

func TestContacts_EmptyAndError(t *testing.T) {
	m := loaded(t, &fakeBackend{})
	assert.Contains(t, m.View(), "No contact lists created")

	m = loaded(t, &fakeBackend{err: errors.New("HTTP 500")})
	assert.Contains(t, m.View(), "Failed to load contact groups")
}

func TestContacts_OpenGroupAndBack(t *testing.T) {
	m := loaded(t, &fakeBackend{groups: sampleGroups()})

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())

	assert.True(t, m.Capturing())
	view := m.View()
	assert.Contains(t, view, "Mom <mom@example.com>")
	assert.Contains(t, view, "dad@example.com")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Capturing())
	assert.Contains(t, m.View(), "Contact Groups")
}

func TestContacts_CreateGroup(t *testing.T) {
	b := &fakeBackend{}
	m := loaded(t, b)
	m.fb.name = " Work "
	m.fb.description = "Colleagues"

	msg := m.createGroup()()

	assert.Equal(t, doneMsg{success: "Group Work created"}, msg)
	assert.Equal(t, []api.ContactList{{Name: "Work", Description: "Colleagues"}}, b.created)
}

func TestContacts_CreateGroupFailureAlerts(t *testing.T) {
	b := &fakeBackend{err: errors.New("HTTP 409")}
	m := loaded(t, b)
	m.fb.name = "Work"

	_, cmd := m.Update(m.createGroup()())

	require.NotNil(t, cmd)
	alert, ok := cmd().(ui.AlertMsg)
	require.True(t, ok)
	assert.Equal(t, "Failed to create contact group: HTTP 409", alert.Message)
}

func TestContacts_AddAndRemoveContact(t *testing.T) {
	b := &fakeBackend{groups: sampleGroups()}
	m := loaded(t, b)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(cmd())

	m.fb.email = "aunt@example.com"
	m.fb.name = "Aunt"
	assert.Equal(t, doneMsg{success: "Added aunt@example.com"}, m.addContact("1")())
	assert.Equal(t, []api.Contact{{Email: "aunt@example.com", Name: "Aunt"}}, b.added)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	assert.Contains(t, m.View(), "Remove dad@example.com from Family?")

	msg := m.removeContact("1", m.group.Contacts[1])()
	assert.Equal(t, doneMsg{success: "Removed dad@example.com"}, msg)
	assert.Equal(t, []api.ID{"11"}, b.removed)
}
