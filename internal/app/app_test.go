package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/pager"
	"github.com/nhle/mailboard/internal/state"
	appsync "github.com/nhle/mailboard/internal/sync"
	"github.com/nhle/mailboard/internal/theme"
	"github.com/nhle/mailboard/internal/ui"
	"github.com/nhle/mailboard/internal/ui/command"
	"github.com/nhle/mailboard/internal/ui/detail"
	"github.com/nhle/mailboard/internal/ui/inbox"
)

type harness struct {
	model  Model
	kv     *state.MemoryKV
	client *api.Client
}

func newHarness(t *testing.T, persisted map[string]string) harness {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"UP"}`))
	})
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":1,"email":"alice@example.com","displayName":"Alice"},
			{"id":2,"email":"bob@example.com","displayName":"Bob"}
		]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := api.New(api.Options{BaseURL: srv.URL + "/api"})

	kv := state.NewMemoryKV()
	for k, v := range persisted {
		require.NoError(t, kv.Set(context.Background(), k, v))
	}
	manager, err := state.NewManager(context.Background(), kv, nil)
	require.NoError(t, err)

	m := New(Options{
		Client:  client,
		Pager:   pager.New(client.Accounts, 20, nil),
		State:   manager,
		Theme:   theme.NewMode(theme.System, true),
		Monitor: appsync.NewMonitor(client.Analytics, time.Hour, nil),
		Poller:  appsync.NewNotificationPoller(client.Notifications, time.Hour, nil),
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})

	return harness{model: next.(Model), kv: kv, client: client}
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_RestoresPersistedState(t *testing.T) {
	h := newHarness(t, map[string]string{
		state.KeyView:             "rules",
		state.KeyUserID:           "2",
		state.KeySidebarCollapsed: "true",
	})

	assert.Equal(t, state.ViewRules, h.model.current)
	assert.Equal(t, "2", h.client.UserID())
	assert.True(t, h.model.layout.SidebarCollapsed)
	assert.Contains(t, h.model.headerTitle(), "Rules")
}

func TestModel_DigitSwitchesViewAndPersists(t *testing.T) {
	h := newHarness(t, nil)

	cmd := h.send(runes("3"))

	assert.NotNil(t, cmd)
	assert.Equal(t, state.ViewAccounts, h.model.current)
	assert.Equal(t, "accounts", h.kv.Snapshot()[state.KeyView])
}

func TestModel_TabWrapsAround(t *testing.T) {
	h := newHarness(t, map[string]string{state.KeyView: "notifications"})

	h.send(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, state.ViewDashboard, h.model.current)

	h.send(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, state.ViewNotifications, h.model.current)
}

func TestModel_ToggleSidebar(t *testing.T) {
	h := newHarness(t, nil)
	wide := h.model.layout.ContentWidth()

	h.send(tea.KeyMsg{Type: tea.KeyCtrlB})

	assert.True(t, h.model.layout.SidebarCollapsed)
	assert.Greater(t, h.model.layout.ContentWidth(), wide)
	assert.Equal(t, "true", h.kv.Snapshot()[state.KeySidebarCollapsed])
}

func TestModel_CommandPalette(t *testing.T) {
	h := newHarness(t, nil)

	h.send(runes(":"))
	require.Equal(t, overlayCommand, h.model.overlay)

	// Keys go to the palette, not the view switcher.
	h.send(runes("3"))
	assert.Equal(t, state.ViewDashboard, h.model.current)

	h.send(command.CommandMsg{Command: command.Command{Kind: command.KindTheme, Arg: "dark"}})

	assert.Equal(t, overlayNone, h.model.overlay)
	assert.Equal(t, theme.Dark, h.model.theme.Preference())
	assert.Equal(t, "dark", h.kv.Snapshot()[state.KeyTheme])
}

func TestModel_CommandErrorShowsToast(t *testing.T) {
	h := newHarness(t, nil)
	h.send(runes(":"))

	cmd := h.send(command.ErrorMsg{Input: "bogus", Err: errors.New(`unknown command "bogus"`)})
	require.NotNil(t, cmd)
	h.send(cmd())

	assert.Equal(t, overlayNone, h.model.overlay)
	assert.Equal(t, 1, h.model.toasts.Len())
	assert.Contains(t, h.model.View(), `unknown command "bogus"`)
}

func TestModel_AlertBlocksKeys(t *testing.T) {
	h := newHarness(t, nil)

	h.send(ui.AlertMsg{Title: "Error", Message: "Failed to delete rule: HTTP 500"})
	assert.Contains(t, h.model.View(), "Failed to delete rule: HTTP 500")

	h.send(runes("3"))
	assert.Equal(t, state.ViewDashboard, h.model.current)

	h.send(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, h.model.alert)
}

func TestModel_SwitchUser(t *testing.T) {
	h := newHarness(t, nil)

	cmd := h.send(tea.KeyMsg{Type: tea.KeyCtrlU})
	require.NotNil(t, cmd)
	h.send(cmd())

	require.Equal(t, overlayUsers, h.model.overlay)
	assert.Contains(t, h.model.View(), "Bob <bob@example.com>")
	assert.Contains(t, h.model.View(), "Alice <alice@example.com> (current)")

	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, overlayNone, h.model.overlay)

	h.send(ui.DispatchMsg{Action: state.SwitchUser{UserID: "2"}})

	assert.Equal(t, "2", h.client.UserID())
	assert.Equal(t, "2", h.kv.Snapshot()[state.KeyUserID])
	assert.Contains(t, h.model.syncStatus(), "user 2")
}

func TestModel_MessageDetail(t *testing.T) {
	h := newHarness(t, map[string]string{state.KeyView: "inbox"})

	cmd := h.send(inbox.OpenMessageMsg{AccountID: "1", AccountEmail: "a@example.com", MessageID: "m1"})

	assert.NotNil(t, cmd)
	assert.True(t, h.model.showDetail)
	assert.Equal(t, "Message", h.model.title())

	h.send(detail.BackMsg{})
	assert.False(t, h.model.showDetail)
	assert.Equal(t, "Inbox", h.model.title())
}

func TestModel_UnreadAndSyncStatus(t *testing.T) {
	h := newHarness(t, nil)

	h.send(appsync.UnreadCountMsg{Count: 3})
	assert.Contains(t, h.model.headerTitle(), "[3 new]")

	h.send(appsync.SyncProgressMsg{Job: api.SyncJob{Status: api.JobRunning, Progress: 40}})
	assert.Contains(t, h.model.syncStatus(), "syncing")

	h.send(appsync.SyncFinishedMsg{Job: api.SyncJob{Status: api.JobCompleted}})
	assert.NotContains(t, h.model.syncStatus(), "syncing")
}

func TestModel_HealthCheck(t *testing.T) {
	h := newHarness(t, nil)

	h.send(h.model.checkHealth()())

	assert.Contains(t, h.model.syncStatus(), "backend UP")
}

func TestModel_ToggleThemeFromSystem(t *testing.T) {
	h := newHarness(t, nil)
	assert.Contains(t, h.model.syncStatus(), "system (dark)")

	h.send(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, theme.Light, h.model.theme.Preference())
	assert.Equal(t, "light", h.kv.Snapshot()[state.KeyTheme])
	assert.Contains(t, h.model.syncStatus(), "| light")

	h.send(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, theme.Dark, h.model.theme.Preference())
	assert.Equal(t, "dark", h.kv.Snapshot()[state.KeyTheme])
}

func TestModel_HealthErrorShowsStatus(t *testing.T) {
	h := newHarness(t, nil)

	h.send(healthMsg{err: &api.Error{Status: 503, Method: "GET", Path: "/health", Message: "down"}})
	assert.Contains(t, h.model.syncStatus(), "backend HTTP 503")

	h.send(healthMsg{err: errors.New("dial tcp: connection refused")})
	assert.Contains(t, h.model.syncStatus(), "backend unreachable")
}

func TestModel_Quit(t *testing.T) {
	h := newHarness(t, nil)

	cmd := h.send(runes("q"))

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
