package analytics

import (
	"context"
	"errors"
	gosync "sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/keys"
	"github.com/nhle/mailboard/internal/sync"
	"github.com/nhle/mailboard/internal/ui"
	"github.com/nhle/mailboard/internal/ui/toast"
)

type fakeAnalytics struct {
	mu        gosync.Mutex
	days      []int
	err       error
	cancelled []api.ID
}

func (f *fakeAnalytics) All(_ context.Context, limit, days int) (*api.Analytics, error) {
	f.mu.Lock()
	f.days = append(f.days, days)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &api.Analytics{
		Summary: api.AnalyticsSummary{TotalEmails: 12345, UnreadEmails: 321, UniqueSenders: 42, ReadRatio: 87.5},
		TopSenders: []api.SenderCount{
			{Email: "news@shop.example", Name: "Shop", Count: 120},
			{Email: "boss@work.example", Count: 80},
		},
		UnreadBySender: []api.SenderUnread{
			{Email: "news@shop.example", UnreadCount: 15},
			{Email: "promo@deals.example", UnreadCount: 7},
		},
		ReplyRanking:  []api.ReplyRank{{Email: "friend@home.example", SentCount: 30}},
		LowReplyRatio: []api.LowReply{{Email: "promo@deals.example", Received: 50, Replies: 2, ReplyRatio: 0.04}},
	}, nil
}

func (f *fakeAnalytics) StartSync(context.Context) (*api.SyncJob, error) {
	return &api.SyncJob{JobID: "job-1"}, nil
}

func (f *fakeAnalytics) CancelSync(_ context.Context, id api.ID) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

type fakeSpam struct {
	checked []string
}

func (f *fakeSpam) CheckEmail(_ context.Context, email string) (*api.SpamResult, error) {
	return &api.SpamResult{Listed: true, Reason: "SBL listing"}, nil
}

func (f *fakeSpam) CheckEmails(_ context.Context, emails []string) (*api.SpamBatch, error) {
	f.checked = emails
	return &api.SpamBatch{
		Results: map[string]api.SpamResult{
			"news@shop.example":   {},
			"boss@work.example":   {},
			"promo@deals.example": {Listed: true, Reason: "DBL"},
		},
		Summary: api.SpamSummary{Total: 3, Clean: 2, Listed: 1},
	}, nil
}

type fakeBulk struct {
	moved      []api.BulkMoveRequest
	segregated []string
}

func (f *fakeBulk) Folders(context.Context) (map[string]api.AccountFolders, error) {
	return map[string]api.AccountFolders{
		"b@x.example": {Folders: []api.Folder{{ID: "f2", Name: "Archive"}}},
		"a@x.example": {Folders: []api.Folder{{ID: "f1", Name: "Inbox"}}},
		"c@x.example": {Error: "token expired"},
	}, nil
}

func (f *fakeBulk) Move(_ context.Context, req api.BulkMoveRequest) (*api.BulkResult, error) {
	f.moved = append(f.moved, req)
	return &api.BulkResult{TotalMoved: 57}, nil
}

func (f *fakeBulk) Segregate(_ context.Context, senders []string) (*api.BulkResult, error) {
	f.segregated = senders
	return &api.BulkResult{}, nil
}

func (f *fakeBulk) Segregated(context.Context) ([]api.SegregatedSender, error) {
	return []api.SegregatedSender{{SenderEmail: "News@Shop.example"}}, nil
}

type fakeWatcher struct{ watched int }

func (f *fakeWatcher) Watch() { f.watched++ }

type fixture struct {
	analytics *fakeAnalytics
	spam      *fakeSpam
	bulk      *fakeBulk
	watcher   *fakeWatcher
}

func newFixture() *fixture {
	return &fixture{analytics: &fakeAnalytics{}, spam: &fakeSpam{}, bulk: &fakeBulk{}, watcher: &fakeWatcher{}}
}

func (f *fixture) loaded(t *testing.T) Model {
	t.Helper()
	m := New(Deps{Analytics: f.analytics, Spam: f.spam, Bulk: f.bulk, Watcher: f.watcher}, keys.DefaultKeyMap(), 140, 60)
	m, _ = m.Update(m.Init()())
	return m
}

func press(m Model, s string) (Model, tea.Cmd) {
	if s == " " {
		return m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	}
	return m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestAnalytics_RenderPanels(t *testing.T) {
	m := newFixture().loaded(t)

	view := m.View()
	assert.Contains(t, view, "12,345")
	assert.Contains(t, view, "87.5%")
	assert.Contains(t, view, "120 emails")
	assert.Contains(t, view, "15 unread")
	assert.Contains(t, view, "30 sent")
	assert.Contains(t, view, "4% reply")
	assert.Contains(t, view, "50 received, 2 replied")
	assert.Contains(t, view, "✓", "segregated badge matches case-insensitively")
	assert.Contains(t, view, "All time")
}

func TestAnalytics_LoadErrorOffersSync(t *testing.T) {
	f := newFixture()
	f.analytics.err = errors.New("HTTP 500")
	m := f.loaded(t)

	view := m.View()
	assert.Contains(t, view, "Failed to load analytics")
	assert.Contains(t, view, "press s to sync data first")
}

func TestAnalytics_DaysFilterReloads(t *testing.T) {
	f := newFixture()
	m := f.loaded(t)

	m, cmd := press(m, "f")
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())

	assert.Equal(t, 7, m.Days())
	assert.Equal(t, []int{0, 7}, f.analytics.days)
	assert.Contains(t, m.View(), "Last 7 days")
}

func TestAnalytics_StaleDaysIgnored(t *testing.T) {
	f := newFixture()
	m := New(Deps{Analytics: f.analytics}, keys.DefaultKeyMap(), 140, 60)
	initial := m.Init()
	m, _ = press(m, "f")

	m, _ = m.Update(initial())

	assert.Nil(t, m.data)
}

func TestAnalytics_SpamScanListedFirst(t *testing.T) {
	f := newFixture()
	m := f.loaded(t)

	m, cmd := press(m, "p")
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Checking against Spamhaus...")
	m, _ = m.Update(cmd())

	assert.Equal(t, []string{"news@shop.example", "boss@work.example", "promo@deals.example"}, f.spam.checked)
	require.Len(t, m.spamRows, 3)
	assert.Equal(t, "promo@deals.example", m.spamRows[0].Email)
	view := m.View()
	assert.Contains(t, view, "2 clean")
	assert.Contains(t, view, "1 listed")
	assert.Contains(t, view, "⚠ LISTED")
}

func TestAnalytics_SpamScanWithoutData(t *testing.T) {
	f := newFixture()
	f.analytics.err = errors.New("HTTP 500")
	m := f.loaded(t)

	_, cmd := press(m, "p")

	require.NotNil(t, cmd)
	alert, ok := cmd().(ui.AlertMsg)
	require.True(t, ok)
	assert.Equal(t, "No senders to scan. Please sync analytics data first.", alert.Message)
}

func TestAnalytics_CheckSingleSender(t *testing.T) {
	m := newFixture().loaded(t)

	m, cmd := press(m, "c")
	require.NotNil(t, cmd)
	_, cmd = m.Update(cmd())

	alert, ok := cmd().(ui.AlertMsg)
	require.True(t, ok)
	assert.Equal(t, "⚠ news@shop.example is LISTED:\nSBL listing", alert.Message)
}

func TestAnalytics_SelectionAcrossPanels(t *testing.T) {
	m := newFixture().loaded(t)

	m, _ = press(m, " ")
	m, _ = press(m, "l")
	m, _ = press(m, "j")
	m, _ = press(m, " ")

	assert.Equal(t, []string{"news@shop.example", "promo@deals.example"}, m.Selected())
	assert.Contains(t, m.View(), "2 senders selected")

	m, _ = press(m, "A")
	assert.Len(t, m.Selected(), 3)
	m, _ = press(m, "A")
	assert.Empty(t, m.Selected())
}

func TestAnalytics_MoveRequiresSelection(t *testing.T) {
	m := newFixture().loaded(t)

	_, cmd := press(m, "m")

	alert, ok := cmd().(ui.AlertMsg)
	require.True(t, ok)
	assert.Equal(t, "Please select at least one sender", alert.Message)
}

func TestAnalytics_BulkMove(t *testing.T) {
	f := newFixture()
	m := f.loaded(t)
	m, _ = press(m, " ")

	m, cmd := press(m, "m")
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	require.True(t, m.Capturing())
	assert.Len(t, folderOptions(m.folders), 2, "accounts with errors are skipped")

	m.fb.target = targetNew
	m.fb.newFolder = " Shopping "
	req := m.moveRequest()
	assert.Equal(t, api.BulkMoveRequest{
		SenderEmails:  []string{"news@shop.example"},
		CreateNew:     true,
		NewFolderName: "Shopping",
	}, req)

	m, cmd = m.Update(m.move(req)())
	assert.Empty(t, m.Selected())
	alert, ok := cmd().(ui.AlertMsg)
	require.True(t, ok)
	assert.Equal(t, "Successfully moved 57 emails from 1 sender(s)", alert.Message)
}

func TestFolderOptionsSorted(t *testing.T) {
	opts := folderOptions(map[string]api.AccountFolders{
		"b@x.example": {Folders: []api.Folder{{ID: "f2", Name: "Archive"}}},
		"a@x.example": {Folders: []api.Folder{{ID: "f1", Name: "Inbox"}}},
	})

	require.Len(t, opts, 2)
	assert.Equal(t, "a@x.example / Inbox", opts[0].Key)
	assert.Equal(t, "f2", opts[1].Value)
}

func TestSegregatePlan(t *testing.T) {
	plan := SegregatePlan(
		[]string{"news@shop.example", "boss@work.example"},
		map[string]bool{"news@shop.example": true},
	)

	assert.Contains(t, plan, "each of the 2 selected senders")
	assert.Contains(t, plan, "Note: 1 sender already segregated")
	assert.Contains(t, plan, "news@shop.example → Segregated/news (update)")
	assert.Contains(t, plan, "boss@work.example → Segregated/boss (new)")
}

func TestAnalytics_SegregateNothingNew(t *testing.T) {
	f := newFixture()
	m := f.loaded(t)
	m, _ = press(m, "j")
	m, _ = press(m, " ")

	m, cmd := press(m, "G")
	require.True(t, m.Capturing())
	require.NotNil(t, cmd)

	m, cmd = m.Update(m.segregate(m.Selected())())
	assert.Equal(t, []string{"boss@work.example"}, f.bulk.segregated)
	assert.True(t, m.segregated["boss@work.example"])

	var alert ui.AlertMsg
	for _, msg := range cmd().(tea.BatchMsg) {
		if a, ok := msg().(ui.AlertMsg); ok {
			alert = a
		}
	}
	assert.Equal(t, "No new emails to move. All 1 sender(s) were already fully segregated.", alert.Message)
}

func TestAnalytics_SyncLifecycle(t *testing.T) {
	f := newFixture()
	m := f.loaded(t)

	m, cmd := press(m, "s")
	require.NotNil(t, cmd)
	assert.True(t, m.Syncing())
	assert.Contains(t, m.View(), "Starting...")

	m, _ = m.Update(cmd())
	assert.Equal(t, 1, f.watcher.watched)
	assert.Equal(t, api.ID("job-1"), m.job.JobID)

	m, _ = m.Update(sync.SyncProgressMsg{Job: api.SyncJob{
		JobID:                "job-1",
		Status:               api.JobRunning,
		Progress:             40,
		CurrentAccount:       "alice@gmail.com",
		TotalEmailsProcessed: 400,
		TotalEmailsSynced:    350,
		TotalEmailsSkipped:   50,
	}})
	view := m.View()
	assert.Contains(t, view, "alice@gmail.com")
	assert.Contains(t, view, "400 processed (350 new, 50 skipped)")

	m, cmd = press(m, "C")
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	assert.Equal(t, []api.ID{"job-1"}, f.analytics.cancelled)
	assert.False(t, m.Syncing())

	m, cmd = m.Update(sync.SyncFinishedMsg{Job: api.SyncJob{Status: api.JobCancelled}})
	var toasts []toast.ShowMsg
	for _, c := range cmd().(tea.BatchMsg) {
		if msg, ok := c().(toast.ShowMsg); ok {
			toasts = append(toasts, msg)
		}
	}
	assert.Equal(t, []toast.ShowMsg{{Kind: toast.Info, Message: "Sync cancelled", Duration: toast.DefaultDuration}}, toasts)
	assert.False(t, m.Syncing())
}

func TestFinishedToast(t *testing.T) {
	msg := finishedToast(api.SyncJob{Status: api.JobFailed, StatusMessage: "quota exceeded"})()
	assert.Equal(t, toast.ShowMsg{Kind: toast.Error, Message: "Sync failed: quota exceeded", Duration: toast.DefaultDuration}, msg)
}
