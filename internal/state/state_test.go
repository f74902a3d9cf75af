package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce_SortBy(t *testing.T) {
	tests := []struct {
		name          string
		column        string
		direction     string
		sortBy        string
		wantColumn    string
		wantDirection string
	}{
		{"same_column_flips_desc", "date", SortDesc, "date", "date", SortAsc},
		{"same_column_flips_asc", "from", SortAsc, "from", "from", SortDesc},
		{"new_column_starts_asc", "date", SortDesc, "subject", "subject", SortAsc},
		{"date_starts_desc", "from", SortAsc, "date", "date", SortDesc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			s.SortColumn = tt.column
			s.SortDirection = tt.direction

			next := Reduce(s, SortBy{Column: tt.sortBy})
			assert.Equal(t, tt.wantColumn, next.SortColumn)
			assert.Equal(t, tt.wantDirection, next.SortDirection)
		})
	}
}

func TestReduce_SelectAccountResetsFolder(t *testing.T) {
	s := Default()
	s = Reduce(s, SelectAccount{AccountID: "3"})
	s = Reduce(s, SelectFolder{FolderID: "INBOX"})
	require.Equal(t, "INBOX", s.FolderID)

	s = Reduce(s, SelectAccount{AccountID: "4"})
	assert.Equal(t, "4", s.AccountID)
	assert.Equal(t, All, s.FolderID)
	assert.False(t, s.AllAccounts())
	assert.True(t, s.AllFolders())

	s = Reduce(s, SelectAccount{})
	assert.True(t, s.AllAccounts())
}

func TestReduce_IsPure(t *testing.T) {
	s := Default()
	s.ColumnWidths["subject"] = 40

	next := Reduce(s, ResizeColumn{Column: "subject", Width: 60})

	assert.Equal(t, 40, s.ColumnWidths["subject"])
	assert.Equal(t, 60, next.ColumnWidths["subject"])
}

func TestReduce_ResizeColumnMinimum(t *testing.T) {
	next := Reduce(Default(), ResizeColumn{Column: "from", Width: 1})
	assert.Equal(t, MinColumnWidth, next.ColumnWidths["from"])
}

func TestReduce_IgnoresInvalidValues(t *testing.T) {
	s := Default()

	assert.Equal(t, ViewDashboard, Reduce(s, SwitchView{View: "settings"}).View)
	assert.Equal(t, ThemeSystem, Reduce(s, SetTheme{Theme: "sepia"}).Theme)
	assert.Equal(t, "1", Reduce(s, SwitchUser{}).UserID)

	assert.Equal(t, ViewInbox, Reduce(s, SwitchView{View: ViewInbox}).View)
	assert.Equal(t, ThemeDark, Reduce(s, SetTheme{Theme: ThemeDark}).Theme)
	assert.True(t, Reduce(s, ToggleSidebar{}).SidebarCollapsed)
	assert.Equal(t, "BLACKLIST", Reduce(s, SelectListType{ListType: "BLACKLIST"}).ListType)
}

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(context.Background(), NewMemoryKV())
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoad_PersistedValues(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	for k, v := range map[string]string{
		KeyUserID:           "2",
		KeyView:             "inbox",
		KeyAccount:          "5",
		KeyFolder:           "SENT",
		KeySortColumn:       "subject",
		KeySortDirection:    "asc",
		KeyColumnWidths:     `{"from":22}`,
		KeySidebarCollapsed: "true",
		KeyTheme:            "dark",
	} {
		require.NoError(t, kv.Set(ctx, k, v))
	}

	s, err := Load(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, ViewState{
		View:             ViewInbox,
		UserID:           "2",
		AccountID:        "5",
		FolderID:         "SENT",
		SortColumn:       "subject",
		SortDirection:    "asc",
		ColumnWidths:     map[string]int{"from": 22},
		SidebarCollapsed: true,
		Theme:            "dark",
		ListType:         "WHITELIST",
	}, s)
}

func TestLoad_IgnoresCorruptValues(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, KeyView, "nowhere"))
	require.NoError(t, kv.Set(ctx, KeyColumnWidths, "{not json"))

	s, err := Load(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, ViewDashboard, s.View)
	assert.Empty(t, s.ColumnWidths)
}

func TestManager_DispatchPersistsChangedKeys(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	m, err := NewManager(ctx, kv, nil)
	require.NoError(t, err)

	s, err := m.Dispatch(ctx, SwitchView{View: ViewInbox})
	require.NoError(t, err)
	assert.Equal(t, ViewInbox, s.View)
	assert.Equal(t, map[string]string{KeyView: "inbox"}, kv.Snapshot())

	_, err = m.Dispatch(ctx, SortBy{Column: "from"})
	require.NoError(t, err)
	snap := kv.Snapshot()
	assert.Equal(t, "from", snap[KeySortColumn])
	assert.Equal(t, "asc", snap[KeySortDirection])

	reloaded, err := Load(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, m.State(), reloaded)
}

type failingKV struct {
	*MemoryKV
}

func (f failingKV) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestManager_DispatchKeepsStateOnWriteError(t *testing.T) {
	ctx := context.Background()

	m, err := NewManager(ctx, failingKV{NewMemoryKV()}, nil)
	require.NoError(t, err)

	s, err := m.Dispatch(ctx, ToggleSidebar{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, s.SidebarCollapsed)
	assert.True(t, m.State().SidebarCollapsed)
}
