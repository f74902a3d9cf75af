// Package state holds the dashboard's view state as an explicit value and
// the pure reducer that transforms it.
package state

import "maps"

// View identifies a top-level screen.
type View string

const (
	ViewDashboard     View = "dashboard"
	ViewInbox         View = "inbox"
	ViewAccounts      View = "accounts"
	ViewRules         View = "rules"
	ViewLists         View = "lists"
	ViewContacts      View = "contacts"
	ViewAnalytics     View = "analytics"
	ViewNotifications View = "notifications"
)

// Views lists every view in navigation order.
var Views = []View{
	ViewDashboard,
	ViewInbox,
	ViewAccounts,
	ViewRules,
	ViewLists,
	ViewContacts,
	ViewAnalytics,
	ViewNotifications,
}

// Valid reports whether v names a known view.
func (v View) Valid() bool {
	for _, known := range Views {
		if v == known {
			return true
		}
	}
	return false
}

// All is the persisted value for "every account" and "every folder".
const All = "all"

const (
	SortAsc  = "asc"
	SortDesc = "desc"

	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"

	// MinColumnWidth is the narrowest a resized inbox column may get.
	MinColumnWidth = 5
)

// ViewState is everything the dashboard remembers between runs.
type ViewState struct {
	View             View
	UserID           string
	AccountID        string
	FolderID         string
	SortColumn       string
	SortDirection    string
	ColumnWidths     map[string]int
	SidebarCollapsed bool
	Theme            string
	ListType         string
}

// Default returns the state of a first run.
func Default() ViewState {
	return ViewState{
		View:          ViewDashboard,
		UserID:        "1",
		AccountID:     All,
		FolderID:      All,
		SortColumn:    "date",
		SortDirection: SortDesc,
		ColumnWidths:  map[string]int{},
		Theme:         ThemeSystem,
		ListType:      "WHITELIST",
	}
}

// AllAccounts reports whether every account is selected.
func (s ViewState) AllAccounts() bool {
	return s.AccountID == "" || s.AccountID == All
}

// AllFolders reports whether every folder is selected.
func (s ViewState) AllFolders() bool {
	return s.FolderID == "" || s.FolderID == All
}

// clone returns a copy that shares no mutable data with s.
func (s ViewState) clone() ViewState {
	s.ColumnWidths = maps.Clone(s.ColumnWidths)
	if s.ColumnWidths == nil {
		s.ColumnWidths = map[string]int{}
	}
	return s
}
