package pager

import (
	"time"

	"github.com/nhle/mailboard/internal/api"
)

// Selection is the inbox filter: either every account merged together or
// a single account, optionally narrowed to one folder.
type Selection interface {
	isSelection()
}

// AllAccounts merges every eligible account into one timeline. Pages are
// addressed by a before-date cursor synthesized from the merged result.
type AllAccounts struct{}

// SpecificAccount shows a single account. An empty FolderID means all
// folders. Pages are addressed by the backend's continuation token.
type SpecificAccount struct {
	AccountID api.ID
	FolderID  string
}

func (AllAccounts) isSelection()     {}
func (SpecificAccount) isSelection() {}

// AllFolders reports whether the selection spans every folder.
func (s SpecificAccount) AllFolders() bool {
	return s.FolderID == ""
}

// Cursor is the position of the current page. Before is used when every
// account is merged, Token when a single account is shown.
type Cursor struct {
	Before *time.Time
	Token  string
}
