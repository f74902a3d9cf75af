package inbox

import (
	"slices"
	"strings"

	"github.com/nhle/mailboard/internal/api"
)

// wellKnownFolders fixes the order of system folders ahead of user folders.
// A folder matches the first entry its upper-cased name contains.
var wellKnownFolders = []string{
	"INBOX", "Inbox",
	"SENT", "Sent", "Sent Items",
	"DRAFT", "Drafts",
	"TRASH", "Trash", "Deleted Items",
	"SPAM", "Junk Email",
	"STARRED", "IMPORTANT",
}

func folderRank(name string) int {
	upper := strings.ToUpper(name)
	for i, known := range wellKnownFolders {
		if strings.Contains(upper, strings.ToUpper(known)) {
			return i
		}
	}
	return -1
}

// SortFolders returns folders with well-known system folders first, in a
// fixed order, followed by the rest by name.
func SortFolders(folders []api.Folder) []api.Folder {
	sorted := slices.Clone(folders)
	slices.SortStableFunc(sorted, func(a, b api.Folder) int {
		ra, rb := folderRank(a.Name), folderRank(b.Name)
		switch {
		case ra != -1 && rb != -1:
			return ra - rb
		case ra != -1:
			return -1
		case rb != -1:
			return 1
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return sorted
}
