package help

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/nhle/mailboard/internal/keys"
)

func TestView_ListsViewsAndContext(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 120, 40)

	out := ansi.Strip(m.View())
	assert.Contains(t, out, "Keyboard Shortcuts")
	assert.Contains(t, out, "1 Dashboard")
	assert.Contains(t, out, "8 Notifications")
	assert.NotContains(t, out, "s sort")

	m.SetContext("Inbox", "s sort • / search")
	out = ansi.Strip(m.View())
	assert.Contains(t, out, "Inbox")
	assert.Contains(t, out, "s sort")
}
