package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/mailboard/internal/api"
)

func TestDate(t *testing.T) {
	now := time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"today", time.Date(2024, 6, 15, 9, 5, 0, 0, time.UTC), "9:05 AM"},
		{"yesterday", time.Date(2024, 6, 14, 23, 0, 0, 0, time.UTC), "Jun 14"},
		{"this year", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "Jan 2"},
		{"older", time.Date(2022, 12, 25, 0, 0, 0, 0, time.UTC), "Dec 25, 2022"},
		{"zero", time.Time{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Date(tt.in, now))
		})
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, "Just now", TimeAgo(now.Add(-30*time.Second), now))
	assert.Equal(t, "5m ago", TimeAgo(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", TimeAgo(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", TimeAgo(now.Add(-49*time.Hour), now))
	assert.Equal(t, "", TimeAgo(time.Time{}, now))
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name               string
		index, size, shown int
		total              int
		hasPrev, hasNext   bool
		want               string
	}{
		{"single page hidden", 0, 20, 7, 7, false, false, ""},
		{"first of many", 0, 20, 20, 95, false, true, "1-20 of 95+ · Page 1"},
		{"last page", 4, 20, 15, 95, true, false, "81-95 of 95 · Page 5"},
		{"total unknown", 1, 20, 20, 0, true, true, "21-40 of 40 · Page 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pagination(tt.index, tt.size, tt.shown, tt.total, tt.hasPrev, tt.hasNext)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeRemaining(t *testing.T) {
	assert.Equal(t, "~45s remaining", TimeRemaining(45))
	assert.Equal(t, "~2m 5s remaining", TimeRemaining(125))
	assert.Equal(t, "~1h 1m remaining", TimeRemaining(3660))
}

func TestSyncStats(t *testing.T) {
	job := api.SyncJob{
		TotalEmailsProcessed:      120,
		TotalEmailsSynced:         100,
		TotalEmailsSkipped:        20,
		EmailsPerSecond:           12.5,
		EstimatedSecondsRemaining: 90,
	}
	assert.Equal(t, "120 processed (100 new, 20 skipped) • 12.5/s • ~1m 30s remaining", SyncStats(job))

	assert.Equal(t, "0 processed (0 new, 0 skipped)", SyncStats(api.SyncJob{}))
}

func TestSmallHelpers(t *testing.T) {
	assert.Equal(t, "1,234,567", Count(1234567))
	assert.Equal(t, "42.5%", Percent(42.5))
	assert.Equal(t, "8% reply", ReplyRatio(0.08))
	assert.Equal(t, "1 sender", Plural(1, "sender"))
	assert.Equal(t, "3 senders", Plural(3, "sender"))
	assert.Equal(t, "alice", LocalPart("alice@example.com"))
	assert.Equal(t, "bob", LocalPart("bob"))
	assert.Equal(t, "never synced", LastSync(time.Time{}))
}
