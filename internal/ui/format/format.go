// Package format turns backend values into the short strings the views
// display.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nhle/mailboard/internal/api"
)

// Date formats a message date relative to now: the time of day for today,
// month and day for this year, and the full date otherwise.
func Date(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())

	y, m, d := t.Date()
	ny, nm, nd := now.Date()
	switch {
	case y == ny && m == nm && d == nd:
		return t.Format("3:04 PM")
	case y == ny:
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// TimeAgo renders a coarse relative age such as "5m ago".
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := now.Sub(t)
	mins := int(diff / time.Minute)
	hours := mins / 60
	days := hours / 24

	switch {
	case mins < 1:
		return "Just now"
	case mins < 60:
		return fmt.Sprintf("%dm ago", mins)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	default:
		return fmt.Sprintf("%dd ago", days)
	}
}

// LastSync describes when an account last synced.
func LastSync(t time.Time) string {
	if t.IsZero() {
		return "never synced"
	}
	return "synced " + humanize.Time(t)
}

// Count renders an integer with thousands separators.
func Count(n int64) string {
	return humanize.Comma(n)
}

// Percent renders a ratio already expressed in percent, e.g. 42.5%.
func Percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// ReplyRatio renders a 0..1 reply ratio as a whole percentage.
func ReplyRatio(r float64) string {
	return fmt.Sprintf("%.0f%% reply", r*100)
}

// Pagination renders "start-end of total" for the current page, with a
// trailing "+" when the backend reports more messages than have been
// reached. It returns "" when there is neither a previous nor a next page.
func Pagination(index, pageSize, shown, total int, hasPrev, hasNext bool) string {
	if !hasPrev && !hasNext {
		return ""
	}

	start := index*pageSize + 1
	end := start + shown - 1

	of := strconv.Itoa(end)
	if total > end {
		of = strconv.Itoa(total) + "+"
	}

	return fmt.Sprintf("%d-%d of %s · Page %d", start, end, of, index+1)
}

// TimeRemaining renders a sync ETA.
func TimeRemaining(seconds int64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("~%ds remaining", seconds)
	case seconds < 3600:
		return fmt.Sprintf("~%dm %ds remaining", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("~%dh %dm remaining", seconds/3600, (seconds%3600)/60)
	}
}

// SyncStats summarizes a running sync job on one line.
func SyncStats(job api.SyncJob) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d processed (%d new, %d skipped)",
		job.TotalEmailsProcessed, job.TotalEmailsSynced, job.TotalEmailsSkipped)

	if job.EmailsPerSecond > 0 {
		fmt.Fprintf(&b, " • %s/s", strconv.FormatFloat(job.EmailsPerSecond, 'f', -1, 64))
	}
	if job.EstimatedSecondsRemaining > 0 {
		fmt.Fprintf(&b, " • %s", TimeRemaining(job.EstimatedSecondsRemaining))
	}

	return b.String()
}

// Plural returns "1 sender" or "3 senders".
func Plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// LocalPart returns the part of an address before "@".
func LocalPart(address string) string {
	local, _, _ := strings.Cut(address, "@")
	return local
}
