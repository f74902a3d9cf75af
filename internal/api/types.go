package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is a backend identifier. The backend sends numeric ids for most
// resources and opaque strings for messages and folders; ID accepts both.
type ID string

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers so the backend sees the same
// shape it produced.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// String returns the id as a plain string.
func (id ID) String() string { return string(id) }

// Timestamp is a backend date. It decodes RFC 3339, ISO 8601 without a
// zone, plain dates and epoch milliseconds (as a number or a string).
// Zone-less date-times are read in local time and plain dates in UTC.
type Timestamp struct {
	time.Time
}

var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON accepts any of the formats listed on Timestamp. null and
// the empty string decode to the zero time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := parseTimestamp(s)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("timestamp %s: %w", data, err)
	}
	ms, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return fmt.Errorf("timestamp %s: %w", data, err)
		}
		ms = int64(f)
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}

// parseTimestamp parses one backend date string.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return parsed, nil
	}
	for _, layout := range zonelessLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return parsed, nil
		}
	}
	if parsed, err := time.Parse(time.DateOnly, s); err == nil {
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Health is the backend liveness payload.
type Health struct {
	Status string `json:"status"`
}

// User is a dashboard user the acting identity can switch to.
type User struct {
	ID          ID     `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Sync status values reported for linked accounts.
const (
	SyncStatusIdle    = "IDLE"
	SyncStatusSyncing = "SYNCING"
	SyncStatusError   = "ERROR"
)

// Account is a linked mailbox.
type Account struct {
	ID            ID        `json:"id"`
	EmailAddress  string    `json:"emailAddress"`
	Provider      string    `json:"provider"`
	SyncStatus    string    `json:"syncStatus"`
	LastSyncError string    `json:"lastSyncError,omitempty"`
	LastSyncAt    Timestamp `json:"lastSyncAt,omitempty"`
}

// NeedsReauth reports whether the account lost its authorization. It is
// derived from the sync status and the last sync error text.
func (a Account) NeedsReauth() bool {
	return strings.Contains(a.LastSyncError, "re-authenticate") ||
		strings.Contains(a.LastSyncError, "token") ||
		strings.EqualFold(a.SyncStatus, SyncStatusError)
}

// CreateAccountRequest links a custom IMAP mailbox.
type CreateAccountRequest struct {
	EmailAddress string `json:"emailAddress"`
	Provider     string `json:"provider"`
	IMAPHost     string `json:"imapHost,omitempty"`
	IMAPPort     int    `json:"imapPort,omitempty"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
}

// Email is a message summary as listed by the backend.
type Email struct {
	ID       ID        `json:"id"`
	ThreadID string    `json:"threadId,omitempty"`
	From     string    `json:"from"`
	To       string    `json:"to,omitempty"`
	Subject  string    `json:"subject"`
	Snippet  string    `json:"snippet"`
	Date     Timestamp `json:"date"`
	IsUnread bool      `json:"isUnread"`
}

// EmailDetail is a full message.
type EmailDetail struct {
	Email
	Cc   string `json:"cc,omitempty"`
	Body string `json:"body"`
}

// EmailPage is one page of an account or folder listing.
type EmailPage struct {
	Emails        []Email `json:"emails"`
	Total         int     `json:"total"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// EmailQuery holds the listing parameters. Zero values are omitted.
type EmailQuery struct {
	MaxResults int
	PageToken  string
	Before     *time.Time
	After      *time.Time
}

// Folder is a mailbox folder or label.
type Folder struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	UnreadCount int    `json:"unreadCount"`
}

// MoveEmailRequest relocates a message.
type MoveEmailRequest struct {
	ToFolderID   string `json:"toFolderId"`
	FromFolderID string `json:"fromFolderId,omitempty"`
}

// List types for allow/block lists.
const (
	ListTypeWhitelist = "WHITELIST"
	ListTypeBlacklist = "BLACKLIST"
)

// EmailList is an allow or block list.
type EmailList struct {
	ID       ID          `json:"id,omitempty"`
	Name     string      `json:"name"`
	ListType string      `json:"listType"`
	Entries  []ListEntry `json:"entries,omitempty"`
}

// ListEntry is a single pattern in an EmailList.
type ListEntry struct {
	ID        ID     `json:"id,omitempty"`
	Pattern   string `json:"pattern"`
	MatchType string `json:"matchType,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// RuleCondition is one predicate of a rule.
type RuleCondition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// RuleAction is one effect of a rule.
type RuleAction struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Rule is an automation rule evaluated by the backend.
type Rule struct {
	ID             ID              `json:"id,omitempty"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Enabled        bool            `json:"enabled"`
	ConditionLogic string          `json:"conditionLogic,omitempty"`
	Conditions     []RuleCondition `json:"conditions,omitempty"`
	Actions        []RuleAction    `json:"actions,omitempty"`
}

// ContactList is a named group of contacts.
type ContactList struct {
	ID          ID        `json:"id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Contacts    []Contact `json:"contacts,omitempty"`
}

// Contact is a member of a ContactList.
type Contact struct {
	ID    ID     `json:"id,omitempty"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// AnalyticsSummary aggregates mailbox statistics.
type AnalyticsSummary struct {
	TotalEmails   int64   `json:"totalEmails"`
	UnreadEmails  int64   `json:"unreadEmails"`
	UniqueSenders int64   `json:"uniqueSenders"`
	ReadRatio     float64 `json:"readRatio"`
}

// SenderCount is a sender ranked by received volume.
type SenderCount struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// SenderUnread is a sender ranked by unread messages.
type SenderUnread struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	UnreadCount int64  `json:"unreadCount"`
}

// ReplyRank is a correspondent ranked by messages sent to them.
type ReplyRank struct {
	Email     string `json:"email"`
	SentCount int64  `json:"sentCount"`
}

// LowReply is a sender the user rarely replies to.
type LowReply struct {
	Email      string  `json:"email"`
	Received   int64   `json:"received"`
	Replies    int64   `json:"replies"`
	ReplyRatio float64 `json:"replyRatio"`
}

// Analytics is the combined analytics payload.
type Analytics struct {
	Summary        AnalyticsSummary `json:"summary"`
	TopSenders     []SenderCount    `json:"topSenders"`
	UnreadBySender []SenderUnread   `json:"unreadBySender"`
	ReplyRanking   []ReplyRank      `json:"replyRanking"`
	LowReplyRatio  []LowReply       `json:"lowReplyRatio"`
}

// Sync job states.
const (
	JobRunning   = "RUNNING"
	JobCompleted = "COMPLETED"
	JobFailed    = "FAILED"
	JobCancelled = "CANCELLED"
)

// SyncJob is the state of a background analytics sync.
type SyncJob struct {
	JobID                     ID      `json:"jobId"`
	Status                    string  `json:"status"`
	StatusMessage             string  `json:"statusMessage,omitempty"`
	Progress                  float64 `json:"progress"`
	CurrentAccount            string  `json:"currentAccount,omitempty"`
	TotalEmailsProcessed      int64   `json:"totalEmailsProcessed"`
	TotalEmailsSynced         int64   `json:"totalEmailsSynced"`
	TotalEmailsSkipped        int64   `json:"totalEmailsSkipped"`
	EmailsPerSecond           float64 `json:"emailsPerSecond"`
	EstimatedSecondsRemaining int64   `json:"estimatedSecondsRemaining"`
}

// Running reports whether the job is still in progress.
func (j SyncJob) Running() bool {
	return j.Status == JobRunning
}

// Terminal reports whether the job reached a final state.
func (j SyncJob) Terminal() bool {
	switch j.Status {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// Notification is a backend-generated user notification.
type Notification struct {
	ID        ID        `json:"id"`
	Type      string    `json:"type,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	ActionURL string    `json:"actionUrl,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
}

// SpamResult is a reputation verdict for one email, domain or IP.
type SpamResult struct {
	Listed bool   `json:"listed"`
	Reason string `json:"reason,omitempty"`
	Source string `json:"source,omitempty"`
}

// SpamSummary totals a batch check.
type SpamSummary struct {
	Total  int `json:"total"`
	Clean  int `json:"clean"`
	Listed int `json:"listed"`
}

// SpamBatch is the result of checking several addresses at once. The
// backend returns a flat object keyed by address plus a "_summary" key.
type SpamBatch struct {
	Results map[string]SpamResult
	Summary SpamSummary
}

// UnmarshalJSON splits the "_summary" entry from the per-address results.
func (b *SpamBatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	b.Results = make(map[string]SpamResult, len(raw))
	for key, value := range raw {
		if key == "_summary" {
			if err := json.Unmarshal(value, &b.Summary); err != nil {
				return err
			}
			continue
		}
		var r SpamResult
		if err := json.Unmarshal(value, &r); err != nil {
			return err
		}
		b.Results[key] = r
	}
	return nil
}

// SpamCacheStats describes the backend reputation cache.
type SpamCacheStats struct {
	Size    int64   `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// AccountFolders lists one account's folders in the bulk folder picker.
type AccountFolders struct {
	Folders []Folder `json:"folders"`
	Error   string   `json:"error,omitempty"`
}

// BulkMoveRequest moves every message from the given senders.
type BulkMoveRequest struct {
	SenderEmails  []string `json:"senderEmails"`
	FolderID      string   `json:"folderId,omitempty"`
	CreateNew     bool     `json:"createNew"`
	NewFolderName string   `json:"newFolderName,omitempty"`
}

// BulkResult reports how many messages a bulk operation moved.
type BulkResult struct {
	TotalMoved int64 `json:"totalMoved"`
}

// SegregatedSender is a sender that already has a dedicated folder.
type SegregatedSender struct {
	SenderEmail string    `json:"senderEmail"`
	FolderName  string    `json:"folderName,omitempty"`
	LastRunAt   Timestamp `json:"lastRunAt,omitempty"`
}

// OAuthStart carries the provider authorization URL.
type OAuthStart struct {
	AuthURL string `json:"authUrl"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
