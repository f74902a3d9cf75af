package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{
		BaseURL:  srv.URL + "/api",
		Username: "admin",
		Password: "admin123",
		UserID:   "7",
	})
}

func TestClient_Headers(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		assert.Equal(t, "/api/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"UP"}`))
	})

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "UP", h.Status)

	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "7", got.Get("X-User-Id"))
	assert.Equal(t, "Basic YWRtaW46YWRtaW4xMjM=", got.Get("Authorization"))
}

func TestClient_SetUserID(t *testing.T) {
	var ids []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-User-Id"))
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.Users.List(context.Background())
	require.NoError(t, err)
	c.SetUserID("42")
	_, err = c.Users.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"7", "42"}, ids)
	assert.Equal(t, "42", c.UserID())
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"message_field", http.StatusBadRequest, `{"message":"invalid email"}`, "invalid email"},
		{"error_field", http.StatusConflict, `{"error":"duplicate"}`, "duplicate"},
		{"no_body", http.StatusInternalServerError, ``, "HTTP 500"},
		{"html_body", http.StatusBadGateway, `<html>bad gateway</html>`, "HTTP 502"},
		{"empty_object", http.StatusNotFound, `{}`, "HTTP 404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Accounts.List(context.Background())
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.status, StatusCode(err))
		})
	}
}

func TestClient_AuthError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Rules.List(context.Background())
	assert.True(t, IsAuthError(err))
	assert.False(t, IsNotFound(err))
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(Options{BaseURL: srv.URL})
	_, err := c.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
	assert.Contains(t, err.Error(), "executing request GET /health")
}

func TestAccounts_EmailsQuery(t *testing.T) {
	before := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/accounts/3/emails", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "20", q.Get("maxResults"))
		assert.Equal(t, "tok 1", q.Get("pageToken"))
		assert.Equal(t, "2024-03-01T10:00:00Z", q.Get("before"))
		assert.False(t, q.Has("after"))
		_, _ = w.Write([]byte(`{"emails":[{"id":"m1","from":"a@x.io","subject":"hi","date":"2024-02-29T09:00:00Z","isUnread":true}],"total":41,"nextPageToken":"tok 2"}`))
	})

	page, err := c.Accounts.Emails(context.Background(), "3", EmailQuery{
		MaxResults: 20,
		PageToken:  "tok 1",
		Before:     &before,
	})
	require.NoError(t, err)
	require.Len(t, page.Emails, 1)
	assert.Equal(t, ID("m1"), page.Emails[0].ID)
	assert.True(t, page.Emails[0].IsUnread)
	assert.Equal(t, 41, page.Total)
	assert.Equal(t, "tok 2", page.NextPageToken)
}

func TestAccounts_FolderEmailsEscapesFolder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/accounts/3/folders/Sent%20Items/emails", r.URL.EscapedPath())
		assert.False(t, r.URL.Query().Has("pageToken"))
		_, _ = w.Write([]byte(`{"emails":[],"total":0}`))
	})

	page, err := c.Accounts.FolderEmails(context.Background(), "3", "Sent Items", EmailQuery{MaxResults: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Emails)
}

func TestAccounts_NumericIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":12,"emailAddress":"me@x.io","provider":"GMAIL","syncStatus":"IDLE"}]`))
	})

	accounts, err := c.Accounts.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, ID("12"), accounts[0].ID)

	out, err := json.Marshal(accounts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "12", string(out))
}

func TestAccount_NeedsReauth(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		want    bool
	}{
		{"healthy", Account{SyncStatus: "IDLE"}, false},
		{"reauth_text", Account{SyncStatus: "IDLE", LastSyncError: "Please re-authenticate"}, true},
		{"token_text", Account{LastSyncError: "refresh token expired"}, true},
		{"error_status", Account{SyncStatus: "ERROR"}, true},
		{"error_status_lowercase", Account{SyncStatus: "error"}, true},
		{"unrelated_error", Account{LastSyncError: "connection reset"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.account.NeedsReauth())
		})
	}
}

func TestRules_Toggle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/rules/9/toggle", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"enabled":false}`, string(body))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Rules.Toggle(context.Background(), "9", false))
}

func TestLists_EnsureListCreatesMissing(t *testing.T) {
	var created bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "BLACKLIST", r.URL.Query().Get("type"))
			_, _ = w.Write([]byte(`[]`))
		case http.MethodPost:
			created = true
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"name":"Blacklist","listType":"BLACKLIST"}`, string(body))
			_, _ = w.Write([]byte(`{"id":5,"name":"Blacklist","listType":"BLACKLIST"}`))
		}
	})

	l, err := c.Lists.EnsureList(context.Background(), ListTypeBlacklist)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, ID("5"), l.ID)
}

func TestLists_EnsureListReusesExisting(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`[{"id":2,"name":"Mine","listType":"WHITELIST"}]`))
	})

	l, err := c.Lists.EnsureList(context.Background(), ListTypeWhitelist)
	require.NoError(t, err)
	assert.Equal(t, "Mine", l.Name)
}

func TestSpam_CheckEmailsSplitsSummary(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `["a@spam.io","b@ok.io"]`, string(body))
		_, _ = w.Write([]byte(`{
			"a@spam.io": {"listed": true, "reason": "DBL"},
			"b@ok.io": {"listed": false},
			"_summary": {"total": 2, "clean": 1, "listed": 1}
		}`))
	})

	batch, err := c.Spam.CheckEmails(context.Background(), []string{"a@spam.io", "b@ok.io"})
	require.NoError(t, err)
	assert.Len(t, batch.Results, 2)
	assert.True(t, batch.Results["a@spam.io"].Listed)
	assert.Equal(t, SpamSummary{Total: 2, Clean: 1, Listed: 1}, batch.Summary)
}

func TestSpam_CheckEmailQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/spam/check/email", r.URL.Path)
		assert.Equal(t, "x+y@z.io", r.URL.Query().Get("email"))
		_, _ = w.Write([]byte(`{"listed":false}`))
	})

	res, err := c.Spam.CheckEmail(context.Background(), "x+y@z.io")
	require.NoError(t, err)
	assert.False(t, res.Listed)
}

func TestBulk_MoveBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"senderEmails":["n@x.io"],"createNew":true,"newFolderName":"News"}`, string(body))
		_, _ = w.Write([]byte(`{"totalMoved":17}`))
	})

	res, err := c.Bulk.Move(context.Background(), BulkMoveRequest{
		SenderEmails:  []string{"n@x.io"},
		CreateNew:     true,
		NewFolderName: "News",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(17), res.TotalMoved)
}

func TestBulk_SegregatedSet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"segregatedSenders":[{"senderEmail":"News@X.io"},{"senderEmail":"b@y.io"}]}`))
	})

	senders, err := c.Bulk.Segregated(context.Background())
	require.NoError(t, err)

	set := SegregatedSet(senders)
	assert.True(t, set["news@x.io"])
	assert.True(t, set["b@y.io"])
	assert.False(t, set["c@z.io"])
}

func TestAnalytics_SyncJob(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jobId":31,"status":"RUNNING","progress":40,"totalEmailsProcessed":120}`))
	})

	job, err := c.Analytics.SyncStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ID("31"), job.JobID)
	assert.True(t, job.Running())
	assert.False(t, job.Terminal())
}

func TestAnalytics_AllQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "limit=10", r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"summary":{"totalEmails":1200,"readRatio":75.5}}`))
	})

	a, err := c.Analytics.All(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), a.Summary.TotalEmails)
}

func TestOAuth_Authorize(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/oauth/authorize/google", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("userId"))
		assert.Equal(t, "me@gmail.com", r.URL.Query().Get("login_hint"))
		_, _ = w.Write([]byte(`{"authUrl":"https://accounts.example/consent"}`))
	})

	start, err := c.OAuth.Authorize(context.Background(), "google", "me@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.example/consent", start.AuthURL)
}

func TestOAuth_AuthorizeWithoutURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"provider not configured"}`))
	})

	_, err := c.OAuth.Authorize(context.Background(), "microsoft", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider not configured")
}

func TestNotifications_UnreadCount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/notifications/unread/count", r.URL.Path)
		_, _ = w.Write([]byte(`{"count":3}`))
	})

	n, err := c.Notifications.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", `"2024-05-01T12:00:00Z"`, want},
		{"rfc3339 offset", `"2024-05-01T14:00:00+02:00"`, want},
		{"zoneless", `"2024-05-01T12:00:00"`, time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)},
		{"zoneless fraction", `"2024-05-01T12:00:00.250"`, time.Date(2024, 5, 1, 12, 0, 0, 250e6, time.Local)},
		{"space separated", `"2024-05-01 12:00:00"`, time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)},
		{"date only", `"2024-05-01"`, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"epoch millis", `1714564800000`, want},
		{"epoch millis string", `"1714564800000"`, want},
		{"null", `null`, time.Time{}},
		{"empty", `""`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %s, want %s", ts.Time, tt.want)
		})
	}

	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"last tuesday"`), &ts))
}

func TestAccounts_EmailsLenientDates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"emails":[
			{"id":"a","date":"2024-05-01T12:00:00"},
			{"id":"b","date":1714564800000},
			{"id":"c","date":"2024-05-01T12:00:00Z"}
		],"total":3}`))
	})

	page, err := c.Accounts.Emails(context.Background(), "1", EmailQuery{})
	require.NoError(t, err)
	require.Len(t, page.Emails, 3)
	for _, e := range page.Emails {
		assert.Equal(t, 2024, e.Date.Year(), "email %s", e.ID)
	}
	assert.True(t, page.Emails[1].Date.Equal(page.Emails[2].Date.Time))
}

func TestEmailDetail_KeepsBodyWithLenientDate(t *testing.T) {
	var d EmailDetail
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"date":1714564800000,"cc":"x@y.io","body":"hi"}`), &d))
	assert.Equal(t, ID("7"), d.ID)
	assert.Equal(t, "hi", d.Body)
	assert.Equal(t, "x@y.io", d.Cc)
	assert.False(t, d.Date.IsZero())
}

func TestAccount_NullLastSync(t *testing.T) {
	var a Account
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"lastSyncAt":null}`), &a))
	assert.True(t, a.LastSyncAt.IsZero())
}
