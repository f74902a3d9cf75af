package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	gosync "sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the address of a locally running backend.
const DefaultBaseURL = "http://localhost:8080/api"

// Options configures a Client.
type Options struct {
	BaseURL  string
	Username string
	Password string
	UserID   string
	Timeout  time.Duration
	Logger   *logrus.Logger

	// HTTPClient overrides the default transport (used by tests).
	HTTPClient *http.Client
}

// Client is a thin HTTP client for the email utilities backend.
// It attaches the identity and Basic auth headers to every request,
// handles JSON (de)serialization and turns non-2xx responses into *Error.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
	logger     *logrus.Logger

	mu     gosync.RWMutex
	userID string

	Users         *UsersService
	Accounts      *AccountsService
	Lists         *ListsService
	Rules         *RulesService
	Contacts      *ContactsService
	Analytics     *AnalyticsService
	Notifications *NotificationsService
	Spam          *SpamService
	Bulk          *BulkService
	OAuth         *OAuthService
}

// New creates a new backend client. A zero Timeout falls back to 30s.
func New(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	userID := opts.UserID
	if userID == "" {
		userID = "1"
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		userID:     userID,
	}
	if opts.Username != "" || opts.Password != "" {
		c.authHeader = basicAuth(opts.Username, opts.Password)
	}

	c.Users = &UsersService{client: c}
	c.Accounts = &AccountsService{client: c}
	c.Lists = &ListsService{client: c}
	c.Rules = &RulesService{client: c}
	c.Contacts = &ContactsService{client: c}
	c.Analytics = &AnalyticsService{client: c}
	c.Notifications = &NotificationsService{client: c}
	c.Spam = &SpamService{client: c}
	c.Bulk = &BulkService{client: c}
	c.OAuth = &OAuthService{client: c}

	return c
}

// basicAuth encodes credentials for the Authorization header.
func basicAuth(username, password string) string {
	token := base64.StdEncoding.EncodeToString(
		[]byte(username + ":" + password),
	)
	return "Basic " + token
}

// UserID returns the acting user sent in the identity header.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// SetUserID switches the acting user for subsequent requests.
func (c *Client) SetUserID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = id
}

// Health reports whether the backend is reachable.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.Get(ctx, "/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post performs an HTTP POST request with a JSON body and unmarshals
// the JSON response.
func (c *Client) Post(
	ctx context.Context,
	path string,
	body interface{},
	result interface{},
) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// Put performs an HTTP PUT request with a JSON body.
func (c *Client) Put(
	ctx context.Context,
	path string,
	body interface{},
	result interface{},
) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// Delete performs an HTTP DELETE request.
func (c *Client) Delete(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, result)
}

// do builds the request, attaches headers, and decodes the response.
// Every failure is logged before it is returned to the caller.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	err := c.roundTrip(ctx, method, path, body, result)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).Error("API request failed")
	}
	return err
}

func (c *Client) roundTrip(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-User-Id", c.UserID())
	if c.authHeader != "" {
		req.Header.Set("Authorization", c.authHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(method, path, resp.StatusCode, respBody)
	}

	// No content to parse (e.g. 204 or an empty acknowledgement).
	if result == nil || resp.StatusCode == http.StatusNoContent ||
		len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}

	return nil
}

// withQuery appends non-empty query parameters to path.
func withQuery(path string, params url.Values) string {
	for key, values := range params {
		if len(values) == 0 || values[0] == "" {
			delete(params, key)
		}
	}
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

// escape encodes a single path segment.
func escape(segment string) string {
	return url.PathEscape(segment)
}
