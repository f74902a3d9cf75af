package pager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/mailboard/internal/api"
)

const (
	// DefaultPageSize is the number of messages on one inbox page.
	DefaultPageSize = 20

	// minPerAccount is the smallest request sent to each account when
	// merging, so sparse accounts still contribute enough to fill a page.
	minPerAccount = 5

	// maxConcurrentFetches caps the parallel account requests of a merge.
	maxConcurrentFetches = 8
)

var (
	// ErrNoNextPage is returned by Advance when the last fetch found no
	// further messages.
	ErrNoNextPage = errors.New("no next page")

	// ErrNoPreviousPage is returned by Retreat on the first page.
	ErrNoPreviousPage = errors.New("no previous page")

	// ErrStale is returned when a newer fetch was started before this one
	// completed. The stale result is discarded.
	ErrStale = errors.New("stale page response")
)

// Source lists one page of an account's messages. *api.AccountsService
// satisfies it.
type Source interface {
	Emails(ctx context.Context, id api.ID, q api.EmailQuery) (*api.EmailPage, error)
	FolderEmails(ctx context.Context, id api.ID, folderID string, q api.EmailQuery) (*api.EmailPage, error)
}

// Message is a message summary tagged with the account it came from.
type Message struct {
	api.Email
	AccountID    api.ID
	AccountEmail string
	FolderID     string
}

// Page is the result of a fetch.
type Page struct {
	Messages []Message
	Total    int
	Index    int
	HasNext  bool

	// FailedAccounts lists accounts whose request failed during a merged
	// fetch. They contribute no messages.
	FailedAccounts []api.ID

	// SkippedAccounts lists accounts left out because they need to be
	// re-authenticated.
	SkippedAccounts []api.ID
}

// AllFailed reports whether every contacted account failed, which is
// otherwise indistinguishable from an empty mailbox.
func (p Page) AllFailed() bool {
	return len(p.Messages) == 0 && len(p.FailedAccounts) > 0
}

// Pager pages through the inbox for the current selection. It keeps a
// history stack per pagination mode so Retreat can restore the exact
// cursor Advance left.
type Pager struct {
	source Source
	logger *logrus.Logger

	mu        sync.Mutex
	selection Selection
	accounts  []api.Account
	pageSize  int

	beforeDate    *time.Time
	beforeHistory []*time.Time
	pageToken     string
	tokenHistory  []string
	index         int

	nextBefore *time.Time
	nextToken  string

	page Page
	seq  uint64
}

// New creates a pager over source showing every account.
func New(source Source, pageSize int, logger *logrus.Logger) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Pager{
		source:    source,
		logger:    logger,
		selection: AllAccounts{},
		pageSize:  pageSize,
	}
}

// SetAccounts replaces the known accounts. It does not reset the cursor.
func (p *Pager) SetAccounts(accounts []api.Account) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts = slices.Clone(accounts)
}

// SetSelection changes the filter and resets pagination.
func (p *Pager) SetSelection(sel Selection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selection = sel
	p.resetLocked()
}

// Selection returns the current filter.
func (p *Pager) Selection() Selection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selection
}

// PageSize returns the number of messages per page.
func (p *Pager) PageSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pageSize
}

// Reset clears both history stacks and cursors and returns to page 0.
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

// resetLocked also bumps the sequence number, so a fetch still in flight
// for the previous selection or cursor is discarded as stale.
func (p *Pager) resetLocked() {
	p.seq++
	p.beforeDate = nil
	p.beforeHistory = nil
	p.pageToken = ""
	p.tokenHistory = nil
	p.index = 0
	p.nextBefore = nil
	p.nextToken = ""
}

// Cursor returns the position of the current page.
func (p *Pager) Cursor() Cursor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Cursor{Before: p.beforeDate, Token: p.pageToken}
}

// Index returns the zero-based index of the current page.
func (p *Pager) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// HasNext reports whether the last fetch found a following page.
func (p *Pager) HasNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasNextLocked()
}

func (p *Pager) hasNextLocked() bool {
	if _, ok := p.selection.(AllAccounts); ok {
		return p.nextBefore != nil
	}
	return p.nextToken != ""
}

// HasPrevious reports whether Retreat is possible.
func (p *Pager) HasPrevious() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index > 0
}

// Current returns the most recently fetched page.
func (p *Pager) Current() Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// First resets pagination and fetches the first page.
func (p *Pager) First(ctx context.Context) (*Page, error) {
	p.Reset()
	return p.FetchPage(ctx)
}

// Advance moves to the next page. The current cursor is pushed on the
// history stack of the active mode.
func (p *Pager) Advance(ctx context.Context) (*Page, error) {
	p.mu.Lock()
	if !p.hasNextLocked() {
		p.mu.Unlock()
		return nil, ErrNoNextPage
	}
	if _, ok := p.selection.(AllAccounts); ok {
		p.beforeHistory = append(p.beforeHistory, p.beforeDate)
		p.beforeDate = p.nextBefore
	} else {
		p.tokenHistory = append(p.tokenHistory, p.pageToken)
		p.pageToken = p.nextToken
	}
	p.index++
	p.mu.Unlock()

	return p.FetchPage(ctx)
}

// Retreat moves to the previous page. Popping an empty history yields the
// first-page cursor.
func (p *Pager) Retreat(ctx context.Context) (*Page, error) {
	p.mu.Lock()
	if p.index == 0 {
		p.mu.Unlock()
		return nil, ErrNoPreviousPage
	}
	p.index--
	if _, ok := p.selection.(AllAccounts); ok {
		p.beforeDate = nil
		if n := len(p.beforeHistory); n > 0 {
			p.beforeDate = p.beforeHistory[n-1]
			p.beforeHistory = p.beforeHistory[:n-1]
		}
	} else {
		p.pageToken = ""
		if n := len(p.tokenHistory); n > 0 {
			p.pageToken = p.tokenHistory[n-1]
			p.tokenHistory = p.tokenHistory[:n-1]
		}
	}
	p.mu.Unlock()

	return p.FetchPage(ctx)
}

// request is the snapshot of pager state one fetch works from.
type request struct {
	seq       uint64
	selection Selection
	accounts  []api.Account
	pageSize  int
	before    *time.Time
	token     string
	index     int
}

// result is what a fetch produced, applied only if still current.
type result struct {
	page       Page
	nextBefore *time.Time
	nextToken  string
}

// FetchPage loads the page at the current cursor. If another fetch starts
// before this one returns, the result is dropped and ErrStale is returned.
func (p *Pager) FetchPage(ctx context.Context) (*Page, error) {
	p.mu.Lock()
	p.seq++
	req := request{
		seq:       p.seq,
		selection: p.selection,
		accounts:  p.accounts,
		pageSize:  p.pageSize,
		before:    p.beforeDate,
		token:     p.pageToken,
		index:     p.index,
	}
	p.mu.Unlock()

	var (
		res *result
		err error
	)
	switch sel := req.selection.(type) {
	case AllAccounts:
		res = p.fetchMerged(ctx, req)
	case SpecificAccount:
		res, err = p.fetchAccount(ctx, req, sel)
	default:
		err = fmt.Errorf("unknown selection %T", sel)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if req.seq != p.seq {
		p.logger.WithField("seq", req.seq).Debug("Discarding stale page response")
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}

	p.page = res.page
	p.nextBefore = res.nextBefore
	p.nextToken = res.nextToken

	page := res.page
	return &page, nil
}

// fetchMerged queries every eligible account concurrently and merges the
// results into one date-ordered page. Failing accounts are logged and
// reported in FailedAccounts.
func (p *Pager) fetchMerged(ctx context.Context, req request) *result {
	res := &result{page: Page{Index: req.index}}
	if len(req.accounts) == 0 {
		return res
	}

	perAccount := max(minPerAccount, ceilDiv(req.pageSize, len(req.accounts)))

	var eligible []api.Account
	for _, a := range req.accounts {
		if a.NeedsReauth() {
			p.logger.WithField("account", a.EmailAddress).Info("Skipping account that needs re-authentication")
			res.page.SkippedAccounts = append(res.page.SkippedAccounts, a.ID)
			continue
		}
		eligible = append(eligible, a)
	}

	pages := make([]*api.EmailPage, len(eligible))
	errs := make([]error, len(eligible))

	// Per-account failures land in errs; the group only bounds fan-out.
	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for i, a := range eligible {
		g.Go(func() error {
			pages[i], errs[i] = p.source.Emails(ctx, a.ID, api.EmailQuery{
				MaxResults: perAccount,
				Before:     req.before,
			})
			return nil
		})
	}
	_ = g.Wait()

	var merged []Message
	for i, a := range eligible {
		if errs[i] != nil {
			p.logger.WithError(errs[i]).WithField("account", a.EmailAddress).Warn("Failed to fetch account emails")
			res.page.FailedAccounts = append(res.page.FailedAccounts, a.ID)
			continue
		}
		if pages[i] == nil {
			continue
		}
		for _, e := range pages[i].Emails {
			merged = append(merged, Message{Email: e, AccountID: a.ID, AccountEmail: a.EmailAddress})
		}
		if pages[i].Total > 0 {
			res.page.Total += pages[i].Total
		} else {
			res.page.Total += len(pages[i].Emails)
		}
	}

	slices.SortStableFunc(merged, func(a, b Message) int {
		return b.Date.Compare(a.Date.Time)
	})

	kept := merged
	if len(kept) > req.pageSize {
		kept = kept[:req.pageSize]
	}
	if len(kept) > 0 && len(merged) > req.pageSize {
		oldest := kept[len(kept)-1].Date.Time
		res.nextBefore = &oldest
		res.page.HasNext = true
	}
	res.page.Messages = slices.Clip(kept)

	return res
}

// fetchAccount loads one page of a single account, either across all
// folders or from one folder, using the backend's continuation token.
func (p *Pager) fetchAccount(ctx context.Context, req request, sel SpecificAccount) (*result, error) {
	q := api.EmailQuery{MaxResults: req.pageSize, PageToken: req.token}

	var (
		ep  *api.EmailPage
		err error
	)
	if sel.AllFolders() {
		ep, err = p.source.Emails(ctx, sel.AccountID, q)
	} else {
		ep, err = p.source.FolderEmails(ctx, sel.AccountID, sel.FolderID, q)
	}
	if err != nil {
		return nil, err
	}

	var accountEmail string
	for _, a := range req.accounts {
		if a.ID == sel.AccountID {
			accountEmail = a.EmailAddress
			break
		}
	}

	messages := make([]Message, 0, len(ep.Emails))
	for _, e := range ep.Emails {
		messages = append(messages, Message{
			Email:        e,
			AccountID:    sel.AccountID,
			AccountEmail: accountEmail,
			FolderID:     sel.FolderID,
		})
	}

	total := ep.Total
	if total == 0 {
		total = len(messages)
	}

	return &result{
		page: Page{
			Messages: messages,
			Total:    total,
			Index:    req.index,
			HasNext:  ep.NextPageToken != "",
		},
		nextToken: ep.NextPageToken,
	}, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
