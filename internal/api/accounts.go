package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// AccountsService manages linked mailboxes and their messages.
type AccountsService struct {
	client *Client
}

// List returns every linked account of the acting user.
func (s *AccountsService) List(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := s.client.Get(ctx, "/accounts", &accounts); err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accounts, nil
}

// Get returns a single account.
func (s *AccountsService) Get(ctx context.Context, id ID) (*Account, error) {
	var a Account
	if err := s.client.Get(ctx, accountPath(id), &a); err != nil {
		return nil, fmt.Errorf("getting account %s: %w", id, err)
	}
	return &a, nil
}

// Create links a new account.
func (s *AccountsService) Create(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	var a Account
	if err := s.client.Post(ctx, "/accounts", req, &a); err != nil {
		return nil, fmt.Errorf("creating account %s: %w", req.EmailAddress, err)
	}
	return &a, nil
}

// Update replaces an account's settings.
func (s *AccountsService) Update(ctx context.Context, id ID, req CreateAccountRequest) (*Account, error) {
	var a Account
	if err := s.client.Put(ctx, accountPath(id), req, &a); err != nil {
		return nil, fmt.Errorf("updating account %s: %w", id, err)
	}
	return &a, nil
}

// Delete unlinks an account.
func (s *AccountsService) Delete(ctx context.Context, id ID) error {
	if err := s.client.Delete(ctx, accountPath(id), nil); err != nil {
		return fmt.Errorf("deleting account %s: %w", id, err)
	}
	return nil
}

// Sync asks the backend to synchronize an account now.
func (s *AccountsService) Sync(ctx context.Context, id ID) error {
	if err := s.client.Post(ctx, accountPath(id)+"/sync", nil, nil); err != nil {
		return fmt.Errorf("syncing account %s: %w", id, err)
	}
	return nil
}

// Emails lists one page of an account's messages across all folders.
func (s *AccountsService) Emails(ctx context.Context, id ID, q EmailQuery) (*EmailPage, error) {
	path := withQuery(accountPath(id)+"/emails", q.values())

	var page EmailPage
	if err := s.client.Get(ctx, path, &page); err != nil {
		return nil, fmt.Errorf("listing emails of account %s: %w", id, err)
	}
	return &page, nil
}

// Email returns a full message.
func (s *AccountsService) Email(ctx context.Context, id ID, messageID string) (*EmailDetail, error) {
	var detail EmailDetail
	path := accountPath(id) + "/emails/" + escape(messageID)
	if err := s.client.Get(ctx, path, &detail); err != nil {
		return nil, fmt.Errorf("getting email %s: %w", messageID, err)
	}
	return &detail, nil
}

// Folders lists an account's folders in backend order.
func (s *AccountsService) Folders(ctx context.Context, id ID) ([]Folder, error) {
	var folders []Folder
	if err := s.client.Get(ctx, accountPath(id)+"/folders", &folders); err != nil {
		return nil, fmt.Errorf("listing folders of account %s: %w", id, err)
	}
	return folders, nil
}

// FolderEmails lists one page of a single folder.
func (s *AccountsService) FolderEmails(
	ctx context.Context,
	id ID,
	folderID string,
	q EmailQuery,
) (*EmailPage, error) {
	path := withQuery(
		accountPath(id)+"/folders/"+escape(folderID)+"/emails",
		q.values(),
	)

	var page EmailPage
	if err := s.client.Get(ctx, path, &page); err != nil {
		return nil, fmt.Errorf("listing folder %s of account %s: %w", folderID, id, err)
	}
	return &page, nil
}

// Move relocates a message to another folder.
func (s *AccountsService) Move(ctx context.Context, id ID, messageID string, req MoveEmailRequest) error {
	path := accountPath(id) + "/emails/" + escape(messageID) + "/move"
	if err := s.client.Post(ctx, path, req, nil); err != nil {
		return fmt.Errorf("moving email %s: %w", messageID, err)
	}
	return nil
}

func accountPath(id ID) string {
	return "/accounts/" + escape(id.String())
}

func (q EmailQuery) values() url.Values {
	v := url.Values{}
	if q.MaxResults > 0 {
		v.Set("maxResults", strconv.Itoa(q.MaxResults))
	}
	v.Set("pageToken", q.PageToken)
	if q.Before != nil {
		v.Set("before", q.Before.UTC().Format(time.RFC3339Nano))
	}
	if q.After != nil {
		v.Set("after", q.After.UTC().Format(time.RFC3339Nano))
	}
	return v
}
