package api

import (
	"context"
	"fmt"
	"strings"
)

// BulkService moves messages by sender across every account.
type BulkService struct {
	client *Client
}

// Folders returns the folders of every account, keyed by account address.
func (s *BulkService) Folders(ctx context.Context) (map[string]AccountFolders, error) {
	var out map[string]AccountFolders
	if err := s.client.Get(ctx, "/bulk/folders", &out); err != nil {
		return nil, fmt.Errorf("loading bulk folders: %w", err)
	}
	return out, nil
}

// Move relocates every message from the given senders.
func (s *BulkService) Move(ctx context.Context, req BulkMoveRequest) (*BulkResult, error) {
	var res BulkResult
	if err := s.client.Post(ctx, "/bulk/move", req, &res); err != nil {
		return nil, fmt.Errorf("moving emails of %d senders: %w", len(req.SenderEmails), err)
	}
	return &res, nil
}

// Segregate moves each sender's messages into a dedicated folder.
func (s *BulkService) Segregate(ctx context.Context, senders []string) (*BulkResult, error) {
	var res BulkResult
	body := map[string][]string{"senderEmails": senders}
	if err := s.client.Post(ctx, "/bulk/segregate", body, &res); err != nil {
		return nil, fmt.Errorf("segregating %d senders: %w", len(senders), err)
	}
	return &res, nil
}

// Segregated returns the senders that already have a dedicated folder.
func (s *BulkService) Segregated(ctx context.Context) ([]SegregatedSender, error) {
	var body struct {
		SegregatedSenders []SegregatedSender `json:"segregatedSenders"`
	}
	if err := s.client.Get(ctx, "/bulk/segregated", &body); err != nil {
		return nil, fmt.Errorf("loading segregated senders: %w", err)
	}
	return body.SegregatedSenders, nil
}

// SegregatedSet returns the lower-cased addresses of segregated senders.
func SegregatedSet(senders []SegregatedSender) map[string]bool {
	set := make(map[string]bool, len(senders))
	for _, s := range senders {
		set[strings.ToLower(s.SenderEmail)] = true
	}
	return set
}
