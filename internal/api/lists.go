package api

import (
	"context"
	"fmt"
	"net/url"
)

// ListsService manages allow and block lists.
type ListsService struct {
	client *Client
}

// List returns the lists of the given type, or every list when listType
// is empty.
func (s *ListsService) List(ctx context.Context, listType string) ([]EmailList, error) {
	var lists []EmailList
	path := withQuery("/lists", url.Values{"type": {listType}})
	if err := s.client.Get(ctx, path, &lists); err != nil {
		return nil, fmt.Errorf("listing lists: %w", err)
	}
	return lists, nil
}

// Get returns a list with its entries.
func (s *ListsService) Get(ctx context.Context, id ID) (*EmailList, error) {
	var l EmailList
	if err := s.client.Get(ctx, "/lists/"+escape(id.String()), &l); err != nil {
		return nil, fmt.Errorf("getting list %s: %w", id, err)
	}
	return &l, nil
}

// Create makes a new list.
func (s *ListsService) Create(ctx context.Context, l EmailList) (*EmailList, error) {
	var created EmailList
	if err := s.client.Post(ctx, "/lists", l, &created); err != nil {
		return nil, fmt.Errorf("creating list %s: %w", l.Name, err)
	}
	return &created, nil
}

// Delete removes a list.
func (s *ListsService) Delete(ctx context.Context, id ID) error {
	if err := s.client.Delete(ctx, "/lists/"+escape(id.String()), nil); err != nil {
		return fmt.Errorf("deleting list %s: %w", id, err)
	}
	return nil
}

// AddEntry appends a pattern to a list.
func (s *ListsService) AddEntry(ctx context.Context, listID ID, entry ListEntry) (*ListEntry, error) {
	var created ListEntry
	path := "/lists/" + escape(listID.String()) + "/entries"
	if err := s.client.Post(ctx, path, entry, &created); err != nil {
		return nil, fmt.Errorf("adding %s to list %s: %w", entry.Pattern, listID, err)
	}
	return &created, nil
}

// RemoveEntry deletes a pattern from a list.
func (s *ListsService) RemoveEntry(ctx context.Context, listID, entryID ID) error {
	path := "/lists/" + escape(listID.String()) + "/entries/" + escape(entryID.String())
	if err := s.client.Delete(ctx, path, nil); err != nil {
		return fmt.Errorf("removing entry %s from list %s: %w", entryID, listID, err)
	}
	return nil
}

// EnsureList returns the first list of listType, creating one when none
// exists yet.
func (s *ListsService) EnsureList(ctx context.Context, listType string) (*EmailList, error) {
	lists, err := s.List(ctx, listType)
	if err != nil {
		return nil, err
	}
	for i := range lists {
		if lists[i].ListType == listType {
			return &lists[i], nil
		}
	}
	return s.Create(ctx, EmailList{Name: DefaultListName(listType), ListType: listType})
}

// DefaultListName is the name given to an auto-created list.
func DefaultListName(listType string) string {
	switch listType {
	case ListTypeWhitelist:
		return "Whitelist"
	case ListTypeBlacklist:
		return "Blacklist"
	}
	return listType
}
