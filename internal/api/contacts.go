package api

import (
	"context"
	"fmt"
)

// ContactsService manages contact groups.
type ContactsService struct {
	client *Client
}

// ListGroups returns every contact group.
func (s *ContactsService) ListGroups(ctx context.Context) ([]ContactList, error) {
	var groups []ContactList
	if err := s.client.Get(ctx, "/contacts/lists", &groups); err != nil {
		return nil, fmt.Errorf("listing contact groups: %w", err)
	}
	return groups, nil
}

// GetGroup returns a contact group with its members.
func (s *ContactsService) GetGroup(ctx context.Context, id ID) (*ContactList, error) {
	var g ContactList
	if err := s.client.Get(ctx, groupPath(id), &g); err != nil {
		return nil, fmt.Errorf("getting contact group %s: %w", id, err)
	}
	return &g, nil
}

// CreateGroup makes a new contact group.
func (s *ContactsService) CreateGroup(ctx context.Context, g ContactList) (*ContactList, error) {
	var created ContactList
	if err := s.client.Post(ctx, "/contacts/lists", g, &created); err != nil {
		return nil, fmt.Errorf("creating contact group %s: %w", g.Name, err)
	}
	return &created, nil
}

// AddContact adds a member to a group.
func (s *ContactsService) AddContact(ctx context.Context, groupID ID, c Contact) (*Contact, error) {
	var created Contact
	if err := s.client.Post(ctx, groupPath(groupID)+"/contacts", c, &created); err != nil {
		return nil, fmt.Errorf("adding %s to contact group %s: %w", c.Email, groupID, err)
	}
	return &created, nil
}

// RemoveContact deletes a member from a group.
func (s *ContactsService) RemoveContact(ctx context.Context, groupID, contactID ID) error {
	path := groupPath(groupID) + "/contacts/" + escape(contactID.String())
	if err := s.client.Delete(ctx, path, nil); err != nil {
		return fmt.Errorf("removing contact %s: %w", contactID, err)
	}
	return nil
}

func groupPath(id ID) string {
	return "/contacts/lists/" + escape(id.String())
}
