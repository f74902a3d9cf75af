package api

import (
	"context"
	"fmt"
)

// RulesService manages automation rules.
type RulesService struct {
	client *Client
}

// List returns every rule.
func (s *RulesService) List(ctx context.Context) ([]Rule, error) {
	var rules []Rule
	if err := s.client.Get(ctx, "/rules", &rules); err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	return rules, nil
}

// Get returns a single rule.
func (s *RulesService) Get(ctx context.Context, id ID) (*Rule, error) {
	var r Rule
	if err := s.client.Get(ctx, rulePath(id), &r); err != nil {
		return nil, fmt.Errorf("getting rule %s: %w", id, err)
	}
	return &r, nil
}

// Create adds a rule.
func (s *RulesService) Create(ctx context.Context, r Rule) (*Rule, error) {
	var created Rule
	if err := s.client.Post(ctx, "/rules", r, &created); err != nil {
		return nil, fmt.Errorf("creating rule %s: %w", r.Name, err)
	}
	return &created, nil
}

// Update replaces a rule.
func (s *RulesService) Update(ctx context.Context, id ID, r Rule) (*Rule, error) {
	var updated Rule
	if err := s.client.Put(ctx, rulePath(id), r, &updated); err != nil {
		return nil, fmt.Errorf("updating rule %s: %w", id, err)
	}
	return &updated, nil
}

// Delete removes a rule.
func (s *RulesService) Delete(ctx context.Context, id ID) error {
	if err := s.client.Delete(ctx, rulePath(id), nil); err != nil {
		return fmt.Errorf("deleting rule %s: %w", id, err)
	}
	return nil
}

// Toggle enables or disables a rule.
func (s *RulesService) Toggle(ctx context.Context, id ID, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	if err := s.client.Put(ctx, rulePath(id)+"/toggle", body, nil); err != nil {
		return fmt.Errorf("toggling rule %s: %w", id, err)
	}
	return nil
}

func rulePath(id ID) string {
	return "/rules/" + escape(id.String())
}
