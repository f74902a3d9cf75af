package api

import (
	"context"
	"fmt"
	"net/url"
)

// UsersService lists the dashboard users.
type UsersService struct {
	client *Client
}

// List returns every user the backend knows about.
func (s *UsersService) List(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.client.Get(ctx, "/users", &users); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Get returns a single user.
func (s *UsersService) Get(ctx context.Context, id string) (*User, error) {
	var u User
	if err := s.client.Get(ctx, "/users/"+escape(id), &u); err != nil {
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return &u, nil
}

// OAuthService starts provider authorization flows.
type OAuthService struct {
	client *Client
}

// Authorize asks the backend for the provider consent URL. loginHint
// pre-fills the account address on the provider page.
func (s *OAuthService) Authorize(ctx context.Context, provider, loginHint string) (*OAuthStart, error) {
	path := withQuery("/oauth/authorize/"+escape(provider), url.Values{
		"userId":     {s.client.UserID()},
		"login_hint": {loginHint},
	})

	var start OAuthStart
	if err := s.client.Get(ctx, path, &start); err != nil {
		return nil, fmt.Errorf("starting %s authorization: %w", provider, err)
	}
	if start.AuthURL == "" {
		msg := start.Message
		if msg == "" {
			msg = start.Error
		}
		if msg == "" {
			msg = "no authorization URL returned"
		}
		return nil, fmt.Errorf("starting %s authorization: %s", provider, msg)
	}
	return &start, nil
}
