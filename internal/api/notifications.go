package api

import (
	"context"
	"fmt"
)

// NotificationsService reads and acknowledges notifications.
type NotificationsService struct {
	client *Client
}

// List returns every notification, newest first.
func (s *NotificationsService) List(ctx context.Context) ([]Notification, error) {
	var out []Notification
	if err := s.client.Get(ctx, "/notifications", &out); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return out, nil
}

// Unread returns the unread notifications.
func (s *NotificationsService) Unread(ctx context.Context) ([]Notification, error) {
	var out []Notification
	if err := s.client.Get(ctx, "/notifications/unread", &out); err != nil {
		return nil, fmt.Errorf("listing unread notifications: %w", err)
	}
	return out, nil
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationsService) UnreadCount(ctx context.Context) (int, error) {
	var body struct {
		Count int `json:"count"`
	}
	if err := s.client.Get(ctx, "/notifications/unread/count", &body); err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return body.Count, nil
}

// MarkRead acknowledges one notification.
func (s *NotificationsService) MarkRead(ctx context.Context, id ID) error {
	path := "/notifications/" + escape(id.String()) + "/read"
	if err := s.client.Post(ctx, path, struct{}{}, nil); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllRead acknowledges every notification.
func (s *NotificationsService) MarkAllRead(ctx context.Context) error {
	if err := s.client.Post(ctx, "/notifications/read-all", struct{}{}, nil); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

// Delete removes a notification.
func (s *NotificationsService) Delete(ctx context.Context, id ID) error {
	if err := s.client.Delete(ctx, "/notifications/"+escape(id.String()), nil); err != nil {
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}
	return nil
}
