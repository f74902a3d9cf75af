package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// AnalyticsService reads mailbox statistics and controls the analytics
// sync job.
type AnalyticsService struct {
	client *Client
}

// All returns the combined analytics payload. days <= 0 means all time.
func (s *AnalyticsService) All(ctx context.Context, limit, days int) (*Analytics, error) {
	var a Analytics
	if err := s.client.Get(ctx, withQuery("/analytics", limitDays(limit, days)), &a); err != nil {
		return nil, fmt.Errorf("loading analytics: %w", err)
	}
	return &a, nil
}

// Summary returns the headline counters.
func (s *AnalyticsService) Summary(ctx context.Context) (*AnalyticsSummary, error) {
	var sum AnalyticsSummary
	if err := s.client.Get(ctx, "/analytics/summary", &sum); err != nil {
		return nil, fmt.Errorf("loading analytics summary: %w", err)
	}
	return &sum, nil
}

// TopSenders ranks senders by volume.
func (s *AnalyticsService) TopSenders(ctx context.Context, limit, days int) ([]SenderCount, error) {
	var out []SenderCount
	path := withQuery("/analytics/top-senders", limitDays(limit, days))
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("loading top senders: %w", err)
	}
	return out, nil
}

// UnreadBySender ranks senders by unread messages.
func (s *AnalyticsService) UnreadBySender(ctx context.Context, limit int) ([]SenderUnread, error) {
	var out []SenderUnread
	path := withQuery("/analytics/unread-by-sender", limitDays(limit, 0))
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("loading unread by sender: %w", err)
	}
	return out, nil
}

// ReplyRanking ranks correspondents by messages sent to them.
func (s *AnalyticsService) ReplyRanking(ctx context.Context, limit int) ([]ReplyRank, error) {
	var out []ReplyRank
	path := withQuery("/analytics/reply-ranking", limitDays(limit, 0))
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("loading reply ranking: %w", err)
	}
	return out, nil
}

// LowReplyRatio lists senders the user rarely answers.
func (s *AnalyticsService) LowReplyRatio(ctx context.Context, limit int) ([]LowReply, error) {
	var out []LowReply
	path := withQuery("/analytics/low-reply-ratio", limitDays(limit, 0))
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("loading low reply ratio: %w", err)
	}
	return out, nil
}

// StartSync starts a background analytics sync and returns the new job.
func (s *AnalyticsService) StartSync(ctx context.Context) (*SyncJob, error) {
	var job SyncJob
	if err := s.client.Post(ctx, "/analytics/sync", struct{}{}, &job); err != nil {
		return nil, fmt.Errorf("starting sync: %w", err)
	}
	return &job, nil
}

// SyncStatus returns the latest sync job of the acting user.
func (s *AnalyticsService) SyncStatus(ctx context.Context) (*SyncJob, error) {
	var job SyncJob
	if err := s.client.Get(ctx, "/analytics/sync/status", &job); err != nil {
		return nil, fmt.Errorf("checking sync status: %w", err)
	}
	return &job, nil
}

// Job returns a specific sync job.
func (s *AnalyticsService) Job(ctx context.Context, jobID ID) (*SyncJob, error) {
	var job SyncJob
	if err := s.client.Get(ctx, "/analytics/sync/job/"+escape(jobID.String()), &job); err != nil {
		return nil, fmt.Errorf("checking sync job %s: %w", jobID, err)
	}
	return &job, nil
}

// CancelSync stops a running sync job.
func (s *AnalyticsService) CancelSync(ctx context.Context, jobID ID) error {
	path := "/analytics/sync/cancel/" + escape(jobID.String())
	if err := s.client.Post(ctx, path, struct{}{}, nil); err != nil {
		return fmt.Errorf("cancelling sync job %s: %w", jobID, err)
	}
	return nil
}

func limitDays(limit, days int) url.Values {
	v := url.Values{}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	if days > 0 {
		v.Set("days", strconv.Itoa(days))
	}
	return v
}
