package api

import (
	"context"
	"fmt"
	"net/url"
)

// SpamService queries the backend's reputation lookups.
type SpamService struct {
	client *Client
}

// CheckEmail looks up one sender address.
func (s *SpamService) CheckEmail(ctx context.Context, email string) (*SpamResult, error) {
	return s.check(ctx, "email", email)
}

// CheckDomain looks up a domain.
func (s *SpamService) CheckDomain(ctx context.Context, domain string) (*SpamResult, error) {
	return s.check(ctx, "domain", domain)
}

// CheckIP looks up an IP address.
func (s *SpamService) CheckIP(ctx context.Context, ip string) (*SpamResult, error) {
	return s.check(ctx, "ip", ip)
}

func (s *SpamService) check(ctx context.Context, kind, value string) (*SpamResult, error) {
	var r SpamResult
	path := withQuery("/spam/check/"+kind, url.Values{kind: {value}})
	if err := s.client.Get(ctx, path, &r); err != nil {
		return nil, fmt.Errorf("checking %s %s: %w", kind, value, err)
	}
	return &r, nil
}

// CheckEmails looks up several addresses in one request.
func (s *SpamService) CheckEmails(ctx context.Context, emails []string) (*SpamBatch, error) {
	var batch SpamBatch
	if err := s.client.Post(ctx, "/spam/check/emails", emails, &batch); err != nil {
		return nil, fmt.Errorf("checking %d addresses: %w", len(emails), err)
	}
	return &batch, nil
}

// CacheStats describes the reputation cache.
func (s *SpamService) CacheStats(ctx context.Context) (*SpamCacheStats, error) {
	var stats SpamCacheStats
	if err := s.client.Get(ctx, "/spam/cache/stats", &stats); err != nil {
		return nil, fmt.Errorf("loading spam cache stats: %w", err)
	}
	return &stats, nil
}

// ClearCache empties the reputation cache.
func (s *SpamService) ClearCache(ctx context.Context) error {
	if err := s.client.Post(ctx, "/spam/cache/clear", struct{}{}, nil); err != nil {
		return fmt.Errorf("clearing spam cache: %w", err)
	}
	return nil
}
