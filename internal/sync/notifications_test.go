package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countSource struct {
	mu    gosync.Mutex
	count int
	err   error
	calls int
}

func (c *countSource) UnreadCount(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.count, c.err
}

func (c *countSource) set(n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count, c.err = n, err
}

func TestNotificationPoller_InitialAndRefresh(t *testing.T) {
	src := &countSource{count: 3}

	p := NewNotificationPoller(src, time.Hour, nil)
	cmd := p.Start()
	defer p.Stop()

	assert.Equal(t, UnreadCountMsg{Count: 3}, cmd())

	src.set(5, nil)
	p.Refresh()
	assert.Equal(t, UnreadCountMsg{Count: 5}, p.WaitForNext()())
}

func TestNotificationPoller_Interval(t *testing.T) {
	src := &countSource{count: 1}

	p := NewNotificationPoller(src, 5*time.Millisecond, nil)
	p.Start()
	defer p.Stop()

	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestNotificationPoller_ErrorsAreSkipped(t *testing.T) {
	src := &countSource{err: errors.New("HTTP 500")}

	p := NewNotificationPoller(src, time.Hour, nil)
	cmd := p.Start()

	src.set(2, nil)
	p.Refresh()
	assert.Equal(t, UnreadCountMsg{Count: 2}, cmd())
	p.Stop()
}

func TestNotificationPoller_StopReleasesWaiters(t *testing.T) {
	src := &countSource{err: errors.New("HTTP 503")}

	p := NewNotificationPoller(src, time.Hour, nil)
	p.Start()
	p.Stop()

	assert.Nil(t, p.WaitForNext()())
}
