package sync

import (
	"context"
	"io"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// DefaultNotificationInterval is how often the unread count is polled.
const DefaultNotificationInterval = 30 * time.Second

// CountSource reports the number of unread notifications.
// *api.NotificationsService satisfies it.
type CountSource interface {
	UnreadCount(ctx context.Context) (int, error)
}

// UnreadCountMsg is a tea.Msg carrying the latest unread count.
type UnreadCountMsg struct {
	Count int
}

// NotificationPoller polls the unread notification count on a fixed
// interval. Each result replaces the previous one.
type NotificationPoller struct {
	source   CountSource
	interval time.Duration
	logger   *logrus.Logger

	events    chan UnreadCountMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	wg        gosync.WaitGroup

	mu      gosync.Mutex
	running bool
}

// NewNotificationPoller creates a poller querying source every interval.
func NewNotificationPoller(source CountSource, interval time.Duration, logger *logrus.Logger) *NotificationPoller {
	if interval <= 0 {
		interval = DefaultNotificationInterval
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &NotificationPoller{
		source:    source,
		interval:  interval,
		logger:    logger,
		events:    make(chan UnreadCountMsg, 4),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the polling goroutine and returns a tea.Cmd that waits
// for the first count.
func (p *NotificationPoller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run()

	return p.WaitForNext()
}

// Stop halts the polling goroutine and waits for it to exit.
func (p *NotificationPoller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
}

// Refresh triggers an immediate poll.
func (p *NotificationPoller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// WaitForNext returns a tea.Cmd that waits for the next count.
func (p *NotificationPoller) WaitForNext() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-p.events:
			return msg
		case <-p.stopCh:
			return nil
		}
	}
}

func (p *NotificationPoller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Do an initial fetch immediately
	p.poll()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.poll()
		case <-p.triggerCh:
			p.poll()
		}
	}
}

func (p *NotificationPoller) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	count, err := p.source.UnreadCount(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to load notification count")
		return
	}

	msg := UnreadCountMsg{Count: count}
	select {
	case p.events <- msg:
	default:
		// Replace the stale count nobody consumed yet.
		select {
		case <-p.events:
		default:
		}
		select {
		case p.events <- msg:
		default:
		}
	}
}
