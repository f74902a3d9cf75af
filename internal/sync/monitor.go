package sync

import (
	"context"
	"io"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/mailboard/internal/api"
)

// fetchTimeout is the maximum time allowed for a single status request.
const fetchTimeout = 30 * time.Second

// DefaultSyncInterval is how often a running sync job is polled.
const DefaultSyncInterval = 2 * time.Second

// StatusSource reports the latest analytics sync job.
// *api.AnalyticsService satisfies it.
type StatusSource interface {
	SyncStatus(ctx context.Context) (*api.SyncJob, error)
}

// SyncProgressMsg is a tea.Msg sent while a sync job is running.
type SyncProgressMsg struct {
	Job api.SyncJob
}

// SyncFinishedMsg is a tea.Msg sent once when a watched job reaches a
// terminal state.
type SyncFinishedMsg struct {
	Job api.SyncJob
}

// Monitor polls the analytics sync job while one is running. It checks
// once on Start and then stays idle until a running job is seen or Watch
// is called.
type Monitor struct {
	source   StatusSource
	interval time.Duration
	logger   *logrus.Logger

	events  chan tea.Msg
	watchCh chan struct{}
	stopCh  chan struct{}
	wg      gosync.WaitGroup

	mu      gosync.Mutex
	running bool
	last    *api.SyncJob
}

// NewMonitor creates a monitor polling source every interval.
func NewMonitor(source StatusSource, interval time.Duration, logger *logrus.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Monitor{
		source:   source,
		interval: interval,
		logger:   logger,
		events:   make(chan tea.Msg, 16),
		watchCh:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the polling goroutine and returns a tea.Cmd that waits
// for the first event.
func (m *Monitor) Start() tea.Cmd {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run()

	return m.WaitForNext()
}

// Stop halts the polling goroutine and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	m.mu.Unlock()

	m.wg.Wait()
}

// Watch resumes polling, typically right after a sync was started.
func (m *Monitor) Watch() {
	select {
	case m.watchCh <- struct{}{}:
	default:
	}
}

// Last returns the most recently observed job, if any.
func (m *Monitor) Last() (api.SyncJob, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return api.SyncJob{}, false
	}
	return *m.last, true
}

// Events exposes the raw event channel.
func (m *Monitor) Events() <-chan tea.Msg {
	return m.events
}

// WaitForNext returns a tea.Cmd that waits for the next event. It should
// be re-issued after each SyncProgressMsg or SyncFinishedMsg.
func (m *Monitor) WaitForNext() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.stopCh:
			return nil
		}
	}
}

func (m *Monitor) run() {
	defer m.wg.Done()

	watching := m.initialCheck()

	var (
		ticker *time.Ticker
		tick   <-chan time.Time
	)
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		switch {
		case watching && ticker == nil:
			ticker = time.NewTicker(m.interval)
			tick = ticker.C
		case !watching && ticker != nil:
			ticker.Stop()
			ticker, tick = nil, nil
		}

		select {
		case <-m.stopCh:
			return
		case <-m.watchCh:
			watching = true
		case <-tick:
			watching = m.poll()
		}
	}
}

// initialCheck looks for a job that was already running at startup.
func (m *Monitor) initialCheck() bool {
	job, err := m.fetch()
	if err != nil {
		m.logger.WithError(err).Debug("No active sync job")
		return false
	}
	if !job.Running() {
		return false
	}
	m.send(SyncProgressMsg{Job: *job})
	return true
}

// poll checks the job once and reports whether polling should continue.
// Errors are logged and polling continues.
func (m *Monitor) poll() bool {
	job, err := m.fetch()
	if err != nil {
		m.logger.WithError(err).Warn("Sync status poll failed")
		return true
	}

	switch {
	case job.Running():
		m.send(SyncProgressMsg{Job: *job})
		return true
	case job.Terminal():
		m.logger.WithFields(logrus.Fields{
			"job":    job.JobID,
			"status": job.Status,
		}).Info("Sync job finished")
		m.send(SyncFinishedMsg{Job: *job})
		return false
	}

	// Not started yet.
	return true
}

func (m *Monitor) fetch() (*api.SyncJob, error) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	job, err := m.source.SyncStatus(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	last := *job
	m.last = &last
	m.mu.Unlock()

	return job, nil
}

// send delivers an event without blocking.
func (m *Monitor) send(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}
