package state

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

// Persisted keys.
const (
	KeyUserID           = "emailutils-user-id"
	KeyView             = "emailutils-view"
	KeyAccount          = "emailutils-account"
	KeyFolder           = "emailutils-folder"
	KeySortColumn       = "emailutils-sort-column"
	KeySortDirection    = "emailutils-sort-direction"
	KeyColumnWidths     = "emailutils-column-widths"
	KeySidebarCollapsed = "emailutils-sidebar-collapsed"
	KeyTheme            = "emailutils-theme"
	KeyListType         = "emailutils-list-type"
)

// KV is durable string storage. Get reports ok=false for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Load reads the persisted state, using defaults for missing keys.
func Load(ctx context.Context, kv KV) (ViewState, error) {
	s := Default()

	for key, dst := range map[string]*string{
		KeyUserID:        &s.UserID,
		KeyAccount:       &s.AccountID,
		KeyFolder:        &s.FolderID,
		KeySortColumn:    &s.SortColumn,
		KeySortDirection: &s.SortDirection,
		KeyTheme:         &s.Theme,
		KeyListType:      &s.ListType,
	} {
		v, ok, err := kv.Get(ctx, key)
		if err != nil {
			return s, fmt.Errorf("reading %s: %w", key, err)
		}
		if ok && v != "" {
			*dst = v
		}
	}

	v, ok, err := kv.Get(ctx, KeyView)
	if err != nil {
		return s, fmt.Errorf("reading %s: %w", KeyView, err)
	}
	if ok && View(v).Valid() {
		s.View = View(v)
	}

	v, ok, err = kv.Get(ctx, KeySidebarCollapsed)
	if err != nil {
		return s, fmt.Errorf("reading %s: %w", KeySidebarCollapsed, err)
	}
	if ok {
		s.SidebarCollapsed, _ = strconv.ParseBool(v)
	}

	v, ok, err = kv.Get(ctx, KeyColumnWidths)
	if err != nil {
		return s, fmt.Errorf("reading %s: %w", KeyColumnWidths, err)
	}
	if ok && v != "" {
		widths := map[string]int{}
		if err := json.Unmarshal([]byte(v), &widths); err == nil {
			s.ColumnWidths = widths
		}
	}

	return s, nil
}

// encode returns the persisted form of every key.
func encode(s ViewState) map[string]string {
	widths, _ := json.Marshal(s.ColumnWidths)
	return map[string]string{
		KeyUserID:           s.UserID,
		KeyView:             string(s.View),
		KeyAccount:          s.AccountID,
		KeyFolder:           s.FolderID,
		KeySortColumn:       s.SortColumn,
		KeySortDirection:    s.SortDirection,
		KeyColumnWidths:     string(widths),
		KeySidebarCollapsed: strconv.FormatBool(s.SidebarCollapsed),
		KeyTheme:            s.Theme,
		KeyListType:         s.ListType,
	}
}

// Manager owns the current state and writes every change through to KV.
type Manager struct {
	kv     KV
	logger *logrus.Logger

	mu    sync.Mutex
	state ViewState
}

// NewManager loads the persisted state from kv.
func NewManager(ctx context.Context, kv KV, logger *logrus.Logger) (*Manager, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	s, err := Load(ctx, kv)
	if err != nil {
		return nil, err
	}
	return &Manager{kv: kv, logger: logger, state: s}, nil
}

// State returns a copy of the current state.
func (m *Manager) State() ViewState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Dispatch applies a and persists every key whose value changed. The new
// state is kept even when persisting fails.
func (m *Manager) Dispatch(ctx context.Context, a Action) (ViewState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := encode(m.state)
	m.state = Reduce(m.state, a)
	next := encode(m.state)

	for key, value := range next {
		if prev[key] == value {
			continue
		}
		if err := m.kv.Set(ctx, key, value); err != nil {
			m.logger.WithError(err).WithField("key", key).Error("Failed to persist view state")
			return m.state.clone(), fmt.Errorf("writing %s: %w", key, err)
		}
	}

	return m.state.clone(), nil
}

// MemoryKV is an in-process KV.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: map[string]string{}}
}

// Get implements KV.
func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements KV.
func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Snapshot returns a copy of the stored values.
func (m *MemoryKV) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.data)
}
