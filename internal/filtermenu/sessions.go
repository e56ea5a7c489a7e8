package filtermenu

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/besy-hub/besy-orders/internal/filter"
	"github.com/besy-hub/besy-orders/internal/shared"
)

// sessionIdleTTL evicts filter menu sessions the UI abandoned without
// closing them.
const sessionIdleTTL = 2 * time.Hour

// latestSink records the controller's most recent emissions so the HTTP
// layer can hand them back to the table page with each response.
type latestSink struct {
	mu      sync.Mutex
	active  filter.ActiveFilters
	columns []string
	resets  int
}

func (s *latestSink) ActiveFiltersChanged(active filter.ActiveFilters) {
	s.mu.Lock()
	s.active = active
	s.mu.Unlock()
}

func (s *latestSink) ColumnsChanged(columns []string) {
	s.mu.Lock()
	s.columns = columns
	s.mu.Unlock()
}

func (s *latestSink) FiltersReset() {
	s.mu.Lock()
	s.resets++
	s.mu.Unlock()
}

// State returns the latest emissions and the running reset count.
func (s *latestSink) State() (filter.ActiveFilters, []string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.columns, s.resets
}

type menuSession struct {
	id         string
	controller *Controller
	sink       *latestSink
	lastSeen   time.Time
}

// Manager keeps one filter menu controller per UI session.
type Manager struct {
	domains  DomainLoader
	presets  PresetSource
	logger   *slog.Logger
	debounce time.Duration

	mu       sync.Mutex
	sessions map[string]*menuSession
	now      func() time.Time
}

// NewManager constructs a session manager.
func NewManager(domains DomainLoader, presets PresetSource, logger *slog.Logger, debounce time.Duration) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		domains:  domains,
		presets:  presets,
		logger:   logger,
		debounce: debounce,
		sessions: make(map[string]*menuSession),
		now:      time.Now,
	}
}

// Create initialises a new controller, restoring the startup filter state,
// and returns its session id.
func (m *Manager) Create(ctx context.Context, initial *filter.Preset) (string, *Controller, *latestSink, error) {
	sink := &latestSink{}
	controller := New(Config{
		Domains:  m.domains,
		Presets:  m.presets,
		Sink:     sink,
		Logger:   m.logger,
		Debounce: m.debounce,
	})
	if err := controller.Init(ctx, initial); err != nil {
		return "", nil, nil, err
	}
	id := uuid.NewString()
	m.mu.Lock()
	m.purgeStaleLocked()
	m.sessions[id] = &menuSession{id: id, controller: controller, sink: sink, lastSeen: m.now()}
	m.mu.Unlock()
	return id, controller, sink, nil
}

// Get returns the controller and sink behind a session id.
func (m *Manager) Get(id string) (*Controller, *latestSink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, nil, shared.ErrNotFound
	}
	sess.lastSeen = m.now()
	return sess.controller, sess.sink, nil
}

// Close flushes and removes a session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return shared.ErrNotFound
	}
	sess.controller.Close()
	return nil
}

func (m *Manager) purgeStaleLocked() {
	cutoff := m.now().Add(-sessionIdleTTL)
	for id, sess := range m.sessions {
		if sess.lastSeen.Before(cutoff) {
			go sess.controller.Close()
			delete(m.sessions, id)
		}
	}
}
