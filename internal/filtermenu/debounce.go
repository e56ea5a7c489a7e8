package filtermenu

import (
	"sync"
	"time"

	"github.com/besy-hub/besy-orders/internal/filter"
)

// DefaultDebounce is the write coalescing window for lastActiveFilters.
const DefaultDebounce = 2 * time.Second

// saver is a single-slot "latest pending write" debouncer. Each trigger
// replaces the pending snapshot and restarts the timer, so rapid successive
// edits coalesce into one write with last-write-wins semantics. The flush
// runs on the timer goroutine and never blocks new triggers.
type saver struct {
	delay time.Duration
	flush func(filter.Preset)

	mu      sync.Mutex
	pending *filter.Preset
	timer   *time.Timer
	closed  bool
}

func newSaver(delay time.Duration, flush func(filter.Preset)) *saver {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &saver{delay: delay, flush: flush}
}

func (s *saver) trigger(preset filter.Preset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = &preset
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fire)
}

func (s *saver) fire() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	if pending != nil {
		s.flush(*pending)
	}
}

// close stops the timer and flushes any pending snapshot synchronously.
func (s *saver) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	if pending != nil {
		s.flush(*pending)
	}
}
