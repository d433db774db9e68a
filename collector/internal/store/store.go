// Package store holds the per-tab bounded event buffers. It is the single
// place captured events live between arrival and display; everything a
// consumer sees is derived from it by filtering and grouping.
package store

import (
	"sort"
	"sync"

	"github.com/sizzlebits/layerlens/common/models"
)

// Store is a keyed bounded buffer of captured events per tab. Events are
// served newest-first. Inserts are O(1) amortized: the buffer is kept in
// arrival order internally and reversed only on read, which copies anyway.
type Store struct {
	mu        sync.Mutex
	maxEvents int
	tabs      map[int][]models.CapturedEvent // oldest-first internally
}

// New returns a store bounded at maxEvents per tab. Any positive value is
// accepted; range clamping is a concern of the settings surface, not the
// store.
func New(maxEvents int) *Store {
	if maxEvents <= 0 {
		maxEvents = 1
	}
	return &Store{
		maxEvents: maxEvents,
		tabs:      make(map[int][]models.CapturedEvent),
	}
}

// AddEvent appends an event to the tab's buffer, evicting the oldest
// entries beyond capacity. The buffer is created on first use.
func (s *Store) AddEvent(tabID int, evt models.CapturedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := append(s.tabs[tabID], evt)
	if len(buf) > s.maxEvents {
		buf = buf[len(buf)-s.maxEvents:]
	}
	s.tabs[tabID] = buf
}

// Events returns the tab's buffer newest-first. The result is a copy; an
// unknown tab yields an empty slice, not nil dereference hazards.
func (s *Store) Events(tabID int) []models.CapturedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.tabs[tabID]
	out := make([]models.CapturedEvent, len(buf))
	for i, evt := range buf {
		out[len(buf)-1-i] = evt
	}
	return out
}

// Len returns the number of buffered events for a tab.
func (s *Store) Len(tabID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tabs[tabID])
}

// ClearEvents empties one tab's buffer, leaving other tabs untouched.
func (s *Store) ClearEvents(tabID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tabs, tabID)
}

// RemoveTab discards a tab's buffer entirely. Invoked when the tab closes;
// today identical to ClearEvents but kept distinct so lifecycle hooks read
// as what they are.
func (s *Store) RemoveTab(tabID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tabs, tabID)
}

// Tabs returns the tab IDs with at least one buffered event, ascending.
func (s *Store) Tabs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.tabs))
	for id := range s.tabs {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// MaxEvents returns the current per-tab capacity.
func (s *Store) MaxEvents() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxEvents
}

// SetMaxEvents reconfigures the per-tab capacity at runtime. Reducing it
// truncates every buffer eagerly, dropping oldest entries first.
func (s *Store) SetMaxEvents(maxEvents int) {
	if maxEvents <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maxEvents = maxEvents
	for id, buf := range s.tabs {
		if len(buf) > maxEvents {
			s.tabs[id] = buf[len(buf)-maxEvents:]
		}
	}
}

// Seed inserts events in oldest-first order, applying the capacity bound.
// Used when rehydrating a persisted snapshot at startup.
func (s *Store) Seed(tabID int, oldestFirst []models.CapturedEvent) {
	for _, evt := range oldestFirst {
		s.AddEvent(tabID, evt)
	}
}
