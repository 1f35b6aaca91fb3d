package feed

import (
	"sync"
)

// FilterStore is the shared observable holding the session's filter state.
// Both the feed view and any other selector (e.g., a sidebar tag list)
// mutate it through Update; every subscriber sees every committed state.
// Last writer wins.
type FilterStore struct {
	mu     sync.RWMutex
	state  FilterState
	subs   map[int]func(FilterState)
	nextID int
}

// NewFilterStore creates a store with an empty (match-everything) state
func NewFilterStore() *FilterStore {
	return &FilterStore{
		subs: make(map[int]func(FilterState)),
	}
}

// Get returns a snapshot of the current state
func (s *FilterStore) Get() FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Set replaces the state and notifies subscribers
func (s *FilterStore) Set(state FilterState) {
	s.mu.Lock()
	s.state = state.clone()
	snapshot := s.state.clone()
	fns := s.subscriberList()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

// Update applies a mutation to the current state under the lock, then
// notifies subscribers with the result
func (s *FilterStore) Update(mutate func(*FilterState)) {
	s.mu.Lock()
	mutate(&s.state)
	snapshot := s.state.clone()
	fns := s.subscriberList()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

// Clear resets the state, as on navigating away from the filtering view
func (s *FilterStore) Clear() {
	s.Set(FilterState{})
}

// Subscribe registers a callback invoked on every state change. The
// returned function removes the subscription.
func (s *FilterStore) Subscribe(fn func(FilterState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// subscriberList snapshots the callbacks; caller must hold the lock
func (s *FilterStore) subscriberList() []func(FilterState) {
	fns := make([]func(FilterState), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns
}

// clone deep-copies the slices so callers can't mutate the stored state
func (s FilterState) clone() FilterState {
	out := s
	if s.Tags != nil {
		out.Tags = append([]string(nil), s.Tags...)
	}
	if s.Exams != nil {
		out.Exams = append([]string(nil), s.Exams...)
	}
	return out
}
