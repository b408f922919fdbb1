package match

import (
	"sync"

	"github.com/smuotoe/geoelevate/internal/domain/model"
)

// Store holds the in-memory states of all active matches. It is the only
// shared resource needing per-key mutual exclusion; the per-state mutex
// covers everything inside a match.
type Store struct {
	mu     sync.RWMutex
	states map[int64]*State
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{states: make(map[int64]*State)}
}

// GetOrCreate returns the state for rec.ID, constructing it with factory on
// first call. The factory runs at most once per match id: racing joins both
// observe the same constructed state. created reports whether this call
// built it.
func (s *Store) GetOrCreate(rec model.Match, factory func() []model.Question) (st *State, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.states[rec.ID]; ok {
		return existing, false
	}

	st = newState(rec, factory())
	s.states[rec.ID] = st
	return st, true
}

// Get returns the state for matchID when one exists.
func (s *Store) Get(matchID int64) (*State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[matchID]
	return st, ok
}

// Remove drops the state for matchID. Idempotent.
func (s *Store) Remove(matchID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, matchID)
}

// Len returns the number of states held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// All snapshots the held states. Used by disconnect handling and the
// stale-match reaper; callers lock each state individually.
func (s *Store) All() []*State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*State, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, st)
	}
	return out
}
