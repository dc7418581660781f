package control

import (
	"sync"

	"go.uber.org/atomic"
)

// Store holds the current Params. Writers are serialized and publish a fresh copy on every
// change, so readers never block and never see a partial update.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Params]
}

// NewStore returns a store holding initial.
func NewStore(initial Params) *Store {
	s := &Store{}
	s.current.Store(&initial)
	return s
}

// Snapshot returns a copy of the current parameters.
func (s *Store) Snapshot() Params {
	return *s.current.Load()
}

// Update applies fn to a copy of the current parameters. If fn returns an error the store is
// left unchanged and the error is returned.
func (s *Store) Update(fn func(p *Params) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := *s.current.Load()
	if err := fn(&next); err != nil {
		return err
	}
	s.current.Store(&next)
	return nil
}

// Set replaces the stored parameters.
func (s *Store) Set(p Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Store(&p)
}
