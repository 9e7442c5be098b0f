// Package keylock provides one mutex per session ID. Entries exist only while
// someone holds or waits for them.
package keylock

import "sync"

type entry struct {
	mu      sync.Mutex
	waiters int
}

// Set is a collection of per-key mutexes. The zero value is not usable; call New.
type Set struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New returns an empty Set.
func New() *Set {
	return &Set{entries: make(map[string]*entry)}
}

// Lock blocks until the caller holds key and returns the unlock func.
// Calling unlock more than once is a no-op.
func (s *Set) Lock(key string) (unlock func()) {
	s.mu.Lock()
	e := s.entries[key]
	if e == nil {
		e = &entry{}
		s.entries[key] = e
	}
	e.waiters++
	s.mu.Unlock()

	e.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			s.mu.Lock()
			e.waiters--
			if e.waiters == 0 {
				delete(s.entries, key)
			}
			s.mu.Unlock()
		})
	}
}

// Len reports how many keys are held or awaited.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
