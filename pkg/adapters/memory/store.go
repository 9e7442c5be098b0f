package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/dealreg/pkg/domain"
)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL expires drafts ttl after their last save, like the Redis store.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithStoreClock replaces time.Now for expiry and ordering.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

type savedDraft struct {
	snap    *domain.Snapshot
	savedAt time.Time
}

// Store keeps saved drafts in process memory. It implements ports.DraftStore
// and is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	drafts map[string]savedDraft
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates an empty in-memory draft store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		drafts: make(map[string]savedDraft),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save keeps a deep copy of the snapshot and renews its expiry.
func (s *Store) Save(_ context.Context, sessionID string, snap *domain.Snapshot) error {
	if snap == nil {
		return errors.New("nil snapshot")
	}
	d := savedDraft{snap: snap.Clone(), savedAt: s.now()}

	s.mu.Lock()
	s.drafts[sessionID] = d
	s.mu.Unlock()
	return nil
}

// Load returns a copy of the saved draft; expired drafts read as missing.
func (s *Store) Load(_ context.Context, sessionID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	d, ok := s.drafts[sessionID]
	s.mu.RUnlock()

	if !ok || s.expired(d) {
		return nil, domain.ErrSessionNotFound
	}
	return d.snap.Clone(), nil
}

// Delete removes the draft. Missing drafts are not an error.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.drafts, sessionID)
	s.mu.Unlock()
	return nil
}

// List returns live session IDs, most recently saved first, and prunes expired drafts.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := make([]string, 0, len(s.drafts))
	for id, d := range s.drafts {
		if s.expired(d) {
			delete(s.drafts, id)
			continue
		}
		live = append(live, id)
	}
	sort.Slice(live, func(i, j int) bool {
		a, b := s.drafts[live[i]].savedAt, s.drafts[live[j]].savedAt
		if a.Equal(b) {
			return live[i] < live[j]
		}
		return a.After(b)
	})
	return live, nil
}

func (s *Store) expired(d savedDraft) bool {
	return s.ttl > 0 && !s.now().Before(d.savedAt.Add(s.ttl))
}
