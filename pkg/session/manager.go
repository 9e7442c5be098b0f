package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/dealreg/internal/keylock"
	"github.com/aretw0/dealreg/internal/logging"
	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed holder can keep a distributed lock.
const DefaultLockTTL = 30 * time.Second

var (
	// ErrEmptySessionID is returned for operations without a session ID.
	ErrEmptySessionID = errors.New("empty session id")
	// ErrSessionMismatch is returned when a snapshot is saved under another session's ID.
	ErrSessionMismatch = errors.New("snapshot belongs to another session")
)

// Manager serializes draft reads and writes per session.
type Manager struct {
	store   ports.DraftStore
	locks   *keylock.Set
	locker  ports.DistributedLocker
	lockTTL time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

var _ ports.DraftStore = (*Manager)(nil)

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithClock sets the clock used to stamp unsaved snapshots.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new Manager over the given draft store.
func NewManager(store ports.DraftStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   keylock.New(),
		lockTTL: DefaultLockTTL,
		now:     time.Now,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load retrieves a saved draft.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	m.logger.Debug("Draft loaded", "session_id", sessionID, "step_id", snap.CurrentStepID, "saved_at", snap.SavedAt)
	return snap, nil
}

// LoadOrStart loads a saved draft or, when none exists, persists an empty one
// positioned on firstStepID so the ID is reserved.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID, firstStepID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, sessionID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check draft existence: %w", err)
		}

		if firstStepID == "" {
			firstStepID = domain.StepQuickCheck
		}
		snap = &domain.Snapshot{
			SessionID:     sessionID,
			CurrentStepID: firstStepID,
			SavedAt:       m.now().UTC(),
		}
		if err := m.store.Save(ctx, sessionID, snap); err != nil {
			return fmt.Errorf("failed to initialize draft: %w", err)
		}
		m.logger.Debug("Draft reserved", "session_id", sessionID, "step_id", firstStepID)
		return nil
	})
	return snap, err
}

// Save persists a draft snapshot. A snapshot without SavedAt is stamped with the
// manager's clock; the caller's value is left untouched.
func (m *Manager) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	if snap == nil {
		return errors.New("nil snapshot")
	}
	if snap.SessionID != "" && snap.SessionID != sessionID {
		return fmt.Errorf("%w: saving %q under %q", ErrSessionMismatch, snap.SessionID, sessionID)
	}
	if snap.SavedAt.IsZero() {
		snap = snap.Clone()
		snap.SavedAt = m.now().UTC()
	}

	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if err := m.store.Save(ctx, sessionID, snap); err != nil {
			return err
		}
		m.logger.Debug("Draft saved",
			"session_id", sessionID,
			"step_id", snap.CurrentStepID,
			"files", len(snap.Draft.UploadedFiles),
			"pending_errors", len(snap.Errors),
		)
		return nil
	})
}

// Delete removes a saved draft.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if err := m.store.Delete(ctx, sessionID); err != nil {
			return err
		}
		m.logger.Debug("Draft deleted", "session_id", sessionID)
		return nil
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying draft store.
func (m *Manager) Store() ports.DraftStore {
	return m.store
}

// WithLock runs fn while holding the session's local lock and, when configured,
// its distributed lock.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	unlock := m.locks.Lock(sessionID)
	defer unlock()

	if m.locker != nil {
		release, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock for session %s: %w", sessionID, err)
		}
		defer func() {
			// The caller's ctx may already be cancelled; the lock still has to go.
			if err := release(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
