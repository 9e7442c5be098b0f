package dealreg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/dealreg/pkg/adapters/memory"
	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/ports"
	"github.com/aretw0/dealreg/pkg/registry"
	"github.com/aretw0/dealreg/pkg/session"
	"github.com/aretw0/dealreg/pkg/wizard"
)

var (
	// ErrSessionLive is returned by Start when the session ID is already in use in this process.
	ErrSessionLive = errors.New("session is already live")
	// ErrSessionExists is returned by Start when the session ID already has a saved draft.
	ErrSessionExists = errors.New("session already has a saved draft")
)

// Engine is the high-level entry point of the library.
// It wires the collaborators into every wizard it starts and keeps the live ones in a registry.
type Engine struct {
	store     ports.DraftStore
	locker    ports.DistributedLocker
	manager   *session.Manager
	registry  *registry.Registry
	lookup    ports.DuplicateLookup
	submitter ports.Submitter
	files     ports.FileStorage
	hooks     domain.LifecycleHooks
	listeners []func(domain.View)
	wizardOps []wizard.Option
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets where drafts are persisted. Defaults to an in-memory store.
func WithStore(store ports.DraftStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables cross-process locking of draft persistence.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLookup sets the duplicate lookup collaborator.
func WithLookup(lookup ports.DuplicateLookup) Option {
	return func(e *Engine) {
		e.lookup = lookup
	}
}

// WithSubmitter sets the submission collaborator.
func WithSubmitter(s ports.Submitter) Option {
	return func(e *Engine) {
		e.submitter = s
	}
}

// WithFileStorage sets where attachments are stored. Defaults to memory.
func WithFileStorage(fs ports.FileStorage) Option {
	return func(e *Engine) {
		e.files = fs
	}
}

// WithLifecycleHooks registers observability hooks on every wizard.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithViewListener registers a callback fired with the new view after every change of any live wizard.
func WithViewListener(fn func(domain.View)) Option {
	return func(e *Engine) {
		e.listeners = append(e.listeners, fn)
	}
}

// WithWizardOptions appends options applied to every wizard (rules, timeouts, clock...).
func WithWizardOptions(opts ...wizard.Option) Option {
	return func(e *Engine) {
		e.wizardOps = append(e.wizardOps, opts...)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes an Engine. Without a lookup or submitter, an in-memory deal
// index plays both roles.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{registry: registry.NewRegistry()}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.files == nil {
		e.files = memory.NewBlobStore(domain.MaxUploadBytes)
	}
	if e.lookup == nil || e.submitter == nil {
		index := memory.NewDealIndex()
		if e.lookup == nil {
			e.lookup = index
		}
		if e.submitter == nil {
			e.submitter = index
		}
	}

	var managerOpts []session.Option
	managerOpts = append(managerOpts, session.WithLogger(e.logger))
	if e.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(e.locker))
	}
	e.manager = session.NewManager(e.store, managerOpts...)

	return e, nil
}

func (e *Engine) newWizard(sessionID string) (*wizard.Controller, error) {
	opts := []wizard.Option{
		wizard.WithSessionID(sessionID),
		wizard.WithLookup(e.lookup),
		wizard.WithSubmitter(e.submitter),
		wizard.WithStore(e.manager),
		wizard.WithFileStorage(e.files),
		wizard.WithHooks(e.hooks),
		wizard.WithLogger(e.logger.With("session_id", sessionID)),
	}
	for _, l := range e.listeners {
		opts = append(opts, wizard.WithChangeListener(l))
	}
	opts = append(opts, e.wizardOps...)
	return wizard.New(opts...)
}

// Start creates a fresh wizard on its first step. An empty sessionID gets a random one.
// An explicit ID that is live yields ErrSessionLive; one with a saved draft yields
// ErrSessionExists, since starting over would overwrite that draft (use Open or Resume).
func (e *Engine) Start(ctx context.Context, sessionID string) (*wizard.Controller, error) {
	checkSaved := sessionID != ""
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	release := e.registry.Guard(sessionID)
	defer release()
	return e.start(ctx, sessionID, checkSaved)
}

// Resume returns the live wizard for sessionID or rebuilds it from its saved draft.
// A session that was never saved yields domain.ErrSessionNotFound.
func (e *Engine) Resume(ctx context.Context, sessionID string) (*wizard.Controller, error) {
	release := e.registry.Guard(sessionID)
	defer release()
	return e.resume(ctx, sessionID)
}

// Open resumes sessionID when it exists and starts it otherwise.
func (e *Engine) Open(ctx context.Context, sessionID string) (*wizard.Controller, error) {
	if sessionID == "" {
		return e.Start(ctx, "")
	}
	release := e.registry.Guard(sessionID)
	defer release()

	c, err := e.resume(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return e.start(ctx, sessionID, false)
	}
	return c, err
}

// start and resume expect the caller to hold the registry guard for sessionID.
func (e *Engine) start(ctx context.Context, sessionID string, checkSaved bool) (*wizard.Controller, error) {
	if _, err := e.registry.Get(sessionID); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionLive, sessionID)
	}
	if checkSaved {
		_, err := e.manager.Load(ctx, sessionID)
		if err == nil {
			return nil, fmt.Errorf("%w: %s", ErrSessionExists, sessionID)
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, fmt.Errorf("failed to check session %s: %w", sessionID, err)
		}
	}

	c, err := e.newWizard(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to create wizard: %w", err)
	}
	e.registry.Register(c)
	e.logger.Info("Session started", "session_id", sessionID)

	if hook := e.hooks.OnStepEnter; hook != nil {
		step := c.Current()
		hook(ctx, &domain.StepEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStepEnter, SessionID: sessionID},
			StepID:    step.ID,
		})
	}
	return c, nil
}

func (e *Engine) resume(ctx context.Context, sessionID string) (*wizard.Controller, error) {
	if c, err := e.registry.Get(sessionID); err == nil {
		return c, nil
	}

	snap, err := e.manager.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	c, err := e.newWizard(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to create wizard: %w", err)
	}
	if err := c.Restore(snap); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to restore session %s: %w", sessionID, err)
	}
	e.registry.Register(c)
	e.logger.Info("Session resumed", "session_id", sessionID, "step_id", snap.CurrentStepID)
	return c, nil
}

// Get returns a live wizard.
func (e *Engine) Get(sessionID string) (*wizard.Controller, error) {
	c, err := e.registry.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return c, nil
}

// Close saves an unsubmitted wizard and drops it from memory.
func (e *Engine) Close(ctx context.Context, sessionID string) error {
	release := e.registry.Guard(sessionID)
	defer release()

	c, err := e.registry.Get(sessionID)
	if err != nil {
		return nil
	}
	defer e.registry.Remove(sessionID)

	if c.View().Submitted {
		return nil
	}
	if err := c.AutoSave(ctx); err != nil {
		return fmt.Errorf("failed to save session %s on close: %w", sessionID, err)
	}
	return nil
}

// Discard drops a wizard and its saved draft.
func (e *Engine) Discard(ctx context.Context, sessionID string) error {
	release := e.registry.Guard(sessionID)
	defer release()

	e.registry.Remove(sessionID)
	return e.manager.Delete(ctx, sessionID)
}

// Sessions returns the IDs of live and saved sessions.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	saved, err := e.manager.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var ids []string
	for _, id := range append(e.registry.IDs(), saved...) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Shutdown saves and closes every live wizard.
func (e *Engine) Shutdown(ctx context.Context) error {
	var errs []error
	for _, id := range e.registry.IDs() {
		if err := e.Close(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	e.registry.CloseAll()
	return errors.Join(errs...)
}

// Manager returns the session manager guarding the draft store.
func (e *Engine) Manager() *session.Manager {
	return e.manager
}

// Registry returns the live wizard registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Lookup returns the configured duplicate lookup.
func (e *Engine) Lookup() ports.DuplicateLookup {
	return e.lookup
}
