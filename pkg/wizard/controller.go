package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/dealreg/internal/logging"
	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/duplicate"
	"github.com/aretw0/dealreg/pkg/ports"
	"github.com/aretw0/dealreg/pkg/sanitize"
	"github.com/aretw0/dealreg/pkg/validation"
)

// DefaultSubmitTimeout bounds a submission attempt when none is configured.
const DefaultSubmitTimeout = 10 * time.Second

var (
	ErrNoSubmitter    = errors.New("no submitter configured")
	ErrNoStore        = errors.New("no draft store configured")
	ErrNoFileStorage  = errors.New("no file storage configured")
	ErrFileNotFound   = errors.New("file not found")
	ErrSubmitTimeout  = errors.New("submission timed out")
	ErrNoConfirmation = errors.New("submitter returned an empty confirmation id")
)

// Result is what UpdateDraft produces: the recomputed errors and the detector state.
type Result struct {
	Errors     validation.ErrorMap   `json:"errors"`
	Valid      bool                  `json:"valid"`
	Duplicates domain.DuplicateState `json:"duplicates"`
}

// Controller is the single writer of one wizard session.
// All exported methods are safe for concurrent use.
type Controller struct {
	sessionID     string
	steps         []domain.Step
	rules         validation.RuleSet
	termsRequired bool
	now           func() time.Time
	engine        *validation.Engine

	lookup        ports.DuplicateLookup
	debounce      time.Duration
	lookupTimeout time.Duration
	detector      *duplicate.Detector

	submitter     ports.Submitter
	submitTimeout time.Duration
	store         ports.DraftStore
	files         ports.FileStorage
	categories    map[string][]string
	maxUpload     int64

	hooks     domain.LifecycleHooks
	listeners []func(domain.View)
	logger    *slog.Logger

	mu             sync.Mutex
	current        int
	draft          domain.Draft
	errors         validation.ErrorMap
	submitted      bool
	confirmationID string
}

// New creates a Controller positioned on the first step with an empty draft.
func New(opts ...Option) (*Controller, error) {
	c := &Controller{
		sessionID:     uuid.NewString(),
		steps:         domain.DefaultSteps(),
		rules:         validation.DefaultRules(),
		now:           time.Now,
		debounce:      duplicate.DefaultDelay,
		lookupTimeout: duplicate.DefaultTimeout,
		submitTimeout: DefaultSubmitTimeout,
		categories:    domain.DefaultUploadCategories(),
		maxUpload:     domain.MaxUploadBytes,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if len(c.steps) == 0 {
		return nil, errors.New("wizard needs at least one step")
	}
	seen := make(map[string]bool, len(c.steps))
	steps := make([]domain.Step, len(c.steps))
	for i, s := range c.steps {
		if s.ID == "" || seen[s.ID] {
			return nil, fmt.Errorf("invalid step at position %d: empty or duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
		steps[i] = s
	}
	c.steps = steps

	if c.termsRequired {
		c.rules = c.rules.With(validation.TermsRule())
	}
	c.engine = validation.New(validation.WithClock(c.now))

	if c.lookup != nil {
		c.detector = duplicate.New(c.lookup,
			duplicate.WithDelay(c.debounce),
			duplicate.WithTimeout(c.lookupTimeout),
			duplicate.WithListener(c.onDuplicates),
			duplicate.WithLogger(c.logger),
		)
	}

	c.errors = c.engine.Evaluate(c.rules, c.fieldsLocked())
	return c, nil
}

// SessionID returns the session identifier.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Steps returns the step sequence with statuses relative to the current step.
func (c *Controller) Steps() []domain.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.WithStatuses(c.steps, c.current)
}

// Current returns the current step.
func (c *Controller) Current() domain.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.steps[c.current]
	s.Status = domain.StepCurrent
	return s
}

// Draft returns a copy of the draft.
func (c *Controller) Draft() domain.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Clone()
}

// Errors returns a copy of the current error map.
func (c *Controller) Errors() validation.ErrorMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors.Clone()
}

// IsValid reports whether the draft passes every rule.
func (c *Controller) IsValid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors.IsValid()
}

// Fields returns the flat field view, including duplicate-check scratch state.
func (c *Controller) Fields() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fieldsLocked()
}

// Duplicates returns the duplicate detector state.
func (c *Controller) Duplicates() domain.DuplicateState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duplicatesLocked()
}

// View returns the read model of the session.
func (c *Controller) View() domain.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Advance moves to the next step. At the last step it returns a *domain.BoundaryError.
func (c *Controller) Advance(ctx context.Context) error {
	return c.move(ctx, 1, "advance")
}

// Retreat moves to the previous step. At the first step it returns a *domain.BoundaryError.
func (c *Controller) Retreat(ctx context.Context) error {
	return c.move(ctx, -1, "retreat")
}

func (c *Controller) move(ctx context.Context, delta int, op string) error {
	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		return domain.ErrAlreadySubmitted
	}
	next := c.current + delta
	if next < 0 || next >= len(c.steps) {
		err := &domain.BoundaryError{Op: op, StepID: c.steps[c.current].ID}
		c.mu.Unlock()
		return err
	}
	leave := c.stepEventLocked(domain.EventStepLeave, c.current)
	c.current = next
	enter := c.stepEventLocked(domain.EventStepEnter, c.current)
	c.mu.Unlock()

	c.logger.Debug("Step changed", "session_id", enter.SessionID, "from", leave.StepID, "to", enter.StepID)
	if c.hooks.OnStepLeave != nil {
		c.hooks.OnStepLeave(ctx, leave)
	}
	if c.hooks.OnStepEnter != nil {
		c.hooks.OnStepEnter(ctx, enter)
	}
	c.publish()
	return nil
}

// UpdateDraft merges patch into the draft and returns the recomputed errors and
// duplicate state. A patch that cannot be decoded leaves the draft unchanged.
func (c *Controller) UpdateDraft(ctx context.Context, patch domain.Patch) (Result, error) {
	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		return Result{}, domain.ErrAlreadySubmitted
	}
	if err := c.draft.Apply(patch); err != nil {
		c.mu.Unlock()
		return Result{}, err
	}

	var dup domain.DuplicateState
	if c.detector != nil && patch.Has(domain.FieldCompanyName, domain.FieldDomain) {
		dup = c.detector.Observe(c.draft.CompanyName, c.draft.Domain)
	} else {
		dup = c.duplicatesLocked()
	}
	c.errors = c.engine.Evaluate(c.rules, c.fieldsLocked())
	res := Result{Errors: c.errors.Clone(), Valid: c.errors.IsValid(), Duplicates: dup}
	c.mu.Unlock()

	c.publish()
	return res, nil
}

// Submit validates the draft, sanitizes it and hands it to the submitter.
// It is only available on the last step. On failure the draft and step are untouched.
func (c *Controller) Submit(ctx context.Context) (string, error) {
	c.mu.Lock()
	id, ev, err := c.submitLocked(ctx)
	c.mu.Unlock()

	if ev != nil && c.hooks.OnSubmit != nil {
		c.hooks.OnSubmit(ctx, ev)
	}
	c.publish()
	return id, err
}

func (c *Controller) submitLocked(ctx context.Context) (string, *domain.SubmitEvent, error) {
	if c.submitted {
		return "", nil, domain.ErrAlreadySubmitted
	}
	if c.current != len(c.steps)-1 {
		return "", nil, &domain.BoundaryError{Op: "submit", StepID: c.steps[c.current].ID}
	}

	start := time.Now()
	ev := &domain.SubmitEvent{EventBase: c.eventBaseLocked(domain.EventSubmit)}

	c.errors = c.engine.Evaluate(c.rules, c.fieldsLocked())
	if !c.errors.IsValid() {
		ev.Invalid = true
		return "", ev, &domain.ValidationError{Errors: c.errors.Clone()}
	}

	if c.submitter == nil {
		ev.Err = ErrNoSubmitter
		return "", ev, &domain.SubmissionError{Err: ErrNoSubmitter}
	}

	payload := sanitize.Sanitize(c.fieldsLocked())

	sctx, cancel := withTimeout(ctx, c.submitTimeout)
	id, err := c.submitter.Submit(sctx, payload)
	timedOut := errors.Is(sctx.Err(), context.DeadlineExceeded)
	cancel()
	ev.Duration = time.Since(start)

	if err == nil && id == "" {
		err = ErrNoConfirmation
	}
	if err != nil {
		if timedOut {
			err = fmt.Errorf("%w: %w", ErrSubmitTimeout, err)
		}
		ev.Err = err
		c.logger.Warn("Submission failed", "session_id", c.sessionID, "err", err)
		return "", ev, &domain.SubmissionError{Err: err}
	}

	c.submitted = true
	c.confirmationID = id
	ev.ConfirmationID = id
	if c.detector != nil {
		c.detector.Stop()
	}
	if c.store != nil {
		dctx, dcancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if err := c.store.Delete(dctx, c.sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			c.logger.Warn("Failed to delete submitted draft", "session_id", c.sessionID, "err", err)
		}
		dcancel()
	}
	c.logger.Info("Deal submitted", "session_id", c.sessionID, "confirmation_id", id, "submitter_email", c.draft.SubmitterEmail)
	return id, ev, nil
}

// AutoSave persists the draft and its pending errors. It never mutates the draft
// and may be called any number of times.
func (c *Controller) AutoSave(ctx context.Context) error {
	c.mu.Lock()
	if c.store == nil {
		c.mu.Unlock()
		return ErrNoStore
	}
	if c.submitted {
		c.mu.Unlock()
		return domain.ErrAlreadySubmitted
	}
	snap := c.snapshotLocked()
	err := c.store.Save(ctx, c.sessionID, snap)
	ev := &domain.SaveEvent{EventBase: c.eventBaseLocked(domain.EventAutoSave), Err: err}
	c.mu.Unlock()

	if c.hooks.OnAutoSave != nil {
		c.hooks.OnAutoSave(ctx, ev)
	}
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Snapshot returns the persistable form of the session.
func (c *Controller) Snapshot() *domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Restore resumes a persisted session: its ID, step and draft replace the current ones.
// Errors are recomputed rather than trusted, and duplicate detection is re-armed.
func (c *Controller) Restore(snap *domain.Snapshot) error {
	if snap == nil {
		return errors.New("nil snapshot")
	}
	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		return domain.ErrAlreadySubmitted
	}
	idx := domain.IndexOf(c.steps, snap.CurrentStepID)
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("cannot restore session %q: unknown step %q", snap.SessionID, snap.CurrentStepID)
	}
	if snap.SessionID != "" {
		c.sessionID = snap.SessionID
	}
	c.current = idx
	c.draft = snap.Draft.Clone()
	if c.detector != nil {
		c.detector.Observe(c.draft.CompanyName, c.draft.Domain)
	}
	c.errors = c.engine.Evaluate(c.rules, c.fieldsLocked())
	c.mu.Unlock()

	c.publish()
	return nil
}

// Close stops background duplicate detection.
func (c *Controller) Close() {
	if c.detector != nil {
		c.detector.Stop()
	}
}

func (c *Controller) onDuplicates(r duplicate.Result) {
	c.mu.Lock()
	ev := &domain.DuplicateEvent{
		EventBase:  c.eventBaseLocked(domain.EventDuplicateCheck),
		Candidates: len(r.State.Candidates),
		Duration:   r.Duration,
		Err:        r.Err,
	}
	c.mu.Unlock()

	if c.hooks.OnDuplicateCheck != nil {
		c.hooks.OnDuplicateCheck(context.Background(), ev)
	}
	c.publish()
}

func (c *Controller) publish() {
	if len(c.listeners) == 0 {
		return
	}
	v := c.View()
	for _, l := range c.listeners {
		l(v)
	}
}

func (c *Controller) fieldsLocked() map[string]any {
	f := c.draft.Fields()
	f[domain.FieldDuplicateResults] = c.duplicatesLocked().Candidates
	return f
}

func (c *Controller) duplicatesLocked() domain.DuplicateState {
	if c.detector == nil {
		return domain.DuplicateState{Candidates: []domain.Candidate{}}
	}
	return c.detector.State()
}

func (c *Controller) viewLocked() domain.View {
	return domain.View{
		SessionID:      c.sessionID,
		Steps:          domain.WithStatuses(c.steps, c.current),
		CurrentIndex:   c.current,
		CurrentStepID:  c.steps[c.current].ID,
		Draft:          c.draft.Clone(),
		Errors:         c.errors.Clone(),
		Valid:          c.errors.IsValid(),
		Duplicates:     c.duplicatesLocked(),
		Submitted:      c.submitted,
		ConfirmationID: c.confirmationID,
	}
}

func (c *Controller) snapshotLocked() *domain.Snapshot {
	return &domain.Snapshot{
		SessionID:     c.sessionID,
		CurrentStepID: c.steps[c.current].ID,
		Draft:         c.draft.Clone(),
		Errors:        c.errors.Clone(),
		SavedAt:       c.now().UTC(),
	}
}

func (c *Controller) eventBaseLocked(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: c.now(), Type: t, SessionID: c.sessionID}
}

func (c *Controller) stepEventLocked(t domain.EventType, idx int) *domain.StepEvent {
	return &domain.StepEvent{EventBase: c.eventBaseLocked(t), StepID: c.steps[idx].ID, Index: idx}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
