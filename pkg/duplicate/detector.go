package duplicate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/aretw0/dealreg/internal/logging"
	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/ports"
)

const (
	// DefaultDelay is the debounce window between the last qualifying edit and the lookup.
	DefaultDelay = 800 * time.Millisecond
	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 5 * time.Second
)

// Query is the pair of fields a lookup is made with.
type Query struct {
	CompanyName string `json:"companyName"`
	Domain      string `json:"domain"`
}

// Armed reports whether the query qualifies for a lookup.
func (q Query) Armed() bool {
	return utf8.RuneCountInString(strings.TrimSpace(q.CompanyName)) > 2 ||
		utf8.RuneCountInString(strings.TrimSpace(q.Domain)) > 3
}

// Result is delivered to the listener each time the detector state is replaced.
type Result struct {
	State    domain.DuplicateState
	Query    Query
	Err      error
	Duration time.Duration
}

// Detector is a debounced, cancellable duplicate lookup watcher.
// It is safe for concurrent use.
type Detector struct {
	lookup   ports.DuplicateLookup
	delay    time.Duration
	timeout  time.Duration
	listener func(Result)
	logger   *slog.Logger

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	cancel  context.CancelFunc
	state   domain.DuplicateState
	stopped bool
}

// Option configures the Detector.
type Option func(*Detector)

// WithDelay sets the debounce window.
func WithDelay(d time.Duration) Option {
	return func(det *Detector) {
		det.delay = d
	}
}

// WithTimeout bounds each lookup. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(det *Detector) {
		det.timeout = d
	}
}

// WithListener registers a callback invoked after every applied lookup result.
// It runs on the lookup goroutine, never under the detector's lock.
func WithListener(fn func(Result)) Option {
	return func(det *Detector) {
		det.listener = fn
	}
}

// WithLogger configures a logger for the Detector.
func WithLogger(logger *slog.Logger) Option {
	return func(det *Detector) {
		det.logger = logger
	}
}

// New creates a Detector backed by lookup.
func New(lookup ports.DuplicateLookup, opts ...Option) *Detector {
	d := &Detector{
		lookup:  lookup,
		delay:   DefaultDelay,
		timeout: DefaultTimeout,
		logger:  logging.NewNop(),
		state:   domain.DuplicateState{Candidates: []domain.Candidate{}},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Observe records the latest values of the watched fields and returns the state
// right after the call. A qualifying query (re)schedules a lookup; a non-qualifying
// one clears the candidates and cancels pending work.
// Observe never calls the listener, so it may be called while holding the caller's locks.
func (d *Detector) Observe(companyName, domainName string) domain.DuplicateState {
	q := Query{CompanyName: strings.TrimSpace(companyName), Domain: strings.TrimSpace(domainName)}

	d.mu.Lock()
	if d.stopped {
		st := cloneState(d.state)
		d.mu.Unlock()
		return st
	}

	d.gen++
	gen := d.gen
	d.cancelPendingLocked()

	if !q.Armed() {
		d.state = domain.DuplicateState{Candidates: []domain.Candidate{}}
		st := cloneState(d.state)
		d.mu.Unlock()
		return st
	}

	d.state.Checking = true
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen, q) })
	st := cloneState(d.state)
	d.mu.Unlock()
	return st
}

// State returns a copy of the current detector state.
func (d *Detector) State() domain.DuplicateState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneState(d.state)
}

// Stop cancels the pending timer and any in-flight lookup.
// Observe is a no-op afterwards.
func (d *Detector) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.gen++
	d.cancelPendingLocked()
	d.state.Checking = false
	d.mu.Unlock()
}

func (d *Detector) cancelPendingLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Detector) fire(gen uint64, q Query) {
	d.mu.Lock()
	if gen != d.gen || d.stopped {
		d.mu.Unlock()
		return
	}
	var ctx context.Context
	var cancel context.CancelFunc
	if d.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), d.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	d.cancel = cancel
	d.timer = nil
	d.mu.Unlock()
	defer cancel()

	start := time.Now()
	candidates, err := d.lookup.Lookup(ctx, q.CompanyName, q.Domain)
	elapsed := time.Since(start)

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		d.logger.Debug("Discarding superseded duplicate lookup", "company", q.CompanyName, "domain", q.Domain)
		return
	}
	d.cancel = nil

	next := domain.DuplicateState{Candidates: []domain.Candidate{}}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(err, ErrLookupTimeout)
		}
		err = &domain.DuplicateCheckError{Err: err}
		next.Warning = err.Error()
	} else if len(candidates) > 0 {
		next.Candidates = make([]domain.Candidate, len(candidates))
		copy(next.Candidates, candidates)
	}
	d.state = next
	st := cloneState(next)
	d.mu.Unlock()

	if err != nil {
		d.logger.Warn("Duplicate check could not complete", "company", q.CompanyName, "domain", q.Domain, "err", err)
	} else {
		d.logger.Debug("Duplicate check completed", "company", q.CompanyName, "domain", q.Domain, "candidates", len(st.Candidates))
	}
	d.notify(Result{State: st, Query: q, Err: err, Duration: elapsed})
}

func (d *Detector) notify(r Result) {
	if d.listener != nil {
		d.listener(r)
	}
}

func cloneState(s domain.DuplicateState) domain.DuplicateState {
	out := s
	if s.Candidates != nil {
		out.Candidates = make([]domain.Candidate, len(s.Candidates))
		copy(out.Candidates, s.Candidates)
	}
	return out
}
