package wizard

import (
	"log/slog"
	"time"

	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/ports"
	"github.com/aretw0/dealreg/pkg/validation"
)

// Option configures a Controller.
type Option func(*Controller)

// WithSessionID sets the session identifier used for persistence and events.
func WithSessionID(id string) Option {
	return func(c *Controller) {
		c.sessionID = id
	}
}

// WithSteps replaces the default step sequence.
func WithSteps(steps []domain.Step) Option {
	return func(c *Controller) {
		c.steps = steps
	}
}

// WithRules replaces the default rule set.
func WithRules(rules validation.RuleSet) Option {
	return func(c *Controller) {
		c.rules = rules
	}
}

// WithTermsRequired makes agreedToTerms a required field.
func WithTermsRequired() Option {
	return func(c *Controller) {
		c.termsRequired = true
	}
}

// WithClock sets the clock used for validation and snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLookup enables duplicate detection backed by lookup.
func WithLookup(lookup ports.DuplicateLookup) Option {
	return func(c *Controller) {
		c.lookup = lookup
	}
}

// WithDebounce sets the duplicate detection debounce window.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		c.debounce = d
	}
}

// WithLookupTimeout bounds each duplicate lookup.
func WithLookupTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.lookupTimeout = d
	}
}

// WithSubmitter sets the submission collaborator.
func WithSubmitter(s ports.Submitter) Option {
	return func(c *Controller) {
		c.submitter = s
	}
}

// WithSubmitTimeout bounds each submission attempt.
func WithSubmitTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.submitTimeout = d
	}
}

// WithStore sets the draft persistence collaborator used by AutoSave.
func WithStore(s ports.DraftStore) Option {
	return func(c *Controller) {
		c.store = s
	}
}

// WithFileStorage sets the upload collaborator used by AttachFiles.
func WithFileStorage(fs ports.FileStorage) Option {
	return func(c *Controller) {
		c.files = fs
	}
}

// WithUploadCategories replaces the category to MIME type allow-lists.
func WithUploadCategories(categories map[string][]string) Option {
	return func(c *Controller) {
		c.categories = categories
	}
}

// WithMaxUploadBytes sets the per-file size ceiling.
func WithMaxUploadBytes(n int64) Option {
	return func(c *Controller) {
		c.maxUpload = n
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithChangeListener registers a callback receiving the view after every change,
// including duplicate results that arrive asynchronously.
func WithChangeListener(fn func(domain.View)) Option {
	return func(c *Controller) {
		c.listeners = append(c.listeners, fn)
	}
}

// WithLogger configures a logger for the Controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}
