package validation

import (
	"fmt"
	"time"

	"github.com/aretw0/dealreg/pkg/domain"
)

// Messages shown to users.
const (
	MsgRequired       = "This field is required."
	MsgEmail          = "Enter a valid email."
	MsgDomain         = "Enter a valid domain like example.com."
	MsgPattern        = "Invalid format."
	MsgMinLength      = "Minimum %d characters required."
	MsgMaxLength      = "Maximum %d characters allowed."
	MsgInvalidDate    = "Enter a valid date."
	MsgFutureDate     = "Choose a future date."
	MsgPositiveNumber = "Enter a positive amount."
)

// ErrorMap maps field names to a message. A missing key means the field is valid.
type ErrorMap map[string]string

// IsValid reports whether no field failed.
func (m ErrorMap) IsValid() bool { return len(m) == 0 }

// Clone returns a copy of the map.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Engine evaluates rule sets. Its only state is the clock used by futureDate.
type Engine struct {
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Engine using the wall clock unless configured otherwise.
func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs every rule against fields and returns a fresh ErrorMap.
// Fields absent from the map are treated as blank.
func (e *Engine) Evaluate(rules RuleSet, fields map[string]any) ErrorMap {
	errs := make(ErrorMap)
	today := e.now()
	for _, r := range rules {
		if _, failed := errs[r.Field]; failed {
			continue
		}
		if msg := check(r, fields[r.Field], today); msg != "" {
			errs[r.Field] = msg
		}
	}
	return errs
}

// EvaluateDraft is Evaluate over the flat field view of a draft.
func (e *Engine) EvaluateDraft(rules RuleSet, d domain.Draft) ErrorMap {
	return e.Evaluate(rules, d.Fields())
}

// Evaluate runs rules with the wall clock.
func Evaluate(rules RuleSet, fields map[string]any) ErrorMap {
	return New().Evaluate(rules, fields)
}

func check(r Rule, value any, now time.Time) string {
	if isBlank(value) {
		if r.Required {
			return MsgRequired
		}
		return ""
	}

	if r.Email && !isEmail(value) {
		return MsgEmail
	}
	if r.Pattern != nil && !r.Pattern.MatchString(text(value)) {
		if r.Field == domain.FieldDomain {
			return MsgDomain
		}
		return MsgPattern
	}
	if r.MinLength > 0 || r.MaxLength > 0 {
		n := length(value)
		if r.MinLength > 0 && n < r.MinLength {
			return fmt.Sprintf(MsgMinLength, r.MinLength)
		}
		if r.MaxLength > 0 && n > r.MaxLength {
			return fmt.Sprintf(MsgMaxLength, r.MaxLength)
		}
	}
	if r.FutureDate {
		if msg := checkFutureDate(value, now); msg != "" {
			return msg
		}
	}
	if r.PositiveNumber && !isPositiveNumber(value) {
		return MsgPositiveNumber
	}
	if r.Custom != nil {
		return r.Custom(value)
	}
	return ""
}
