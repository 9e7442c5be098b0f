package validation

import (
	"fmt"
	"regexp"
)

// Rule is a set of checks bound to one field.
// Zero values disable a check.
type Rule struct {
	Field          string
	Required       bool
	MinLength      int
	MaxLength      int
	Pattern        *regexp.Regexp
	Email          bool
	FutureDate     bool
	PositiveNumber bool
	// Custom returns an error message, or "" when the value is acceptable.
	Custom func(value any) string
}

// RuleSet is an ordered list of rules.
type RuleSet []Rule

// Fields returns the distinct fields covered by the set, in order.
func (rs RuleSet) Fields() []string {
	seen := make(map[string]bool, len(rs))
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		if !seen[r.Field] {
			seen[r.Field] = true
			out = append(out, r.Field)
		}
	}
	return out
}

// Only returns the subset of rules bound to the given fields, preserving order.
func (rs RuleSet) Only(fields ...string) RuleSet {
	want := make(map[string]bool, len(fields))
	for _, f := range fields {
		want[f] = true
	}
	var out RuleSet
	for _, r := range rs {
		if want[r.Field] {
			out = append(out, r)
		}
	}
	return out
}

// With returns a copy of the set with extra rules appended.
func (rs RuleSet) With(rules ...Rule) RuleSet {
	out := make(RuleSet, 0, len(rs)+len(rules))
	out = append(out, rs...)
	return append(out, rules...)
}

// NewRuleSet checks rule definitions and returns them as a RuleSet.
// All malformed rules are reported together.
func NewRuleSet(rules ...Rule) (RuleSet, error) {
	var errs []error
	for i, r := range rules {
		if r.Field == "" {
			errs = append(errs, &DefinitionError{Index: i, Reason: "field name is empty"})
			continue
		}
		if r.MinLength < 0 {
			errs = append(errs, &DefinitionError{Index: i, Field: r.Field, Reason: fmt.Sprintf("negative minLength %d", r.MinLength)})
		}
		if r.MaxLength < 0 {
			errs = append(errs, &DefinitionError{Index: i, Field: r.Field, Reason: fmt.Sprintf("negative maxLength %d", r.MaxLength)})
		}
		if r.MinLength > 0 && r.MaxLength > 0 && r.MinLength > r.MaxLength {
			errs = append(errs, &DefinitionError{
				Index:  i,
				Field:  r.Field,
				Reason: fmt.Sprintf("minLength %d exceeds maxLength %d", r.MinLength, r.MaxLength),
			})
		}
	}
	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}
	return RuleSet(rules), nil
}

// MustRuleSet is like NewRuleSet but panics on malformed rules.
func MustRuleSet(rules ...Rule) RuleSet {
	rs, err := NewRuleSet(rules...)
	if err != nil {
		panic(err)
	}
	return rs
}
