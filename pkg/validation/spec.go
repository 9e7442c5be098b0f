package validation

import (
	"fmt"
	"regexp"
)

// RuleSpec is the declarative form of a Rule, as found in configuration files.
type RuleSpec struct {
	Field          string   `yaml:"field" json:"field"`
	Required       bool     `yaml:"required,omitempty" json:"required,omitempty"`
	MinLength      int      `yaml:"minLength,omitempty" json:"minLength,omitempty"`
	MaxLength      int      `yaml:"maxLength,omitempty" json:"maxLength,omitempty"`
	Pattern        string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Email          bool     `yaml:"email,omitempty" json:"email,omitempty"`
	FutureDate     bool     `yaml:"futureDate,omitempty" json:"futureDate,omitempty"`
	PositiveNumber bool     `yaml:"positiveNumber,omitempty" json:"positiveNumber,omitempty"`
	OneOf          []string `yaml:"oneOf,omitempty" json:"oneOf,omitempty"`
}

// Compile turns specs into a RuleSet. Bad patterns and malformed bounds
// are all reported in one *AggregateError.
func Compile(specs []RuleSpec) (RuleSet, error) {
	rules := make([]Rule, 0, len(specs))
	var errs []error
	for i, s := range specs {
		r := Rule{
			Field:          s.Field,
			Required:       s.Required,
			MinLength:      s.MinLength,
			MaxLength:      s.MaxLength,
			Email:          s.Email,
			FutureDate:     s.FutureDate,
			PositiveNumber: s.PositiveNumber,
		}
		if s.Pattern != "" {
			re, err := regexp.Compile(s.Pattern)
			if err != nil {
				errs = append(errs, &DefinitionError{Index: i, Field: s.Field, Reason: fmt.Sprintf("bad pattern: %v", err)})
			} else {
				r.Pattern = re
			}
		}
		if len(s.OneOf) > 0 {
			r.Custom = OneOf(s.OneOf...)
		}
		rules = append(rules, r)
	}

	rs, err := NewRuleSet(rules...)
	if err != nil {
		errs = append(errs, DefinitionErrors(err)...)
	}
	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}
	return rs, nil
}
