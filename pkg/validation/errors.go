package validation

import "fmt"

// DefinitionError represents a single malformed rule.
type DefinitionError struct {
	Index  int    // Position of the rule in its set
	Field  string // Field the rule is bound to, if any
	Reason string
}

func (e *DefinitionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("rule %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("rule %d (%s): %s", e.Index, e.Field, e.Reason)
}

// AggregateError represents multiple malformed rules.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d invalid rules:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// DefinitionErrors returns all rule errors if err is an AggregateError.
// Otherwise returns nil.
func DefinitionErrors(err error) []error {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}
