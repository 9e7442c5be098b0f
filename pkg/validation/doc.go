// Package validation evaluates declarative field rules against a draft.
//
// A RuleSet is an ordered list of Rules. Evaluation is pure: the same rules and
// field values always produce the same ErrorMap, and the map is rebuilt from scratch
// on every call. For each field the first failing check wins, in this order:
//
//  1. required
//  2. skip everything else when the value is blank and not required
//  3. email
//  4. pattern
//  5. minLength / maxLength
//  6. futureDate
//  7. positiveNumber
//  8. custom
//
// Basic usage:
//
//	rules := validation.DefaultRules()
//	errs := validation.New().Evaluate(rules, draft.Fields())
//	if !errs.IsValid() {
//	    // errs["domain"] == "Enter a valid domain like example.com."
//	}
//
// Rule sets can also be declared in YAML and compiled with Compile.
// Malformed definitions are reported as an *AggregateError.
package validation
