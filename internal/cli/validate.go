package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/aretw0/dealreg/internal/config"
	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/validation"
)

// ErrDraftInvalid is returned by ValidateDraftFile when a field fails.
var ErrDraftInvalid = errors.New("draft is invalid")

// ValidateRules compiles the configured rules and reports every malformed one.
func ValidateRules(cfg config.Config, w io.Writer) (validation.RuleSet, error) {
	rules, err := cfg.RuleSet()
	if err != nil {
		if defs := validation.DefinitionErrors(err); len(defs) > 0 {
			for _, d := range defs {
				fmt.Fprintf(w, "- %v\n", d)
			}
			return nil, fmt.Errorf("found %d invalid rules", len(defs))
		}
		return nil, err
	}
	if len(cfg.Rules) == 0 {
		fmt.Fprintf(w, "Using default rules (%d fields).\n", len(rules.Fields()))
	} else {
		fmt.Fprintf(w, "Rules are valid (%d fields).\n", len(rules.Fields()))
	}
	return rules, nil
}

// ValidateDraftFile evaluates rules against a JSON draft file.
func ValidateDraftFile(rules validation.RuleSet, path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read draft: %w", err)
	}
	var patch domain.Patch
	if err := json.Unmarshal(data, &patch); err != nil {
		return fmt.Errorf("failed to parse draft %s: %w", path, err)
	}
	var d domain.Draft
	if err := d.Apply(patch); err != nil {
		return err
	}

	errs := validation.New().EvaluateDraft(rules, d)
	if errs.IsValid() {
		fmt.Fprintln(w, "Draft is valid.")
		return nil
	}

	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(w, "- %s: %s\n", f, errs[f])
	}
	return fmt.Errorf("%w: %d fields failed", ErrDraftInvalid, len(errs))
}
