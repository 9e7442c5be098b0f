package domain

import (
	"reflect"
)

// ViewDiff represents the changes between two views of the same session.
// It is serialized to JSON for partial updates on streaming clients.
type ViewDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"sessionId"`

	CurrentStepID *string `json:"currentStepId,omitempty"`

	// Fields contains only changed, added or deleted draft fields.
	// For deletions, the key is present with a nil value.
	Fields map[string]any `json:"fields,omitempty"`

	// Errors is the full error map whenever it changed (never patched).
	Errors map[string]string `json:"errors,omitempty"`

	Valid *bool `json:"valid,omitempty"`

	// Duplicates is the whole detector state whenever it changed.
	Duplicates *DuplicateState `json:"duplicates,omitempty"`

	Submitted *bool `json:"submitted,omitempty"`
}

// Diff calculates the difference between oldView and newView.
// If oldView is nil, it returns a diff representing the entire newView (initial load).
func Diff(oldView, newView *View) *ViewDiff {
	if newView == nil {
		return nil
	}

	diff := &ViewDiff{SessionID: newView.SessionID}

	if oldView == nil || oldView.CurrentStepID != newView.CurrentStepID {
		diff.CurrentStepID = &newView.CurrentStepID
	}
	if oldView == nil || oldView.Valid != newView.Valid {
		diff.Valid = &newView.Valid
	}
	if oldView == nil || oldView.Submitted != newView.Submitted {
		diff.Submitted = &newView.Submitted
	}

	var oldFields map[string]any
	if oldView != nil {
		oldFields = oldView.Draft.Fields()
	}
	diff.Fields = diffFields(oldFields, newView.Draft.Fields())

	if oldView == nil || !reflect.DeepEqual(oldView.Errors, newView.Errors) {
		diff.Errors = make(map[string]string, len(newView.Errors))
		for k, v := range newView.Errors {
			diff.Errors[k] = v
		}
	}
	if oldView == nil || !reflect.DeepEqual(oldView.Duplicates, newView.Duplicates) {
		dup := newView.Duplicates
		diff.Duplicates = &dup
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffFields(old, new map[string]any) map[string]any {
	delta := make(map[string]any)

	for k, newVal := range new {
		oldVal, exists := old[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}
	for k := range old {
		if _, exists := new[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *ViewDiff) IsEmpty() bool {
	return d.CurrentStepID == nil &&
		d.Valid == nil &&
		d.Submitted == nil &&
		len(d.Fields) == 0 &&
		d.Errors == nil &&
		d.Duplicates == nil
}
