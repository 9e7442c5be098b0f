package domain

import "time"

// Snapshot is the recoverable form of a wizard session.
// It carries the draft and its pending errors, never transient async state.
type Snapshot struct {
	SessionID     string            `json:"sessionId"`
	CurrentStepID string            `json:"currentStepId"`
	Draft         Draft             `json:"draft"`
	Errors        map[string]string `json:"errors,omitempty"`
	SavedAt       time.Time         `json:"savedAt"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	next := *s
	next.Draft = s.Draft.Clone()
	if s.Errors != nil {
		next.Errors = make(map[string]string, len(s.Errors))
		for k, v := range s.Errors {
			next.Errors[k] = v
		}
	}
	return &next
}
