package domain

// DuplicateState is the detector's observable state.
// Warning is set when the last lookup failed; Candidates is then empty.
type DuplicateState struct {
	Candidates []Candidate `json:"candidates"`
	Checking   bool        `json:"checking"`
	Warning    string      `json:"warning,omitempty"`
}

// View is the read model of one wizard session.
type View struct {
	SessionID      string            `json:"sessionId"`
	Steps          []Step            `json:"steps"`
	CurrentIndex   int               `json:"currentIndex"`
	CurrentStepID  string            `json:"currentStepId"`
	Draft          Draft             `json:"draft"`
	Errors         map[string]string `json:"errors"`
	Valid          bool              `json:"valid"`
	Duplicates     DuplicateState    `json:"duplicates"`
	Submitted      bool              `json:"submitted"`
	ConfirmationID string            `json:"confirmationId,omitempty"`
}
