package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter      EventType = "step_enter"
	EventStepLeave      EventType = "step_leave"
	EventDuplicateCheck EventType = "duplicate_check"
	EventSubmit         EventType = "submit"
	EventAutoSave       EventType = "auto_save"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents entry into or exit from a step.
type StepEvent struct {
	EventBase
	StepID string `json:"step_id"`
	Index  int    `json:"index"`
}

// DuplicateEvent reports an applied duplicate lookup result.
type DuplicateEvent struct {
	EventBase
	Candidates int           `json:"candidates"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// SubmitEvent reports the outcome of a submission attempt.
type SubmitEvent struct {
	EventBase
	ConfirmationID string        `json:"confirmation_id,omitempty"`
	Invalid        bool          `json:"invalid,omitempty"`
	Duration       time.Duration `json:"duration"`
	Err            error         `json:"-"`
}

// SaveEvent reports a persisted snapshot.
type SaveEvent struct {
	EventBase
	Err error `json:"-"`
}

// LifecycleHooks defines callbacks for wizard observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnStepEnter      func(context.Context, *StepEvent)
	OnStepLeave      func(context.Context, *StepEvent)
	OnDuplicateCheck func(context.Context, *DuplicateEvent)
	OnSubmit         func(context.Context, *SubmitEvent)
	OnAutoSave       func(context.Context, *SaveEvent)
}
