package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrAlreadySubmitted is returned when a wizard is used after a successful submission.
var ErrAlreadySubmitted = errors.New("draft already submitted")

// ErrInvalidPatch is returned when a patch value cannot be decoded into its field.
var ErrInvalidPatch = errors.New("invalid patch")

// ValidationError blocks the submit transition. Errors maps field to message.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("draft is invalid: %s", strings.Join(fields, ", "))
}

// UploadReason classifies an upload failure.
type UploadReason string

const (
	UploadTooLarge         UploadReason = "TooLarge"
	UploadUnsupportedType  UploadReason = "UnsupportedType"
	UploadTransportFailure UploadReason = "TransportFailure"
)

// UploadError is reported per file and never affects the rest of a batch.
type UploadError struct {
	File   string       `json:"file"`
	Reason UploadReason `json:"reason"`
	Err    error        `json:"-"`
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload %q failed (%s): %v", e.File, e.Reason, e.Err)
	}
	return fmt.Sprintf("upload %q failed (%s)", e.File, e.Reason)
}

func (e *UploadError) Unwrap() error { return e.Err }

// DuplicateCheckError is a soft warning: the check could not complete and
// the wizard continues as if there were no candidates.
type DuplicateCheckError struct {
	Err error
}

func (e *DuplicateCheckError) Error() string {
	return fmt.Sprintf("duplicate check could not complete: %v", e.Err)
}

func (e *DuplicateCheckError) Unwrap() error { return e.Err }

// SubmissionError means the submission collaborator failed or timed out.
// The draft and the step position are preserved; the call may be retried.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// BoundaryError is returned when navigating past either end of the step sequence
// or submitting from a non-terminal step.
type BoundaryError struct {
	Op     string
	StepID string
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("cannot %s from step %q", e.Op, e.StepID)
}
