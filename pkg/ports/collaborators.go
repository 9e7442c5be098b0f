package ports

import (
	"context"

	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/sanitize"
)

// DuplicateLookup queries prior submissions for conflicts with a draft.
// No results is an empty slice, never an error; errors mean transport failure.
type DuplicateLookup interface {
	Lookup(ctx context.Context, companyName, domain string) ([]domain.Candidate, error)
}

// LookupFunc adapts a function to DuplicateLookup.
type LookupFunc func(ctx context.Context, companyName, domain string) ([]domain.Candidate, error)

func (f LookupFunc) Lookup(ctx context.Context, companyName, domainName string) ([]domain.Candidate, error) {
	return f(ctx, companyName, domainName)
}

// FileStorage stores uploaded blobs.
// Size and type checks happen before Store is called.
type FileStorage interface {
	Store(ctx context.Context, upload domain.FileUpload) (domain.UploadedFile, error)
}

// Submitter hands a sanitized payload to the system of record and returns its confirmation ID.
type Submitter interface {
	Submit(ctx context.Context, payload sanitize.Payload) (string, error)
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(ctx context.Context, payload sanitize.Payload) (string, error)

func (f SubmitFunc) Submit(ctx context.Context, payload sanitize.Payload) (string, error) {
	return f(ctx, payload)
}
