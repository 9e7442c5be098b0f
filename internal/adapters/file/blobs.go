package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/aretw0/dealreg/pkg/domain"
)

// BlobStore implements ports.FileStorage on the local filesystem.
// Each upload is written as <id>.bin next to an <id>.json descriptor.
type BlobStore struct {
	BasePath string
	maxBytes int64
}

// BlobOption configures a BlobStore.
type BlobOption func(*BlobStore)

// WithMaxBytes overrides the per-file ceiling. Non-positive values keep the default.
func WithMaxBytes(n int64) BlobOption {
	return func(b *BlobStore) {
		if n > 0 {
			b.maxBytes = n
		}
	}
}

// NewBlobStore creates a BlobStore rooted at basePath.
// If basePath is empty, it defaults to ".dealreg/files".
func NewBlobStore(basePath string, opts ...BlobOption) *BlobStore {
	if basePath == "" {
		basePath = filepath.Join(".dealreg", "files")
	}
	b := &BlobStore{BasePath: basePath, maxBytes: domain.MaxUploadBytes}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Store copies the upload body to disk and returns its descriptor.
// The body is cut at the upload ceiling so a lying SizeBytes cannot fill the disk.
func (b *BlobStore) Store(ctx context.Context, upload domain.FileUpload) (domain.UploadedFile, error) {
	if upload.Body == nil {
		return domain.UploadedFile{}, &domain.UploadError{
			File:   upload.Name,
			Reason: domain.UploadTransportFailure,
			Err:    errors.New("upload has no body"),
		}
	}
	if err := os.MkdirAll(b.BasePath, 0755); err != nil {
		return domain.UploadedFile{}, transportErr(upload.Name, err)
	}

	id := uuid.NewString()
	blobPath := filepath.Join(b.BasePath, id+".bin")

	f, err := os.Create(blobPath)
	if err != nil {
		return domain.UploadedFile{}, transportErr(upload.Name, err)
	}
	n, err := io.Copy(f, io.LimitReader(upload.Body, b.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		_ = os.Remove(blobPath)
		return domain.UploadedFile{}, transportErr(upload.Name, err)
	}
	if n > b.maxBytes {
		_ = os.Remove(blobPath)
		return domain.UploadedFile{}, &domain.UploadError{
			File:   upload.Name,
			Reason: domain.UploadTooLarge,
			Err:    fmt.Errorf("file exceeds %d bytes", b.maxBytes),
		}
	}

	file := domain.UploadedFile{
		ID:        id,
		Name:      upload.Name,
		SizeBytes: n,
		MimeType:  upload.MimeType,
		Category:  upload.Category,
		Handle:    "file://" + filepath.ToSlash(blobPath),
	}
	meta, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		_ = os.Remove(blobPath)
		return domain.UploadedFile{}, transportErr(upload.Name, err)
	}
	if err := writeAtomic(b.BasePath, filepath.Join(b.BasePath, id+".json"), "tmp-"+id+"-*.json", meta); err != nil {
		_ = os.Remove(blobPath)
		return domain.UploadedFile{}, transportErr(upload.Name, err)
	}
	return file, nil
}

// Open returns the stored body and descriptor of a file.
func (b *BlobStore) Open(id string) (io.ReadCloser, domain.UploadedFile, error) {
	if id == "" || strings.ContainsAny(id, `/\.`) {
		return nil, domain.UploadedFile{}, fmt.Errorf("invalid file id %q", id)
	}
	data, err := os.ReadFile(filepath.Join(b.BasePath, id+".json"))
	if err != nil {
		return nil, domain.UploadedFile{}, fmt.Errorf("failed to read file descriptor: %w", err)
	}
	var file domain.UploadedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, domain.UploadedFile{}, fmt.Errorf("failed to decode file descriptor: %w", err)
	}
	body, err := os.Open(filepath.Join(b.BasePath, id+".bin"))
	if err != nil {
		return nil, domain.UploadedFile{}, fmt.Errorf("failed to open file body: %w", err)
	}
	return body, file, nil
}

func transportErr(name string, err error) *domain.UploadError {
	return &domain.UploadError{File: name, Reason: domain.UploadTransportFailure, Err: err}
}
