package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/dealreg/pkg/domain"
)

// BlobStore implements ports.FileStorage in memory.
type BlobStore struct {
	mu       sync.RWMutex
	blobs    map[string][]byte
	maxBytes int64
}

// NewBlobStore creates a blob store that refuses bodies larger than maxBytes.
// A non-positive maxBytes uses domain.MaxUploadBytes.
func NewBlobStore(maxBytes int64) *BlobStore {
	if maxBytes <= 0 {
		maxBytes = domain.MaxUploadBytes
	}
	return &BlobStore{blobs: make(map[string][]byte), maxBytes: maxBytes}
}

// Store reads the whole body. Declared sizes are not trusted.
func (b *BlobStore) Store(ctx context.Context, up domain.FileUpload) (domain.UploadedFile, error) {
	if err := ctx.Err(); err != nil {
		return domain.UploadedFile{}, err
	}
	if up.Body == nil {
		return domain.UploadedFile{}, fmt.Errorf("upload %q has no body", up.Name)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(up.Body, b.maxBytes+1))
	if err != nil {
		return domain.UploadedFile{}, fmt.Errorf("failed to read upload %q: %w", up.Name, err)
	}
	if n > b.maxBytes {
		return domain.UploadedFile{}, &domain.UploadError{
			File:   up.Name,
			Reason: domain.UploadTooLarge,
			Err:    fmt.Errorf("body exceeds %d bytes", b.maxBytes),
		}
	}

	id := uuid.NewString()
	b.mu.Lock()
	b.blobs[id] = buf.Bytes()
	b.mu.Unlock()

	return domain.UploadedFile{
		ID:        id,
		Name:      up.Name,
		SizeBytes: n,
		MimeType:  up.MimeType,
		Category:  up.Category,
		Handle:    "mem://" + id,
	}, nil
}

// Get returns the stored bytes of a file.
func (b *BlobStore) Get(id string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.blobs[id]
	return data, ok
}
