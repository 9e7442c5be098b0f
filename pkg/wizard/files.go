package wizard

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/aretw0/dealreg/pkg/domain"
)

// AttachResult reports each file of a batch independently.
type AttachResult struct {
	Stored []domain.UploadedFile `json:"stored"`
	Failed []*domain.UploadError `json:"failed,omitempty"`
}

// AttachFiles checks each upload against the category allow-list and the size
// ceiling, stores the accepted ones and appends them to the draft.
// A failing file never affects the rest of the batch.
func (c *Controller) AttachFiles(ctx context.Context, category string, uploads ...domain.FileUpload) (AttachResult, error) {
	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		return AttachResult{}, domain.ErrAlreadySubmitted
	}
	allowed, known := c.categories[category]
	maxBytes := c.maxUpload
	storage := c.files
	c.mu.Unlock()

	res := AttachResult{Stored: []domain.UploadedFile{}}
	for _, up := range uploads {
		up.Category = category
		if !known {
			res.Failed = append(res.Failed, &domain.UploadError{
				File:   up.Name,
				Reason: domain.UploadUnsupportedType,
				Err:    fmt.Errorf("unknown upload category %q", category),
			})
			continue
		}
		if uerr := checkUpload(up, allowed, maxBytes); uerr != nil {
			res.Failed = append(res.Failed, uerr)
			continue
		}
		if storage == nil {
			res.Failed = append(res.Failed, &domain.UploadError{File: up.Name, Reason: domain.UploadTransportFailure, Err: ErrNoFileStorage})
			continue
		}

		stored, err := storage.Store(ctx, up)
		if err != nil {
			var uerr *domain.UploadError
			if !errors.As(err, &uerr) {
				uerr = &domain.UploadError{File: up.Name, Reason: domain.UploadTransportFailure, Err: err}
			}
			c.logger.Warn("Upload failed", "file", up.Name, "reason", uerr.Reason, "err", err)
			res.Failed = append(res.Failed, uerr)
			continue
		}
		if stored.Category == "" {
			stored.Category = category
		}
		c.logger.Debug("File stored", "session_id", c.sessionID, "file", stored.Name, "category", stored.Category, "handle", stored.Handle)
		res.Stored = append(res.Stored, stored)
	}

	if len(res.Stored) == 0 {
		return res, nil
	}

	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		return AttachResult{}, domain.ErrAlreadySubmitted
	}
	c.draft.UploadedFiles = append(c.draft.UploadedFiles, res.Stored...)
	c.errors = c.engine.Evaluate(c.rules, c.fieldsLocked())
	c.mu.Unlock()

	c.publish()
	return res, nil
}

// RemoveFile drops an uploaded file from the draft.
func (c *Controller) RemoveFile(ctx context.Context, fileID string) error {
	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		return domain.ErrAlreadySubmitted
	}
	idx := -1
	for i, f := range c.draft.UploadedFiles {
		if f.ID == fileID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}
	files := make([]domain.UploadedFile, 0, len(c.draft.UploadedFiles)-1)
	files = append(files, c.draft.UploadedFiles[:idx]...)
	files = append(files, c.draft.UploadedFiles[idx+1:]...)
	c.draft.UploadedFiles = files
	c.errors = c.engine.Evaluate(c.rules, c.fieldsLocked())
	c.mu.Unlock()

	c.publish()
	return nil
}

func checkUpload(up domain.FileUpload, allowed []string, maxBytes int64) *domain.UploadError {
	if maxBytes > 0 && up.SizeBytes > maxBytes {
		return &domain.UploadError{
			File:   up.Name,
			Reason: domain.UploadTooLarge,
			Err:    fmt.Errorf("%d bytes exceeds the %d byte limit", up.SizeBytes, maxBytes),
		}
	}
	mt := normalizeMIME(up.MimeType)
	for _, a := range allowed {
		if normalizeMIME(a) == mt {
			return nil
		}
	}
	return &domain.UploadError{
		File:   up.Name,
		Reason: domain.UploadUnsupportedType,
		Err:    fmt.Errorf("type %q is not accepted for category %q", up.MimeType, up.Category),
	}
}

func normalizeMIME(s string) string {
	if mt, _, err := mime.ParseMediaType(s); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(s))
}
