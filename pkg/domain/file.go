package domain

import "io"

// MaxUploadBytes is the size ceiling for a single uploaded file (10 MiB).
const MaxUploadBytes int64 = 10 << 20

// Upload categories offered by the documentation step.
const (
	CategoryRFP          = "rfp"
	CategoryArchitecture = "architecture"
	CategoryEmail        = "email"
)

// DefaultUploadCategories maps each category to its accepted MIME types.
func DefaultUploadCategories() map[string][]string {
	return map[string][]string{
		CategoryRFP: {
			"application/pdf",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
		CategoryArchitecture: {"application/pdf", "image/png", "image/jpeg"},
		CategoryEmail:        {"message/rfc822", "application/pdf"},
	}
}

// UploadedFile describes a file already handed to the storage collaborator.
// Handle is the opaque reference the storage returned for the blob.
type UploadedFile struct {
	ID        string `json:"id" mapstructure:"id"`
	Name      string `json:"name" mapstructure:"name"`
	SizeBytes int64  `json:"sizeBytes" mapstructure:"sizeBytes"`
	MimeType  string `json:"mimeType" mapstructure:"mimeType"`
	Category  string `json:"category,omitempty" mapstructure:"category"`
	Handle    string `json:"handle,omitempty" mapstructure:"handle"`
}

// FileUpload is a file offered by the user, before storage.
type FileUpload struct {
	Name      string
	MimeType  string
	SizeBytes int64
	Category  string
	Body      io.Reader
}
