package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/wizard"
)

// Command is one JSON-Lines instruction.
type Command struct {
	Op     string         `json:"op"`
	Patch  map[string]any `json:"patch,omitempty"`
	FileID string         `json:"fileId,omitempty"`
}

// Response is the single line written for every Command.
type Response struct {
	Op             string                `json:"op"`
	View           *domain.View          `json:"view,omitempty"`
	Result         *wizard.Result        `json:"result,omitempty"`
	Review         *wizard.ReviewSummary `json:"review,omitempty"`
	ConfirmationID string                `json:"confirmationId,omitempty"`
	Error          string                `json:"error,omitempty"`
}

// JSONHandler reads Commands and writes Responses, one JSON object per line.
type JSONHandler struct {
	reader  *bufio.Reader
	mu      sync.Mutex
	encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO. Nil streams default to stdin/stdout.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		reader:  bufio.NewReader(r),
		encoder: json.NewEncoder(w),
	}
}

// Input reads the next non-blank line and decodes it.
// A malformed line is reported as ErrInvalidCommand so the loop can keep going.
func (h *JSONHandler) Input(_ context.Context) (Command, error) {
	for {
		line, err := h.reader.ReadString('\n')
		text := strings.TrimSpace(line)
		if text == "" {
			if err != nil {
				return Command{}, err
			}
			continue
		}

		var cmd Command
		if jerr := json.Unmarshal([]byte(text), &cmd); jerr != nil {
			return Command{}, fmt.Errorf("%w: %v", ErrInvalidCommand, jerr)
		}
		cmd.Op = strings.ToLower(strings.TrimSpace(cmd.Op))
		return cmd, nil
	}
}

// Output writes one response line.
func (h *JSONHandler) Output(_ context.Context, resp Response) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(resp)
}
