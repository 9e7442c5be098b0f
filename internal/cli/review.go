package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/dealreg"
	"github.com/aretw0/dealreg/internal/presentation/tui"
)

// PrintReview renders the review summary of a saved session.
// The session is released afterwards without saving.
func PrintReview(ctx context.Context, eng *dealreg.Engine, sessionID string, asJSON bool, w io.Writer) error {
	c, err := eng.Resume(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", sessionID, err)
	}
	defer eng.Registry().Remove(sessionID)

	summary := c.Review()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return tui.Print(w, tui.ReviewMarkdown(summary))
}
