package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/dealreg"
	"github.com/aretw0/dealreg/pkg/runner"
)

// RunSession drives one session over JSON-Lines until input ends or ctx is cancelled.
// The draft is saved on exit unless it was submitted.
func RunSession(ctx context.Context, eng *dealreg.Engine, sessionID string, r io.Reader, w io.Writer, logger *slog.Logger) error {
	c, err := eng.Open(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("error opening session '%s': %w", sessionID, err)
	}
	defer eng.Registry().Remove(c.SessionID())

	logger.Debug("Running session", "session_id", c.SessionID())
	return runner.New(c,
		runner.WithIO(r, w),
		runner.WithLogger(logger),
		runner.WithSaveOnExit(),
	).Run(ctx)
}
