package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/dealreg/internal/presentation/graph"
	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/ports"
)

// ListSessions prints the saved session IDs.
func ListSessions(ctx context.Context, store ports.DraftStore, w io.Writer) error {
	sessions, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(w, "No saved sessions found.")
		return nil
	}

	fmt.Fprintln(w, "Saved Sessions:")
	for _, s := range sessions {
		fmt.Fprintln(w, "- "+s)
	}
	return nil
}

// InspectSession prints a saved snapshot as indented JSON, or its step flow as Mermaid.
func InspectSession(ctx context.Context, store ports.DraftStore, sessionID string, mermaid bool, w io.Writer) error {
	snap, err := store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", sessionID, err)
	}

	if mermaid {
		steps := domain.DefaultSteps()
		current := max(domain.IndexOf(steps, snap.CurrentStepID), 0)
		fmt.Fprint(w, graph.GenerateMermaid(domain.WithStatuses(steps, current)))
		return nil
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling session: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// RemoveSessions deletes each session, reporting every failure.
func RemoveSessions(ctx context.Context, store ports.DraftStore, ids []string, w io.Writer) error {
	var errs []error
	for _, sessionID := range ids {
		if err := store.Delete(ctx, sessionID); err != nil {
			errs = append(errs, fmt.Errorf("error removing '%s': %w", sessionID, err))
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", sessionID)
	}
	return errors.Join(errs...)
}
