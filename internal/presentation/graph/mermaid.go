package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/dealreg/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of the wizard steps.
// It applies semantic styling:
// - First step: ((Circle))
// - Terminal step: [[Subroutine]]
// - Default: [Rectangle]
// Statuses, when set, are rendered as completed/current classes.
func GenerateMermaid(steps []domain.Step) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	var completed []string
	current := ""
	for i, step := range steps {
		safeID := sanitizeMermaidID(step.ID)

		opener, closer := "[", "]"
		switch {
		case i == 0:
			opener, closer = "((", "))"
		case i == len(steps)-1:
			opener, closer = "[[", "]]"
		}
		label := strings.ReplaceAll(step.Title, "\"", "'")
		if label == "" {
			label = step.ID
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%d. %s\"%s\n", safeID, opener, i+1, label, closer))

		if i > 0 {
			prev := sanitizeMermaidID(steps[i-1].ID)
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, safeID))
		}

		switch step.Status {
		case domain.StepCompleted:
			completed = append(completed, safeID)
		case domain.StepCurrent:
			current = safeID
		}
	}

	if len(completed) > 0 || current != "" {
		sb.WriteString("\n    %% Progress Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, id := range completed {
			sb.WriteString(fmt.Sprintf("    class %s completed;\n", id))
		}
		if current != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", current))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
