package tui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/aretw0/dealreg/pkg/wizard"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Print writes markdown to w, styled when w is a terminal and raw otherwise.
func Print(w io.Writer, markdown string) error {
	if IsTerminal(w) {
		out, err := NewRenderer()(markdown)
		if err == nil {
			markdown = out
		}
	}
	_, err := io.WriteString(w, markdown)
	return err
}

// ReviewMarkdown renders the review step of a session as markdown.
func ReviewMarkdown(s wizard.ReviewSummary) string {
	var sb strings.Builder
	d := s.Draft

	fmt.Fprintf(&sb, "# Deal Registration Review\n\n")
	fmt.Fprintf(&sb, "Session `%s`\n\n", s.SessionID)

	sb.WriteString("## Customer\n\n")
	row(&sb, "Company", d.CompanyName)
	row(&sb, "Domain", d.Domain)
	row(&sb, "Legal name", d.CustomerLegalName)
	row(&sb, "Industry", d.CustomerIndustry)
	row(&sb, "Location", d.CustomerLocation)
	sb.WriteString("\n## Partner\n\n")
	row(&sb, "Company", d.PartnerCompany)
	row(&sb, "Type", d.PartnerType)
	row(&sb, "Submitter", strings.TrimSpace(d.SubmitterName+" "+angle(d.SubmitterEmail)))
	row(&sb, "Territory", d.Territory)
	sb.WriteString("\n## Opportunity\n\n")
	row(&sb, "Deal value", s.DealValue)
	row(&sb, "Stage", d.DealStage)
	row(&sb, "Expected close", d.ExpectedCloseDate)
	row(&sb, "Contract", d.ContractType)
	row(&sb, "Product", d.PrimaryProduct)
	row(&sb, "Files", fmt.Sprintf("%d attached", s.Files))

	sb.WriteString("\n## Approval\n\n")
	fmt.Fprintf(&sb, "**%s** via %s. Expect %s.\n", s.Approval.Tier, s.Approval.Route, s.Approval.EstimatedTime)

	if len(s.Duplicates) > 0 {
		sb.WriteString("\n## Possible duplicates\n\n")
		sb.WriteString("| Company | Domain | Partner | Status | Submitted |\n|---|---|---|---|---|\n")
		for _, c := range s.Duplicates {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n", c.CompanyName, c.Domain, c.Partner, c.Status, c.SubmittedDate)
		}
	}

	if s.Valid {
		sb.WriteString("\n> Ready to submit.\n")
		return sb.String()
	}
	sb.WriteString("\n## Needs attention\n\n")
	fields := make([]string, 0, len(s.Errors))
	for f := range s.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(&sb, "- `%s`: %s\n", f, s.Errors[f])
	}
	return sb.String()
}

func row(sb *strings.Builder, label, value string) {
	if value == "" {
		value = "_not specified_"
	}
	fmt.Fprintf(sb, "- **%s**: %s\n", label, value)
}

func angle(email string) string {
	if email == "" {
		return ""
	}
	return "<" + email + ">"
}
