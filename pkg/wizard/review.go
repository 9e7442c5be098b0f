package wizard

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/validation"
)

// Approval thresholds in USD.
const (
	StandardReviewThreshold   = 100_000
	EnterpriseReviewThreshold = 500_000
)

// Approval describes who signs off a deal and how long it usually takes.
type Approval struct {
	Tier          string `json:"tier"`
	Route         string `json:"route"`
	EstimatedTime string `json:"estimatedTime"`
}

// ApprovalFor returns the approval route for a deal value.
func ApprovalFor(value float64) Approval {
	switch {
	case value > EnterpriseReviewThreshold:
		return Approval{
			Tier:          "enterprise",
			Route:         "Enterprise Sales Director + Regional VP",
			EstimatedTime: "24-48 hours (Manual review required)",
		}
	case value > StandardReviewThreshold:
		return Approval{
			Tier:          "standard",
			Route:         "Regional Sales Manager + Partner Manager",
			EstimatedTime: "4-24 hours (Standard review)",
		}
	default:
		return Approval{
			Tier:          "fast-track",
			Route:         "Auto-approval with Partner Manager notification",
			EstimatedTime: "Under 4 hours (Fast-track approval)",
		}
	}
}

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders an amount as whole US dollars, e.g. "$150,000".
func FormatUSD(value float64) string {
	n := int64(math.Round(value))
	if n < 0 {
		return usd.Sprintf("-$%d", -n)
	}
	return usd.Sprintf("$%d", n)
}

// ReviewSummary is the read model of the review step.
type ReviewSummary struct {
	SessionID  string              `json:"sessionId"`
	Draft      domain.Draft        `json:"draft"`
	DealValue  string              `json:"dealValue"`
	Approval   Approval            `json:"approval"`
	Files      int                 `json:"files"`
	Duplicates []domain.Candidate  `json:"duplicates"`
	Errors     validation.ErrorMap `json:"errors"`
	Valid      bool                `json:"valid"`
}

// Review summarizes the draft for final confirmation.
// An unreadable deal value is shown as "Not specified" and routed as zero.
func (c *Controller) Review() ReviewSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := ReviewSummary{
		SessionID:  c.sessionID,
		Draft:      c.draft.Clone(),
		DealValue:  "Not specified",
		Files:      len(c.draft.UploadedFiles),
		Duplicates: c.duplicatesLocked().Candidates,
		Errors:     c.errors.Clone(),
		Valid:      c.errors.IsValid(),
	}
	var amount float64
	if c.draft.DealValue != "" {
		if v, ok := validation.ParseAmount(c.draft.DealValue); ok {
			amount = v
			s.DealValue = FormatUSD(v)
		}
	}
	s.Approval = ApprovalFor(amount)
	return s
}
