package domain

// StepStatus is the position of a step relative to the current one.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepCurrent   StepStatus = "current"
	StepUpcoming  StepStatus = "upcoming"
)

// Step identifiers of the default registration flow.
const (
	StepQuickCheck       = "quick-check"
	StepCoreInfo         = "core-info"
	StepDealIntelligence = "deal-intelligence"
	StepDocumentation    = "documentation"
	StepReview           = "review"
)

// Step is one page of the wizard.
type Step struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Status      StepStatus `json:"status" yaml:"status"`
}

// DefaultSteps returns the registration flow in order.
// The last step is terminal: it is the only one from which a draft can be submitted.
func DefaultSteps() []Step {
	return []Step{
		{ID: StepQuickCheck, Title: "Quick Check", Description: "Duplicate detection"},
		{ID: StepCoreInfo, Title: "Core Info", Description: "Partner & customer"},
		{ID: StepDealIntelligence, Title: "Deal Intelligence", Description: "Opportunity details"},
		{ID: StepDocumentation, Title: "Documentation", Description: "Supporting files"},
		{ID: StepReview, Title: "Review", Description: "Final submission"},
	}
}

// WithStatuses returns a copy of steps with statuses derived from the current index.
// Exactly one step is current, earlier steps are completed and later ones upcoming.
func WithStatuses(steps []Step, current int) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		switch {
		case i < current:
			s.Status = StepCompleted
		case i == current:
			s.Status = StepCurrent
		default:
			s.Status = StepUpcoming
		}
		out[i] = s
	}
	return out
}

// IndexOf returns the position of the step with the given id, or -1.
func IndexOf(steps []Step, id string) int {
	for i, s := range steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}
