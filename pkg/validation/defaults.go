package validation

import "github.com/aretw0/dealreg/pkg/domain"

// Option values offered by the wizard's select fields.
var (
	DealStages    = []string{"lead", "qualified", "proposal", "negotiation", "closed-won"}
	ContractTypes = []string{"new", "expansion", "renewal"}
)

// stepFields lists the fields each step edits.
var stepFields = map[string][]string{
	domain.StepQuickCheck: {domain.FieldCompanyName, domain.FieldDomain},
	domain.StepCoreInfo: {
		domain.FieldPartnerCompany, domain.FieldPartnerType, domain.FieldSubmitterName,
		domain.FieldSubmitterEmail, domain.FieldTerritory, domain.FieldCustomerLegalName,
		domain.FieldCustomerIndustry, domain.FieldCustomerCompanySize, domain.FieldCustomerRevenue,
		domain.FieldCustomerLocation,
	},
	domain.StepDealIntelligence: {
		domain.FieldDealStage, domain.FieldExpectedCloseDate, domain.FieldDealValue,
		domain.FieldContractType, domain.FieldPrimaryProduct,
	},
	domain.StepDocumentation: {domain.FieldAdditionalNotes, domain.FieldUploadedFiles},
	domain.StepReview:        {domain.FieldAgreedToTerms},
}

// DefaultRules is the global gate checked before submission.
// primaryProduct, customerCompanySize and customerRevenue are optional.
func DefaultRules() RuleSet {
	return MustRuleSet(
		Rule{Field: domain.FieldCompanyName, Required: true, MinLength: 2, MaxLength: 200},
		Rule{Field: domain.FieldDomain, Required: true, Pattern: DomainPattern},

		Rule{Field: domain.FieldPartnerCompany, Required: true},
		Rule{Field: domain.FieldPartnerType},
		Rule{Field: domain.FieldSubmitterName, Required: true, MaxLength: 120},
		Rule{Field: domain.FieldSubmitterEmail, Required: true, Email: true},
		Rule{Field: domain.FieldTerritory, Required: true},
		Rule{Field: domain.FieldCustomerLegalName, MaxLength: 200},
		Rule{Field: domain.FieldCustomerIndustry, Required: true},
		Rule{Field: domain.FieldCustomerCompanySize},
		Rule{Field: domain.FieldCustomerRevenue},
		Rule{Field: domain.FieldCustomerLocation, Required: true},

		Rule{Field: domain.FieldDealStage, Required: true, Custom: OneOf(DealStages...)},
		Rule{Field: domain.FieldExpectedCloseDate, Required: true, FutureDate: true},
		Rule{Field: domain.FieldDealValue, Required: true, PositiveNumber: true},
		Rule{Field: domain.FieldContractType, Required: true, Custom: OneOf(ContractTypes...)},
		Rule{Field: domain.FieldPrimaryProduct},

		Rule{Field: domain.FieldAdditionalNotes, MaxLength: 2000},
	)
}

// TermsRule requires the terms checkbox on the review step.
func TermsRule() Rule {
	return Rule{Field: domain.FieldAgreedToTerms, Required: true}
}

// StepRules returns the rules of rs bound to the fields edited on stepID.
// Unknown steps have no rules.
func StepRules(rs RuleSet, stepID string) RuleSet {
	return rs.Only(stepFields[stepID]...)
}

// StepFields returns the fields edited on stepID.
func StepFields(stepID string) []string {
	fields := stepFields[stepID]
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}
