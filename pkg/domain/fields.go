package domain

// Field names as they appear on the wire and in rule definitions.
const (
	FieldCompanyName = "companyName"
	FieldDomain      = "domain"

	FieldPartnerCompany      = "partnerCompany"
	FieldPartnerType         = "partnerType"
	FieldSubmitterName       = "submitterName"
	FieldSubmitterEmail      = "submitterEmail"
	FieldTerritory           = "territory"
	FieldCustomerLegalName   = "customerLegalName"
	FieldCustomerIndustry    = "customerIndustry"
	FieldCustomerCompanySize = "customerCompanySize"
	FieldCustomerRevenue     = "customerRevenue"
	FieldCustomerLocation    = "customerLocation"

	FieldDealStage         = "dealStage"
	FieldExpectedCloseDate = "expectedCloseDate"
	FieldDealValue         = "dealValue"
	FieldContractType      = "contractType"
	FieldPrimaryProduct    = "primaryProduct"

	FieldAdditionalNotes = "additionalNotes"
	FieldUploadedFiles   = "uploadedFiles"

	FieldAgreedToTerms = "agreedToTerms"

	// FieldDuplicateResults is scratch state exposed to the field view only.
	// It is never part of a submission.
	FieldDuplicateResults = "duplicateResults"
)
