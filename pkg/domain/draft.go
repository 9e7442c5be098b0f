package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// QuickCheck holds the fields of the duplicate-detection step.
type QuickCheck struct {
	CompanyName string `json:"companyName" mapstructure:"companyName"`
	Domain      string `json:"domain" mapstructure:"domain"`
}

// CoreInfo holds partner and customer identification.
type CoreInfo struct {
	PartnerCompany      string `json:"partnerCompany" mapstructure:"partnerCompany"`
	PartnerType         string `json:"partnerType" mapstructure:"partnerType"`
	SubmitterName       string `json:"submitterName" mapstructure:"submitterName"`
	SubmitterEmail      string `json:"submitterEmail" mapstructure:"submitterEmail"`
	Territory           string `json:"territory" mapstructure:"territory"`
	CustomerLegalName   string `json:"customerLegalName" mapstructure:"customerLegalName"`
	CustomerIndustry    string `json:"customerIndustry" mapstructure:"customerIndustry"`
	CustomerCompanySize string `json:"customerCompanySize" mapstructure:"customerCompanySize"`
	CustomerRevenue     string `json:"customerRevenue" mapstructure:"customerRevenue"`
	CustomerLocation    string `json:"customerLocation" mapstructure:"customerLocation"`
}

// DealIntelligence holds the opportunity details.
type DealIntelligence struct {
	DealStage string `json:"dealStage" mapstructure:"dealStage"`
	// ExpectedCloseDate is a calendar date, usually YYYY-MM-DD.
	ExpectedCloseDate string `json:"expectedCloseDate" mapstructure:"expectedCloseDate"`
	// DealValue is kept as typed by the user ("$150,000" is valid input).
	DealValue      string `json:"dealValue" mapstructure:"dealValue"`
	ContractType   string `json:"contractType" mapstructure:"contractType"`
	PrimaryProduct string `json:"primaryProduct" mapstructure:"primaryProduct"`
}

// Documentation holds supporting material.
type Documentation struct {
	AdditionalNotes string         `json:"additionalNotes" mapstructure:"additionalNotes"`
	// UploadedFiles changes only through attachment; patches cannot touch it.
	UploadedFiles []UploadedFile `json:"uploadedFiles,omitempty" mapstructure:"-"`
}

// Review holds the confirmation given on the last step.
type Review struct {
	AgreedToTerms bool `json:"agreedToTerms" mapstructure:"agreedToTerms"`
}

// Draft is the full in-progress registration of one wizard session.
// Sections are embedded so that both JSON and patches use flat field names.
type Draft struct {
	QuickCheck       `mapstructure:",squash"`
	CoreInfo         `mapstructure:",squash"`
	DealIntelligence `mapstructure:",squash"`
	Documentation    `mapstructure:",squash"`
	Review           `mapstructure:",squash"`

	// Scratch keeps patch keys that belong to no section.
	// It is persisted with the draft but never submitted.
	Scratch map[string]any `json:"scratch,omitempty" mapstructure:"-"`
}

// readOnlyFields are maintained by the wizard itself.
var readOnlyFields = []string{FieldUploadedFiles, FieldDuplicateResults}

// Patch is a partial update keyed by field name.
type Patch map[string]any

// Has reports whether the patch touches any of the given fields.
func (p Patch) Has(fields ...string) bool {
	for _, f := range fields {
		if _, ok := p[f]; ok {
			return true
		}
	}
	return false
}

// Apply merges the patch into the draft.
// The draft is left untouched when any value cannot be decoded into its field
// or the patch names a field that is not user-editable.
func (d *Draft) Apply(patch Patch) error {
	if len(patch) == 0 {
		return nil
	}
	for _, f := range readOnlyFields {
		if patch.Has(f) {
			return fmt.Errorf("%w: %s cannot be patched", ErrInvalidPatch, f)
		}
	}

	next := d.Clone()

	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: numberToString,
		Metadata:   &md,
		Result:     &next,
	})
	if err != nil {
		return fmt.Errorf("failed to build patch decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(patch)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}

	for _, key := range md.Unused {
		if next.Scratch == nil {
			next.Scratch = make(map[string]any)
		}
		next.Scratch[key] = patch[key]
	}

	*d = next
	return nil
}

// Fields returns the flat field-name view of the draft.
// The returned map is a fresh copy; callers may keep it.
func (d Draft) Fields() map[string]any {
	out := map[string]any{
		FieldCompanyName: d.CompanyName,
		FieldDomain:      d.Domain,

		FieldPartnerCompany:      d.PartnerCompany,
		FieldPartnerType:         d.PartnerType,
		FieldSubmitterName:       d.SubmitterName,
		FieldSubmitterEmail:      d.SubmitterEmail,
		FieldTerritory:           d.Territory,
		FieldCustomerLegalName:   d.CustomerLegalName,
		FieldCustomerIndustry:    d.CustomerIndustry,
		FieldCustomerCompanySize: d.CustomerCompanySize,
		FieldCustomerRevenue:     d.CustomerRevenue,
		FieldCustomerLocation:    d.CustomerLocation,

		FieldDealStage:         d.DealStage,
		FieldExpectedCloseDate: d.ExpectedCloseDate,
		FieldDealValue:         d.DealValue,
		FieldContractType:      d.ContractType,
		FieldPrimaryProduct:    d.PrimaryProduct,

		FieldAdditionalNotes: d.AdditionalNotes,
		FieldAgreedToTerms:   d.AgreedToTerms,
	}
	if d.UploadedFiles != nil {
		files := make([]UploadedFile, len(d.UploadedFiles))
		copy(files, d.UploadedFiles)
		out[FieldUploadedFiles] = files
	} else {
		out[FieldUploadedFiles] = nil
	}
	for k, v := range d.Scratch {
		if _, taken := out[k]; !taken {
			out[k] = v
		}
	}
	return out
}

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	next := d
	if d.UploadedFiles != nil {
		next.UploadedFiles = make([]UploadedFile, len(d.UploadedFiles))
		copy(next.UploadedFiles, d.UploadedFiles)
	}
	if d.Scratch != nil {
		next.Scratch = deepCopyMap(d.Scratch)
	}
	return next
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case map[string]any:
			out[k] = deepCopyMap(vv)
		case []any:
			cp := make([]any, len(vv))
			copy(cp, vv)
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}

// numberToString lets JSON clients send numeric values for text fields (e.g. dealValue).
func numberToString(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch v := data.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case json.Number:
		return v.String(), nil
	}
	return data, nil
}
