package sanitize

import (
	"reflect"
	"strings"

	"github.com/aretw0/dealreg/pkg/domain"
)

// Payload is the wire-safe submission record. It is disposable.
type Payload map[string]any

// AllowedFields is the exact set of fields a payload may carry.
var AllowedFields = []string{
	domain.FieldPartnerCompany,
	domain.FieldSubmitterName,
	domain.FieldSubmitterEmail,
	domain.FieldTerritory,
	domain.FieldCompanyName,
	domain.FieldDomain,
	domain.FieldCustomerLegalName,
	domain.FieldCustomerIndustry,
	domain.FieldCustomerLocation,
	domain.FieldDealStage,
	domain.FieldExpectedCloseDate,
	domain.FieldDealValue,
	domain.FieldContractType,
	domain.FieldPrimaryProduct,
	domain.FieldAdditionalNotes,
	domain.FieldUploadedFiles,
}

var allowed = func() map[string]struct{} {
	m := make(map[string]struct{}, len(AllowedFields))
	for _, f := range AllowedFields {
		m[f] = struct{}{}
	}
	return m
}()

// Sanitize filters fields to the allow-list, drops nil and empty strings,
// trims strings and lower-cases the domain.
func Sanitize(fields map[string]any) Payload {
	out := make(Payload, len(allowed))
	for k, v := range fields {
		if _, ok := allowed[k]; !ok {
			continue
		}
		v = clean(v)
		if isAbsent(v) {
			continue
		}
		if s, ok := v.(string); ok {
			if s == "" {
				continue
			}
			if k == domain.FieldDomain {
				v = strings.ToLower(s)
			}
		}
		out[k] = v
	}
	return out
}

// FromDraft sanitizes the flat field view of a draft.
func FromDraft(d domain.Draft) Payload {
	return Sanitize(d.Fields())
}

func clean(v any) any {
	switch vv := v.(type) {
	case string:
		return strings.TrimSpace(vv)
	case []domain.UploadedFile:
		if vv == nil {
			return nil
		}
		files := make([]map[string]any, 0, len(vv))
		for _, f := range vv {
			files = append(files, fileEntry(f))
		}
		return files
	case []map[string]any:
		if vv == nil {
			return nil
		}
		files := make([]map[string]any, 0, len(vv))
		for _, f := range vv {
			files = append(files, cleanMap(f))
		}
		return files
	case map[string]any:
		if vv == nil {
			return nil
		}
		return cleanMap(vv)
	}
	return v
}

// fileEntry describes a stored file; the storage handle stays server-side.
// Empty attributes are dropped like any other empty value.
func fileEntry(f domain.UploadedFile) map[string]any {
	return cleanMap(map[string]any{
		"id":        f.ID,
		"name":      f.Name,
		"sizeBytes": f.SizeBytes,
		"mimeType":  f.MimeType,
		"category":  f.Category,
	})
}

func cleanMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		v = clean(v)
		if isAbsent(v) {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// isAbsent reports untyped nil and typed nil references.
func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
