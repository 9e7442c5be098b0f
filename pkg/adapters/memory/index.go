package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/sanitize"
)

// DefaultMaxDistance is the edit distance under which two normalized company names match.
const DefaultMaxDistance = 2

// legalSuffixes are dropped before comparing company names.
var legalSuffixes = map[string]bool{
	"corp": true, "corporation": true, "inc": true, "incorporated": true,
	"llc": true, "ltd": true, "limited": true, "gmbh": true, "co": true,
	"company": true, "plc": true, "sa": true, "ag": true,
}

// Deal is a registration accepted by the index.
type Deal struct {
	Candidate domain.Candidate
	Payload   sanitize.Payload
}

// DealIndex is an in-memory system of record. It accepts submissions and answers
// duplicate lookups against them, implementing ports.Submitter and ports.DuplicateLookup.
type DealIndex struct {
	mu          sync.RWMutex
	deals       []Deal
	maxDistance int
	now         func() time.Time
}

// IndexOption configures a DealIndex.
type IndexOption func(*DealIndex)

// WithSeed preloads prior registrations.
func WithSeed(candidates ...domain.Candidate) IndexOption {
	return func(ix *DealIndex) {
		for _, c := range candidates {
			ix.deals = append(ix.deals, Deal{Candidate: c})
		}
	}
}

// WithMaxDistance sets the fuzzy company name threshold. Zero means exact matches only.
func WithMaxDistance(n int) IndexOption {
	return func(ix *DealIndex) {
		ix.maxDistance = n
	}
}

// WithIndexClock sets the clock used for submission dates.
func WithIndexClock(now func() time.Time) IndexOption {
	return func(ix *DealIndex) {
		ix.now = now
	}
}

// NewDealIndex creates an empty index.
func NewDealIndex(opts ...IndexOption) *DealIndex {
	ix := &DealIndex{maxDistance: DefaultMaxDistance, now: time.Now}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// DemoSeed is a registration already under review, handy for local runs.
func DemoSeed() domain.Candidate {
	return domain.Candidate{
		ID:            "deal-123",
		CompanyName:   "ACME Corp",
		Domain:        "acme.com",
		Value:         "$150,000",
		Status:        "Under Review",
		Partner:       "TechFlow Solutions",
		SubmittedDate: "2024-01-15",
	}
}

// Lookup returns registrations whose domain matches exactly or whose company name
// is within the edit distance threshold, in submission order.
func (ix *DealIndex) Lookup(ctx context.Context, companyName, domainName string) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := normalizeCompany(companyName)
	host := normalizeDomain(domainName)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := []domain.Candidate{}
	for _, d := range ix.deals {
		if ix.matches(d.Candidate, name, host) {
			out = append(out, d.Candidate)
		}
	}
	return out, nil
}

func (ix *DealIndex) matches(c domain.Candidate, name, host string) bool {
	if host != "" && normalizeDomain(c.Domain) == host {
		return true
	}
	if len([]rune(name)) < 3 {
		return false
	}
	other := normalizeCompany(c.CompanyName)
	if other == "" {
		return false
	}
	return levenshtein.ComputeDistance(name, other) <= ix.maxDistance
}

// Submit records the payload and returns its confirmation ID.
func (ix *DealIndex) Submit(ctx context.Context, payload sanitize.Payload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	company, _ := payload[domain.FieldCompanyName].(string)
	if company == "" {
		return "", fmt.Errorf("payload has no %s", domain.FieldCompanyName)
	}

	id := "deal-" + uuid.NewString()
	c := domain.Candidate{
		ID:            id,
		CompanyName:   company,
		Domain:        stringField(payload, domain.FieldDomain),
		Value:         stringField(payload, domain.FieldDealValue),
		Status:        "Under Review",
		Partner:       stringField(payload, domain.FieldPartnerCompany),
		SubmittedDate: ix.now().Format("2006-01-02"),
	}

	copied := make(sanitize.Payload, len(payload))
	for k, v := range payload {
		copied[k] = v
	}

	ix.mu.Lock()
	ix.deals = append(ix.deals, Deal{Candidate: c, Payload: copied})
	ix.mu.Unlock()
	return id, nil
}

// Deals returns every registration in the index.
func (ix *DealIndex) Deals() []Deal {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Deal, len(ix.deals))
	copy(out, ix.deals)
	return out
}

func stringField(p sanitize.Payload, key string) string {
	if v, ok := p[key]; ok {
		return fmt.Sprint(v)
	}
	return ""
}

// normalizeCompany lower-cases, drops punctuation and legal suffixes.
func normalizeCompany(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	words := strings.Fields(s)
	for len(words) > 1 && legalSuffixes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func normalizeDomain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	return strings.TrimSuffix(s, "/")
}
