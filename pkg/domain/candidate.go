package domain

// Candidate is a previously submitted deal that may conflict with the current draft.
// Candidates are read-only and replaced wholesale on every lookup.
type Candidate struct {
	ID            string `json:"id"`
	CompanyName   string `json:"companyName"`
	Domain        string `json:"domain"`
	Value         string `json:"value"`
	Status        string `json:"status"`
	Partner       string `json:"partner"`
	SubmittedDate string `json:"submittedDate"`
}
