package models

// Candidate pipeline statuses
const (
	CandidateStatusHired     = "hired"
	CandidateStatusInterview = "interview"
	CandidateStatusPending   = "pending"
	CandidateStatusRejected  = "rejected"
)

// Candidate is one row of the candidates tab. Recruiter and Client are free-text
// name references resolved by the UI, not foreign keys.
type Candidate struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Position    string   `json:"position"`
	Experience  string   `json:"experience"`
	Skills      []string `json:"skills"`
	Status      string   `json:"status"`
	Salary      int      `json:"salary"`
	Recruiter   string   `json:"recruiter"`
	Client      string   `json:"client"`
	AppliedDate string   `json:"appliedDate"`
	Location    string   `json:"location"`
}
