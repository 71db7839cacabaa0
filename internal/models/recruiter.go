package models

// Recruiter statuses and trends
const (
	RecruiterStatusActive   = "active"
	RecruiterStatusInactive = "inactive"
	RecruiterStatusPending  = "pending"

	TrendUp   = "up"
	TrendDown = "down"
)

// Recruiter is one row of the recruiters tab
type Recruiter struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	Territory  string `json:"territory"`
	HiredCount int    `json:"hiredCount"`
	JoinDate   string `json:"joinDate"`
	Status     string `json:"status"`
	Trend      string `json:"trend"`
	Location   string `json:"location"`
}
