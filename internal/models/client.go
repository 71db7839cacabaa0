package models

// Client statuses
const (
	ClientStatusActive   = "active"
	ClientStatusPending  = "pending"
	ClientStatusInactive = "inactive"
)

// Client is one row of the clients tab
type Client struct {
	Name          string `json:"name"`
	Company       string `json:"company"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Industry      string `json:"industry"`
	TotalHired    int    `json:"totalHired"`
	AvgDaysToFill int    `json:"avgDaysToFill"`
	Status        string `json:"status"`
	Location      string `json:"location"`
	LastActivity  string `json:"lastActivity"`
}
