package models

// PerformanceMetric is one month of hiring performance
type PerformanceMetric struct {
	Month          string `json:"month"` // YYYY-MM when recognizable
	RecruiterCount int    `json:"recruiterCount"`
	HiredCount     int    `json:"hiredCount"`
	TargetCount    int    `json:"targetCount"`
}
