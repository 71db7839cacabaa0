package models

// Stats summarizes what is currently stored
type Stats struct {
	Recruiters  int        `json:"recruiters"`
	Candidates  int        `json:"candidates"`
	Clients     int        `json:"clients"`
	Performance int        `json:"performance"`
	Sources     int        `json:"sources"`
	LastRun     *ImportRun `json:"lastRun,omitempty"`
}
