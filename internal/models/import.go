package models

import (
	"time"
)

// RunStatus represents the outcome of an import run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// RunTrigger records what started an import run
type RunTrigger string

const (
	TriggerManual    RunTrigger = "manual"
	TriggerScheduled RunTrigger = "scheduled"
	TriggerCLI       RunTrigger = "cli"
)

// TabStatus distinguishes an empty tab from a failed fetch
type TabStatus string

const (
	TabStatusOK     TabStatus = "ok"
	TabStatusEmpty  TabStatus = "empty"
	TabStatusFailed TabStatus = "failed"
	// TabStatusDuplicate marks a tab whose rows were already imported through another tab
	TabStatusDuplicate TabStatus = "duplicate"
)

// TabResult is the per-tab outcome of one import run
type TabResult struct {
	Kind     EntityKind `json:"kind"`
	RoutedTo EntityKind `json:"routedTo,omitempty"`
	Range    string     `json:"range"`
	Strategy string     `json:"strategy,omitempty"`
	Status   TabStatus  `json:"status"`
	Rows     int        `json:"rows"`
	Error    string     `json:"error,omitempty"`
}

// PersistStatus is the per-kind outcome of the replace-all step
type PersistStatus string

const (
	PersistReplaced     PersistStatus = "replaced"
	PersistSkippedEmpty PersistStatus = "skipped_empty"
	PersistFailed       PersistStatus = "failed"
)

// PersistResult reports what happened to one kind's stored records
type PersistResult struct {
	Kind   EntityKind    `json:"kind"`
	Status PersistStatus `json:"status"`
	Count  int           `json:"count"`
	Error  string        `json:"error,omitempty"`
}

// ImportResult is what an import run hands back to its caller
type ImportResult struct {
	RunID         string               `json:"runId,omitempty"`
	SpreadsheetID string               `json:"spreadsheetId"`
	Recruiters    []*Recruiter         `json:"recruiters"`
	Candidates    []*Candidate         `json:"candidates"`
	Clients       []*Client            `json:"clients"`
	Performance   []*PerformanceMetric `json:"performance"`
	Tabs          []TabResult          `json:"tabs"`
	Persistence   []PersistResult      `json:"persistence"`
	// Stale is set when every tab failed and the last good result was served instead
	Stale     bool      `json:"stale"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Count returns the number of parsed records for a kind
func (r *ImportResult) Count(kind EntityKind) int {
	switch kind {
	case KindRecruiter:
		return len(r.Recruiters)
	case KindCandidate:
		return len(r.Candidates)
	case KindClient:
		return len(r.Clients)
	case KindPerformance:
		return len(r.Performance)
	}
	return 0
}

// TotalRecords sums the parsed records over all kinds
func (r *ImportResult) TotalRecords() int {
	total := 0
	for _, k := range Kinds {
		total += r.Count(k)
	}
	return total
}

// FailedTabs counts tabs whose fetch failed
func (r *ImportResult) FailedTabs() int {
	n := 0
	for _, t := range r.Tabs {
		if t.Status == TabStatusFailed {
			n++
		}
	}
	return n
}

// ImportRun is the persisted history entry of one import run
type ImportRun struct {
	ID              string          `json:"runId"`
	SpreadsheetID   string          `json:"spreadsheetId"`
	Trigger         RunTrigger      `json:"trigger"`
	Status          RunStatus       `json:"status"`
	Tabs            []TabResult     `json:"tabs"`
	Persistence     []PersistResult `json:"persistence"`
	RecordsImported int             `json:"recordsImported"`
	DurationMs      int64           `json:"durationMs"`
	Error           string          `json:"error,omitempty"`
	StartedAt       time.Time       `json:"startedAt"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
}

// ImportRequest is the body of POST /v1/imports
type ImportRequest struct {
	SpreadsheetID string `json:"spreadsheetId" validate:"required"`
}
