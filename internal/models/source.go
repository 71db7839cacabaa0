package models

import (
	"strings"
	"time"
)

// MinRefreshIntervalMinutes is the smallest interval a source may be saved with (3 seconds)
const MinRefreshIntervalMinutes = 0.05

// TabSpec addresses one tab of a spreadsheet. Range is an A1 range such as
// "Recruiters!A1:K" or a bare tab name; GID is the optional numeric tab id
// used by the published-export URLs.
type TabSpec struct {
	Range string `json:"range" validate:"max=200"`
	GID   string `json:"gid,omitempty" validate:"omitempty,numeric,max=20"`
}

// Name returns the tab name part of the range, without quotes
func (t TabSpec) Name() string {
	name := t.Range
	if i := strings.LastIndex(name, "!"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if len(name) >= 2 && name[0] == '\'' && name[len(name)-1] == '\'' {
		name = strings.ReplaceAll(name[1:len(name)-1], "''", "'")
	}
	return name
}

// IsZero reports whether neither a range nor a tab id is set
func (t TabSpec) IsZero() bool {
	return strings.TrimSpace(t.Range) == "" && strings.TrimSpace(t.GID) == ""
}

// TabRanges holds one TabSpec per entity kind
type TabRanges struct {
	Recruiters  TabSpec `json:"recruiters"`
	Candidates  TabSpec `json:"candidates"`
	Clients     TabSpec `json:"clients"`
	Performance TabSpec `json:"performance"`
}

// For returns the tab configured for a kind
func (r TabRanges) For(kind EntityKind) TabSpec {
	switch kind {
	case KindRecruiter:
		return r.Recruiters
	case KindCandidate:
		return r.Candidates
	case KindClient:
		return r.Clients
	case KindPerformance:
		return r.Performance
	}
	return TabSpec{}
}

// DefaultTabRanges matches the sheet names of the dashboard template
func DefaultTabRanges() TabRanges {
	return TabRanges{
		Recruiters:  TabSpec{Range: "Recruiters"},
		Candidates:  TabSpec{Range: "Candidates"},
		Clients:     TabSpec{Range: "Clients"},
		Performance: TabSpec{Range: "Performance"},
	}
}

// SourceConfig describes one spreadsheet: identity, credentials, tab ranges and refresh policy.
// Credential and APIKey are never serialized back to API callers.
type SourceConfig struct {
	SpreadsheetID          string     `json:"spreadsheetId"`
	Credential             string     `json:"-"`
	APIKey                 string     `json:"-"`
	Ranges                 TabRanges  `json:"ranges"`
	AutoRefresh            bool       `json:"autoRefresh"`
	RefreshIntervalMinutes float64    `json:"refreshIntervalMinutes"`
	TrustTabKinds          bool       `json:"trustTabKinds"`
	LastRunAt              *time.Time `json:"lastRunAt,omitempty"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

// HasCredential reports whether a service credential is stored for the source
func (s *SourceConfig) HasCredential() bool {
	return strings.TrimSpace(s.Credential) != ""
}

// HasAPIKey reports whether an API key is stored for the source
func (s *SourceConfig) HasAPIKey() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

// RefreshInterval converts the configured minutes to a duration, never below floor
func (s *SourceConfig) RefreshInterval(floor time.Duration) time.Duration {
	d := time.Duration(s.RefreshIntervalMinutes * float64(time.Minute))
	if d < floor {
		return floor
	}
	return d
}

// SourceConfigView is the API representation of a SourceConfig
type SourceConfigView struct {
	*SourceConfig
	HasCredential bool `json:"hasCredential"`
	HasAPIKey     bool `json:"hasApiKey"`
}

// View wraps the config for JSON output
func (s *SourceConfig) View() SourceConfigView {
	return SourceConfigView{SourceConfig: s, HasCredential: s.HasCredential(), HasAPIKey: s.HasAPIKey()}
}

// SourceConfigRequest is the body of PUT /v1/sources
type SourceConfigRequest struct {
	SpreadsheetID          string    `json:"spreadsheetId" validate:"required,max=200"`
	Credential             string    `json:"credential,omitempty" validate:"omitempty,json"`
	APIKey                 string    `json:"apiKey,omitempty" validate:"omitempty,max=200"`
	Ranges                 TabRanges `json:"ranges"`
	AutoRefresh            bool      `json:"autoRefresh"`
	RefreshIntervalMinutes float64   `json:"refreshIntervalMinutes" validate:"gte=0,lte=10080"`
	TrustTabKinds          bool      `json:"trustTabKinds"`
}
