package models

import "strings"

// EntityKind identifies which record shape a tab holds
type EntityKind string

const (
	KindRecruiter   EntityKind = "recruiter"
	KindCandidate   EntityKind = "candidate"
	KindClient      EntityKind = "client"
	KindPerformance EntityKind = "performance"
	KindUnknown     EntityKind = "unknown"
)

// Kinds lists the four importable kinds in tab order
var Kinds = []EntityKind{KindRecruiter, KindCandidate, KindClient, KindPerformance}

// Resource returns the plural name used in URLs and table names
func (k EntityKind) Resource() string {
	switch k {
	case KindRecruiter:
		return "recruiters"
	case KindCandidate:
		return "candidates"
	case KindClient:
		return "clients"
	case KindPerformance:
		return "performance"
	default:
		return ""
	}
}

// KindFromResource parses either the singular or plural form
func KindFromResource(s string) (EntityKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "recruiter", "recruiters":
		return KindRecruiter, true
	case "candidate", "candidates":
		return KindCandidate, true
	case "client", "clients":
		return KindClient, true
	case "performance", "performances", "metrics":
		return KindPerformance, true
	}
	return KindUnknown, false
}
