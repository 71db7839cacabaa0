// Package mapping maps loosely-labelled spreadsheet rows onto the four record shapes
// and guesses which shape an unlabelled tab holds.
package mapping

import (
	"strings"

	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/tabular"
)

// field lists the header aliases tried in order, and the column used by legacy
// fixed-column tabs
type field struct {
	aliases  []string
	position int
}

var (
	emailAliases = []string{"email", "email address", "e-mail", "mail"}
	phoneAliases = []string{"phone", "phone number", "mobile", "contact number", "contact"}
	statusAlias  = []string{"status", "state"}
	locAliases   = []string{"location", "city", "office", "based in"}
)

var recruiterFields = struct {
	name, email, phone, department, territory, hired, joinDate, status, trend, location field
}{
	name:       field{[]string{"name", "recruiter", "recruiter name", "full name"}, 0},
	email:      field{emailAliases, 1},
	phone:      field{phoneAliases, 2},
	department: field{[]string{"department", "dept", "team"}, 3},
	territory:  field{[]string{"territory", "region", "area"}, 4},
	hired:      field{[]string{"hired", "total hired", "hires", "hired count", "placements"}, 5},
	joinDate:   field{[]string{"join date", "joined", "joining date", "start date"}, 6},
	status:     field{statusAlias, 7},
	trend:      field{[]string{"trend", "performance trend"}, 8},
	location:   field{locAliases, 9},
}

var candidateFields = struct {
	name, email, phone, position, experience, skills, status, salary, recruiter, client, applied, location field
}{
	name:       field{[]string{"name", "candidate", "candidate name", "full name"}, 0},
	email:      field{emailAliases, 1},
	phone:      field{phoneAliases, 2},
	position:   field{[]string{"position", "role", "job title", "title"}, 3},
	experience: field{[]string{"experience", "years of experience", "exp"}, 4},
	skills:     field{[]string{"skills", "skill", "skill set", "skillset", "tech stack"}, 5},
	status:     field{[]string{"status", "state", "stage"}, 6},
	salary:     field{[]string{"salary", "expected salary", "ctc", "compensation"}, 7},
	recruiter:  field{[]string{"recruiter", "recruiter name", "assigned recruiter"}, 8},
	client:     field{[]string{"client", "client name", "company"}, 9},
	applied:    field{[]string{"applied date", "applied", "application date", "date applied"}, 10},
	location:   field{locAliases, 11},
}

var clientFields = struct {
	name, company, email, phone, industry, totalHired, avgDays, status, location, lastActivity field
}{
	name:         field{[]string{"name", "client", "client name", "contact name"}, 0},
	company:      field{[]string{"company", "company name", "organization", "organisation"}, 1},
	email:        field{emailAliases, 2},
	phone:        field{phoneAliases, 3},
	industry:     field{[]string{"industry", "sector"}, 4},
	totalHired:   field{[]string{"total hired", "hired", "hires", "placements"}, 5},
	avgDays:      field{[]string{"avg days to fill", "average days to fill", "days to fill", "avg days"}, 6},
	status:       field{statusAlias, 7},
	location:     field{locAliases, 8},
	lastActivity: field{[]string{"last activity", "last contact", "last activity date"}, 9},
}

var performanceFields = struct {
	month, recruiters, hired, target field
}{
	month:      field{[]string{"month", "period", "date"}, 0},
	recruiters: field{[]string{"recruiters", "recruiter count", "active recruiters", "headcount"}, 1},
	hired:      field{[]string{"hired", "hires", "hired count", "total hired"}, 2},
	target:     field{[]string{"target", "targets", "target count", "goal"}, 3},
}

// lookup resolves a field: first alias present with a non-empty cell, then the
// legacy position, then "".
func (f field) lookup(row tabular.Row, legacy bool) string {
	if legacy {
		return strings.TrimSpace(row.At(f.position))
	}
	for _, a := range f.aliases {
		if v, ok := row.Get(a); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// MapRecruiter maps one row onto a Recruiter
func MapRecruiter(row tabular.Row, legacy bool) *models.Recruiter {
	f := recruiterFields
	return &models.Recruiter{
		Name:       f.name.lookup(row, legacy),
		Email:      f.email.lookup(row, legacy),
		Phone:      f.phone.lookup(row, legacy),
		Department: f.department.lookup(row, legacy),
		Territory:  f.territory.lookup(row, legacy),
		HiredCount: CoerceCount(f.hired.lookup(row, legacy)),
		JoinDate:   f.joinDate.lookup(row, legacy),
		Status: CoerceEnum(f.status.lookup(row, legacy), models.RecruiterStatusActive,
			models.RecruiterStatusActive, models.RecruiterStatusInactive, models.RecruiterStatusPending),
		Trend:    CoerceEnum(f.trend.lookup(row, legacy), models.TrendUp, models.TrendUp, models.TrendDown),
		Location: f.location.lookup(row, legacy),
	}
}

// MapCandidate maps one row onto a Candidate
func MapCandidate(row tabular.Row, legacy bool) *models.Candidate {
	f := candidateFields
	return &models.Candidate{
		Name:       f.name.lookup(row, legacy),
		Email:      f.email.lookup(row, legacy),
		Phone:      f.phone.lookup(row, legacy),
		Position:   f.position.lookup(row, legacy),
		Experience: f.experience.lookup(row, legacy),
		Skills:     SplitList(f.skills.lookup(row, legacy)),
		Status: CoerceEnum(f.status.lookup(row, legacy), models.CandidateStatusPending,
			models.CandidateStatusHired, models.CandidateStatusInterview,
			models.CandidateStatusPending, models.CandidateStatusRejected),
		Salary:      CoerceCount(f.salary.lookup(row, legacy)),
		Recruiter:   f.recruiter.lookup(row, legacy),
		Client:      f.client.lookup(row, legacy),
		AppliedDate: f.applied.lookup(row, legacy),
		Location:    f.location.lookup(row, legacy),
	}
}

// MapClient maps one row onto a Client
func MapClient(row tabular.Row, legacy bool) *models.Client {
	f := clientFields
	return &models.Client{
		Name:          f.name.lookup(row, legacy),
		Company:       f.company.lookup(row, legacy),
		Email:         f.email.lookup(row, legacy),
		Phone:         f.phone.lookup(row, legacy),
		Industry:      f.industry.lookup(row, legacy),
		TotalHired:    CoerceCount(f.totalHired.lookup(row, legacy)),
		AvgDaysToFill: CoerceCount(f.avgDays.lookup(row, legacy)),
		Status: CoerceEnum(f.status.lookup(row, legacy), models.ClientStatusActive,
			models.ClientStatusActive, models.ClientStatusPending, models.ClientStatusInactive),
		Location:     f.location.lookup(row, legacy),
		LastActivity: f.lastActivity.lookup(row, legacy),
	}
}

// MapPerformance maps one row onto a PerformanceMetric
func MapPerformance(row tabular.Row, legacy bool) *models.PerformanceMetric {
	f := performanceFields
	return &models.PerformanceMetric{
		Month:          NormalizeMonth(f.month.lookup(row, legacy)),
		RecruiterCount: CoerceCount(f.recruiters.lookup(row, legacy)),
		HiredCount:     CoerceCount(f.hired.lookup(row, legacy)),
		TargetCount:    CoerceCount(f.target.lookup(row, legacy)),
	}
}

// Batch holds the records mapped from one table; only the slice for Kind is set
type Batch struct {
	Kind        models.EntityKind
	Recruiters  []*models.Recruiter
	Candidates  []*models.Candidate
	Clients     []*models.Client
	Performance []*models.PerformanceMetric
}

// Len returns the number of mapped records
func (b *Batch) Len() int {
	return len(b.Recruiters) + len(b.Candidates) + len(b.Clients) + len(b.Performance)
}

// MapTable maps every row of a table onto kind. A table whose header row matches
// none of the kind's aliases is treated as legacy fixed-column data.
func MapTable(table *tabular.Table, kind models.EntityKind) *Batch {
	batch := &Batch{Kind: kind}
	if table == nil || len(table.Headers) == 0 {
		return batch
	}

	legacy := !Recognizes(table.Headers, kind)
	if legacy {
		table = table.WithHeaderAsData()
	}

	for _, row := range table.Rows {
		switch kind {
		case models.KindRecruiter:
			batch.Recruiters = append(batch.Recruiters, MapRecruiter(row, legacy))
		case models.KindCandidate:
			batch.Candidates = append(batch.Candidates, MapCandidate(row, legacy))
		case models.KindClient:
			batch.Clients = append(batch.Clients, MapClient(row, legacy))
		case models.KindPerformance:
			batch.Performance = append(batch.Performance, MapPerformance(row, legacy))
		}
	}
	return batch
}

// Recognizes reports whether any header is an alias of one of kind's fields
func Recognizes(headers []string, kind models.EntityKind) bool {
	var fields []field
	switch kind {
	case models.KindRecruiter:
		f := recruiterFields
		fields = []field{f.name, f.email, f.phone, f.department, f.territory, f.hired, f.joinDate, f.status, f.trend, f.location}
	case models.KindCandidate:
		f := candidateFields
		fields = []field{f.name, f.email, f.phone, f.position, f.experience, f.skills, f.status, f.salary, f.recruiter, f.client, f.applied, f.location}
	case models.KindClient:
		f := clientFields
		fields = []field{f.name, f.company, f.email, f.phone, f.industry, f.totalHired, f.avgDays, f.status, f.location, f.lastActivity}
	case models.KindPerformance:
		f := performanceFields
		fields = []field{f.month, f.recruiters, f.hired, f.target}
	default:
		return false
	}

	for _, h := range headers {
		h = normalize(h)
		for _, f := range fields {
			for _, a := range f.aliases {
				if h == a {
					return true
				}
			}
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
