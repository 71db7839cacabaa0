package mapping

import "github.com/recruitops-api/internal/models"

type kindKeywords struct {
	kind     models.EntityKind
	keywords map[string]struct{}
}

func keywordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Checked in order. The keyword sets are disjoint, and generic columns such as
// "hired" or "name" are deliberately absent since every kind carries them.
var inferenceOrder = []kindKeywords{
	{models.KindCandidate, keywordSet(
		"candidate", "candidate name", "skills", "skill", "skill set", "position",
		"salary", "expected salary", "experience", "applied", "applied date", "application date",
	)},
	{models.KindClient, keywordSet(
		"client", "client name", "company", "company name", "industry", "sector",
		"avg days to fill", "average days to fill", "days to fill", "last activity",
	)},
	{models.KindRecruiter, keywordSet(
		"recruiter", "recruiter name", "department", "territory", "join date",
		"joined", "trend",
	)},
	{models.KindPerformance, keywordSet(
		"month", "period", "target", "targets", "target count", "recruiter count", "goal",
	)},
}

// InferKind guesses which record shape a header row belongs to, or KindUnknown.
// The result is advisory; callers that know a tab's kind should not consult it.
func InferKind(headers []string) models.EntityKind {
	normalized := make([]string, 0, len(headers))
	for _, h := range headers {
		if h = normalize(h); h != "" {
			normalized = append(normalized, h)
		}
	}

	for _, kk := range inferenceOrder {
		for _, h := range normalized {
			if _, ok := kk.keywords[h]; ok {
				return kk.kind
			}
		}
	}
	return models.KindUnknown
}
