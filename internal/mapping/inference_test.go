package mapping_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recruitops-api/internal/mapping"
	"github.com/recruitops-api/internal/models"
)

func TestInferKind(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    models.EntityKind
	}{
		{"candidate", []string{"Name", "Position", "Skills", "Recruiter"}, models.KindCandidate},
		{"client", []string{"Name", "Company", "Industry", "Total Hired"}, models.KindClient},
		{"recruiter", []string{"Name", "Department", "Territory", "Hired"}, models.KindRecruiter},
		{"performance", []string{"Month", "Recruiters", "Hired", "Target"}, models.KindPerformance},
		{"generic only", []string{"Name", "Email", "Hired", "Status"}, models.KindUnknown},
		{"empty", nil, models.KindUnknown},
		{"case and spacing", []string{"  SKILLS  "}, models.KindCandidate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapping.InferKind(tt.headers))
		})
	}
}

func TestInferKind_Priority(t *testing.T) {
	// client keyword beats performance keyword
	assert.Equal(t, models.KindClient, mapping.InferKind([]string{"Target", "Industry"}))
	// candidate beats everything, even when recruiter/client columns are present
	assert.Equal(t, models.KindCandidate, mapping.InferKind([]string{"Recruiter", "Client", "Salary"}))
	// recruiter beats performance
	assert.Equal(t, models.KindRecruiter, mapping.InferKind([]string{"Month", "Department"}))
}
