package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitops-api/internal/models"
)

func TestValidateSourceConfig(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		req       models.SourceConfigRequest
		wantField string
	}{
		{
			name: "valid",
			req:  models.SourceConfigRequest{SpreadsheetID: "1AbCdEf", AutoRefresh: true, RefreshIntervalMinutes: 0.5},
		},
		{
			name:      "missing id",
			req:       models.SourceConfigRequest{},
			wantField: "spreadsheetId",
		},
		{
			name:      "url instead of id",
			req:       models.SourceConfigRequest{SpreadsheetID: "https://docs.google.com/spreadsheets/d/1AbC/edit"},
			wantField: "spreadsheetId",
		},
		{
			name:      "negative interval",
			req:       models.SourceConfigRequest{SpreadsheetID: "1AbC", RefreshIntervalMinutes: -1},
			wantField: "refreshIntervalMinutes",
		},
		{
			name:      "interval over a week",
			req:       models.SourceConfigRequest{SpreadsheetID: "1AbC", RefreshIntervalMinutes: 20000},
			wantField: "refreshIntervalMinutes",
		},
		{
			name: "non numeric gid",
			req: models.SourceConfigRequest{
				SpreadsheetID: "1AbC",
				Ranges:        models.TabRanges{Clients: models.TabSpec{Range: "Clients", GID: "abc"}},
			},
			wantField: "ranges.clients.gid",
		},
		{
			name:      "credential is not json",
			req:       models.SourceConfigRequest{SpreadsheetID: "1AbC", Credential: "not-json"},
			wantField: "credential",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateSourceConfig(&tt.req)
			if tt.wantField == "" {
				assert.Empty(t, errs)
				return
			}
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.wantField, errs[0].Field)
			assert.NotEmpty(t, errs[0].Message)
		})
	}
}

func TestValidateSourceConfig_CredentialValueNotEchoed(t *testing.T) {
	v := NewValidator()
	errs := v.ValidateSourceConfig(&models.SourceConfigRequest{SpreadsheetID: "1AbC", Credential: "secret{"})
	require.Len(t, errs, 1)
	assert.Nil(t, errs[0].Value)
}

func TestValidateImportRequest(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.ValidateImportRequest(&models.ImportRequest{SpreadsheetID: "1AbC"}))

	errs := v.ValidateImportRequest(&models.ImportRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "spreadsheetId", errs[0].Field)
	assert.Equal(t, "is required", errs[0].Message)
}
