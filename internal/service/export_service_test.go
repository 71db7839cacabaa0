package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/service"
)

func seededHarness(t *testing.T) *harness {
	h := newHarness(t)
	h.repos.Candidates.Records = []*models.Candidate{
		{Name: "Sam", Skills: []string{"Go", "Rust"}, Status: "interview", Salary: 95000},
		{Name: "Ann, Jr.", Skills: []string{}, Status: "pending"},
	}
	return h
}

func TestExport_CSV(t *testing.T) {
	h := seededHarness(t)
	var buf bytes.Buffer

	require.NoError(t, h.svc.Export.Stream(context.Background(), &buf, models.KindCandidate, "csv"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "name,email,phone,position"))
	assert.Contains(t, lines[1], `"Go, Rust"`)
	assert.True(t, strings.HasPrefix(lines[2], `"Ann, Jr."`))
}

func TestExport_JSONAndNDJSON(t *testing.T) {
	h := seededHarness(t)

	var buf bytes.Buffer
	require.NoError(t, h.svc.Export.Stream(context.Background(), &buf, models.KindCandidate, "json"))
	var decoded []models.Candidate
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, []string{"Go", "Rust"}, decoded[0].Skills)

	buf.Reset()
	require.NoError(t, h.svc.Export.Stream(context.Background(), &buf, models.KindCandidate, "ndjson"))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	buf.Reset()
	require.NoError(t, h.svc.Export.Stream(context.Background(), &buf, models.KindClient, "json"))
	assert.Equal(t, "[]", buf.String())
}

func TestExport_XLSX(t *testing.T) {
	h := seededHarness(t)
	var buf bytes.Buffer

	require.NoError(t, h.svc.Export.Stream(context.Background(), &buf, models.KindCandidate, "xlsx"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("candidates")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "name", rows[0][0])
	assert.Equal(t, "Sam", rows[1][0])
	assert.Equal(t, "95000", rows[1][7])
}

func TestExport_UnsupportedFormat(t *testing.T) {
	h := seededHarness(t)
	err := h.svc.Export.Stream(context.Background(), &bytes.Buffer{}, models.KindCandidate, "pdf")
	assert.ErrorIs(t, err, service.ErrUnsupportedFormat)
}
