package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitops-api/internal/api"
	"github.com/recruitops-api/internal/config"
	"github.com/recruitops-api/internal/mocks"
	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/service"
	"github.com/recruitops-api/internal/sheets"
)

type testAPI struct {
	router  *gin.Engine
	imports *mocks.MockImportService
	sources *mocks.MockSourceService
	records *mocks.MockRecordService
	export  *mocks.MockExportService
}

func setupTestRouter(t *testing.T, rate string) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ta := &testAPI{
		imports: mocks.NewMockImportService(),
		sources: mocks.NewMockSourceService(),
		records: mocks.NewMockRecordService(),
		export:  mocks.NewMockExportService(),
	}

	services := &service.Services{
		Import:  ta.imports,
		Sources: ta.sources,
		Records: ta.records,
		Export:  ta.export,
	}

	cfg := &config.Config{
		Server:    config.ServerConfig{Port: "8080"},
		Scheduler: config.SchedulerConfig{RunTimeout: time.Minute},
		RateLimit: config.RateLimitConfig{Imports: rate},
	}

	ta.router = api.NewRouter(services, cfg, zerolog.Nop())
	return ta
}

func (ta *testAPI) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ta.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthEndpoint(t *testing.T) {
	ta := setupTestRouter(t, "100-M")

	w := ta.do("GET", "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "recruitops-api", resp["service"])
}

func TestMetricsEndpoint(t *testing.T) {
	ta := setupTestRouter(t, "100-M")

	w := ta.do("GET", "/metrics", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recruitops_scheduler_jobs")
}

func TestStatsEndpoint(t *testing.T) {
	ta := setupTestRouter(t, "100-M")
	ta.records.Counts = models.Stats{Recruiters: 3, Candidates: 12, Sources: 1}

	w := ta.do("GET", "/v1/stats", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, float64(3), resp["recruiters"])
	assert.Equal(t, float64(12), resp["candidates"])
}

func TestSaveSource(t *testing.T) {
	ta := setupTestRouter(t, "100-M")

	w := ta.do("PUT", "/v1/sources", map[string]interface{}{
		"spreadsheetId":          "sheet-1",
		"apiKey":                 "secret-key",
		"autoRefresh":            true,
		"refreshIntervalMinutes": 5,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, "sheet-1", resp["spreadsheetId"])
	assert.Equal(t, true, resp["hasApiKey"])
	assert.NotContains(t, w.Body.String(), "secret-key")
	assert.Contains(t, ta.sources.Sources, "sheet-1")
}

func TestSaveSource_ValidationErrors(t *testing.T) {
	ta := setupTestRouter(t, "100-M")

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing id", map[string]interface{}{"autoRefresh": true}},
		{"url instead of id", map[string]interface{}{"spreadsheetId": "https://docs.google.com/spreadsheets/d/abc/edit"}},
		{"credential not json", map[string]interface{}{"spreadsheetId": "s", "credential": "not-json"}},
		{"non numeric gid", map[string]interface{}{"spreadsheetId": "s", "ranges": map[string]interface{}{"clients": map[string]string{"gid": "abc"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ta.do("PUT", "/v1/sources", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode(t, w)
			assert.Equal(t, "validation failed", resp["error"])
			assert.NotEmpty(t, resp["details"])
		})
	}
	assert.Empty(t, ta.sources.Sources)
}

func TestSaveSource_InvalidBody(t *testing.T) {
	ta := setupTestRouter(t, "100-M")

	req := httptest.NewRequest("PUT", "/v1/sources", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	ta.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSource(t *testing.T) {
	ta := setupTestRouter(t, "100-M")
	ta.sources.Sources["sheet-1"] = &models.SourceConfig{SpreadsheetID: "sheet-1", Credential: `{"type":"service_account"}`}

	w := ta.do("GET", "/v1/sources/sheet-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, true, resp["hasCredential"])
	assert.NotContains(t, w.Body.String(), "service_account")

	w = ta.do("GET", "/v1/sources/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSources(t *testing.T) {
	ta := setupTestRouter(t, "100-M")
	ta.sources.Sources["a"] = &models.SourceConfig{SpreadsheetID: "a"}
	ta.sources.Sources["b"] = &models.SourceConfig{SpreadsheetID: "b"}

	w := ta.do("GET", "/v1/sources", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["count"])
}

func TestClearAll(t *testing.T) {
	ta := setupTestRouter(t, "100-M")
	ta.sources.Sources["a"] = &models.SourceConfig{SpreadsheetID: "a"}

	w := ta.do("DELETE", "/v1/data", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, ta.sources.ClearCalls)
	assert.Empty(t, ta.sources.Sources)

	ta.sources.ClearErr = errors.New("db down")
	w = ta.do("DELETE", "/v1/data", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCreateImport(t *testing.T) {
	ta := setupTestRouter(t, "100-M")
	ta.imports.ImportFunc = func(ctx context.Context, id string, trigger models.RunTrigger) (*models.ImportResult, error) {
		assert.Equal(t, models.TriggerManual, trigger)
		return &models.ImportResult{
			RunID:         "run-42",
			SpreadsheetID: id,
			Recruiters:    []*models.Recruiter{{Name: "Ada"}},
		}, nil
	}

	w := ta.do("POST", "/v1/imports", map[string]string{"spreadsheetId": "sheet-1"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, "run-42", resp["runId"])
	assert.Equal(t, []string{"sheet-1"}, ta.imports.Imported)
}

func TestCreateImport_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown source", service.ErrSourceNotFound, http.StatusNotFound},
		{"nothing configured", errors.Join(service.ErrAllTabsFailed, fmt.Errorf("recruiter tab: %w", sheets.ErrNotConfigured)), http.StatusBadRequest},
		{"upstream failure", errors.Join(service.ErrAllTabsFailed, errors.New("api_key: googleapi: Error 403")), http.StatusBadGateway},
		{"cleared mid-run", service.ErrRunDiscarded, http.StatusConflict},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := setupTestRouter(t, "100-M")
			ta.imports.ImportFunc = func(ctx context.Context, id string, trigger models.RunTrigger) (*models.ImportResult, error) {
				return nil, tt.err
			}

			w := ta.do("POST", "/v1/imports", map[string]string{"spreadsheetId": "sheet-1"})

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, decode(t, w)["error"])
		})
	}
}

func TestCreateImport_MissingID(t *testing.T) {
	ta := setupTestRouter(t, "100-M")

	w := ta.do("POST", "/v1/imports", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ta.imports.Imported)
}

func TestCreateImport_RateLimited(t *testing.T) {
	ta := setupTestRouter(t, "2-M")

	for i := 0; i < 2; i++ {
		w := ta.do("POST", "/v1/imports", map[string]string{"spreadsheetId": "sheet-1"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := ta.do("POST", "/v1/imports", map[string]string{"spreadsheetId": "sheet-1"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Len(t, ta.imports.Imported, 2)

	// Reads are not limited
	w = ta.do("GET", "/v1/imports", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetRun(t *testing.T) {
	ta := setupTestRouter(t, "100-M")
	ta.imports.Runs["run-1"] = &models.ImportRun{
		ID:            "run-1",
		SpreadsheetID: "sheet-1",
		Status:        models.RunStatusPartial,
		StartedAt:     time.Now(),
	}

	w := ta.do("GET", "/v1/imports/run-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "partial", decode(t, w)["status"])

	w = ta.do("GET", "/v1/imports/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRuns(t *testing.T) {
	ta := setupTestRouter(t, "100-M")
	ta.imports.Runs["run-1"] = &models.ImportRun{ID: "run-1", SpreadsheetID: "a"}
	ta.imports.Runs["run-2"] = &models.ImportRun{ID: "run-2", SpreadsheetID: "b"}

	w := ta.do("GET", "/v1/imports?spreadsheet_id=a&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = ta.do("GET", "/v1/imports?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRecords(t *testing.T) {
	ta := setupTestRouter(t, "100-M")
	ta.records.Records[models.KindCandidate] = []*models.Candidate{{Name: "Grace", Skills: []string{"Go"}}}

	w := ta.do("GET", "/v1/candidates?limit=5", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "candidates", resp["resource"])
	data := resp["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "Grace", data[0].(map[string]interface{})["name"])

	w = ta.do("GET", "/v1/performance?offset=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamExport(t *testing.T) {
	ta := setupTestRouter(t, "100-M")
	ta.export.Data = "name,email\nAda,ada@example.com\n"

	w := ta.do("GET", "/v1/exports?resource=recruiters&format=csv", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "recruiters.csv")
	assert.Equal(t, ta.export.Data, w.Body.String())
	assert.Equal(t, []string{"recruiter.csv"}, ta.export.Calls)
}

func TestStreamExport_BadParams(t *testing.T) {
	ta := setupTestRouter(t, "100-M")

	for _, path := range []string{
		"/v1/exports",
		"/v1/exports?resource=users",
		"/v1/exports?resource=clients&format=pdf",
	} {
		w := ta.do("GET", path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
	assert.Empty(t, ta.export.Calls)
}
