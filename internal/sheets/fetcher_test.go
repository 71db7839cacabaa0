package sheets_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/sheets"
	"github.com/recruitops-api/internal/tabular"
)

type fakeFetcher struct {
	name  string
	table *tabular.Table
	err   error
	calls int
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) FetchTab(ctx context.Context, src *models.SourceConfig, tab models.TabSpec) (*tabular.Table, error) {
	f.calls++
	return f.table, f.err
}

func testSource() *models.SourceConfig {
	return &models.SourceConfig{SpreadsheetID: "sheet-123", Ranges: models.DefaultTabRanges()}
}

func TestChain_SkipsUnavailable(t *testing.T) {
	table := tabular.FromValues([][]string{{"name"}, {"Jane"}})
	first := &fakeFetcher{name: "credential", err: sheets.ErrUnavailable}
	second := &fakeFetcher{name: "api_key", table: table}
	third := &fakeFetcher{name: "export"}

	chain := sheets.NewChain(zerolog.Nop(), first, second, third)
	got, err := chain.FetchTab(context.Background(), testSource(), models.TabSpec{Range: "Recruiters"})

	require.NoError(t, err)
	assert.Equal(t, "api_key", got.Strategy)
	assert.Same(t, table, got.Table)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, third.calls)
}

func TestChain_FallsBackAfterError(t *testing.T) {
	table := tabular.FromValues([][]string{{"name"}, {"Jane"}})
	loud := &fakeFetcher{name: "api_key", err: errors.New("googleapi: Error 403")}
	export := &fakeFetcher{name: "export", table: table}

	chain := sheets.NewChain(zerolog.Nop(), loud, export)
	got, err := chain.FetchTab(context.Background(), testSource(), models.TabSpec{Range: "Recruiters"})

	require.NoError(t, err)
	assert.Equal(t, "export", got.Strategy)
}

func TestChain_AllUnavailableIsConfigurationError(t *testing.T) {
	chain := sheets.NewChain(zerolog.Nop(),
		&fakeFetcher{name: "credential", err: sheets.ErrUnavailable},
		&fakeFetcher{name: "api_key", err: sheets.ErrUnavailable},
	)
	_, err := chain.FetchTab(context.Background(), testSource(), models.TabSpec{Range: "Recruiters"})
	assert.ErrorIs(t, err, sheets.ErrNotConfigured)
}

func TestChain_JoinsErrors(t *testing.T) {
	apiErr := errors.New("quota exceeded")
	chain := sheets.NewChain(zerolog.Nop(),
		&fakeFetcher{name: "credential", err: sheets.ErrUnavailable},
		&fakeFetcher{name: "api_key", err: apiErr},
		&fakeFetcher{name: "export", err: sheets.ErrNoData},
	)
	_, err := chain.FetchTab(context.Background(), testSource(), models.TabSpec{Range: "Recruiters"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apiErr)
	assert.ErrorIs(t, err, sheets.ErrNoData)
	assert.NotErrorIs(t, err, sheets.ErrNotConfigured)
}

func TestExportFetcher_URLOrder(t *testing.T) {
	f := sheets.NewExportFetcher("https://docs.example.com/", time.Second, true, zerolog.Nop())

	urls := f.ExportURLs("doc-1", models.TabSpec{Range: "'My Tab'!A1:D", GID: "42"})
	assert.Equal(t, []string{
		"https://docs.example.com/spreadsheets/d/doc-1/export?format=csv&gid=42",
		"https://docs.example.com/spreadsheets/d/doc-1/export?format=csv&sheet=My+Tab",
		"https://docs.example.com/spreadsheets/d/doc-1/gviz/tq?tqx=out:csv&sheet=My+Tab",
		"https://docs.example.com/spreadsheets/d/doc-1/export?format=csv",
	}, urls)

	assert.Len(t, f.ExportURLs("doc-1", models.TabSpec{}), 1)
}

func TestExportFetcher_FirstTabularResponseWins(t *testing.T) {
	var mu sync.Mutex
	var hits []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, r.URL.RequestURI())
		mu.Unlock()

		q := r.URL.Query()
		switch {
		case q.Get("gid") != "":
			w.WriteHeader(http.StatusNotFound)
		case strings.HasSuffix(r.URL.Path, "/export") && q.Get("sheet") != "":
			w.Write([]byte("<!DOCTYPE html><html>sign in</html>"))
		case strings.HasSuffix(r.URL.Path, "/gviz/tq"):
			w.Write([]byte("\"Name\",\"Hired\"\n\"Jane\",\"7\"\n"))
		default:
			w.Write([]byte("wrong,tab\n1,2\n"))
		}
	}))
	defer srv.Close()

	f := sheets.NewExportFetcher(srv.URL, time.Second, true, zerolog.Nop())
	table, err := f.FetchTab(context.Background(), testSource(), models.TabSpec{Range: "Recruiters!A:B", GID: "7"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Hired"}, table.Headers)
	require.Equal(t, 1, table.Len())
	assert.Len(t, hits, 3)
}

func TestExportFetcher_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/gviz/tq") {
			w.Write([]byte("   "))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := sheets.NewExportFetcher(srv.URL, time.Second, true, zerolog.Nop())
	_, err := f.FetchTab(context.Background(), testSource(), models.TabSpec{Range: "Clients"})
	assert.ErrorIs(t, err, sheets.ErrNoData)
}

func TestExportFetcher_Disabled(t *testing.T) {
	f := sheets.NewExportFetcher("http://unused", time.Second, false, zerolog.Nop())
	_, err := f.FetchTab(context.Background(), testSource(), models.TabSpec{Range: "Clients"})
	assert.ErrorIs(t, err, sheets.ErrUnavailable)
}

func valuesServer(t *testing.T, check func(r *http.Request) int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sheet-123/values/") {
			http.NotFound(w, r)
			return
		}
		if status := check(r); status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"code":403,"message":"denied","status":"PERMISSION_DENIED"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"range":          "Recruiters!A1:D3",
			"majorDimension": "ROWS",
			"values": [][]interface{}{
				{"Name", "Email", "Hired", "Status"},
				{"Jane", "jane@x.com", "7", "active"},
			},
		})
	}))
}

func TestAPIKeyFetcher(t *testing.T) {
	srv := valuesServer(t, func(r *http.Request) int {
		if r.URL.Query().Get("key") != "key-abc" {
			return http.StatusForbidden
		}
		return http.StatusOK
	})
	defer srv.Close()

	src := testSource()
	src.APIKey = "key-abc"

	f := sheets.NewAPIKeyFetcher("", srv.URL+"/")
	table, err := f.FetchTab(context.Background(), src, models.TabSpec{Range: "Recruiters!A1:D"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Email", "Hired", "Status"}, table.Headers)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "7", table.Rows[0].At(2))
}

func TestAPIKeyFetcher_FailsLoudly(t *testing.T) {
	srv := valuesServer(t, func(r *http.Request) int { return http.StatusForbidden })
	defer srv.Close()

	f := sheets.NewAPIKeyFetcher("bad-key", srv.URL+"/")
	_, err := f.FetchTab(context.Background(), testSource(), models.TabSpec{Range: "Recruiters"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, sheets.ErrUnavailable)
}

func TestAPIKeyFetcher_NoKeyIsUnavailable(t *testing.T) {
	f := sheets.NewAPIKeyFetcher("", "http://unused/")
	_, err := f.FetchTab(context.Background(), testSource(), models.TabSpec{Range: "Recruiters"})
	assert.ErrorIs(t, err, sheets.ErrUnavailable)
}

func TestCredentialFetcher(t *testing.T) {
	srv := valuesServer(t, func(r *http.Request) int {
		if r.Header.Get("Authorization") != "Bearer short-lived" {
			return http.StatusForbidden
		}
		return http.StatusOK
	})
	defer srv.Close()

	var gotCredential string
	tokens := func(ctx context.Context, credential []byte) (oauth2.TokenSource, error) {
		gotCredential = string(credential)
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "short-lived"}), nil
	}

	f := sheets.NewCredentialFetcher([]byte(`{"type":"service_account"}`), tokens, srv.URL+"/")
	table, err := f.FetchTab(context.Background(), testSource(), models.TabSpec{Range: "Recruiters"})

	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, `{"type":"service_account"}`, gotCredential)
}

type countingTokenSource struct {
	mu    sync.Mutex
	calls int
}

func (c *countingTokenSource) Token() (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return &oauth2.Token{AccessToken: "short-lived", Expiry: time.Now().Add(time.Hour)}, nil
}

func TestCredentialFetcher_ReusesTokenAcrossTabs(t *testing.T) {
	srv := valuesServer(t, func(r *http.Request) int {
		if r.Header.Get("Authorization") != "Bearer short-lived" {
			return http.StatusForbidden
		}
		return http.StatusOK
	})
	defer srv.Close()

	var mu sync.Mutex
	parsed := map[string]int{}
	exchanges := &countingTokenSource{}
	tokens := func(ctx context.Context, credential []byte) (oauth2.TokenSource, error) {
		mu.Lock()
		defer mu.Unlock()
		parsed[string(credential)]++
		return exchanges, nil
	}

	f := sheets.NewCredentialFetcher([]byte(`{"type":"service_account"}`), tokens, srv.URL+"/")
	ranges := models.DefaultTabRanges()

	var wg sync.WaitGroup
	for _, kind := range models.Kinds {
		kind := kind
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.FetchTab(context.Background(), testSource(), ranges.For(kind))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, parsed[`{"type":"service_account"}`])
	assert.Equal(t, 1, exchanges.calls)

	// a source with its own credential gets its own token source
	src := testSource()
	src.Credential = `{"type":"service_account","client_email":"other@x"}`
	_, err := f.FetchTab(context.Background(), src, models.TabSpec{Range: "Recruiters"})
	require.NoError(t, err)
	assert.Len(t, parsed, 2)
}

func TestCredentialFetcher_FailsClosed(t *testing.T) {
	noCredential := sheets.NewCredentialFetcher(nil, nil, "")
	_, err := noCredential.FetchTab(context.Background(), testSource(), models.TabSpec{Range: "Recruiters"})
	assert.ErrorIs(t, err, sheets.ErrUnavailable)

	rejected := sheets.NewCredentialFetcher([]byte("{}"), func(ctx context.Context, b []byte) (oauth2.TokenSource, error) {
		return nil, errors.New("invalid_grant")
	}, "")
	_, err = rejected.FetchTab(context.Background(), testSource(), models.TabSpec{Range: "Recruiters"})
	assert.ErrorIs(t, err, sheets.ErrUnavailable)

	// a real credential JSON that cannot be parsed also fails closed
	garbage := sheets.NewCredentialFetcher(nil, nil, "")
	src := testSource()
	src.Credential = "not json"
	_, err = garbage.FetchTab(context.Background(), src, models.TabSpec{Range: "Recruiters"})
	assert.ErrorIs(t, err, sheets.ErrUnavailable)
}
