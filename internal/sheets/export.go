package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/tabular"
)

const maxExportBytes = 32 << 20

// ExportFetcher reads a published spreadsheet as CSV without authentication.
// It tries several URL shapes and keeps the first that looks like real tabular data.
type ExportFetcher struct {
	baseURL string
	client  *http.Client
	enabled bool
	log     zerolog.Logger
}

// NewExportFetcher creates the published-export strategy. When disabled it always
// reports ErrUnavailable.
func NewExportFetcher(baseURL string, timeout time.Duration, enabled bool, log zerolog.Logger) *ExportFetcher {
	return &ExportFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		enabled: enabled,
		log:     log.With().Str("component", "sheets_export").Logger(),
	}
}

// Name implements Fetcher
func (f *ExportFetcher) Name() string { return StrategyExport }

// FetchTab implements Fetcher
func (f *ExportFetcher) FetchTab(ctx context.Context, src *models.SourceConfig, tab models.TabSpec) (*tabular.Table, error) {
	if !f.enabled {
		return nil, fmt.Errorf("%w: published export disabled", ErrUnavailable)
	}

	for _, u := range f.ExportURLs(src.SpreadsheetID, tab) {
		body, err := f.get(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.log.Debug().Str("url", u).Err(err).Msg("Export attempt failed")
			continue
		}
		if !looksTabular(body) {
			f.log.Debug().Str("url", u).Msg("Export attempt returned non-tabular body")
			continue
		}
		return tabular.ParseDelimited(body), nil
	}

	return nil, ErrNoData
}

// ExportURLs lists the attempts in order: by tab id, by tab name, tabular query by
// name, whole document. Attempts needing a missing tab id or name are left out.
func (f *ExportFetcher) ExportURLs(spreadsheetID string, tab models.TabSpec) []string {
	doc := f.baseURL + "/spreadsheets/d/" + url.PathEscape(spreadsheetID)
	name := tab.Name()
	gid := strings.TrimSpace(tab.GID)

	var urls []string
	if gid != "" {
		urls = append(urls, doc+"/export?format=csv&gid="+url.QueryEscape(gid))
	}
	if name != "" {
		urls = append(urls,
			doc+"/export?format=csv&sheet="+url.QueryEscape(name),
			doc+"/gviz/tq?tqx=out:csv&sheet="+url.QueryEscape(name),
		)
	}
	return append(urls, doc+"/export?format=csv")
}

func (f *ExportFetcher) get(ctx context.Context, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxExportBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// looksTabular is a crude check: some delimiter or line break, and not an HTML page
// (private documents answer 200 with a sign-in page).
func looksTabular(body string) bool {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" || strings.HasPrefix(trimmed, "<") {
		return false
	}
	return strings.ContainsAny(trimmed, ",\n")
}
