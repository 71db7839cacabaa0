package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/tabular"
)

// TokenSourceFunc turns a long-lived service credential into a token source
type TokenSourceFunc func(ctx context.Context, credentialJSON []byte) (oauth2.TokenSource, error)

// GoogleTokenSource reads a service-account (or other Google) credential JSON
func GoogleTokenSource(ctx context.Context, credentialJSON []byte) (oauth2.TokenSource, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialJSON, sheetsapi.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, err
	}
	return creds.TokenSource, nil
}

// CredentialFetcher exchanges a service credential for an access token and reads
// the tab through the Sheets values API. It fails closed: anything short of a
// token yields ErrUnavailable. Tokens are reused per credential until they expire.
type CredentialFetcher struct {
	defaultCredential []byte
	tokenSource       TokenSourceFunc
	endpoint          string

	mu     sync.Mutex
	tokens map[string]oauth2.TokenSource
}

// NewCredentialFetcher creates the credentialed strategy. defaultCredential is used
// for sources without a credential of their own; endpoint may be empty.
func NewCredentialFetcher(defaultCredential []byte, tokenSource TokenSourceFunc, endpoint string) *CredentialFetcher {
	if tokenSource == nil {
		tokenSource = GoogleTokenSource
	}
	return &CredentialFetcher{
		defaultCredential: defaultCredential,
		tokenSource:       tokenSource,
		endpoint:          endpoint,
		tokens:            make(map[string]oauth2.TokenSource),
	}
}

// Name implements Fetcher
func (f *CredentialFetcher) Name() string { return StrategyCredential }

// FetchTab implements Fetcher
func (f *CredentialFetcher) FetchTab(ctx context.Context, src *models.SourceConfig, tab models.TabSpec) (*tabular.Table, error) {
	credential := []byte(strings.TrimSpace(src.Credential))
	if len(credential) == 0 {
		credential = f.defaultCredential
	}
	if len(credential) == 0 {
		return nil, fmt.Errorf("%w: no service credential", ErrUnavailable)
	}
	if strings.TrimSpace(tab.Range) == "" {
		return nil, fmt.Errorf("%w: tab has no range", ErrUnavailable)
	}

	ts, err := f.tokenSourceFor(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: credential rejected: %v", ErrUnavailable, err)
	}
	token, err := ts.Token()
	if err != nil {
		f.forget(credential)
		return nil, fmt.Errorf("%w: token exchange failed: %v", ErrUnavailable, err)
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if f.endpoint != "" {
		opts = append(opts, option.WithEndpoint(f.endpoint))
	}

	return getValues(ctx, src.SpreadsheetID, tab.Range, opts...)
}

// tokenSourceFor returns the cached token source for credential, creating it on first use.
// The source outlives the request, so it is built on a context without cancellation.
func (f *CredentialFetcher) tokenSourceFor(ctx context.Context, credential []byte) (oauth2.TokenSource, error) {
	key := string(credential)

	f.mu.Lock()
	defer f.mu.Unlock()
	if ts, ok := f.tokens[key]; ok {
		return ts, nil
	}

	ts, err := f.tokenSource(context.WithoutCancel(ctx), credential)
	if err != nil {
		return nil, err
	}
	ts = oauth2.ReuseTokenSource(nil, ts)
	f.tokens[key] = ts
	return ts, nil
}

func (f *CredentialFetcher) forget(credential []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, string(credential))
}

// APIKeyFetcher reads the tab through the Sheets values API with a public API key.
// A missing key is ErrUnavailable; any API failure is returned as is.
type APIKeyFetcher struct {
	defaultKey string
	endpoint   string
}

// NewAPIKeyFetcher creates the API-key strategy
func NewAPIKeyFetcher(defaultKey, endpoint string) *APIKeyFetcher {
	return &APIKeyFetcher{defaultKey: defaultKey, endpoint: endpoint}
}

// Name implements Fetcher
func (f *APIKeyFetcher) Name() string { return StrategyAPIKey }

// FetchTab implements Fetcher
func (f *APIKeyFetcher) FetchTab(ctx context.Context, src *models.SourceConfig, tab models.TabSpec) (*tabular.Table, error) {
	key := strings.TrimSpace(src.APIKey)
	if key == "" {
		key = f.defaultKey
	}
	if key == "" {
		return nil, fmt.Errorf("%w: api key not configured", ErrUnavailable)
	}
	if strings.TrimSpace(tab.Range) == "" {
		return nil, fmt.Errorf("%w: tab has no range", ErrUnavailable)
	}

	opts := []option.ClientOption{option.WithAPIKey(key)}
	if f.endpoint != "" {
		opts = append(opts, option.WithEndpoint(f.endpoint))
	}

	return getValues(ctx, src.SpreadsheetID, tab.Range, opts...)
}

func getValues(ctx context.Context, spreadsheetID, rng string, opts ...option.ClientOption) (*tabular.Table, error) {
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	resp, err := svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get values for %q: %w", rng, err)
	}

	return tabular.FromCells(resp.Values), nil
}
