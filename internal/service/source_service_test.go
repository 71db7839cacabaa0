package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitops-api/internal/cache"
	"github.com/recruitops-api/internal/mocks"
	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/service"
	"github.com/recruitops-api/internal/sheets"
)

func TestSourceService_SaveKeepsStoredSecrets(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Sources.Save(ctx, &models.SourceConfigRequest{SpreadsheetID: "sheet-1", APIKey: "key-1", Credential: `{"type":"service_account"}`})
	require.NoError(t, err)

	cfg, err := h.svc.Sources.Save(ctx, &models.SourceConfigRequest{
		SpreadsheetID: " sheet-1 ",
		Ranges:        models.TabRanges{Recruiters: models.TabSpec{Range: "Team!A1:K"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "sheet-1", cfg.SpreadsheetID)
	assert.Equal(t, "key-1", cfg.APIKey)
	assert.True(t, cfg.HasCredential())
	assert.Equal(t, "Team!A1:K", cfg.Ranges.Recruiters.Range)
	assert.Equal(t, "Candidates", cfg.Ranges.Candidates.Range)
	assert.False(t, h.svc.Scheduler.Active("sheet-1"))
}

func TestSourceService_SaveArmsScheduler(t *testing.T) {
	h := newHarness(t)
	h.serveAll()

	cfg, err := h.svc.Sources.Save(context.Background(), &models.SourceConfigRequest{
		SpreadsheetID: "sheet-1", AutoRefresh: true, RefreshIntervalMinutes: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MinRefreshIntervalMinutes, cfg.RefreshIntervalMinutes)
	assert.True(t, h.svc.Scheduler.Active("sheet-1"))
}

func TestSourceService_GetUnknown(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Sources.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, service.ErrSourceNotFound)
}

func TestSourceService_ClearAll(t *testing.T) {
	h := newHarness(t)
	h.serveAll()
	ctx := context.Background()

	_, err := h.svc.Sources.Save(ctx, &models.SourceConfigRequest{SpreadsheetID: "sheet-1"})
	require.NoError(t, err)
	_, err = h.svc.Import.Import(ctx, "sheet-1", models.TriggerManual)
	require.NoError(t, err)
	h.svc.Scheduler.Save(&models.SourceConfig{SpreadsheetID: "sheet-2", AutoRefresh: true, RefreshIntervalMinutes: 60})
	require.Eventually(t, func() bool { return h.repos.Sources.TouchCount("sheet-2") == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.svc.Sources.ClearAll(ctx))

	assert.False(t, h.svc.Scheduler.Active("sheet-2"))
	sources, _ := h.svc.Sources.List(ctx)
	assert.Empty(t, sources)
	assert.Empty(t, h.repos.Recruiters.Records)
	assert.Empty(t, h.repos.Performance.Records)
	runs, _ := h.svc.Import.ListRuns(ctx, "", 0)
	assert.Empty(t, runs)
	cached, _ := h.results.Get(ctx, "sheet-1")
	assert.Nil(t, cached)
}

// gatedFetcher serves every tab but holds them all until released
type gatedFetcher struct {
	*mocks.MockTabFetcher
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (f *gatedFetcher) FetchTab(ctx context.Context, src *models.SourceConfig, tab models.TabSpec) (*sheets.Fetched, error) {
	f.once.Do(func() { close(f.started) })
	<-f.release
	return f.MockTabFetcher.FetchTab(ctx, src, tab)
}

func TestSourceService_ClearAllDiscardsRunningImport(t *testing.T) {
	repos := mocks.NewRepositories()
	results := cache.NewMemory()
	fetcher := &gatedFetcher{MockTabFetcher: mocks.NewMockTabFetcher(), started: make(chan struct{}), release: make(chan struct{})}
	fetcher.Tabs["Recruiters"] = mocks.TabResponse{Values: recruiterTab}
	svc := service.NewServices(repos.Repos(), fetcher, results, testConfig(), zerolog.Nop())
	t.Cleanup(svc.Scheduler.Shutdown)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Import.RunImport(ctx, source(), models.TriggerManual)
		done <- err
	}()
	<-fetcher.started

	require.NoError(t, svc.Sources.ClearAll(ctx))
	close(fetcher.release)
	assert.ErrorIs(t, <-done, service.ErrRunDiscarded)

	assert.Empty(t, repos.Recruiters.Records)
	assert.Equal(t, 0, repos.Recruiters.ReplaceCalls)
	cached, err := results.Get(ctx, "sheet-1")
	require.NoError(t, err)
	assert.Nil(t, cached)
	runs, _ := svc.Import.ListRuns(ctx, "", 0)
	assert.Empty(t, runs)

	// the next run writes normally
	_, err = svc.Import.RunImport(ctx, source(), models.TriggerManual)
	require.NoError(t, err)
	assert.Len(t, repos.Recruiters.Records, 2)
}

func TestRecordService_Stats(t *testing.T) {
	h := newHarness(t)
	h.serveAll()
	ctx := context.Background()

	_, err := h.svc.Import.RunImport(ctx, source(), models.TriggerManual)
	require.NoError(t, err)

	stats, err := h.svc.Records.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Recruiters)
	assert.Equal(t, 1, stats.Candidates)
	assert.Equal(t, 1, stats.Clients)
	assert.Equal(t, 2, stats.Performance)
	require.NotNil(t, stats.LastRun)
	assert.Equal(t, models.RunStatusCompleted, stats.LastRun.Status)

	page, err := h.svc.Records.List(ctx, models.KindRecruiter, 1, 1)
	require.NoError(t, err)
	recruiters := page.([]*models.Recruiter)
	require.Len(t, recruiters, 1)
	assert.Equal(t, "Raj", recruiters[0].Name)
}
