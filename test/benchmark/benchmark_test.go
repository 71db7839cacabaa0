package benchmark

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/recruitops-api/internal/cache"
	"github.com/recruitops-api/internal/config"
	"github.com/recruitops-api/internal/mapping"
	"github.com/recruitops-api/internal/mocks"
	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/service"
	"github.com/recruitops-api/internal/tabular"
	"github.com/recruitops-api/internal/validation"
)

const benchRows = 1000

var candidateHeaders = []string{"Name", "Email", "Position", "Skills", "Status", "Salary", "Recruiter", "Applied Date"}

func candidateValues(n int) [][]string {
	values := [][]string{candidateHeaders}
	for i := 0; i < n; i++ {
		id := strconv.Itoa(i)
		values = append(values, []string{
			"Candidate " + id, "c" + id + "@test.com", "Engineer",
			"Go, SQL; Kubernetes", "interview", "$" + strconv.Itoa(80000+i),
			"Recruiter " + strconv.Itoa(i%20), "2024-01-15",
		})
	}
	return values
}

// candidateCSV renders the same table as a published CSV export, quoting the comma fields
func candidateCSV(n int) string {
	var sb strings.Builder
	for _, row := range candidateValues(n) {
		for j, cell := range row {
			if j > 0 {
				sb.WriteByte(',')
			}
			if strings.ContainsAny(cell, ",\"") {
				sb.WriteString(`"` + strings.ReplaceAll(cell, `"`, `""`) + `"`)
				continue
			}
			sb.WriteString(cell)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// BenchmarkParseDelimited benchmarks published-export parsing
func BenchmarkParseDelimited(b *testing.B) {
	data := candidateCSV(benchRows)

	b.ResetTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	for i := 0; i < b.N; i++ {
		tabular.ParseDelimited(data)
	}

	b.ReportMetric(float64(benchRows*b.N)/b.Elapsed().Seconds(), "rows/sec")
}

// BenchmarkMapTable benchmarks header aliasing and coercion into records
func BenchmarkMapTable(b *testing.B) {
	table := tabular.FromValues(candidateValues(benchRows))

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		mapping.MapTable(table, models.KindCandidate)
	}

	b.ReportMetric(float64(benchRows*b.N)/b.Elapsed().Seconds(), "rows/sec")
}

// BenchmarkInferKind benchmarks sheet-type inference on one header row
func BenchmarkInferKind(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		mapping.InferKind(candidateHeaders)
	}
}

// BenchmarkRunImport benchmarks a full orchestrator run against in-memory fakes
func BenchmarkRunImport(b *testing.B) {
	repos := mocks.NewRepositories()
	fetcher := mocks.NewMockTabFetcher()
	fetcher.Tabs["Candidates"] = mocks.TabResponse{Values: candidateValues(benchRows)}
	fetcher.Tabs["Recruiters"] = mocks.TabResponse{Values: [][]string{{"Name", "Hired"}, {"Jane", "4"}}}

	cfg := &config.Config{Scheduler: config.SchedulerConfig{MaxRunsPerMinute: 20, MinInterval: 3 * time.Second}}
	svc := service.NewServices(repos.Repos(), fetcher, cache.NewMemory(), cfg, zerolog.Nop())
	defer svc.Scheduler.Shutdown()

	src := &models.SourceConfig{SpreadsheetID: "bench", Ranges: models.DefaultTabRanges()}
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := svc.Import.RunImport(ctx, src, models.TriggerManual); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportMetric(float64(benchRows*b.N)/b.Elapsed().Seconds(), "rows/sec")
}

// BenchmarkValidation benchmarks source configuration validation
func BenchmarkValidation(b *testing.B) {
	validator := validation.NewValidator()

	req := &models.SourceConfigRequest{
		SpreadsheetID:          "1AbCdEfGhIjKlMnOpQrStUvWxYz",
		APIKey:                 "key",
		Ranges:                 models.DefaultTabRanges(),
		AutoRefresh:            true,
		RefreshIntervalMinutes: 5,
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		validator.ValidateSourceConfig(req)
	}
}

// BenchmarkRunLockParallel benchmarks the per-source lock pattern under contention
func BenchmarkRunLockParallel(b *testing.B) {
	lock := make(chan struct{}, 1)

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			lock <- struct{}{}
			<-lock
		}
	})
}
