package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/repository"
)

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

var exportHeaders = map[models.EntityKind][]string{
	models.KindRecruiter: {
		"name", "email", "phone", "department", "territory", "hiredCount", "joinDate", "status", "trend", "location",
	},
	models.KindCandidate: {
		"name", "email", "phone", "position", "experience", "skills", "status", "salary", "recruiter", "client", "appliedDate", "location",
	},
	models.KindClient: {
		"name", "company", "email", "phone", "industry", "totalHired", "avgDaysToFill", "status", "location", "lastActivity",
	},
	models.KindPerformance: {
		"month", "recruiterCount", "hiredCount", "targetCount",
	},
}

// ContentType returns the response media type for format
func (s *exportService) ContentType(format string) string {
	switch format {
	case "ndjson":
		return "application/x-ndjson"
	case "csv":
		return "text/csv"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Stream writes every stored record of kind to w in format
func (s *exportService) Stream(ctx context.Context, w io.Writer, kind models.EntityKind, format string) error {
	if _, ok := exportHeaders[kind]; !ok {
		return fmt.Errorf("unknown kind: %s", kind)
	}

	s.log.Info().Str("kind", string(kind)).Str("format", format).Msg("Starting export")

	var count int
	var err error
	switch format {
	case "ndjson":
		count, err = s.streamNDJSON(ctx, w, kind)
	case "json":
		count, err = s.streamJSON(ctx, w, kind)
	case "csv":
		count, err = s.streamCSV(ctx, w, kind)
	case "xlsx":
		count, err = s.streamXLSX(ctx, w, kind)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if err != nil {
		s.log.Error().Err(err).Str("kind", string(kind)).Msg("Export failed")
		return err
	}
	s.log.Info().Int("count", count).Str("kind", string(kind)).Msg("Export completed")
	return nil
}

// each visits every stored record of kind with its flat cell values
func (s *exportService) each(ctx context.Context, kind models.EntityKind, fn func(record interface{}, cells []string) error) error {
	itoa := strconv.Itoa
	switch kind {
	case models.KindRecruiter:
		return s.repos.Recruiters.StreamAll(ctx, func(r *models.Recruiter) error {
			return fn(r, []string{r.Name, r.Email, r.Phone, r.Department, r.Territory, itoa(r.HiredCount), r.JoinDate, r.Status, r.Trend, r.Location})
		})
	case models.KindCandidate:
		return s.repos.Candidates.StreamAll(ctx, func(c *models.Candidate) error {
			return fn(c, []string{c.Name, c.Email, c.Phone, c.Position, c.Experience, strings.Join(c.Skills, ", "), c.Status, itoa(c.Salary), c.Recruiter, c.Client, c.AppliedDate, c.Location})
		})
	case models.KindClient:
		return s.repos.Clients.StreamAll(ctx, func(c *models.Client) error {
			return fn(c, []string{c.Name, c.Company, c.Email, c.Phone, c.Industry, itoa(c.TotalHired), itoa(c.AvgDaysToFill), c.Status, c.Location, c.LastActivity})
		})
	case models.KindPerformance:
		return s.repos.Performance.StreamAll(ctx, func(m *models.PerformanceMetric) error {
			return fn(m, []string{m.Month, itoa(m.RecruiterCount), itoa(m.HiredCount), itoa(m.TargetCount)})
		})
	}
	return fmt.Errorf("unknown kind: %s", kind)
}

func (s *exportService) streamNDJSON(ctx context.Context, w io.Writer, kind models.EntityKind) (int, error) {
	flusher, _ := w.(http.Flusher)
	count := 0

	err := s.each(ctx, kind, func(record interface{}, _ []string) error {
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		w.Write(data)
		w.Write([]byte("\n"))
		count++

		// Flush every 100 records for streaming
		if count%100 == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	return count, err
}

func (s *exportService) streamJSON(ctx context.Context, w io.Writer, kind models.EntityKind) (int, error) {
	w.Write([]byte("["))
	count := 0

	err := s.each(ctx, kind, func(record interface{}, _ []string) error {
		if count > 0 {
			w.Write([]byte(","))
		}
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		w.Write(data)
		count++
		return nil
	})

	w.Write([]byte("]"))
	return count, err
}

func (s *exportService) streamCSV(ctx context.Context, w io.Writer, kind models.EntityKind) (int, error) {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(exportHeaders[kind]); err != nil {
		return 0, err
	}

	count := 0
	err := s.each(ctx, kind, func(_ interface{}, cells []string) error {
		count++
		return writer.Write(cells)
	})
	return count, err
}

// streamXLSX buffers the workbook through excelize's stream writer; the zip
// container cannot be emitted before the sheet is complete.
func (s *exportService) streamXLSX(ctx context.Context, w io.Writer, kind models.EntityKind) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := kind.Resource()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return 0, err
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return 0, err
	}

	headers := exportHeaders[kind]
	if err := sw.SetRow("A1", toRow(nil, headers)); err != nil {
		return 0, err
	}

	count := 0
	err = s.each(ctx, kind, func(_ interface{}, cells []string) error {
		count++
		cell, err := excelize.CoordinatesToCellName(1, count+1)
		if err != nil {
			return err
		}
		return sw.SetRow(cell, toRow(headers, cells))
	})
	if err != nil {
		return count, err
	}

	if err := sw.Flush(); err != nil {
		return count, err
	}
	return count, f.Write(w)
}

var numericColumns = map[string]bool{
	"hiredCount": true, "salary": true, "totalHired": true,
	"avgDaysToFill": true, "recruiterCount": true, "targetCount": true,
}

// toRow types the numeric columns so spreadsheet formulas work on them
func toRow(headers, cells []string) []interface{} {
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		if i < len(headers) && numericColumns[headers[i]] {
			if n, err := strconv.Atoi(c); err == nil {
				row[i] = n
				continue
			}
		}
		row[i] = c
	}
	return row
}
