package service

import (
	"context"
	"fmt"

	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/repository"
)

type recordService struct {
	repos *repository.Repositories
}

func newRecordService(repos *repository.Repositories) *recordService {
	return &recordService{repos: repos}
}

// List returns one page of stored records of kind
func (s *recordService) List(ctx context.Context, kind models.EntityKind, limit, offset int) (interface{}, error) {
	switch kind {
	case models.KindRecruiter:
		return s.repos.Recruiters.List(ctx, limit, offset)
	case models.KindCandidate:
		return s.repos.Candidates.List(ctx, limit, offset)
	case models.KindClient:
		return s.repos.Clients.List(ctx, limit, offset)
	case models.KindPerformance:
		return s.repos.Performance.List(ctx, limit, offset)
	}
	return nil, fmt.Errorf("unknown kind: %s", kind)
}

// Stats counts what is stored, plus the most recent run
func (s *recordService) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	var err error

	if stats.Recruiters, err = s.repos.Recruiters.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Candidates, err = s.repos.Candidates.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Clients, err = s.repos.Clients.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Performance, err = s.repos.Performance.Count(ctx); err != nil {
		return nil, err
	}

	sources, err := s.repos.Sources.List(ctx)
	if err != nil {
		return nil, err
	}
	stats.Sources = len(sources)

	runs, err := s.repos.Runs.List(ctx, "", 1)
	if err != nil {
		return nil, err
	}
	if len(runs) > 0 {
		stats.LastRun = runs[0]
	}
	return &stats, nil
}
