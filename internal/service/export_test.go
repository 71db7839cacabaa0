package service

import (
	"context"
	"time"

	"github.com/recruitops-api/internal/models"
)

// Tick runs one scheduled tick synchronously
func (s *Scheduler) Tick(ctx context.Context, src *models.SourceConfig) bool {
	return s.tick(ctx, src)
}

// SetClock replaces the scheduler's time source
func (s *Scheduler) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
