package service

import (
	"context"
	"sync"
	"time"

	"github.com/DemocracyDevelopers/irvcheck/internal/domain"
	"go.uber.org/zap"
)

const defaultRetentionInterval = 1 * time.Hour

// RetentionService deletes verification runs older than the retention window.
type RetentionService struct {
	store  domain.RunStore
	logger *zap.Logger

	retentionDays int
	interval      time.Duration
	now           func() time.Time
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

func NewRetentionService(s domain.RunStore, retentionDays int, logger *zap.Logger) *RetentionService {
	return &RetentionService{
		store:         s,
		logger:        logger,
		retentionDays: retentionDays,
		interval:      defaultRetentionInterval,
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
}

func (s *RetentionService) SetInterval(d time.Duration) {
	s.interval = d
}

// Start runs the retention sweep on a periodic schedule in a background goroutine.
// A retention of zero days keeps runs forever and starts nothing.
func (s *RetentionService) Start() {
	if s.retentionDays <= 0 {
		s.logger.Info("run retention disabled")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("run retention started",
			zap.Duration("interval", s.interval),
			zap.Int("retention_days", s.retentionDays))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				s.run(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("run retention stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the sweep. Safe to call when Start did nothing.
func (s *RetentionService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *RetentionService) run(ctx context.Context) int64 {
	cutoff := s.now().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to delete old verification runs", zap.Error(err))
		return 0
	}
	if deleted > 0 {
		s.logger.Info("deleted verification runs past retention",
			zap.Time("cutoff", cutoff),
			zap.Int64("count", deleted))
	}
	return deleted
}
