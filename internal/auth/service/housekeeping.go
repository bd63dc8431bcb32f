package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bonechkabonechka/tgauth/internal/auth/store"
)

// DefaultPairingRetention is how long finished or abandoned pairing
// sessions are kept after their deadline.
const DefaultPairingRetention = 24 * time.Hour

// HousekeepingService periodically removes pairing sessions whose deadline
// passed more than Retention ago. The state machine never deletes rows.
type HousekeepingService struct {
	Store     store.Store
	Logger    *slog.Logger
	Interval  time.Duration
	Retention time.Duration
	Now       func() time.Time

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval, retention time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = DefaultPairingRetention
	}

	return &HousekeepingService{
		Store:     store,
		Logger:    logger,
		Interval:  interval,
		Retention: retention,
		Now:       time.Now,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop() to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "retention", s.Retention)
}

// Stop blocks until the worker has finished any in-progress cleanup. It is
// safe to call more than once.
func (s *HousekeepingService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
		s.Logger.Info("housekeeping service stopped")
	})
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce deletes stale pairing sessions and reports how many went.
func (s *HousekeepingService) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.Now().Add(-s.Retention)
	return s.Store.PairingSessions().DeletePairingSessionsExpiredBefore(ctx, cutoff)
}

func (s *HousekeepingService) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), s.Interval)
	defer cancel()

	n, err := s.RunOnce(ctx)
	if err != nil {
		s.Logger.Error("failed to delete stale pairing sessions", "error", err)
		return
	}
	s.Logger.Info("housekeeping cleanup completed", "pairing_sessions_deleted", n)
}
