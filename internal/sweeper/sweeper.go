package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/acm-sigapp/club-backend/internal/domain"
	"github.com/acm-sigapp/club-backend/internal/metrics"
	"github.com/acm-sigapp/club-backend/internal/repository"
	"github.com/robfig/cron/v3"
)

// Sweeper periodically deletes Pending records whose expiry has passed.
// Records in any other status are never touched, regardless of age.
type Sweeper struct {
	repo     repository.SubscriptionRepository
	logger   *slog.Logger
	schedule cron.Schedule
}

// New builds a sweeper from a standard cron spec (e.g. "0 * * * *" for
// hourly).
func New(repo repository.SubscriptionRepository, logger *slog.Logger, spec string) (*Sweeper, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		repo:     repo,
		logger:   logger.With("component", "sweeper"),
		schedule: schedule,
	}, nil
}

// Start runs sweeps on the configured schedule until ctx is cancelled.
// A failed sweep is logged and the loop simply waits for the next run.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("sweeper started")

	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("sweeper shut down")
			return
		case <-timer.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("sweep failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single sweep pass.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.SweeperCycleDuration.Observe(time.Since(start).Seconds())
	}()

	all, err := s.repo.All(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	var expired []int
	for _, p := range all {
		if p.Record.Status == domain.StatusPending && p.Record.Expired(now) {
			expired = append(expired, p.Row)
		}
	}
	if len(expired) == 0 {
		return nil
	}

	// The store deletes highest row first, so positions collected above
	// stay valid for the whole batch.
	if err := s.repo.DeleteRows(ctx, expired); err != nil {
		return err
	}

	metrics.SweeperPrunedTotal.Add(float64(len(expired)))
	s.logger.Info("pruned expired pending records", "count", len(expired))
	return nil
}
