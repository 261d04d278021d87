package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pollmarket/internal/models"
	"pollmarket/internal/repository"
)

// MaintenanceService hosts the cron-driven jobs: a periodic market
// snapshot line for operators and event-outbox pruning. Neither job
// mutates poll state; deadline passage stays a derived predicate, not
// a stored transition.
type MaintenanceService struct {
	Repo           repository.Repository
	Logger         *zap.Logger
	EventRetention time.Duration
}

func (s *MaintenanceService) SnapshotStats(ctx context.Context) {
	if s == nil || s.Repo == nil {
		return
	}
	active := models.PollStatusActive
	resolved := models.PollStatusResolved
	activeCount, err := s.Repo.CountPolls(ctx, repository.ListPollsParams{Status: &active})
	if err != nil {
		s.warn("snapshot: count active failed", err)
		return
	}
	resolvedCount, err := s.Repo.CountPolls(ctx, repository.ListPollsParams{Status: &resolved})
	if err != nil {
		s.warn("snapshot: count resolved failed", err)
		return
	}
	pastDeadline, err := s.Repo.CountPollsPastDeadline(ctx, time.Now().UTC())
	if err != nil {
		s.warn("snapshot: count past deadline failed", err)
		return
	}
	if s.Logger != nil {
		s.Logger.Info("market snapshot",
			zap.Int64("active_polls", activeCount),
			zap.Int64("resolved_polls", resolvedCount),
			zap.Int64("awaiting_resolution", pastDeadline),
		)
	}
}

func (s *MaintenanceService) PruneEvents(ctx context.Context) {
	if s == nil || s.Repo == nil || s.EventRetention <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-s.EventRetention)
	deleted, err := s.Repo.DeleteMarketEventsBefore(ctx, cutoff)
	if err != nil {
		s.warn("event prune failed", err)
		return
	}
	if deleted > 0 && s.Logger != nil {
		s.Logger.Info("pruned market events",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}

func (s *MaintenanceService) warn(msg string, err error) {
	if s.Logger != nil {
		s.Logger.Warn(msg, zap.Error(err))
	}
}
