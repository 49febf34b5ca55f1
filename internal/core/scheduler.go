package core

// scheduler.go runs history retention in the background.
//
// The retention job deletes detection records older than the configured
// number of days. It runs once on start and then every interval until its
// context is cancelled. Failures are logged and retried on the next tick;
// they never stop the application.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig controls the history retention job.
type RetentionConfig struct {
	RetentionDays int           // Records older than this are pruned; 0 disables
	Interval      time.Duration // How often to run (default: 24h)
}

// StartRetentionScheduler prunes old history until ctx is cancelled.
// It returns immediately when retention is disabled.
func (s *Service) StartRetentionScheduler(ctx context.Context, cfg RetentionConfig) {
	if cfg.RetentionDays <= 0 {
		slog.Info("history retention disabled")
		return
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}

	slog.Info("retention scheduler started",
		"retention_days", cfg.RetentionDays,
		"interval", cfg.Interval,
	)

	// Run immediately on startup
	s.runRetentionJob(ctx, cfg.RetentionDays)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention scheduler stopped")
			return
		case <-ticker.C:
			s.runRetentionJob(ctx, cfg.RetentionDays)
		}
	}
}

// runRetentionJob performs one prune cycle and returns the number of
// records removed.
func (s *Service) runRetentionJob(ctx context.Context, retentionDays int) int64 {
	start := time.Now()
	cutoff := start.AddDate(0, 0, -retentionDays)

	pruned, err := s.store.PruneDetections(ctx, cutoff)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return 0
	}

	slog.Info("pruned detection history",
		"records_pruned", pruned,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return pruned
}
