package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicore/clinic-ops-api/internal/repository"
	"github.com/clinicore/clinic-ops-api/pkg/metrics"
)

// AuditCleanupWorker removes audit rows older than the retention window.
type AuditCleanupWorker struct {
	repo          repository.AuditRepository
	retentionDays int
	interval      time.Duration
	logger        zerolog.Logger
	metrics       *metrics.Metrics
}

func NewAuditCleanupWorker(repo repository.AuditRepository, retentionDays int, interval time.Duration, logger zerolog.Logger, m *metrics.Metrics) *AuditCleanupWorker {
	return &AuditCleanupWorker{
		repo:          repo,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger.With().Str("component", "audit_cleanup").Logger(),
		metrics:       m,
	}
}

func (w *AuditCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Int("retention_days", w.retentionDays).Msg("audit cleanup worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("audit cleanup worker shutting down")
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -w.retentionDays)
			deleted, err := w.repo.Cleanup(ctx, cutoff)
			if err != nil {
				w.logger.Error().Err(err).Msg("audit cleanup failed")
				continue
			}
			if deleted > 0 {
				w.metrics.AuditRowsDeleted.Add(float64(deleted))
				w.logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("audit rows removed")
			}
		}
	}
}
