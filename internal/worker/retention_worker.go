package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/taskboard/internal/domain"
	"github.com/yourorg/taskboard/internal/observability/metrics"
)

// RetentionWorker periodically hard-deletes tasks that have sat in ARCHIVED
// beyond the retention window. This is the only path that removes task rows;
// the API surface never deletes.
type RetentionWorker struct {
	tasks     domain.TaskRepository
	logger    *slog.Logger
	interval  time.Duration
	retention time.Duration
}

// NewRetentionWorker creates a new retention worker
func NewRetentionWorker(tasks domain.TaskRepository, logger *slog.Logger, interval, retention time.Duration) *RetentionWorker {
	if logger == nil {
		logger = slog.Default()
	}

	return &RetentionWorker{
		tasks:     tasks,
		logger:    logger,
		interval:  interval,
		retention: retention,
	}
}

// Start begins the retention loop. It blocks until ctx is cancelled.
func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("retention worker started",
		slog.Duration("interval", w.interval),
		slog.Duration("retention", w.retention),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("retention worker stopped")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *RetentionWorker) sweep() {
	cutoff := time.Now().Add(-w.retention)

	purged, err := w.tasks.PurgeArchivedBefore(cutoff)
	if err != nil {
		w.logger.Error("retention sweep failed", slog.String("error", err.Error()))
		return
	}

	if purged > 0 {
		w.logger.Info("retention sweep removed archived tasks", slog.Int64("count", purged))
		metrics.ObservePurged(purged)
	}
}
