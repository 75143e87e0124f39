package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/school-erp/school-erp/internal/jobs"
)

// DefaultActivityRetention applies when neither payload nor job set one.
const DefaultActivityRetention = 180 * 24 * time.Hour

// ActivityPruner deletes activity rows older than retention.
type ActivityPruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// ActivityPruneJob enforces activity log retention.
type ActivityPruneJob struct {
	Pruner    ActivityPruner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewActivityPruneJob initialises the prune handler.
func NewActivityPruneJob(pruner ActivityPruner, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *ActivityPruneJob {
	if retention <= 0 {
		retention = DefaultActivityRetention
	}
	return &ActivityPruneJob{Pruner: pruner, Retention: retention, Logger: logger, Metrics: metrics}
}

// Handle executes the prune.
func (j *ActivityPruneJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Pruner == nil {
		return errors.New("activity prune: handler not configured")
	}
	var payload ActivityPrunePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("activity prune: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	retention := payload.Retention
	if retention <= 0 {
		retention = j.Retention
	}

	tracker := j.Metrics.Track(TaskActivityPrune)
	defer func() { err = tracker.End(err) }()

	deleted, err := j.Pruner.Prune(ctx, retention)
	if err != nil {
		logger(j.Logger).Error("activity prune failed", slog.Duration("retention", retention), slog.Any("error", err))
		return err
	}
	j.Metrics.AddPruned(deleted)
	logger(j.Logger).Info("activity log pruned", slog.Duration("retention", retention), slog.Int64("deleted", deleted))
	return nil
}
