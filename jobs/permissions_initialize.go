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
	"github.com/school-erp/school-erp/internal/rbac"
)

// CatalogSeeder upserts the system permission catalog.
type CatalogSeeder interface {
	Initialize(ctx context.Context, actorID int64) (rbac.InitializeResult, error)
}

// PermissionsInitializeJob runs the catalog seed in the background.
type PermissionsInitializeJob struct {
	Seeder  CatalogSeeder
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewPermissionsInitializeJob initialises the seed handler.
func NewPermissionsInitializeJob(seeder CatalogSeeder, logger *slog.Logger, metrics *jobmetrics.Metrics) *PermissionsInitializeJob {
	return &PermissionsInitializeJob{Seeder: seeder, Logger: logger, Metrics: metrics}
}

// Handle executes the catalog seed.
func (j *PermissionsInitializeJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Seeder == nil {
		return errors.New("permissions initialize: handler not configured")
	}
	var payload PermissionsInitializePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("permissions initialize: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	tracker := j.Metrics.Track(TaskPermissionsInitialize)
	defer func() { err = tracker.End(err) }()

	start := time.Now()
	res, err := j.Seeder.Initialize(ctx, 0)
	if err != nil {
		logger(j.Logger).Error("permission catalog seed failed", slog.String("reason", payload.Reason), slog.Any("error", err))
		return err
	}
	j.Metrics.SetCatalogSize(res.Upserted)
	logger(j.Logger).Info("permission catalog seeded",
		slog.String("reason", payload.Reason),
		slog.Int("upserted", res.Upserted),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
