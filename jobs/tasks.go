package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPermissionsInitialize seeds the system permission catalog.
	TaskPermissionsInitialize = "permissions:initialize"
	// TaskActivityPrune deletes activity log rows past retention.
	TaskActivityPrune = "activity:prune"
	// CronActivityPrune runs the prune job nightly.
	CronActivityPrune = "0 3 * * *"
)

// PermissionsInitializePayload describes a catalog seed request.
type PermissionsInitializePayload struct {
	Reason string `json:"reason"`
}

// ActivityPrunePayload carries the retention window. Zero uses the job default.
type ActivityPrunePayload struct {
	Retention time.Duration `json:"retention"`
}

// NewPermissionsInitializeTask constructs an Asynq task.
func NewPermissionsInitializeTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(PermissionsInitializePayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPermissionsInitialize, data, asynq.MaxRetry(5), asynq.Unique(time.Minute)), nil
}

// NewActivityPruneTask constructs an Asynq task.
func NewActivityPruneTask(retention time.Duration) (*asynq.Task, error) {
	if retention < 0 {
		return nil, fmt.Errorf("jobs: negative retention %s", retention)
	}
	data, err := json.Marshal(ActivityPrunePayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskActivityPrune, data, asynq.MaxRetry(3)), nil
}
