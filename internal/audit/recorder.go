package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry represents a record stored in activity_logs.
type Entry struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// Recorder writes records into activity_logs.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder returns a new Recorder.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Record persists the log entry.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if r == nil {
		return errors.New("audit: recorder not initialised")
	}
	if err := entry.validate(); err != nil {
		return err
	}
	metaJSON, err := json.Marshal(entry.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !entry.At.IsZero() {
		at = &entry.At
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO activity_logs (actor_id, action, entity, entity_id, meta, occurred_at)
		VALUES (NULLIF($1::bigint, 0), $2, $3, $4, $5, COALESCE($6, NOW()))`,
		entry.ActorID, entry.Action, entry.Entity, entry.EntityID, metaJSON, at)
	return err
}

// Prune removes entries older than retention and reports how many were deleted.
func (r *Recorder) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if r == nil {
		return 0, errors.New("audit: recorder not initialised")
	}
	if retention <= 0 {
		return 0, errors.New("audit: retention must be positive")
	}
	cutoff := time.Now().Add(-retention)
	tag, err := r.pool.Exec(ctx, `DELETE FROM activity_logs WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (e Entry) validate() error {
	if e.Action == "" || e.Entity == "" || e.EntityID == "" {
		return errors.New("audit: entry requires action/entity/entity_id")
	}
	return nil
}
