package audit

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository reads the activity timeline from PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

// TimelineWindow returns one page of entries, newest first.
func (r *PGRepository) TimelineWindow(ctx context.Context, p WindowParams) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.id, a.occurred_at, COALESCE(a.actor_id, 0), COALESCE(u.email, ''),
			a.action, a.entity, a.entity_id, a.meta
		FROM activity_logs a
		LEFT JOIN users u ON u.id = a.actor_id
		WHERE ($1::timestamptz IS NULL OR a.occurred_at >= $1)
		  AND ($2::timestamptz IS NULL OR a.occurred_at <= $2)
		  AND ($3::text IS NULL OR u.email ILIKE '%' || $3 || '%')
		  AND ($4::text IS NULL OR a.entity = $4)
		  AND ($5::text IS NULL OR a.action = $5)
		ORDER BY a.occurred_at DESC, a.id DESC
		OFFSET $6 LIMIT $7`,
		toPgTime(p.From), toPgTime(p.To), optionalText(p.Actor), optionalText(p.Entity), optionalText(p.Action),
		p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []TimelineRow
	for rows.Next() {
		var (
			row  TimelineRow
			meta []byte
		)
		if err := rows.Scan(&row.ID, &row.At, &row.ActorID, &row.Actor, &row.Action, &row.Entity, &row.EntityID, &meta); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &row.Meta)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func toPgTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func optionalText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}
