package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/school-erp/school-erp/internal/platform/httpx"
)

// ErrNotFound indicates the staff record does not exist.
var ErrNotFound = fmt.Errorf("staff: member %w", httpx.ErrNotFound)

// Repository is the persistence contract of the staff module.
type Repository interface {
	FindByID(ctx context.Context, id int64) (Member, error)
	StaffIDForUser(ctx context.Context, userID int64) (int64, bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

// FindByID fetches one staff record.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (Member, error) {
	var m Member
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, employee_no, name, designation, department, joined_on
		FROM staff WHERE id = $1`, id).
		Scan(&m.ID, &m.UserID, &m.EmployeeNo, &m.Name, &m.Designation, &m.Department, &m.JoinedOn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, ErrNotFound
		}
		return Member{}, err
	}
	return m, nil
}

// StaffIDForUser returns the staff record of a login account.
func (r *PGRepository) StaffIDForUser(ctx context.Context, userID int64) (int64, bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM staff WHERE user_id = $1`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}
