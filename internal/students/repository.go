package students

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/school-erp/school-erp/internal/platform/httpx"
)

// ErrNotFound indicates the student does not exist.
var ErrNotFound = fmt.Errorf("students: student %w", httpx.ErrNotFound)

// Repository is the persistence contract of the students module.
type Repository interface {
	List(ctx context.Context) ([]Student, error)
	FindByID(ctx context.Context, id int64) (Student, error)
	StudentIDForUser(ctx context.Context, userID int64) (int64, bool, error)
	IsParentOf(ctx context.Context, parentUserID, studentID int64) (bool, error)
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

const studentColumns = `id, user_id, admission_no, name, grade, section, is_active, created_at`

func scanStudent(row pgx.Row) (Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.UserID, &s.AdmissionNo, &s.Name, &s.Grade, &s.Section, &s.IsActive, &s.CreatedAt)
	return s, err
}

// List returns every student ordered by grade, section and name.
func (r *PGRepository) List(ctx context.Context) ([]Student, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+studentColumns+` FROM students ORDER BY grade, section, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FindByID fetches one student.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (Student, error) {
	s, err := scanStudent(r.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Student{}, ErrNotFound
		}
		return Student{}, err
	}
	return s, nil
}

// StudentIDForUser returns the student profile linked to a login account.
func (r *PGRepository) StudentIDForUser(ctx context.Context, userID int64) (int64, bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM students WHERE user_id = $1`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}

// IsParentOf reports whether the parent account is linked to the student.
func (r *PGRepository) IsParentOf(ctx context.Context, parentUserID, studentID int64) (bool, error) {
	var linked bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM parent_students WHERE parent_user_id = $1 AND student_id = $2)`, parentUserID, studentID).Scan(&linked)
	return linked, err
}
