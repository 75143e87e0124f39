package students

import "context"

// Service exposes read operations over student profiles.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every student.
func (s *Service) List(ctx context.Context) ([]Student, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Student{}
	}
	return out, nil
}

// Get returns one student.
func (s *Service) Get(ctx context.Context, id int64) (Student, error) {
	return s.repo.FindByID(ctx, id)
}

// PromoteEligibility reports whether the student can move up a grade.
func (s *Service) PromoteEligibility(ctx context.Context, id int64) (Eligibility, error) {
	st, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Eligibility{}, err
	}
	e := Eligibility{StudentID: st.ID, CurrentGrade: st.Grade, Section: st.Section}
	switch {
	case !st.IsActive:
		e.Reason = "student is not active"
	case st.Grade >= FinalGrade:
		e.Reason = "student is in the final grade"
	default:
		e.Eligible = true
		e.NextGrade = st.Grade + 1
	}
	return e, nil
}
