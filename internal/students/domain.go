package students

import "time"

// FinalGrade is the last grade a student can be promoted into.
const FinalGrade = 12

// Student is a student profile, optionally linked to a login account.
type Student struct {
	ID          int64     `json:"id"`
	UserID      *int64    `json:"userId,omitempty"`
	AdmissionNo string    `json:"admissionNo"`
	Name        string    `json:"name"`
	Grade       int       `json:"grade"`
	Section     string    `json:"section"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Eligibility reports whether a student can move to the next grade.
type Eligibility struct {
	StudentID    int64  `json:"studentId"`
	CurrentGrade int    `json:"currentGrade"`
	Section      string `json:"section"`
	NextGrade    int    `json:"nextGrade,omitempty"`
	Eligible     bool   `json:"eligible"`
	Reason       string `json:"reason,omitempty"`
}
