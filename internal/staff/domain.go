package staff

import "time"

// Member is a staff record, linked to the account of the staff member.
type Member struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	EmployeeNo  string    `json:"employeeNo"`
	Name        string    `json:"name"`
	Designation string    `json:"designation"`
	Department  string    `json:"department"`
	JoinedOn    time.Time `json:"joinedOn"`
}
