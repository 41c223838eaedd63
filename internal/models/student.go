package models

import "time"

// StudentStatus captures the administrative standing of a student.
type StudentStatus string

const (
	StudentStatusEnrolled    StudentStatus = "ENROLLED"
	StudentStatusSuspended   StudentStatus = "SUSPENDED"
	StudentStatusExpelled    StudentStatus = "EXPELLED"
	StudentStatusAlumni      StudentStatus = "ALUMNI"
	StudentStatusTransferred StudentStatus = "TRANSFERRED"
)

// Valid returns true when the status is a supported value.
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentStatusEnrolled, StudentStatusSuspended, StudentStatusExpelled, StudentStatusAlumni, StudentStatusTransferred:
		return true
	default:
		return false
	}
}

// Student represents a learner registered in the institution. UserID is
// the optional back-reference to the account that represents this
// student; a student row may exist before any account is created.
type Student struct {
	ID              string        `db:"id" json:"id"`
	FirstName       string        `db:"first_name" json:"first_name"`
	LastName        string        `db:"last_name" json:"last_name"`
	Gender          string        `db:"gender" json:"gender"`
	BirthDate       time.Time     `db:"birth_date" json:"birth_date"`
	Address         string        `db:"address" json:"address"`
	Status          StudentStatus `db:"status" json:"status"`
	DateOfAdmission time.Time     `db:"date_of_admission" json:"date_of_admission"`
	GradeID         *string       `db:"grade_id" json:"grade_id,omitempty"`
	UserID          *string       `db:"user_id" json:"user_id,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// EntityFamily implements Record.
func (Student) EntityFamily() EntityFamily { return FamilyStudent }

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	GradeID   string
	Status    StudentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
