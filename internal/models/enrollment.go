package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment. DateLeft
// and status carry no engine-enforced transition rules.
type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled EnrollmentStatus = "ENROLLED"
	EnrollmentStatusLeft     EnrollmentStatus = "LEFT"
)

// Valid returns true when the status is a supported value.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusEnrolled, EnrollmentStatusLeft:
		return true
	default:
		return false
	}
}

// Enrollment registers one student in one grade for an academic year.
type Enrollment struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	GradeID      string           `db:"grade_id" json:"grade_id"`
	AcademicYear string           `db:"academic_year" json:"academic_year"`
	DateEnrolled time.Time        `db:"date_enrolled" json:"date_enrolled"`
	DateLeft     *time.Time       `db:"date_left" json:"date_left,omitempty"`
	Status       EnrollmentStatus `db:"status" json:"status"`
}

// EntityFamily implements Record.
func (Enrollment) EntityFamily() EntityFamily { return FamilyEnrollment }

// EnrollmentDetail enriches Enrollment with display names.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	GradeName   string `db:"grade_name" json:"grade_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID    string
	GradeID      string
	AcademicYear string
	Status       EnrollmentStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
