package models

import "time"

// AttendanceStatus marks whether a student was present on a day.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent:
		return true
	default:
		return false
	}
}

// Attendance records the presence of one student in one grade on a date.
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	GradeID   string           `db:"grade_id" json:"grade_id"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Date      time.Time        `db:"date" json:"date"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// EntityFamily implements Record.
func (Attendance) EntityFamily() EntityFamily { return FamilyAttendance }

// AttendanceDetail enriches Attendance with display names.
type AttendanceDetail struct {
	Attendance
	StudentName string `db:"student_name" json:"student_name"`
	GradeName   string `db:"grade_name" json:"grade_name"`
}

// AttendanceFilter captures filtering criteria for listing attendance rows.
type AttendanceFilter struct {
	StudentID string
	GradeID   string
	Status    AttendanceStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
