package models

import "time"

// ExamType classifies the assessment a performance row records.
type ExamType string

const (
	ExamTypeCAT   ExamType = "CAT"
	ExamTypeRAT   ExamType = "RAT"
	ExamTypeFinal ExamType = "FINAL"
)

// Valid returns true when the exam type is a supported value.
func (e ExamType) Valid() bool {
	switch e {
	case ExamTypeCAT, ExamTypeRAT, ExamTypeFinal:
		return true
	default:
		return false
	}
}

// Performance records a score for one student in one subject.
// DateEntered is set at creation and never updated.
type Performance struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	Score        int       `db:"score" json:"score"`
	ExamType     ExamType  `db:"exam_type" json:"exam_type"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Term         int       `db:"term" json:"term"`
	DateEntered  time.Time `db:"date_entered" json:"date_entered"`
}

// EntityFamily implements Record.
func (Performance) EntityFamily() EntityFamily { return FamilyPerformance }

// PerformanceDetail enriches Performance with display names.
type PerformanceDetail struct {
	Performance
	StudentName string `db:"student_name" json:"student_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
}

// PerformanceFilter captures filtering criteria for listing performance rows.
type PerformanceFilter struct {
	StudentID    string
	SubjectID    string
	ExamType     ExamType
	AcademicYear string
	Term         int
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
