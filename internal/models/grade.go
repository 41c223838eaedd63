package models

import "time"

// Grade represents a class/cohort (e.g. "Form 2, West stream"). The
// teacher reference is the homeroom teacher and may be unset.
type Grade struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Stream    string    `db:"stream" json:"stream"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EntityFamily implements Record.
func (Grade) EntityFamily() EntityFamily { return FamilyGrade }

// GradeFilter captures filtering criteria for listing grades.
type GradeFilter struct {
	Search    string
	TeacherID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
