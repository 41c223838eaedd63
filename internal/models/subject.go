package models

import "time"

// Subject represents a taught subject, optionally assigned to a teacher.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EntityFamily implements Record.
func (Subject) EntityFamily() EntityFamily { return FamilySubject }

// SubjectFilter captures filtering criteria for listing subjects.
type SubjectFilter struct {
	Search    string
	TeacherID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
