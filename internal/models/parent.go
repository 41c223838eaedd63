package models

import "time"

// RelationshipType qualifies the link between a parent and a student.
type RelationshipType string

const (
	RelationshipMother   RelationshipType = "MOTHER"
	RelationshipFather   RelationshipType = "FATHER"
	RelationshipGuardian RelationshipType = "GUARDIAN"
)

// Valid returns true when the relationship type is a supported value.
func (r RelationshipType) Valid() bool {
	switch r {
	case RelationshipMother, RelationshipFather, RelationshipGuardian:
		return true
	default:
		return false
	}
}

// Parent represents a parent or guardian. Parents reach student records
// only transitively, through StudentParent rows; there is no direct
// parent-to-student foreign key.
type Parent struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Address   string    `db:"address" json:"address"`
	Phone     string    `db:"phone" json:"phone"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EntityFamily implements Record.
func (Parent) EntityFamily() EntityFamily { return FamilyParent }

// StudentParent is the join row linking a parent to a student. A student
// may have several rows (co-parents) and a parent may link to several
// students (siblings).
type StudentParent struct {
	ID                string           `db:"id" json:"id"`
	StudentID         string           `db:"student_id" json:"student_id"`
	ParentID          string           `db:"parent_id" json:"parent_id"`
	RelationshipType  RelationshipType `db:"relationship_type" json:"relationship_type"`
	IsPrimaryGuardian bool             `db:"is_primary_guardian" json:"is_primary_guardian"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
}

// ParentFilter captures filtering criteria for listing parents.
type ParentFilter struct {
	Search    string
	StudentID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
