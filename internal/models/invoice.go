package models

import "time"

// InvoiceStatus tracks whether an invoice has been settled. The engine
// enforces no transition rules; status is a free-form administrative
// field.
type InvoiceStatus string

const (
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusPending InvoiceStatus = "PENDING"
)

// Valid returns true when the status is a supported value.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusPaid, InvoiceStatusPending:
		return true
	default:
		return false
	}
}

// Invoice bills one student for a term. Financial records are visible to
// admins and the student's own family only; teachers are excluded.
type Invoice struct {
	ID           string        `db:"id" json:"id"`
	StudentID    string        `db:"student_id" json:"student_id"`
	TotalAmount  float64       `db:"total_amount" json:"total_amount"`
	AmountDue    float64       `db:"amount_due" json:"amount_due"`
	DueDate      time.Time     `db:"due_date" json:"due_date"`
	Status       InvoiceStatus `db:"status" json:"status"`
	AcademicYear string        `db:"academic_year" json:"academic_year"`
	Term         int           `db:"term" json:"term"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// EntityFamily implements Record.
func (Invoice) EntityFamily() EntityFamily { return FamilyInvoice }

// InvoiceDetail enriches Invoice with the student's display name.
type InvoiceDetail struct {
	Invoice
	StudentName string `db:"student_name" json:"student_name"`
}

// InvoiceFilter captures filtering criteria for listing invoices.
type InvoiceFilter struct {
	StudentID    string
	Status       InvoiceStatus
	AcademicYear string
	Term         int
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
