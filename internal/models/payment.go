package models

import "time"

// Payment settles part of an invoice. Its owning student is reached via
// the invoice, never stored on the payment itself; every authorization
// rule touching payments performs both hops.
type Payment struct {
	ID         string    `db:"id" json:"id"`
	InvoiceID  string    `db:"invoice_id" json:"invoice_id"`
	AmountPaid float64   `db:"amount_paid" json:"amount_paid"`
	Method     string    `db:"method" json:"method"`
	Date       time.Time `db:"date" json:"date"`
	Reference  string    `db:"reference" json:"reference"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// EntityFamily implements Record.
func (Payment) EntityFamily() EntityFamily { return FamilyPayment }

// PaymentDetail enriches Payment with its invoice anchor context.
type PaymentDetail struct {
	Payment
	StudentID   string `db:"student_id" json:"student_id"`
	StudentName string `db:"student_name" json:"student_name"`
}

// PaymentFilter captures filtering criteria for listing payments.
type PaymentFilter struct {
	InvoiceID string
	StudentID string
	Method    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
