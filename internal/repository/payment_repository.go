package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/policy"
)

// PaymentRepository handles persistence of payments. A payment carries
// no student column; it reaches its student through the invoice, so
// every scoped query joins invoices and filters on i.student_id.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `py.id, py.invoice_id, py.amount_paid, py.method, py.date, py.reference, py.created_at`

// List returns payments restricted to the caller's visible set. The
// scope is applied on the joined invoice's student column in the same
// single query, so unscoped payment rows never leave the database.
func (r *PaymentRepository) List(ctx context.Context, scope policy.Scope, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	if scope.Empty() {
		return nil, 0, nil
	}

	base := `FROM payments py
JOIN invoices i ON i.id = py.invoice_id
JOIN students s ON s.id = i.student_id`
	var conditions []string
	var args []interface{}

	conditions, args = applyScope(scope, "i.student_id", conditions, args)

	if filter.InvoiceID != "" {
		conditions = append(conditions, fmt.Sprintf("py.invoice_id = $%d", len(args)+1))
		args = append(args, filter.InvoiceID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("i.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Method != "" {
		conditions = append(conditions, fmt.Sprintf("py.method = $%d", len(args)+1))
		args = append(args, filter.Method)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("py.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("py.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	listQuery := fmt.Sprintf(`SELECT %s, i.student_id, s.first_name || ' ' || s.last_name AS student_name
        %s ORDER BY py.date %s, py.id ASC LIMIT %d OFFSET %d`, paymentColumns, base+clause, order, size, offset)

	var rows []models.PaymentDetail
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return rows, total, nil
}

// FindByID returns a payment by identifier.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments py WHERE py.id = $1`, paymentColumns)
	var pay models.Payment
	if err := r.db.GetContext(ctx, &pay, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &pay, nil
}

// SumByInvoice returns the total paid against an invoice.
func (r *PaymentRepository) SumByInvoice(ctx context.Context, invoiceID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(amount_paid), 0) FROM payments WHERE invoice_id = $1`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, invoiceID); err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	return total, nil
}

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, pay *models.Payment) error {
	if pay.ID == "" {
		pay.ID = uuid.NewString()
	}
	if pay.CreatedAt.IsZero() {
		pay.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO payments (id, invoice_id, amount_paid, method, date, reference, created_at)
        VALUES (:id, :invoice_id, :amount_paid, :method, :date, :reference, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pay); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// Update rewrites a payment.
func (r *PaymentRepository) Update(ctx context.Context, pay *models.Payment) error {
	const query = `UPDATE payments SET invoice_id = :invoice_id, amount_paid = :amount_paid,
        method = :method, date = :date, reference = :reference WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, pay); err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return nil
}

// Delete removes a payment.
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM payments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}
