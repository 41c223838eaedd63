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

// InvoiceRepository handles persistence of invoices.
type InvoiceRepository struct {
	db *sqlx.DB
}

// NewInvoiceRepository constructs the repository.
func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `i.id, i.student_id, i.total_amount, i.amount_due, i.due_date, i.status, i.academic_year, i.term, i.created_at, i.updated_at`

// List returns invoices restricted to the caller's visible set.
func (r *InvoiceRepository) List(ctx context.Context, scope policy.Scope, filter models.InvoiceFilter) ([]models.InvoiceDetail, int, error) {
	if scope.Empty() {
		return nil, 0, nil
	}

	base := `FROM invoices i
JOIN students s ON s.id = i.student_id`
	var conditions []string
	var args []interface{}

	conditions, args = applyScope(scope, "i.student_id", conditions, args)

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("i.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("i.academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Term != 0 {
		conditions = append(conditions, fmt.Sprintf("i.term = $%d", len(args)+1))
		args = append(args, filter.Term)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"due_date":   "i.due_date",
		"amount_due": "i.amount_due",
		"created_at": "i.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "i.due_date"
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

	listQuery := fmt.Sprintf(`SELECT %s, s.first_name || ' ' || s.last_name AS student_name
        %s ORDER BY %s %s, i.id ASC LIMIT %d OFFSET %d`, invoiceColumns, base+clause, orderBy, order, size, offset)

	var rows []models.InvoiceDetail
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	return rows, total, nil
}

// FindByID returns an invoice by identifier.
func (r *InvoiceRepository) FindByID(ctx context.Context, id string) (*models.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices i WHERE i.id = $1`, invoiceColumns)
	var inv models.Invoice
	if err := r.db.GetContext(ctx, &inv, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find invoice: %w", err)
	}
	return &inv, nil
}

// Create persists a new invoice.
func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	const query = `INSERT INTO invoices (id, student_id, total_amount, amount_due, due_date, status, academic_year, term, created_at, updated_at)
        VALUES (:id, :student_id, :total_amount, :amount_due, :due_date, :status, :academic_year, :term, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// Update rewrites an invoice.
func (r *InvoiceRepository) Update(ctx context.Context, inv *models.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	const query = `UPDATE invoices SET student_id = :student_id, total_amount = :total_amount,
        amount_due = :amount_due, due_date = :due_date, status = :status, academic_year = :academic_year,
        term = :term, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

// Settle rewrites the balance and status after a payment lands.
func (r *InvoiceRepository) Settle(ctx context.Context, id string, amountDue float64, status models.InvoiceStatus) error {
	const query = `UPDATE invoices SET amount_due = $2, status = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, amountDue, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("settle invoice: %w", err)
	}
	return nil
}

// Delete removes an invoice; its payments cascade.
func (r *InvoiceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM invoices WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return nil
}
