package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/policy"
)

func paymentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "invoice_id", "amount_paid", "method", "date", "reference", "created_at", "student_id", "student_name"}).
		AddRow("pay-1", "inv-1", 5000.0, "MPESA", time.Now(), "TX123", time.Now(), "s-1", "Alice Achieng")
}

// The scope predicate lands on the joined invoice's student column, so
// the payment-to-student anchor resolves inside the same query.
func TestPaymentRepositoryListScopesThroughInvoiceJoin(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(`SELECT py\.id, .+ FROM payments py\s+JOIN invoices i ON i\.id = py\.invoice_id\s+JOIN students s ON s\.id = i\.student_id WHERE i\.student_id = ANY\(\$1\) ORDER BY py\.date DESC, py\.id ASC LIMIT 20 OFFSET 0`).
		WithArgs(pq.Array([]string{"s-1"})).
		WillReturnRows(paymentRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM payments py\s+JOIN invoices i ON i\.id = py\.invoice_id\s+JOIN students s ON s\.id = i\.student_id WHERE i\.student_id = ANY\(\$1\)`).
		WithArgs(pq.Array([]string{"s-1"})).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	payments, total, err := repo.List(context.Background(), policy.ScopeIDs([]string{"s-1"}), models.PaymentFilter{})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "s-1", payments[0].StudentID)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryListEmptyScopeSkipsDatabase(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	payments, total, err := repo.List(context.Background(), policy.ScopeNone(), models.PaymentFilter{})
	require.NoError(t, err)
	assert.Empty(t, payments)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositorySumByInvoice(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount_paid\), 0\) FROM payments WHERE invoice_id = \$1`).
		WithArgs("inv-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7500.0))

	total, err := repo.SumByInvoice(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, 7500.0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectExec("INSERT INTO payments").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	pay := &models.Payment{InvoiceID: "inv-1", AmountPaid: 5000, Method: "MPESA", Date: time.Now(), Reference: "TX123"}
	err := repo.Create(context.Background(), pay)
	require.NoError(t, err)
	assert.NotEmpty(t, pay.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
