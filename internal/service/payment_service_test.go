package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/policy"
)

type mockPaymentRepo struct {
	payments map[string]*models.Payment
}

func (m *mockPaymentRepo) List(ctx context.Context, scope policy.Scope, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	if p, ok := m.payments[id]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) SumByInvoice(ctx context.Context, invoiceID string) (float64, error) {
	var total float64
	for _, p := range m.payments {
		if p.InvoiceID == invoiceID {
			total += p.AmountPaid
		}
	}
	return total, nil
}

func (m *mockPaymentRepo) Create(ctx context.Context, pay *models.Payment) error {
	if m.payments == nil {
		m.payments = make(map[string]*models.Payment)
	}
	if pay.ID == "" {
		pay.ID = "pay-" + time.Now().Format("150405.000000000")
	}
	copy := *pay
	m.payments[pay.ID] = &copy
	return nil
}

func (m *mockPaymentRepo) Delete(ctx context.Context, id string) error {
	delete(m.payments, id)
	return nil
}

type mockInvoiceRepo struct {
	invoices map[string]*models.Invoice
}

func (m *mockInvoiceRepo) FindByID(ctx context.Context, id string) (*models.Invoice, error) {
	if inv, ok := m.invoices[id]; ok {
		copy := *inv
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockInvoiceRepo) Settle(ctx context.Context, id string, amountDue float64, status models.InvoiceStatus) error {
	inv := m.invoices[id]
	inv.AmountDue = amountDue
	inv.Status = status
	return nil
}

func newPaymentFixture() (*PaymentService, *mockPaymentRepo, *mockInvoiceRepo) {
	payments := &mockPaymentRepo{payments: make(map[string]*models.Payment)}
	invoices := &mockInvoiceRepo{invoices: map[string]*models.Invoice{
		"inv-1": {ID: "inv-1", StudentID: "s-1", TotalAmount: 10000, AmountDue: 10000, Status: models.InvoiceStatusPending},
	}}
	svc := NewPaymentService(payments, invoices, &stubPolicy{scope: policy.ScopeAll(), allow: true}, validator.New(), zap.NewNop())
	return svc, payments, invoices
}

func TestPaymentServicePartialPaymentKeepsInvoicePending(t *testing.T) {
	svc, _, invoices := newPaymentFixture()
	admin := policy.Actor{ID: "u-admin", Role: models.RoleAdmin}

	_, err := svc.Create(context.Background(), admin, CreatePaymentRequest{
		InvoiceID: "inv-1", Amount: 4000, Method: "MPESA", Date: time.Now(),
	})
	require.NoError(t, err)

	inv := invoices.invoices["inv-1"]
	assert.Equal(t, 6000.0, inv.AmountDue)
	assert.Equal(t, models.InvoiceStatusPending, inv.Status)
}

func TestPaymentServiceFullPaymentSettlesInvoice(t *testing.T) {
	svc, _, invoices := newPaymentFixture()
	admin := policy.Actor{ID: "u-admin", Role: models.RoleAdmin}

	_, err := svc.Create(context.Background(), admin, CreatePaymentRequest{
		InvoiceID: "inv-1", Amount: 6000, Method: "MPESA", Date: time.Now(),
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), admin, CreatePaymentRequest{
		InvoiceID: "inv-1", Amount: 4000, Method: "BANK", Date: time.Now(),
	})
	require.NoError(t, err)

	inv := invoices.invoices["inv-1"]
	assert.Equal(t, 0.0, inv.AmountDue)
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
}

func TestPaymentServiceCentRoundingSettlesInvoice(t *testing.T) {
	svc, _, invoices := newPaymentFixture()
	admin := policy.Actor{ID: "u-admin", Role: models.RoleAdmin}

	// 0.10 + 0.70 accumulates to 0.7999999999999999 in float64, which
	// would leave a dust balance and keep the invoice PENDING without
	// rounding the remainder to cents.
	invoices.invoices["inv-1"].TotalAmount = 0.80
	invoices.invoices["inv-1"].AmountDue = 0.80

	_, err := svc.Create(context.Background(), admin, CreatePaymentRequest{
		InvoiceID: "inv-1", Amount: 0.10, Method: "MPESA", Date: time.Now(),
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), admin, CreatePaymentRequest{
		InvoiceID: "inv-1", Amount: 0.70, Method: "MPESA", Date: time.Now(),
	})
	require.NoError(t, err)

	inv := invoices.invoices["inv-1"]
	assert.Equal(t, 0.0, inv.AmountDue)
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
}

func TestPaymentServiceDeleteRestoresBalance(t *testing.T) {
	svc, payments, invoices := newPaymentFixture()
	admin := policy.Actor{ID: "u-admin", Role: models.RoleAdmin}

	pay, err := svc.Create(context.Background(), admin, CreatePaymentRequest{
		InvoiceID: "inv-1", Amount: 10000, Method: "MPESA", Date: time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusPaid, invoices.invoices["inv-1"].Status)

	require.NoError(t, svc.Delete(context.Background(), admin, pay.ID))
	assert.Empty(t, payments.payments)
	assert.Equal(t, 10000.0, invoices.invoices["inv-1"].AmountDue)
	assert.Equal(t, models.InvoiceStatusPending, invoices.invoices["inv-1"].Status)
}

func TestPaymentServiceWritesAreAdminOnly(t *testing.T) {
	svc, _, _ := newPaymentFixture()
	for _, role := range []models.Role{models.RoleTeacher, models.RoleStudent, models.RoleParent, models.RolePending} {
		_, err := svc.Create(context.Background(), policy.Actor{ID: "u-1", Role: role}, CreatePaymentRequest{
			InvoiceID: "inv-1", Amount: 100, Method: "CASH", Date: time.Now(),
		})
		require.Error(t, err, "role %s must not record payments", role)
	}
}

func TestPaymentServiceTeacherCannotList(t *testing.T) {
	svc, _, _ := newPaymentFixture()
	_, _, err := svc.List(context.Background(), policy.Actor{ID: "u-t", Role: models.RoleTeacher}, models.PaymentFilter{})
	require.Error(t, err)
}
