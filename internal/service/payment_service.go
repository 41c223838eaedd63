package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/policy"
	appErrors "github.com/noah-isme/student-records-api/pkg/errors"
)

type paymentRepository interface {
	List(ctx context.Context, scope policy.Scope, filter models.PaymentFilter) ([]models.PaymentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	SumByInvoice(ctx context.Context, invoiceID string) (float64, error)
	Create(ctx context.Context, pay *models.Payment) error
	Delete(ctx context.Context, id string) error
}

type paymentInvoiceRepository interface {
	FindByID(ctx context.Context, id string) (*models.Invoice, error)
	Settle(ctx context.Context, id string, amountDue float64, status models.InvoiceStatus) error
}

// CreatePaymentRequest records money received against an invoice.
type CreatePaymentRequest struct {
	InvoiceID string    `json:"invoice_id" validate:"required"`
	Amount    float64   `json:"amount" validate:"required,gt=0"`
	Method    string    `json:"method" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Reference string    `json:"reference"`
}

// PaymentService handles payment use-cases. A payment belongs to the
// student its invoice bills; visibility follows that two-hop chain.
type PaymentService struct {
	repo      paymentRepository
	invoices  paymentInvoiceRepository
	policy    authorizer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs the payment service.
func NewPaymentService(repo paymentRepository, invoices paymentInvoiceRepository, engine authorizer, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, invoices: invoices, policy: engine, validator: validate, logger: logger}
}

// List returns the payments inside the caller's visible set.
func (s *PaymentService) List(ctx context.Context, actor policy.Actor, filter models.PaymentFilter) ([]models.PaymentDetail, *models.Pagination, error) {
	if !policy.Gate(actor.Role, models.FamilyPayment, policy.CapabilityList) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "role may not list payments")
	}
	scope, err := s.policy.Scope(ctx, actor, models.FamilyPayment)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute visible set")
	}
	payments, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single payment. The object engine resolves the payment's
// student through its invoice before deciding.
func (s *PaymentService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Payment, error) {
	if !policy.Gate(actor.Role, models.FamilyPayment, policy.CapabilityList) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not read payments")
	}
	pay, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	ok, err := s.policy.Authorize(ctx, actor, policy.MethodRead, pay)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to authorize read")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
	}
	return pay, nil
}

// Create records a payment and settles the invoice balance: the amount
// due becomes total minus everything paid, and the invoice flips to PAID
// when nothing remains. Admin only.
func (s *PaymentService) Create(ctx context.Context, actor policy.Actor, req CreatePaymentRequest) (*models.Payment, error) {
	if !policy.Gate(actor.Role, models.FamilyPayment, policy.CapabilityCreate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not create payments")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	inv, err := s.invoices.FindByID(ctx, req.InvoiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}

	pay := &models.Payment{
		InvoiceID:  inv.ID,
		AmountPaid: req.Amount,
		Method:     req.Method,
		Date:       req.Date,
		Reference:  req.Reference,
	}
	if err := s.repo.Create(ctx, pay); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}

	paid, err := s.repo.SumByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum payments")
	}
	amountDue := roundCents(inv.TotalAmount - paid)
	status := models.InvoiceStatusPending
	if amountDue <= 0 {
		amountDue = 0
		status = models.InvoiceStatusPaid
	}
	if err := s.invoices.Settle(ctx, inv.ID, amountDue, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to settle invoice")
	}

	return pay, nil
}

// Delete removes a payment and restores the invoice balance. Admin only.
func (s *PaymentService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if !policy.Gate(actor.Role, models.FamilyPayment, policy.CapabilityDelete) {
		return appErrors.Clone(appErrors.ErrForbidden, "role may not delete payments")
	}
	pay, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment")
	}

	inv, err := s.invoices.FindByID(ctx, pay.InvoiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}
	paid, err := s.repo.SumByInvoice(ctx, inv.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum payments")
	}
	amountDue := roundCents(inv.TotalAmount - paid)
	status := models.InvoiceStatusPending
	if amountDue <= 0 {
		amountDue = 0
		status = models.InvoiceStatusPaid
	}
	if err := s.invoices.Settle(ctx, inv.ID, amountDue, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to settle invoice")
	}
	return nil
}
