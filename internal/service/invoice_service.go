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

type invoiceRepository interface {
	List(ctx context.Context, scope policy.Scope, filter models.InvoiceFilter) ([]models.InvoiceDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Invoice, error)
	Create(ctx context.Context, inv *models.Invoice) error
	Update(ctx context.Context, inv *models.Invoice) error
	Delete(ctx context.Context, id string) error
}

// CreateInvoiceRequest bills a student for a term.
type CreateInvoiceRequest struct {
	StudentID    string    `json:"student_id" validate:"required"`
	TotalAmount  float64   `json:"total_amount" validate:"required,gt=0"`
	DueDate      time.Time `json:"due_date" validate:"required"`
	AcademicYear string    `json:"academic_year" validate:"required"`
	Term         int       `json:"term" validate:"required,min=1,max=3"`
}

// UpdateInvoiceRequest rewrites an invoice's billing terms. The balance
// is recomputed from recorded payments, not taken from the payload.
type UpdateInvoiceRequest struct {
	TotalAmount  float64   `json:"total_amount" validate:"required,gt=0"`
	DueDate      time.Time `json:"due_date" validate:"required"`
	AcademicYear string    `json:"academic_year" validate:"required"`
	Term         int       `json:"term" validate:"required,min=1,max=3"`
}

// InvoiceService handles invoice use-cases. Teachers have no standing
// here: the role gate rejects them before any scope computation.
type InvoiceService struct {
	repo      invoiceRepository
	payments  paymentSumRepository
	policy    authorizer
	validator *validator.Validate
	logger    *zap.Logger
}

type paymentSumRepository interface {
	SumByInvoice(ctx context.Context, invoiceID string) (float64, error)
}

// NewInvoiceService constructs the invoice service.
func NewInvoiceService(repo invoiceRepository, payments paymentSumRepository, engine authorizer, validate *validator.Validate, logger *zap.Logger) *InvoiceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{repo: repo, payments: payments, policy: engine, validator: validate, logger: logger}
}

// List returns the invoices inside the caller's visible set.
func (s *InvoiceService) List(ctx context.Context, actor policy.Actor, filter models.InvoiceFilter) ([]models.InvoiceDetail, *models.Pagination, error) {
	if !policy.Gate(actor.Role, models.FamilyInvoice, policy.CapabilityList) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "role may not list invoices")
	}
	scope, err := s.policy.Scope(ctx, actor, models.FamilyInvoice)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute visible set")
	}
	invoices, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invoices")
	}
	return invoices, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single invoice.
func (s *InvoiceService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Invoice, error) {
	if !policy.Gate(actor.Role, models.FamilyInvoice, policy.CapabilityList) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not read invoices")
	}
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}
	ok, err := s.policy.Authorize(ctx, actor, policy.MethodRead, inv)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to authorize read")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
	}
	return inv, nil
}

// Create opens an invoice with the full amount outstanding. Admin only.
func (s *InvoiceService) Create(ctx context.Context, actor policy.Actor, req CreateInvoiceRequest) (*models.Invoice, error) {
	if !policy.Gate(actor.Role, models.FamilyInvoice, policy.CapabilityCreate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not create invoices")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invoice payload")
	}
	inv := &models.Invoice{
		StudentID:    req.StudentID,
		TotalAmount:  req.TotalAmount,
		AmountDue:    req.TotalAmount,
		DueDate:      req.DueDate,
		Status:       models.InvoiceStatusPending,
		AcademicYear: req.AcademicYear,
		Term:         req.Term,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invoice")
	}
	return inv, nil
}

// Update rewrites an invoice's billing terms and recomputes the balance
// against payments already recorded. Admin only.
func (s *InvoiceService) Update(ctx context.Context, actor policy.Actor, id string, req UpdateInvoiceRequest) (*models.Invoice, error) {
	if !policy.Gate(actor.Role, models.FamilyInvoice, policy.CapabilityUpdate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not update invoices")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invoice payload")
	}
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}
	paid, err := s.payments.SumByInvoice(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum payments")
	}
	inv.TotalAmount = req.TotalAmount
	inv.DueDate = req.DueDate
	inv.AcademicYear = req.AcademicYear
	inv.Term = req.Term
	inv.AmountDue = roundCents(req.TotalAmount - paid)
	if inv.AmountDue <= 0 {
		inv.AmountDue = 0
		inv.Status = models.InvoiceStatusPaid
	} else {
		inv.Status = models.InvoiceStatusPending
	}
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update invoice")
	}
	return inv, nil
}

// Delete removes an invoice and its payments. Admin only.
func (s *InvoiceService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if !policy.Gate(actor.Role, models.FamilyInvoice, policy.CapabilityDelete) {
		return appErrors.Clone(appErrors.ErrForbidden, "role may not delete invoices")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete invoice")
	}
	return nil
}
