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

type enrollmentRepository interface {
	List(ctx context.Context, scope policy.Scope, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	Create(ctx context.Context, enr *models.Enrollment) error
	Update(ctx context.Context, enr *models.Enrollment) error
	Delete(ctx context.Context, id string) error
}

// CreateEnrollmentRequest places a student in a grade for a year.
type CreateEnrollmentRequest struct {
	StudentID    string    `json:"student_id" validate:"required"`
	GradeID      string    `json:"grade_id" validate:"required"`
	AcademicYear string    `json:"academic_year" validate:"required"`
	DateEnrolled time.Time `json:"date_enrolled" validate:"required"`
}

// CloseEnrollmentRequest ends an enrollment, recording when the student
// left the grade.
type CloseEnrollmentRequest struct {
	DateLeft time.Time `json:"date_left" validate:"required"`
}

// EnrollmentService handles enrollment history use-cases.
type EnrollmentService struct {
	repo      enrollmentRepository
	policy    authorizer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(repo enrollmentRepository, engine authorizer, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, policy: engine, validator: validate, logger: logger}
}

// List returns the enrollment rows inside the caller's visible set.
func (s *EnrollmentService) List(ctx context.Context, actor policy.Actor, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	if !policy.Gate(actor.Role, models.FamilyEnrollment, policy.CapabilityList) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "role may not list enrollments")
	}
	scope, err := s.policy.Scope(ctx, actor, models.FamilyEnrollment)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute visible set")
	}
	records, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return records, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single enrollment row.
func (s *EnrollmentService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Enrollment, error) {
	if !policy.Gate(actor.Role, models.FamilyEnrollment, policy.CapabilityList) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not read enrollments")
	}
	enr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	ok, err := s.policy.Authorize(ctx, actor, policy.MethodRead, enr)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to authorize read")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return enr, nil
}

// Create opens a new enrollment in the ENROLLED state. Admin only.
func (s *EnrollmentService) Create(ctx context.Context, actor policy.Actor, req CreateEnrollmentRequest) (*models.Enrollment, error) {
	if !policy.Gate(actor.Role, models.FamilyEnrollment, policy.CapabilityCreate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not create enrollments")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	enr := &models.Enrollment{
		StudentID:    req.StudentID,
		GradeID:      req.GradeID,
		AcademicYear: req.AcademicYear,
		DateEnrolled: req.DateEnrolled,
		Status:       models.EnrollmentStatusEnrolled,
	}
	if err := s.repo.Create(ctx, enr); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	return enr, nil
}

// Close ends an enrollment: DateLeft is set and the status flips to
// LEFT in the same write. Admin only.
func (s *EnrollmentService) Close(ctx context.Context, actor policy.Actor, id string, req CloseEnrollmentRequest) (*models.Enrollment, error) {
	if !policy.Gate(actor.Role, models.FamilyEnrollment, policy.CapabilityUpdate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not update enrollments")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	enr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enr.Status == models.EnrollmentStatusLeft {
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment already closed")
	}
	if req.DateLeft.Before(enr.DateEnrolled) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date_left precedes date_enrolled")
	}
	left := req.DateLeft
	enr.DateLeft = &left
	enr.Status = models.EnrollmentStatusLeft
	if err := s.repo.Update(ctx, enr); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close enrollment")
	}
	return enr, nil
}

// Delete removes an enrollment row. Admin only.
func (s *EnrollmentService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if !policy.Gate(actor.Role, models.FamilyEnrollment, policy.CapabilityDelete) {
		return appErrors.Clone(appErrors.ErrForbidden, "role may not delete enrollments")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	return nil
}
