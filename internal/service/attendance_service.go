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

type attendanceRepository interface {
	List(ctx context.Context, scope policy.Scope, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	Create(ctx context.Context, att *models.Attendance) error
	Update(ctx context.Context, att *models.Attendance) error
	Delete(ctx context.Context, id string) error
}

// CreateAttendanceRequest holds payload for recording attendance.
type CreateAttendanceRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	GradeID   string    `json:"grade_id" validate:"required"`
	Status    string    `json:"status" validate:"required,oneof=PRESENT ABSENT"`
	Date      time.Time `json:"date" validate:"required"`
}

// UpdateAttendanceRequest holds payload for correcting attendance.
type UpdateAttendanceRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	GradeID   string    `json:"grade_id" validate:"required"`
	Status    string    `json:"status" validate:"required,oneof=PRESENT ABSENT"`
	Date      time.Time `json:"date" validate:"required"`
}

// AttendanceService handles attendance record use-cases.
type AttendanceService struct {
	repo      attendanceRepository
	policy    authorizer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, engine authorizer, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, policy: engine, validator: validate, logger: logger}
}

// List returns the attendance rows inside the caller's visible set.
func (s *AttendanceService) List(ctx context.Context, actor policy.Actor, filter models.AttendanceFilter) ([]models.AttendanceDetail, *models.Pagination, error) {
	if !policy.Gate(actor.Role, models.FamilyAttendance, policy.CapabilityList) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "role may not list attendance")
	}
	scope, err := s.policy.Scope(ctx, actor, models.FamilyAttendance)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute visible set")
	}
	records, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single attendance row.
func (s *AttendanceService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Attendance, error) {
	if !policy.Gate(actor.Role, models.FamilyAttendance, policy.CapabilityList) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not read attendance")
	}
	att, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	ok, err := s.policy.Authorize(ctx, actor, policy.MethodRead, att)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to authorize read")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
	}
	return att, nil
}

// Create records a day's attendance for a student. Admin only.
func (s *AttendanceService) Create(ctx context.Context, actor policy.Actor, req CreateAttendanceRequest) (*models.Attendance, error) {
	if !policy.Gate(actor.Role, models.FamilyAttendance, policy.CapabilityCreate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not create attendance")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	att := &models.Attendance{
		StudentID: req.StudentID,
		GradeID:   req.GradeID,
		Status:    models.AttendanceStatus(req.Status),
		Date:      req.Date,
	}
	if err := s.repo.Create(ctx, att); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance record")
	}
	return att, nil
}

// Update corrects an attendance row. Admin only.
func (s *AttendanceService) Update(ctx context.Context, actor policy.Actor, id string, req UpdateAttendanceRequest) (*models.Attendance, error) {
	if !policy.Gate(actor.Role, models.FamilyAttendance, policy.CapabilityUpdate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not update attendance")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	att, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	att.StudentID = req.StudentID
	att.GradeID = req.GradeID
	att.Status = models.AttendanceStatus(req.Status)
	att.Date = req.Date
	if err := s.repo.Update(ctx, att); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance record")
	}
	return att, nil
}

// Delete removes an attendance row. Admin only.
func (s *AttendanceService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if !policy.Gate(actor.Role, models.FamilyAttendance, policy.CapabilityDelete) {
		return appErrors.Clone(appErrors.ErrForbidden, "role may not delete attendance")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance record")
	}
	return nil
}
