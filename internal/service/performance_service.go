package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/policy"
	appErrors "github.com/noah-isme/student-records-api/pkg/errors"
)

type performanceRepository interface {
	List(ctx context.Context, scope policy.Scope, filter models.PerformanceFilter) ([]models.PerformanceDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Performance, error)
	Create(ctx context.Context, perf *models.Performance) error
	Update(ctx context.Context, perf *models.Performance) error
	Delete(ctx context.Context, id string) error
}

// CreatePerformanceRequest holds payload for recording an exam result.
type CreatePerformanceRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	SubjectID    string `json:"subject_id" validate:"required"`
	Score        int    `json:"score" validate:"min=0,max=100"`
	ExamType     string `json:"exam_type" validate:"required,oneof=CAT RAT FINAL"`
	AcademicYear string `json:"academic_year" validate:"required"`
	Term         int    `json:"term" validate:"required,min=1,max=3"`
}

// UpdatePerformanceRequest holds payload for correcting an exam result.
// DateEntered is deliberately absent: the entry timestamp is fixed at
// creation and corrections never move it.
type UpdatePerformanceRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	SubjectID    string `json:"subject_id" validate:"required"`
	Score        int    `json:"score" validate:"min=0,max=100"`
	ExamType     string `json:"exam_type" validate:"required,oneof=CAT RAT FINAL"`
	AcademicYear string `json:"academic_year" validate:"required"`
	Term         int    `json:"term" validate:"required,min=1,max=3"`
}

// PerformanceService handles exam result use-cases.
type PerformanceService struct {
	repo      performanceRepository
	policy    authorizer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPerformanceService constructs the performance service.
func NewPerformanceService(repo performanceRepository, engine authorizer, validate *validator.Validate, logger *zap.Logger) *PerformanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PerformanceService{repo: repo, policy: engine, validator: validate, logger: logger}
}

// List returns the exam results inside the caller's visible set.
func (s *PerformanceService) List(ctx context.Context, actor policy.Actor, filter models.PerformanceFilter) ([]models.PerformanceDetail, *models.Pagination, error) {
	if !policy.Gate(actor.Role, models.FamilyPerformance, policy.CapabilityList) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "role may not list performance records")
	}
	scope, err := s.policy.Scope(ctx, actor, models.FamilyPerformance)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute visible set")
	}
	records, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list performance records")
	}
	return records, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single exam result.
func (s *PerformanceService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Performance, error) {
	if !policy.Gate(actor.Role, models.FamilyPerformance, policy.CapabilityList) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not read performance records")
	}
	perf, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "performance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load performance record")
	}
	ok, err := s.policy.Authorize(ctx, actor, policy.MethodRead, perf)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to authorize read")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "performance record not found")
	}
	return perf, nil
}

// Create records a new exam result. Admin only.
func (s *PerformanceService) Create(ctx context.Context, actor policy.Actor, req CreatePerformanceRequest) (*models.Performance, error) {
	if !policy.Gate(actor.Role, models.FamilyPerformance, policy.CapabilityCreate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not create performance records")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid performance payload")
	}
	perf := &models.Performance{
		StudentID:    req.StudentID,
		SubjectID:    req.SubjectID,
		Score:        req.Score,
		ExamType:     models.ExamType(req.ExamType),
		AcademicYear: req.AcademicYear,
		Term:         req.Term,
	}
	if err := s.repo.Create(ctx, perf); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create performance record")
	}
	return perf, nil
}

// Update corrects an exam result, keeping the original entry timestamp.
// Admin only.
func (s *PerformanceService) Update(ctx context.Context, actor policy.Actor, id string, req UpdatePerformanceRequest) (*models.Performance, error) {
	if !policy.Gate(actor.Role, models.FamilyPerformance, policy.CapabilityUpdate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not update performance records")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid performance payload")
	}
	perf, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "performance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load performance record")
	}
	perf.StudentID = req.StudentID
	perf.SubjectID = req.SubjectID
	perf.Score = req.Score
	perf.ExamType = models.ExamType(req.ExamType)
	perf.AcademicYear = req.AcademicYear
	perf.Term = req.Term
	if err := s.repo.Update(ctx, perf); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update performance record")
	}
	return perf, nil
}

// Delete removes an exam result. Admin only.
func (s *PerformanceService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if !policy.Gate(actor.Role, models.FamilyPerformance, policy.CapabilityDelete) {
		return appErrors.Clone(appErrors.ErrForbidden, "role may not delete performance records")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "performance record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load performance record")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete performance record")
	}
	return nil
}
