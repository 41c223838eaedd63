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

type gradeRepository interface {
	List(ctx context.Context, scope policy.Scope, filter models.GradeFilter) ([]models.Grade, int, error)
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id string) error
}

// CreateGradeRequest holds payload for creating grades.
type CreateGradeRequest struct {
	Name      string  `json:"name" validate:"required"`
	Stream    string  `json:"stream"`
	TeacherID *string `json:"teacher_id"`
}

// UpdateGradeRequest holds payload for updating grades.
type UpdateGradeRequest struct {
	Name      string  `json:"name" validate:"required"`
	Stream    string  `json:"stream"`
	TeacherID *string `json:"teacher_id"`
}

// GradeService handles grade (class cohort) use-cases. A student sees
// their own grade; a parent sees the union of their children's grades.
type GradeService struct {
	repo      gradeRepository
	policy    authorizer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs the grade service.
func NewGradeService(repo gradeRepository, engine authorizer, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, policy: engine, validator: validate, logger: logger}
}

// List returns the grades inside the caller's visible set.
func (s *GradeService) List(ctx context.Context, actor policy.Actor, filter models.GradeFilter) ([]models.Grade, *models.Pagination, error) {
	if !policy.Gate(actor.Role, models.FamilyGrade, policy.CapabilityList) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "role may not list grades")
	}
	scope, err := s.policy.Scope(ctx, actor, models.FamilyGrade)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute visible set")
	}
	grades, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single grade.
func (s *GradeService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Grade, error) {
	if !policy.Gate(actor.Role, models.FamilyGrade, policy.CapabilityList) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not read grades")
	}
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	ok, err := s.policy.Authorize(ctx, actor, policy.MethodRead, grade)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to authorize read")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
	}
	return grade, nil
}

// Create registers a new grade. Admin only.
func (s *GradeService) Create(ctx context.Context, actor policy.Actor, req CreateGradeRequest) (*models.Grade, error) {
	if !policy.Gate(actor.Role, models.FamilyGrade, policy.CapabilityCreate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not create grades")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	grade := &models.Grade{
		Name:      req.Name,
		Stream:    req.Stream,
		TeacherID: req.TeacherID,
	}
	if err := s.repo.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}
	return grade, nil
}

// Update rewrites a grade. Admin only.
func (s *GradeService) Update(ctx context.Context, actor policy.Actor, id string, req UpdateGradeRequest) (*models.Grade, error) {
	if !policy.Gate(actor.Role, models.FamilyGrade, policy.CapabilityUpdate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not update grades")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	grade.Name = req.Name
	grade.Stream = req.Stream
	grade.TeacherID = req.TeacherID
	if err := s.repo.Update(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}
	return grade, nil
}

// Delete removes a grade. Admin only.
func (s *GradeService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if !policy.Gate(actor.Role, models.FamilyGrade, policy.CapabilityDelete) {
		return appErrors.Clone(appErrors.ErrForbidden, "role may not delete grades")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}
	return nil
}
