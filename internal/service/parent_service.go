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

type parentRepository interface {
	List(ctx context.Context, scope policy.Scope, filter models.ParentFilter) ([]models.Parent, int, error)
	FindByID(ctx context.Context, id string) (*models.Parent, error)
	Create(ctx context.Context, parent *models.Parent) error
	Update(ctx context.Context, parent *models.Parent) error
	Delete(ctx context.Context, id string) error
	LinkStudent(ctx context.Context, link *models.StudentParent) error
	UnlinkStudent(ctx context.Context, studentID, parentID string) error
	ListLinks(ctx context.Context, studentID string) ([]models.StudentParent, error)
}

// CreateParentRequest holds payload for creating parents.
type CreateParentRequest struct {
	FullName string  `json:"full_name" validate:"required"`
	Address  string  `json:"address"`
	Phone    string  `json:"phone" validate:"required"`
	UserID   *string `json:"user_id"`
}

// UpdateParentRequest holds payload for updating parents.
type UpdateParentRequest struct {
	FullName string  `json:"full_name" validate:"required"`
	Address  string  `json:"address"`
	Phone    string  `json:"phone" validate:"required"`
	UserID   *string `json:"user_id"`
}

// LinkStudentRequest creates the StudentParent edge that carries all of
// a parent's visibility into a student's records.
type LinkStudentRequest struct {
	StudentID         string `json:"student_id" validate:"required"`
	RelationshipType  string `json:"relationship_type" validate:"required,oneof=MOTHER FATHER GUARDIAN"`
	IsPrimaryGuardian bool   `json:"is_primary_guardian"`
}

// ParentService handles parent profile use-cases.
type ParentService struct {
	repo      parentRepository
	policy    authorizer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewParentService constructs the parent service.
func NewParentService(repo parentRepository, engine authorizer, validate *validator.Validate, logger *zap.Logger) *ParentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParentService{repo: repo, policy: engine, validator: validate, logger: logger}
}

// List returns the parents inside the caller's visible set. A student
// sees their own parents; a parent sees only themselves.
func (s *ParentService) List(ctx context.Context, actor policy.Actor, filter models.ParentFilter) ([]models.Parent, *models.Pagination, error) {
	if !policy.Gate(actor.Role, models.FamilyParent, policy.CapabilityList) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "role may not list parents")
	}
	scope, err := s.policy.Scope(ctx, actor, models.FamilyParent)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute visible set")
	}
	parents, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parents")
	}
	return parents, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single parent profile.
func (s *ParentService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Parent, error) {
	if !policy.Gate(actor.Role, models.FamilyParent, policy.CapabilityList) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not read parents")
	}
	parent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}
	ok, err := s.policy.Authorize(ctx, actor, policy.MethodRead, parent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to authorize read")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
	}
	return parent, nil
}

// Create registers a new parent profile. Admin only.
func (s *ParentService) Create(ctx context.Context, actor policy.Actor, req CreateParentRequest) (*models.Parent, error) {
	if !policy.Gate(actor.Role, models.FamilyParent, policy.CapabilityCreate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not create parents")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent payload")
	}
	parent := &models.Parent{
		FullName: req.FullName,
		Address:  req.Address,
		Phone:    req.Phone,
		UserID:   req.UserID,
	}
	if err := s.repo.Create(ctx, parent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create parent")
	}
	return parent, nil
}

// Update rewrites a parent profile. Admin only.
func (s *ParentService) Update(ctx context.Context, actor policy.Actor, id string, req UpdateParentRequest) (*models.Parent, error) {
	if !policy.Gate(actor.Role, models.FamilyParent, policy.CapabilityUpdate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not update parents")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent payload")
	}
	parent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}
	parent.FullName = req.FullName
	parent.Address = req.Address
	parent.Phone = req.Phone
	parent.UserID = req.UserID
	if err := s.repo.Update(ctx, parent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update parent")
	}
	return parent, nil
}

// Delete removes a parent profile and its student links. Admin only.
func (s *ParentService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if !policy.Gate(actor.Role, models.FamilyParent, policy.CapabilityDelete) {
		return appErrors.Clone(appErrors.ErrForbidden, "role may not delete parents")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete parent")
	}
	return nil
}

// LinkStudent attaches a student to a parent. Visibility follows the
// edge immediately: the parent's next scope computation includes the
// student. Admin only.
func (s *ParentService) LinkStudent(ctx context.Context, actor policy.Actor, parentID string, req LinkStudentRequest) (*models.StudentParent, error) {
	if !policy.Gate(actor.Role, models.FamilyParent, policy.CapabilityCreate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not manage guardianship links")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid link payload")
	}
	if _, err := s.repo.FindByID(ctx, parentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}
	link := &models.StudentParent{
		StudentID:         req.StudentID,
		ParentID:          parentID,
		RelationshipType:  models.RelationshipType(req.RelationshipType),
		IsPrimaryGuardian: req.IsPrimaryGuardian,
	}
	if err := s.repo.LinkStudent(ctx, link); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link student")
	}
	return link, nil
}

// UnlinkStudent severs a guardianship edge, and with it the parent's
// visibility into the student. Admin only.
func (s *ParentService) UnlinkStudent(ctx context.Context, actor policy.Actor, parentID, studentID string) error {
	if !policy.Gate(actor.Role, models.FamilyParent, policy.CapabilityDelete) {
		return appErrors.Clone(appErrors.ErrForbidden, "role may not manage guardianship links")
	}
	if err := s.repo.UnlinkStudent(ctx, studentID, parentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unlink student")
	}
	return nil
}

// StudentLinks returns the guardianship rows for a student the caller
// can see.
func (s *ParentService) StudentLinks(ctx context.Context, actor policy.Actor, studentID string) ([]models.StudentParent, error) {
	if !policy.Gate(actor.Role, models.FamilyParent, policy.CapabilityList) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not list guardianship links")
	}
	scope, err := s.policy.Scope(ctx, actor, models.FamilyStudent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute visible set")
	}
	if !scope.All && !scope.Contains(studentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	links, err := s.repo.ListLinks(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list guardianship links")
	}
	return links, nil
}
