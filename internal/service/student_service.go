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

type studentRepository interface {
	List(ctx context.Context, scope policy.Scope, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	FirstName       string    `json:"first_name" validate:"required"`
	LastName        string    `json:"last_name" validate:"required"`
	Gender          string    `json:"gender" validate:"required,oneof=M F"`
	BirthDate       time.Time `json:"birth_date" validate:"required"`
	Address         string    `json:"address"`
	Status          string    `json:"status" validate:"required,oneof=ENROLLED SUSPENDED EXPELLED ALUMNI TRANSFERRED"`
	DateOfAdmission time.Time `json:"date_of_admission" validate:"required"`
	GradeID         *string   `json:"grade_id"`
	UserID          *string   `json:"user_id"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	FirstName       string    `json:"first_name" validate:"required"`
	LastName        string    `json:"last_name" validate:"required"`
	Gender          string    `json:"gender" validate:"required,oneof=M F"`
	BirthDate       time.Time `json:"birth_date" validate:"required"`
	Address         string    `json:"address"`
	Status          string    `json:"status" validate:"required,oneof=ENROLLED SUSPENDED EXPELLED ALUMNI TRANSFERRED"`
	DateOfAdmission time.Time `json:"date_of_admission" validate:"required"`
	GradeID         *string   `json:"grade_id"`
	UserID          *string   `json:"user_id"`
}

// StudentService handles student record use-cases.
type StudentService struct {
	repo      studentRepository
	policy    authorizer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, engine authorizer, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, policy: engine, validator: validate, logger: logger}
}

// List returns the students inside the caller's visible set.
func (s *StudentService) List(ctx context.Context, actor policy.Actor, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if !policy.Gate(actor.Role, models.FamilyStudent, policy.CapabilityList) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "role may not list students")
	}
	scope, err := s.policy.Scope(ctx, actor, models.FamilyStudent)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute visible set")
	}
	students, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single student. A student outside the caller's visible
// set is reported as not found.
func (s *StudentService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Student, error) {
	if !policy.Gate(actor.Role, models.FamilyStudent, policy.CapabilityList) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not read students")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	ok, err := s.policy.Authorize(ctx, actor, policy.MethodRead, student)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to authorize read")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}

// Create registers a new student profile. Admin only.
func (s *StudentService) Create(ctx context.Context, actor policy.Actor, req CreateStudentRequest) (*models.Student, error) {
	if !policy.Gate(actor.Role, models.FamilyStudent, policy.CapabilityCreate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not create students")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Gender:          req.Gender,
		BirthDate:       req.BirthDate,
		Address:         req.Address,
		Status:          models.StudentStatus(req.Status),
		DateOfAdmission: req.DateOfAdmission,
		GradeID:         req.GradeID,
		UserID:          req.UserID,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update rewrites an existing student profile. Admin only.
func (s *StudentService) Update(ctx context.Context, actor policy.Actor, id string, req UpdateStudentRequest) (*models.Student, error) {
	if !policy.Gate(actor.Role, models.FamilyStudent, policy.CapabilityUpdate) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not update students")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.Gender = req.Gender
	student.BirthDate = req.BirthDate
	student.Address = req.Address
	student.Status = models.StudentStatus(req.Status)
	student.DateOfAdmission = req.DateOfAdmission
	student.GradeID = req.GradeID
	student.UserID = req.UserID
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student and, through schema cascades, every record
// anchored to them. Admin only.
func (s *StudentService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if !policy.Gate(actor.Role, models.FamilyStudent, policy.CapabilityDelete) {
		return appErrors.Clone(appErrors.ErrForbidden, "role may not delete students")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}
