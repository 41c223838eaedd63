package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/policy"
)

// EnrollmentRepository handles persistence of enrollment history rows.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `e.id, e.student_id, e.grade_id, e.academic_year, e.date_enrolled, e.date_left, e.status`

// List returns enrollment rows restricted to the caller's visible set.
func (r *EnrollmentRepository) List(ctx context.Context, scope policy.Scope, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	if scope.Empty() {
		return nil, 0, nil
	}

	base := `FROM enrollments e
JOIN students s ON s.id = e.student_id
JOIN grades g ON g.id = e.grade_id`
	var conditions []string
	var args []interface{}

	conditions, args = applyScope(scope, "e.student_id", conditions, args)

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.GradeID != "" {
		conditions = append(conditions, fmt.Sprintf("e.grade_id = $%d", len(args)+1))
		args = append(args, filter.GradeID)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("e.academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	listQuery := fmt.Sprintf(`SELECT %s, s.first_name || ' ' || s.last_name AS student_name, g.name AS grade_name
        %s ORDER BY e.date_enrolled %s, e.id ASC LIMIT %d OFFSET %d`, enrollmentColumns, base+clause, order, size, offset)

	var rows []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return rows, total, nil
}

// FindByID returns an enrollment row by identifier.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments e WHERE e.id = $1`, enrollmentColumns)
	var enr models.Enrollment
	if err := r.db.GetContext(ctx, &enr, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enr, nil
}

// Create persists a new enrollment row.
func (r *EnrollmentRepository) Create(ctx context.Context, enr *models.Enrollment) error {
	if enr.ID == "" {
		enr.ID = uuid.NewString()
	}
	const query = `INSERT INTO enrollments (id, student_id, grade_id, academic_year, date_enrolled, date_left, status)
        VALUES (:id, :student_id, :grade_id, :academic_year, :date_enrolled, :date_left, :status)`
	if _, err := r.db.NamedExecContext(ctx, query, enr); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Update rewrites an enrollment row. DateLeft and Status move together
// when a student leaves a grade.
func (r *EnrollmentRepository) Update(ctx context.Context, enr *models.Enrollment) error {
	const query = `UPDATE enrollments SET student_id = :student_id, grade_id = :grade_id,
        academic_year = :academic_year, date_enrolled = :date_enrolled, date_left = :date_left,
        status = :status WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, enr); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}

// Delete removes an enrollment row.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM enrollments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}
