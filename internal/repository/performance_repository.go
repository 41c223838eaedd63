package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/policy"
)

// PerformanceRepository handles persistence of performance records.
type PerformanceRepository struct {
	db *sqlx.DB
}

// NewPerformanceRepository constructs the repository.
func NewPerformanceRepository(db *sqlx.DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

const performanceColumns = `pf.id, pf.student_id, pf.subject_id, pf.score, pf.exam_type, pf.academic_year, pf.term, pf.date_entered`

// List returns performance rows restricted to the caller's visible set.
func (r *PerformanceRepository) List(ctx context.Context, scope policy.Scope, filter models.PerformanceFilter) ([]models.PerformanceDetail, int, error) {
	if scope.Empty() {
		return nil, 0, nil
	}

	base := `FROM performances pf
JOIN students s ON s.id = pf.student_id
JOIN subjects sub ON sub.id = pf.subject_id`
	var conditions []string
	var args []interface{}

	conditions, args = applyScope(scope, "pf.student_id", conditions, args)

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("pf.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("pf.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.ExamType != "" {
		conditions = append(conditions, fmt.Sprintf("pf.exam_type = $%d", len(args)+1))
		args = append(args, filter.ExamType)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("pf.academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Term != 0 {
		conditions = append(conditions, fmt.Sprintf("pf.term = $%d", len(args)+1))
		args = append(args, filter.Term)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"score":        "pf.score",
		"date_entered": "pf.date_entered",
		"student_name": "s.last_name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "pf.date_entered"
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

	listQuery := fmt.Sprintf(`SELECT %s, s.first_name || ' ' || s.last_name AS student_name, sub.name AS subject_name
        %s ORDER BY %s %s, pf.id ASC LIMIT %d OFFSET %d`, performanceColumns, base+clause, orderBy, order, size, offset)

	var rows []models.PerformanceDetail
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list performances: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count performances: %w", err)
	}
	return rows, total, nil
}

// FindByID returns a performance record by identifier.
func (r *PerformanceRepository) FindByID(ctx context.Context, id string) (*models.Performance, error) {
	query := fmt.Sprintf(`SELECT %s FROM performances pf WHERE pf.id = $1`, performanceColumns)
	var perf models.Performance
	if err := r.db.GetContext(ctx, &perf, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find performance: %w", err)
	}
	return &perf, nil
}

// Create persists a new performance record. DateEntered is fixed here
// and never touched by Update.
func (r *PerformanceRepository) Create(ctx context.Context, perf *models.Performance) error {
	if perf.ID == "" {
		perf.ID = uuid.NewString()
	}
	if perf.DateEntered.IsZero() {
		perf.DateEntered = time.Now().UTC()
	}
	const query = `INSERT INTO performances (id, student_id, subject_id, score, exam_type, academic_year, term, date_entered)
        VALUES (:id, :student_id, :subject_id, :score, :exam_type, :academic_year, :term, :date_entered)`
	if _, err := r.db.NamedExecContext(ctx, query, perf); err != nil {
		return fmt.Errorf("create performance: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a performance record.
func (r *PerformanceRepository) Update(ctx context.Context, perf *models.Performance) error {
	const query = `UPDATE performances SET student_id = :student_id, subject_id = :subject_id, score = :score,
        exam_type = :exam_type, academic_year = :academic_year, term = :term WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, perf); err != nil {
		return fmt.Errorf("update performance: %w", err)
	}
	return nil
}

// Delete removes a performance record.
func (r *PerformanceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM performances WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete performance: %w", err)
	}
	return nil
}
