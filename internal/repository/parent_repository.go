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

// ParentRepository handles persistence of parents and StudentParent
// join rows. The join table is the only path from parents to students.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs the repository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

const parentColumns = `p.id, p.full_name, p.address, p.phone, p.user_id, p.created_at, p.updated_at`

// List returns parents restricted to the caller's visible set.
func (r *ParentRepository) List(ctx context.Context, scope policy.Scope, filter models.ParentFilter) ([]models.Parent, int, error) {
	if scope.Empty() {
		return nil, 0, nil
	}

	baseQuery := `FROM parents p WHERE 1=1`
	var conditions []string
	var args []interface{}

	conditions, args = applyScope(scope, "p.id", conditions, args)

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("p.id IN (SELECT parent_id FROM student_parents WHERE student_id = $%d)", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(p.full_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY p.full_name %s LIMIT %d OFFSET %d", parentColumns, baseQuery, order, size, offset)

	var parents []models.Parent
	if err := r.db.SelectContext(ctx, &parents, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list parents: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count parents: %w", err)
	}
	return parents, total, nil
}

// FindByID returns a parent by identifier.
func (r *ParentRepository) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	query := fmt.Sprintf(`SELECT %s FROM parents p WHERE p.id = $1`, parentColumns)
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find parent: %w", err)
	}
	return &parent, nil
}

// Create persists a new parent profile.
func (r *ParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	parent.CreatedAt = now
	parent.UpdatedAt = now
	const query = `INSERT INTO parents (id, full_name, address, phone, user_id, created_at, updated_at)
        VALUES (:id, :full_name, :address, :phone, :user_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	return nil
}

// Update rewrites a parent profile.
func (r *ParentRepository) Update(ctx context.Context, parent *models.Parent) error {
	parent.UpdatedAt = time.Now().UTC()
	const query = `UPDATE parents SET full_name = :full_name, address = :address, phone = :phone,
        user_id = :user_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("update parent: %w", err)
	}
	return nil
}

// Delete removes a parent; its StudentParent rows cascade.
func (r *ParentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM parents WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete parent: %w", err)
	}
	return nil
}

// LinkStudent creates a StudentParent row.
func (r *ParentRepository) LinkStudent(ctx context.Context, link *models.StudentParent) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_parents (id, student_id, parent_id, relationship_type, is_primary_guardian, created_at)
        VALUES (:id, :student_id, :parent_id, :relationship_type, :is_primary_guardian, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		return fmt.Errorf("link student to parent: %w", err)
	}
	return nil
}

// UnlinkStudent removes the StudentParent row between a student and a
// parent, severing the parent's visibility into that student.
func (r *ParentRepository) UnlinkStudent(ctx context.Context, studentID, parentID string) error {
	const query = `DELETE FROM student_parents WHERE student_id = $1 AND parent_id = $2`
	if _, err := r.db.ExecContext(ctx, query, studentID, parentID); err != nil {
		return fmt.Errorf("unlink student from parent: %w", err)
	}
	return nil
}

// ListLinks returns the StudentParent rows for a student.
func (r *ParentRepository) ListLinks(ctx context.Context, studentID string) ([]models.StudentParent, error) {
	const query = `SELECT id, student_id, parent_id, relationship_type, is_primary_guardian, created_at
        FROM student_parents WHERE student_id = $1 ORDER BY is_primary_guardian DESC, created_at ASC`
	var links []models.StudentParent
	if err := r.db.SelectContext(ctx, &links, query, studentID); err != nil {
		return nil, fmt.Errorf("list student parent links: %w", err)
	}
	return links, nil
}
