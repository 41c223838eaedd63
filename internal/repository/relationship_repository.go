package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// RelationshipRepository resolves the traversal paths of the entity
// graph: actor-to-profile links, the StudentParent join, grade
// membership and the invoice hop for payments. It implements
// policy.Graph; every lookup is a single query and a missing link is
// reported as an empty result, not an error.
type RelationshipRepository struct {
	db *sqlx.DB
}

// NewRelationshipRepository constructs the repository.
func NewRelationshipRepository(db *sqlx.DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// StudentIDByActor returns the student profile linked to a user account.
func (r *RelationshipRepository) StudentIDByActor(ctx context.Context, actorID string) (string, error) {
	const query = `SELECT id FROM students WHERE user_id = $1`
	var id string
	if err := r.db.GetContext(ctx, &id, query, actorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("resolve student by actor: %w", err)
	}
	return id, nil
}

// ParentIDByActor returns the parent profile linked to a user account.
func (r *RelationshipRepository) ParentIDByActor(ctx context.Context, actorID string) (string, error) {
	const query = `SELECT id FROM parents WHERE user_id = $1`
	var id string
	if err := r.db.GetContext(ctx, &id, query, actorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("resolve parent by actor: %w", err)
	}
	return id, nil
}

// StudentIDsByParent returns the students a parent reaches through
// StudentParent rows.
func (r *RelationshipRepository) StudentIDsByParent(ctx context.Context, parentID string) ([]string, error) {
	const query = `SELECT student_id FROM student_parents WHERE parent_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, parentID); err != nil {
		return nil, fmt.Errorf("resolve students by parent: %w", err)
	}
	return ids, nil
}

// ParentIDsByStudents returns the parents linked to any of the students.
func (r *RelationshipRepository) ParentIDsByStudents(ctx context.Context, studentIDs []string) ([]string, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT DISTINCT parent_id FROM student_parents WHERE student_id = ANY($1)`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("resolve parents by students: %w", err)
	}
	return ids, nil
}

// GradeIDsByStudents returns the grades containing any of the students.
func (r *RelationshipRepository) GradeIDsByStudents(ctx context.Context, studentIDs []string) ([]string, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT DISTINCT grade_id FROM students WHERE id = ANY($1) AND grade_id IS NOT NULL`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("resolve grades by students: %w", err)
	}
	return ids, nil
}

// StudentIDByInvoice resolves the student an invoice bills; this is the
// second hop of the Payment anchor chain.
func (r *RelationshipRepository) StudentIDByInvoice(ctx context.Context, invoiceID string) (string, error) {
	const query = `SELECT student_id FROM invoices WHERE id = $1`
	var id string
	if err := r.db.GetContext(ctx, &id, query, invoiceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("resolve student by invoice: %w", err)
	}
	return id, nil
}
