package policy

import (
	"context"
	"fmt"

	"github.com/noah-isme/student-records-api/internal/models"
)

// Engine evaluates scoping and object authorization against the
// relationship graph. It is stateless; every call re-reads the graph.
type Engine struct {
	graph Graph
}

// NewEngine constructs an Engine over the given relationship graph.
func NewEngine(graph Graph) *Engine {
	return &Engine{graph: graph}
}

// Scope computes the visible set for an actor and an entity family.
// Unauthenticated, Pending and unlinked actors receive an empty scope.
func (e *Engine) Scope(ctx context.Context, actor Actor, family models.EntityFamily) (Scope, error) {
	if !actor.Authenticated() {
		return ScopeNone(), nil
	}
	return e.visibleAnchors(ctx, actor, family)
}

// Authorize decides whether the actor may apply the method class to the
// record. Writes are admin-only. Reads are defined as membership in the
// same visible set Scope computes, so the two engines cannot disagree:
// both are derived from visibleAnchors plus the per-family anchor
// resolution below.
func (e *Engine) Authorize(ctx context.Context, actor Actor, method MethodClass, record models.Record) (bool, error) {
	if !actor.Authenticated() {
		return false, nil
	}
	if actor.Role == models.RoleAdmin {
		return true, nil
	}
	if method != MethodRead {
		return false, nil
	}

	scope, err := e.visibleAnchors(ctx, actor, record.EntityFamily())
	if err != nil {
		return false, err
	}
	if scope.All {
		return true, nil
	}
	if scope.Empty() {
		return false, nil
	}

	anchor, err := e.anchorID(ctx, record)
	if err != nil {
		return false, err
	}
	return scope.Contains(anchor), nil
}

// visibleAnchors is the single traversal primitive behind both engines.
// It resolves the actor's linked profile first so that a missing link
// yields an empty scope for every family, including the globally
// readable ones.
func (e *Engine) visibleAnchors(ctx context.Context, actor Actor, family models.EntityFamily) (Scope, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return ScopeAll(), nil

	case models.RoleTeacher:
		if family == models.FamilyInvoice || family == models.FamilyPayment {
			return ScopeNone(), nil
		}
		return ScopeAll(), nil

	case models.RoleStudent:
		studentID, err := e.graph.StudentIDByActor(ctx, actor.ID)
		if err != nil {
			return ScopeNone(), err
		}
		if studentID == "" {
			return ScopeNone(), nil
		}
		return e.familyScope(ctx, family, []string{studentID})

	case models.RoleParent:
		parentID, err := e.graph.ParentIDByActor(ctx, actor.ID)
		if err != nil {
			return ScopeNone(), err
		}
		if parentID == "" {
			return ScopeNone(), nil
		}
		children, err := e.graph.StudentIDsByParent(ctx, parentID)
		if err != nil {
			return ScopeNone(), err
		}
		if family == models.FamilyParent {
			return ScopeIDs([]string{parentID}), nil
		}
		return e.familyScope(ctx, family, children)

	default:
		return ScopeNone(), nil
	}
}

// familyScope maps a set of reachable students onto the anchor IDs of
// the requested family. The student set is the actor's own student for
// Student roles and the union of children for Parent roles.
func (e *Engine) familyScope(ctx context.Context, family models.EntityFamily, studentIDs []string) (Scope, error) {
	// Teacher and Subject directories are visible to every linked actor
	// regardless of how many students they reach; a parent with no
	// registered children still browses them. Only a missing profile
	// link empties these families, and that is handled before this call.
	if family == models.FamilyTeacher || family == models.FamilySubject {
		return ScopeAll(), nil
	}
	if len(studentIDs) == 0 {
		return ScopeNone(), nil
	}
	switch family {
	case models.FamilyStudent, models.FamilyPerformance, models.FamilyAttendance,
		models.FamilyEnrollment, models.FamilyInvoice, models.FamilyPayment:
		return ScopeIDs(studentIDs), nil
	case models.FamilyParent:
		parents, err := e.graph.ParentIDsByStudents(ctx, studentIDs)
		if err != nil {
			return ScopeNone(), err
		}
		return ScopeIDs(parents), nil
	case models.FamilyGrade:
		grades, err := e.graph.GradeIDsByStudents(ctx, studentIDs)
		if err != nil {
			return ScopeNone(), err
		}
		return ScopeIDs(grades), nil
	default:
		return ScopeNone(), fmt.Errorf("policy: unknown entity family %q", family)
	}
}

// anchorID resolves the anchor identifier a record is attributed to, in
// the ID domain its family's scope uses. Payments require the extra
// Invoice hop through the graph; everything else carries its anchor
// directly.
func (e *Engine) anchorID(ctx context.Context, record models.Record) (string, error) {
	switch r := record.(type) {
	case *models.Student:
		return r.ID, nil
	case *models.Parent:
		return r.ID, nil
	case *models.Grade:
		return r.ID, nil
	case *models.Teacher:
		return r.ID, nil
	case *models.Subject:
		return r.ID, nil
	case *models.Performance:
		return r.StudentID, nil
	case *models.Attendance:
		return r.StudentID, nil
	case *models.Enrollment:
		return r.StudentID, nil
	case *models.Invoice:
		return r.StudentID, nil
	case *models.Payment:
		return e.graph.StudentIDByInvoice(ctx, r.InvoiceID)
	default:
		return "", fmt.Errorf("policy: unsupported record type %T", record)
	}
}
