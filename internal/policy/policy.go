// Package policy implements the authorization layer: a coarse role gate,
// a scoping engine computing the set of records an actor may enumerate,
// and an object authorization engine deciding single-record access. The
// two engines are derived from one shared relationship-traversal
// primitive so that a record is readable exactly when it is a member of
// the actor's visible set.
//
// Every evaluation is a pure function of the actor and the relationship
// graph read fresh from the store; decisions are never cached.
package policy

import (
	"context"

	"github.com/noah-isme/student-records-api/internal/models"
)

// Actor is the resolved caller identity: a stable user ID plus a role
// claim. A zero-ID actor is unauthenticated and denied everything.
type Actor struct {
	ID   string
	Role models.Role
}

// Authenticated reports whether the actor carries a resolved identity.
func (a Actor) Authenticated() bool { return a.ID != "" }

// MethodClass partitions operations into safe reads and mutations.
type MethodClass string

const (
	MethodRead  MethodClass = "READ"
	MethodWrite MethodClass = "WRITE"
)

// Capability is the coarse action class checked by the role gate.
type Capability string

const (
	CapabilityList   Capability = "LIST"
	CapabilityCreate Capability = "CREATE"
	CapabilityUpdate Capability = "UPDATE"
	CapabilityDelete Capability = "DELETE"
)

// Graph resolves relationship traversals against the system of record.
// Lookups that find no link return empty results with a nil error; the
// engine treats a missing link as an empty visible set, never as a
// failure. Any storage error propagates unchanged.
type Graph interface {
	// StudentIDByActor returns the student profile linked to a user
	// account, or "" when none exists.
	StudentIDByActor(ctx context.Context, actorID string) (string, error)
	// ParentIDByActor returns the parent profile linked to a user
	// account, or "" when none exists.
	ParentIDByActor(ctx context.Context, actorID string) (string, error)
	// StudentIDsByParent returns the students reachable from a parent
	// through StudentParent rows.
	StudentIDsByParent(ctx context.Context, parentID string) ([]string, error)
	// ParentIDsByStudents returns the parents linked to any of the given
	// students through StudentParent rows.
	ParentIDsByStudents(ctx context.Context, studentIDs []string) ([]string, error)
	// GradeIDsByStudents returns the grades containing any of the given
	// students.
	GradeIDsByStudents(ctx context.Context, studentIDs []string) ([]string, error)
	// StudentIDByInvoice resolves the student an invoice bills, or ""
	// when the invoice does not exist. This is the second hop of the
	// Payment anchor chain.
	StudentIDByInvoice(ctx context.Context, invoiceID string) (string, error)
}

// Scope is the visible-set predicate for one (actor, family) pair. When
// All is false the IDs are the permitted anchor identifiers for that
// family: entity IDs for Student, Parent and Grade, and anchor student
// IDs for the dependent families (Performance, Attendance, Enrollment,
// Invoice, Payment). An empty ID set means nothing is visible.
type Scope struct {
	All bool
	IDs []string
}

// ScopeAll makes every row of the family visible.
func ScopeAll() Scope { return Scope{All: true} }

// ScopeNone makes no row visible.
func ScopeNone() Scope { return Scope{} }

// ScopeIDs restricts visibility to the given anchor IDs.
func ScopeIDs(ids []string) Scope { return Scope{IDs: ids} }

// Empty reports whether the scope admits no rows at all.
func (s Scope) Empty() bool { return !s.All && len(s.IDs) == 0 }

// Contains reports whether the given anchor ID is inside the scope.
func (s Scope) Contains(id string) bool {
	if s.All {
		return true
	}
	if id == "" {
		return false
	}
	for _, v := range s.IDs {
		if v == id {
			return true
		}
	}
	return false
}
