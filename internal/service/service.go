// Package service implements the use-case layer. Every record operation
// runs the same pipeline: the role gate rejects the role/capability pair
// outright, the scoping engine bounds listings, and single-record reads
// are checked against the caller's visible set. A record outside that
// set is reported as not found, never as forbidden.
package service

import (
	"context"
	"math"

	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/policy"
)

// authorizer is the slice of the policy engine the services consume.
type authorizer interface {
	Scope(ctx context.Context, actor policy.Actor, family models.EntityFamily) (policy.Scope, error)
	Authorize(ctx context.Context, actor policy.Actor, method policy.MethodClass, record models.Record) (bool, error)
}

// auditor appends audit trail entries for mutations.
type auditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// roundCents snaps a monetary amount to two decimals, so an invoice
// balance settles at exactly zero once the payments add up.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func newPagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
