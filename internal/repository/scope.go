package repository

import (
	"fmt"

	"github.com/lib/pq"

	"github.com/noah-isme/student-records-api/internal/policy"
)

// applyScope appends the visible-set predicate for the given anchor
// column to a query's condition list. Scopes translate to a single
// `column = ANY($n)` predicate so scoped listings stay one query.
// Callers must handle scope.Empty() before building the query.
func applyScope(scope policy.Scope, column string, conditions []string, args []interface{}) ([]string, []interface{}) {
	if scope.All {
		return conditions, args
	}
	conditions = append(conditions, fmt.Sprintf("%s = ANY($%d)", column, len(args)+1))
	args = append(args, pq.Array(scope.IDs))
	return conditions, args
}
