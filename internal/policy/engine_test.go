package policy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-records-api/internal/models"
)

// fakeGraph is an in-memory relationship graph used by the engine tests.
type fakeGraph struct {
	studentByActor  map[string]string
	parentByActor   map[string]string
	childrenByParent map[string][]string
	parentsByStudent map[string][]string
	gradeByStudent  map[string]string
	invoiceStudent  map[string]string
}

func (g *fakeGraph) StudentIDByActor(_ context.Context, actorID string) (string, error) {
	return g.studentByActor[actorID], nil
}

func (g *fakeGraph) ParentIDByActor(_ context.Context, actorID string) (string, error) {
	return g.parentByActor[actorID], nil
}

func (g *fakeGraph) StudentIDsByParent(_ context.Context, parentID string) ([]string, error) {
	return g.childrenByParent[parentID], nil
}

func (g *fakeGraph) ParentIDsByStudents(_ context.Context, studentIDs []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, sid := range studentIDs {
		for _, pid := range g.parentsByStudent[sid] {
			if !seen[pid] {
				seen[pid] = true
				out = append(out, pid)
			}
		}
	}
	return out, nil
}

func (g *fakeGraph) GradeIDsByStudents(_ context.Context, studentIDs []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, sid := range studentIDs {
		if gid := g.gradeByStudent[sid]; gid != "" && !seen[gid] {
			seen[gid] = true
			out = append(out, gid)
		}
	}
	return out, nil
}

func (g *fakeGraph) StudentIDByInvoice(_ context.Context, invoiceID string) (string, error) {
	return g.invoiceStudent[invoiceID], nil
}

// The fixture mirrors the scenario in the acceptance notes: student
// Alice (linked to actor u-alice) in grade g-1, her father Bob (actor
// u-bob) also linked to sibling Carol in grade g-2, an unrelated student
// Dave (actor u-dave), a teacher actor, and one of each dependent
// record anchored to Alice.
func newFixture() (*Engine, *fixtureRecords) {
	graph := &fakeGraph{
		studentByActor:  map[string]string{"u-alice": "s-alice", "u-dave": "s-dave"},
		parentByActor:   map[string]string{"u-bob": "p-bob", "u-eve": "p-eve"},
		childrenByParent: map[string][]string{"p-bob": {"s-alice", "s-carol"}},
		parentsByStudent: map[string][]string{"s-alice": {"p-bob"}, "s-carol": {"p-bob"}},
		gradeByStudent:  map[string]string{"s-alice": "g-1", "s-carol": "g-2", "s-dave": "g-1"},
		invoiceStudent:  map[string]string{"inv-alice": "s-alice", "inv-dave": "s-dave"},
	}

	grade1 := "g-1"
	records := &fixtureRecords{
		alice:   &models.Student{ID: "s-alice", FirstName: "Alice", GradeID: &grade1},
		dave:    &models.Student{ID: "s-dave", FirstName: "Dave", GradeID: &grade1},
		bob:     &models.Parent{ID: "p-bob", FullName: "Bob"},
		grade1:  &models.Grade{ID: "g-1", Name: "Form 2", Stream: "West"},
		grade2:  &models.Grade{ID: "g-2", Name: "Form 4", Stream: "East"},
		teacher: &models.Teacher{ID: "t-1", FullName: "Ms. Wanjiru"},
		subject: &models.Subject{ID: "sub-1", Name: "Mathematics"},
		perfAlice: &models.Performance{
			ID: "perf-7", StudentID: "s-alice", SubjectID: "sub-1",
			Score: 88, ExamType: models.ExamTypeCAT, Term: 1, DateEntered: time.Now(),
		},
		attAlice:   &models.Attendance{ID: "att-1", StudentID: "s-alice", GradeID: "g-1", Status: models.AttendanceStatusPresent},
		enrAlice:   &models.Enrollment{ID: "enr-1", StudentID: "s-alice", GradeID: "g-1", Status: models.EnrollmentStatusEnrolled},
		invAlice:   &models.Invoice{ID: "inv-alice", StudentID: "s-alice", TotalAmount: 500, AmountDue: 120, Status: models.InvoiceStatusPending},
		payAlice:   &models.Payment{ID: "pay-1", InvoiceID: "inv-alice", AmountPaid: 380},
		invDave:    &models.Invoice{ID: "inv-dave", StudentID: "s-dave", TotalAmount: 500, AmountDue: 500, Status: models.InvoiceStatusPending},
		payDave:    &models.Payment{ID: "pay-2", InvoiceID: "inv-dave", AmountPaid: 0},
	}
	return NewEngine(graph), records
}

type fixtureRecords struct {
	alice, dave *models.Student
	bob         *models.Parent
	grade1      *models.Grade
	grade2      *models.Grade
	teacher     *models.Teacher
	subject     *models.Subject
	perfAlice   *models.Performance
	attAlice    *models.Attendance
	enrAlice    *models.Enrollment
	invAlice    *models.Invoice
	payAlice    *models.Payment
	invDave     *models.Invoice
	payDave     *models.Payment
}

func (f *fixtureRecords) all() []models.Record {
	return []models.Record{
		f.alice, f.dave, f.bob, f.grade1, f.grade2, f.teacher, f.subject,
		f.perfAlice, f.attAlice, f.enrAlice, f.invAlice, f.payAlice,
		f.invDave, f.payDave,
	}
}

var fixtureActors = map[string]Actor{
	"admin":   {ID: "u-admin", Role: models.RoleAdmin},
	"teacher": {ID: "u-teach", Role: models.RoleTeacher},
	"alice":   {ID: "u-alice", Role: models.RoleStudent},
	"dave":    {ID: "u-dave", Role: models.RoleStudent},
	"bob":     {ID: "u-bob", Role: models.RoleParent},
	"eve":     {ID: "u-eve", Role: models.RoleParent},
	"pending": {ID: "u-new", Role: models.RolePending},
}

func TestAdminUniversality(t *testing.T) {
	engine, records := newFixture()
	ctx := context.Background()
	admin := fixtureActors["admin"]

	for _, rec := range records.all() {
		for _, method := range []MethodClass{MethodRead, MethodWrite} {
			ok, err := engine.Authorize(ctx, admin, method, rec)
			require.NoError(t, err)
			assert.True(t, ok, "admin must be allowed %s on %T", method, rec)
		}
	}
}

func TestTeacherFinancialExclusion(t *testing.T) {
	engine, records := newFixture()
	ctx := context.Background()
	teacher := fixtureActors["teacher"]

	for _, rec := range []models.Record{records.invAlice, records.payAlice, records.invDave, records.payDave} {
		ok, err := engine.Authorize(ctx, teacher, MethodRead, rec)
		require.NoError(t, err)
		assert.False(t, ok, "teacher must never read %T", rec)
	}

	// Everything non-financial stays readable.
	ok, err := engine.Authorize(ctx, teacher, MethodRead, records.perfAlice)
	require.NoError(t, err)
	assert.True(t, ok)

	// But never writable.
	ok, err = engine.Authorize(ctx, teacher, MethodWrite, records.perfAlice)
	require.NoError(t, err)
	assert.False(t, ok)

	scope, err := engine.Scope(ctx, teacher, models.FamilyInvoice)
	require.NoError(t, err)
	assert.True(t, scope.Empty())
	scope, err = engine.Scope(ctx, teacher, models.FamilyPayment)
	require.NoError(t, err)
	assert.True(t, scope.Empty())
}

func TestStudentSeesOnlyOwnRecords(t *testing.T) {
	engine, records := newFixture()
	ctx := context.Background()
	alice := fixtureActors["alice"]
	dave := fixtureActors["dave"]

	ok, err := engine.Authorize(ctx, alice, MethodRead, records.perfAlice)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = engine.Authorize(ctx, alice, MethodWrite, records.perfAlice)
	require.NoError(t, err)
	assert.False(t, ok, "students never write")

	ok, err = engine.Authorize(ctx, dave, MethodRead, records.perfAlice)
	require.NoError(t, err)
	assert.False(t, ok, "unrelated student must not read Alice's performance")

	scope, err := engine.Scope(ctx, dave, models.FamilyPerformance)
	require.NoError(t, err)
	assert.False(t, scope.Contains("s-alice"))

	// Teachers and subjects are globally readable.
	ok, err = engine.Authorize(ctx, alice, MethodRead, records.teacher)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = engine.Authorize(ctx, alice, MethodRead, records.subject)
	require.NoError(t, err)
	assert.True(t, ok)

	// Another student's profile is invisible.
	ok, err = engine.Authorize(ctx, alice, MethodRead, records.dave)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParentTransitiveVisibility(t *testing.T) {
	engine, records := newFixture()
	ctx := context.Background()
	bob := fixtureActors["bob"]

	// Bob reaches Alice's dependent records through StudentParent.
	for _, rec := range []models.Record{records.alice, records.perfAlice, records.attAlice, records.enrAlice, records.invAlice, records.payAlice} {
		ok, err := engine.Authorize(ctx, bob, MethodRead, rec)
		require.NoError(t, err)
		assert.True(t, ok, "parent must read %T for own child", rec)
	}

	// But not an unrelated student's financials, even via the payment hop.
	for _, rec := range []models.Record{records.dave, records.invDave, records.payDave} {
		ok, err := engine.Authorize(ctx, bob, MethodRead, rec)
		require.NoError(t, err)
		assert.False(t, ok, "parent must not read %T for unrelated student", rec)
	}

	// Reads only; no writes.
	ok, err := engine.Authorize(ctx, bob, MethodWrite, records.invAlice)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParentGradeUnionAcrossChildren(t *testing.T) {
	engine, records := newFixture()
	ctx := context.Background()
	bob := fixtureActors["bob"]

	// Bob has children in g-1 (Alice) and g-2 (Carol): both grades are
	// visible, as the union over all children.
	scope, err := engine.Scope(ctx, bob, models.FamilyGrade)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"g-1", "g-2"}, scope.IDs)

	ok, err := engine.Authorize(ctx, bob, MethodRead, records.grade1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = engine.Authorize(ctx, bob, MethodRead, records.grade2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChildlessParentStillSeesDirectories(t *testing.T) {
	engine, records := newFixture()
	ctx := context.Background()
	eve := fixtureActors["eve"]

	// Eve is a linked parent with no StudentParent rows. The teacher and
	// subject directories stay fully visible; only the student-anchored
	// families collapse to empty.
	scope, err := engine.Scope(ctx, eve, models.FamilyTeacher)
	require.NoError(t, err)
	assert.True(t, scope.All)
	scope, err = engine.Scope(ctx, eve, models.FamilySubject)
	require.NoError(t, err)
	assert.True(t, scope.All)

	ok, err := engine.Authorize(ctx, eve, MethodRead, records.teacher)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = engine.Authorize(ctx, eve, MethodRead, records.subject)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, family := range []models.EntityFamily{
		models.FamilyStudent, models.FamilyGrade, models.FamilyPerformance,
		models.FamilyAttendance, models.FamilyEnrollment,
		models.FamilyInvoice, models.FamilyPayment,
	} {
		scope, err := engine.Scope(ctx, eve, family)
		require.NoError(t, err)
		assert.True(t, scope.Empty(), "family %s must be empty for a parent with no children", family)
	}

	ok, err = engine.Authorize(ctx, eve, MethodRead, records.alice)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPaymentAnchorResolvesThroughInvoice(t *testing.T) {
	engine, records := newFixture()
	ctx := context.Background()

	// Alice reads her own payment (Payment -> inv-alice -> s-alice).
	ok, err := engine.Authorize(ctx, fixtureActors["alice"], MethodRead, records.payAlice)
	require.NoError(t, err)
	assert.True(t, ok)

	// Dave's payment resolves to s-dave, outside Alice's scope.
	ok, err = engine.Authorize(ctx, fixtureActors["alice"], MethodRead, records.payDave)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFailClosedOnMissingLinkAndPending(t *testing.T) {
	engine, records := newFixture()
	ctx := context.Background()

	// A student-role actor with no linked student profile sees nothing.
	orphan := Actor{ID: "u-orphan", Role: models.RoleStudent}
	for _, family := range models.Families() {
		scope, err := engine.Scope(ctx, orphan, family)
		require.NoError(t, err)
		assert.True(t, scope.Empty(), "family %s must be empty for unlinked student", family)
	}
	for _, rec := range records.all() {
		ok, err := engine.Authorize(ctx, orphan, MethodRead, rec)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	// Same for parents without a linked parent profile.
	scope, err := engine.Scope(ctx, Actor{ID: "u-x", Role: models.RoleParent}, models.FamilyStudent)
	require.NoError(t, err)
	assert.True(t, scope.Empty())

	// Pending denies everything, as does an unauthenticated actor.
	for _, actor := range []Actor{fixtureActors["pending"], {}} {
		for _, family := range models.Families() {
			scope, err := engine.Scope(ctx, actor, family)
			require.NoError(t, err)
			assert.True(t, scope.Empty())
		}
		ok, err := engine.Authorize(ctx, actor, MethodRead, records.teacher)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestMalformedRoleTreatedAsPending(t *testing.T) {
	engine, records := newFixture()
	ctx := context.Background()

	actor := Actor{ID: "u-alice", Role: models.ParseRole("superuser")}
	require.Equal(t, models.RolePending, actor.Role)

	ok, err := engine.Authorize(ctx, actor, MethodRead, records.alice)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestScopeAuthorizeConsistency checks the consistency law: for every
// actor and record, Read authorization holds exactly when the record's
// anchor is a member of the actor's visible set for that family.
func TestScopeAuthorizeConsistency(t *testing.T) {
	engine, records := newFixture()
	ctx := context.Background()

	anchorOf := func(rec models.Record) string {
		switch r := rec.(type) {
		case *models.Student:
			return r.ID
		case *models.Parent:
			return r.ID
		case *models.Grade:
			return r.ID
		case *models.Teacher:
			return r.ID
		case *models.Subject:
			return r.ID
		case *models.Performance:
			return r.StudentID
		case *models.Attendance:
			return r.StudentID
		case *models.Enrollment:
			return r.StudentID
		case *models.Invoice:
			return r.StudentID
		case *models.Payment:
			// Mirror the engine's double hop using fixture knowledge.
			if r.InvoiceID == "inv-alice" {
				return "s-alice"
			}
			return "s-dave"
		}
		t.Fatalf("unmapped record %T", rec)
		return ""
	}

	for name, actor := range fixtureActors {
		for _, rec := range records.all() {
			scope, err := engine.Scope(ctx, actor, rec.EntityFamily())
			require.NoError(t, err)
			member := scope.Contains(anchorOf(rec))

			allowed, err := engine.Authorize(ctx, actor, MethodRead, rec)
			require.NoError(t, err)
			assert.Equal(t, member, allowed,
				"actor %s, record %T: scope membership and Read authorization diverge", name, rec)
		}
	}
}

// TestIdempotence verifies repeated evaluation with unchanged data
// returns identical results.
func TestIdempotence(t *testing.T) {
	engine, records := newFixture()
	ctx := context.Background()
	bob := fixtureActors["bob"]

	first, err := engine.Scope(ctx, bob, models.FamilyPerformance)
	require.NoError(t, err)
	second, err := engine.Scope(ctx, bob, models.FamilyPerformance)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	a1, err := engine.Authorize(ctx, bob, MethodRead, records.perfAlice)
	require.NoError(t, err)
	a2, err := engine.Authorize(ctx, bob, MethodRead, records.perfAlice)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
}

func TestStudentSeesOwnParentsOnly(t *testing.T) {
	engine, records := newFixture()
	ctx := context.Background()

	// Alice's visible parents are those linked to her via StudentParent.
	scope, err := engine.Scope(ctx, fixtureActors["alice"], models.FamilyParent)
	require.NoError(t, err)
	assert.Equal(t, []string{"p-bob"}, scope.IDs)

	// Dave has no StudentParent rows: no parents visible.
	scope, err = engine.Scope(ctx, fixtureActors["dave"], models.FamilyParent)
	require.NoError(t, err)
	assert.True(t, scope.Empty())

	ok, err := engine.Authorize(ctx, fixtureActors["dave"], MethodRead, records.bob)
	require.NoError(t, err)
	assert.False(t, ok)
}
