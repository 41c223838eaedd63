package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationshipRepositoryStudentByActor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRelationshipRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM students WHERE user_id = $1`)).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("s-1"))

	id, err := repo.StudentIDByActor(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipRepositoryMissingLinkIsEmptyNotError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRelationshipRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM students WHERE user_id = $1`)).
		WithArgs("u-unlinked").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM parents WHERE user_id = $1`)).
		WithArgs("u-unlinked").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT student_id FROM invoices WHERE id = $1`)).
		WithArgs("inv-missing").
		WillReturnError(sql.ErrNoRows)

	sid, err := repo.StudentIDByActor(context.Background(), "u-unlinked")
	require.NoError(t, err)
	assert.Empty(t, sid)

	pid, err := repo.ParentIDByActor(context.Background(), "u-unlinked")
	require.NoError(t, err)
	assert.Empty(t, pid)

	owner, err := repo.StudentIDByInvoice(context.Background(), "inv-missing")
	require.NoError(t, err)
	assert.Empty(t, owner)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipRepositoryStudentsByParent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRelationshipRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT student_id FROM student_parents WHERE parent_id = $1`)).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow("s-1").AddRow("s-2"))

	ids, err := repo.StudentIDsByParent(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1", "s-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipRepositoryGradesByStudentsSingleQuery(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRelationshipRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT grade_id FROM students WHERE id = ANY($1) AND grade_id IS NOT NULL`)).
		WithArgs(pq.Array([]string{"s-1", "s-2"})).
		WillReturnRows(sqlmock.NewRows([]string{"grade_id"}).AddRow("g-1").AddRow("g-2"))

	ids, err := repo.GradeIDsByStudents(context.Background(), []string{"s-1", "s-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"g-1", "g-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipRepositoryEmptyInputShortCircuits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRelationshipRepository(db)

	parents, err := repo.ParentIDsByStudents(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, parents)

	grades, err := repo.GradeIDsByStudents(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, grades)

	assert.NoError(t, mock.ExpectationsWereMet())
}
