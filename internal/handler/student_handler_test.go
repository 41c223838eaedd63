package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-records-api/internal/middleware"
	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/policy"
	"github.com/noah-isme/student-records-api/internal/service"
)

type studentRepoStub struct {
	students   []models.Student
	lastFilter models.StudentFilter
	lastScope  policy.Scope
}

func (s *studentRepoStub) List(ctx context.Context, scope policy.Scope, filter models.StudentFilter) ([]models.Student, int, error) {
	s.lastScope = scope
	s.lastFilter = filter
	return s.students, len(s.students), nil
}

func (s *studentRepoStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	for i := range s.students {
		if s.students[i].ID == id {
			return &s.students[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *studentRepoStub) Create(ctx context.Context, student *models.Student) error { return nil }
func (s *studentRepoStub) Update(ctx context.Context, student *models.Student) error { return nil }
func (s *studentRepoStub) Delete(ctx context.Context, id string) error               { return nil }

type policyStub struct {
	scope policy.Scope
	allow bool
}

func (p *policyStub) Scope(ctx context.Context, actor policy.Actor, family models.EntityFamily) (policy.Scope, error) {
	return p.scope, nil
}

func (p *policyStub) Authorize(ctx context.Context, actor policy.Actor, method policy.MethodClass, record models.Record) (bool, error) {
	return p.allow, nil
}

func TestStudentHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &studentRepoStub{students: []models.Student{{ID: "s-1", FirstName: "Alice"}}}
	svc := service.NewStudentService(repo, &policyStub{scope: policy.ScopeAll(), allow: true}, nil, nil)
	handler := NewStudentHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students?search=ali&gradeId=g-1&page=2&limit=5", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-admin", Role: models.RoleAdmin})

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ali", repo.lastFilter.Search)
	assert.Equal(t, "g-1", repo.lastFilter.GradeID)
	assert.Equal(t, 2, repo.lastFilter.Page)
	assert.Equal(t, 5, repo.lastFilter.PageSize)
	assert.True(t, repo.lastScope.All)
}

func TestStudentHandlerListWithoutClaimsIsForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &studentRepoStub{}
	svc := service.NewStudentService(repo, &policyStub{}, nil, nil)
	handler := NewStudentHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students", nil)
	c.Request = req

	// No claims on the context: the actor degrades to an unauthenticated
	// pending identity and the service refuses the listing.
	handler.List(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestStudentHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewStudentService(&studentRepoStub{}, &policyStub{}, nil, nil)
	handler := NewStudentHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/students", bytes.NewBufferString(`{"first_name":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-admin", Role: models.RoleAdmin})

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStudentHandlerListEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &studentRepoStub{students: []models.Student{{ID: "s-1"}, {ID: "s-2"}}}
	svc := service.NewStudentService(repo, &policyStub{scope: policy.ScopeAll(), allow: true}, nil, nil)
	handler := NewStudentHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-admin", Role: models.RoleAdmin})

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data       []models.Student   `json:"data"`
		Pagination *models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 2)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 2, envelope.Pagination.TotalCount)
}
