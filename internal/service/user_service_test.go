package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/policy"
)

type mockUserRepo struct {
	users     map[string]*models.User
	auditLogs []*models.AuditLog
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var users []models.User
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id string, role models.Role, updatedAt time.Time) error {
	m.users[id].Role = role
	return nil
}

func (m *mockUserRepo) Deactivate(ctx context.Context, id string, updatedAt time.Time) error {
	m.users[id].Active = false
	return nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func TestUserServiceAssignRolePromotesPending(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u-1": {ID: "u-1", Email: "new@school.ac.ke", Role: models.RolePending, Active: true},
	}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())
	admin := policy.Actor{ID: "u-admin", Role: models.RoleAdmin}

	user, err := svc.AssignRole(context.Background(), admin, "u-1", AssignRoleRequest{Role: "STUDENT"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NotEmpty(t, repo.auditLogs)
}

func TestUserServiceAssignRoleRejectsUnknownRole(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u-1": {ID: "u-1", Role: models.RolePending},
	}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())
	admin := policy.Actor{ID: "u-admin", Role: models.RoleAdmin}

	_, err := svc.AssignRole(context.Background(), admin, "u-1", AssignRoleRequest{Role: "SUPERUSER"})
	require.Error(t, err)
	assert.Equal(t, models.RolePending, repo.users["u-1"].Role)
}

func TestUserServiceAdministrationIsAdminOnly(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u-1": {ID: "u-1", Role: models.RolePending},
	}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	for _, role := range []models.Role{models.RoleTeacher, models.RoleStudent, models.RoleParent, models.RolePending} {
		actor := policy.Actor{ID: "u-x", Role: role}
		_, _, err := svc.List(context.Background(), actor, models.UserFilter{})
		require.Error(t, err, "role %s must not list users", role)
		_, err = svc.AssignRole(context.Background(), actor, "u-1", AssignRoleRequest{Role: "STUDENT"})
		require.Error(t, err, "role %s must not assign roles", role)
		err = svc.Deactivate(context.Background(), actor, "u-1")
		require.Error(t, err, "role %s must not deactivate accounts", role)
	}
}

func TestUserServiceGetSelfAllowed(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u-1": {ID: "u-1", Email: "me@school.ac.ke", Role: models.RoleStudent},
	}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	user, err := svc.Get(context.Background(), policy.Actor{ID: "u-1", Role: models.RoleStudent}, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "me@school.ac.ke", user.Email)

	_, err = svc.Get(context.Background(), policy.Actor{ID: "u-2", Role: models.RoleStudent}, "u-1")
	require.Error(t, err)
}
