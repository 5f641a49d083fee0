package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tbsouza/academic-api/internal/models"
	appErrors "github.com/tbsouza/academic-api/pkg/errors"
)

type mockUserRepo struct {
	users   map[string]models.User
	created *models.User
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]models.User)
	}
	if user.ID == "" {
		user.ID = "new-user"
	}
	m.users[user.ID] = *user
	m.created = user
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

func TestUserServiceCreateHashesPassword(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, zap.NewNop())

	user, err := svc.Create(context.Background(), models.Principal{UserID: "admin", Role: models.RoleAdmin}, CreateUserRequest{
		Username: "mgarcia",
		Email:    "mgarcia@example.edu",
		Password: "long-enough-secret",
		FullName: "Maria Garcia",
		Role:     models.RoleProfessor,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "long-enough-secret", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("long-enough-secret")))
	assert.True(t, user.Active)
}

func TestUserServiceCreateRequiresAdmin(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), models.Principal{UserID: "coord-1", Role: models.RoleCoordinator}, CreateUserRequest{
		Username: "mgarcia",
		Email:    "mgarcia@example.edu",
		Password: "long-enough-secret",
		FullName: "Maria Garcia",
		Role:     models.RoleProfessor,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestUserServiceCreateRejectsUnknownRole(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), models.Principal{UserID: "admin", Role: models.RoleAdmin}, CreateUserRequest{
		Username: "mgarcia",
		Email:    "mgarcia@example.edu",
		Password: "long-enough-secret",
		FullName: "Maria Garcia",
		Role:     "JANITOR",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUserServiceListByRoleRequiresAdmin(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, zap.NewNop())

	_, _, err := svc.ListByRole(context.Background(), models.Principal{UserID: "prof-1", Role: models.RoleProfessor}, models.RoleProfessor, models.UserFilter{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestUserServiceListByRoleFilters(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u1": {ID: "u1", Role: models.RoleProfessor},
		"u2": {ID: "u2", Role: models.RoleCoordinator},
	}}
	svc := NewUserService(repo, nil, zap.NewNop())

	users, pagination, err := svc.ListByRole(context.Background(), models.Principal{UserID: "admin", Role: models.RoleAdmin}, models.RoleProfessor, models.UserFilter{})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleProfessor, users[0].Role)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestUserServiceDeleteSelfBlocked(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{"admin": {ID: "admin", Role: models.RoleAdmin}}}
	svc := NewUserService(repo, nil, zap.NewNop())

	err := svc.Delete(context.Background(), models.Principal{UserID: "admin", Role: models.RoleAdmin}, "admin")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, repo.users, "admin")
}

func TestUserServiceDeleteRequiresAdmin(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, zap.NewNop())

	err := svc.Delete(context.Background(), models.Principal{UserID: "coord-1", Role: models.RoleCoordinator}, "u1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}
