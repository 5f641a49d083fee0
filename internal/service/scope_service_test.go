package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tbsouza/academic-api/internal/models"
)

type mockScopeRepo struct {
	coordinatorPeriods map[string][]string
	periodModules      map[string][]string
	periodStudents     map[string][]string
	professorModules   map[string][]string
	moduleStudents     map[string][]string
	modulePeriods      map[string][]string
}

func (m *mockScopeRepo) PeriodIDsByCoordinator(ctx context.Context, userID string) ([]string, error) {
	return m.coordinatorPeriods[userID], nil
}

func (m *mockScopeRepo) ModuleIDsByPeriods(ctx context.Context, periodIDs []string) ([]string, error) {
	var out []string
	for _, id := range periodIDs {
		out = append(out, m.periodModules[id]...)
	}
	return out, nil
}

func (m *mockScopeRepo) StudentIDsByPeriods(ctx context.Context, periodIDs []string) ([]string, error) {
	var out []string
	for _, id := range periodIDs {
		out = append(out, m.periodStudents[id]...)
	}
	return out, nil
}

func (m *mockScopeRepo) ModuleIDsByProfessor(ctx context.Context, userID string) ([]string, error) {
	return m.professorModules[userID], nil
}

func (m *mockScopeRepo) StudentIDsByModules(ctx context.Context, moduleIDs []string) ([]string, error) {
	var out []string
	for _, id := range moduleIDs {
		out = append(out, m.moduleStudents[id]...)
	}
	return out, nil
}

func (m *mockScopeRepo) PeriodIDsByModules(ctx context.Context, moduleIDs []string) ([]string, error) {
	var out []string
	for _, id := range moduleIDs {
		out = append(out, m.modulePeriods[id]...)
	}
	return out, nil
}

func TestScopeServiceResolveAdmin(t *testing.T) {
	svc := NewScopeService(&mockScopeRepo{}, zap.NewNop())

	scope, err := svc.Resolve(context.Background(), models.Principal{UserID: "u1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, scope.Unrestricted)
	assert.True(t, scope.AllowsPeriod("anything"))
	assert.True(t, scope.AllowsModule("anything"))
	assert.True(t, scope.AllowsStudent("anything"))
}

func TestScopeServiceResolveCoordinator(t *testing.T) {
	repo := &mockScopeRepo{
		coordinatorPeriods: map[string][]string{"coord-1": {"p1", "p2"}},
		periodModules:      map[string][]string{"p1": {"m1"}, "p2": {"m2", "m3"}},
		periodStudents:     map[string][]string{"p1": {"s1", "s2"}, "p2": {"s3"}},
	}
	svc := NewScopeService(repo, zap.NewNop())

	scope, err := svc.Resolve(context.Background(), models.Principal{UserID: "coord-1", Role: models.RoleCoordinator})
	require.NoError(t, err)
	assert.False(t, scope.Unrestricted)
	assert.True(t, scope.AllowsPeriod("p1"))
	assert.True(t, scope.AllowsPeriod("p2"))
	assert.False(t, scope.AllowsPeriod("p3"))
	assert.True(t, scope.AllowsModule("m3"))
	assert.False(t, scope.AllowsModule("m4"))
	assert.True(t, scope.AllowsStudent("s3"))
	assert.False(t, scope.AllowsStudent("s4"))
}

func TestScopeServiceResolveProfessor(t *testing.T) {
	repo := &mockScopeRepo{
		professorModules: map[string][]string{"prof-1": {"m1", "m2"}},
		moduleStudents:   map[string][]string{"m1": {"s1"}, "m2": {"s2"}},
		modulePeriods:    map[string][]string{"m1": {"p1"}, "m2": {"p1"}},
	}
	svc := NewScopeService(repo, zap.NewNop())

	scope, err := svc.Resolve(context.Background(), models.Principal{UserID: "prof-1", Role: models.RoleProfessor})
	require.NoError(t, err)
	assert.True(t, scope.AllowsModule("m1"))
	assert.False(t, scope.AllowsModule("m9"))
	assert.True(t, scope.AllowsStudent("s2"))
	assert.False(t, scope.AllowsStudent("s9"))
	assert.True(t, scope.AllowsPeriod("p1"))
}

func TestScopeServiceResolveUnknownRole(t *testing.T) {
	svc := NewScopeService(&mockScopeRepo{}, zap.NewNop())

	_, err := svc.Resolve(context.Background(), models.Principal{UserID: "u1", Role: "GUEST"})
	require.Error(t, err)
}

func TestScopeServiceProfessorWithoutModules(t *testing.T) {
	repo := &mockScopeRepo{professorModules: map[string][]string{}}
	svc := NewScopeService(repo, zap.NewNop())

	scope, err := svc.Resolve(context.Background(), models.Principal{UserID: "prof-2", Role: models.RoleProfessor})
	require.NoError(t, err)
	assert.False(t, scope.AllowsModule("m1"))
	assert.False(t, scope.AllowsStudent("s1"))
	assert.Empty(t, scope.ModuleIDList())
}
