package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tbsouza/academic-api/internal/models"
	appErrors "github.com/tbsouza/academic-api/pkg/errors"
)

type mockModuleRepo struct {
	modules map[string]models.Module
	rosters map[string][]models.ModuleRosterRow
	patched map[string]models.ModulePatch
}

func (m *mockModuleRepo) FindByID(ctx context.Context, id string) (*models.Module, error) {
	if mod, ok := m.modules[id]; ok {
		return &mod, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockModuleRepo) FindDetailByID(ctx context.Context, id string) (*models.ModuleDetail, error) {
	if mod, ok := m.modules[id]; ok {
		return &models.ModuleDetail{Module: mod}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockModuleRepo) List(ctx context.Context, moduleIDs []string, unrestricted bool, periodID string) ([]models.ModuleDetail, error) {
	var out []models.ModuleDetail
	for id, mod := range m.modules {
		if periodID != "" && mod.PeriodID != periodID {
			continue
		}
		if unrestricted {
			out = append(out, models.ModuleDetail{Module: mod})
			continue
		}
		for _, allowed := range moduleIDs {
			if id == allowed {
				out = append(out, models.ModuleDetail{Module: mod})
				break
			}
		}
	}
	return out, nil
}

func (m *mockModuleRepo) Roster(ctx context.Context, moduleID string) ([]models.ModuleRosterRow, error) {
	return m.rosters[moduleID], nil
}

func (m *mockModuleRepo) Update(ctx context.Context, id string, patch models.ModulePatch) error {
	if m.patched == nil {
		m.patched = make(map[string]models.ModulePatch)
	}
	m.patched[id] = patch
	return nil
}

func (m *mockModuleRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.modules[id]; !ok {
		return false, nil
	}
	delete(m.modules, id)
	return true, nil
}

type mockModuleEnroller struct {
	enrolled *models.Module
}

func (m *mockModuleEnroller) EnrollModule(ctx context.Context, module *models.Module) error {
	if module.ID == "" {
		module.ID = "new-module"
	}
	m.enrolled = module
	return nil
}

type modulePeriodReader struct {
	periods map[string]models.Period
}

func (m *modulePeriodReader) FindByID(ctx context.Context, id string) (*models.Period, error) {
	if p, ok := m.periods[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func TestModuleServiceCreateRunsCascade(t *testing.T) {
	cascade := &mockModuleEnroller{}
	periods := &modulePeriodReader{periods: map[string]models.Period{"p1": {ID: "p1", Active: true}}}
	users := &mockUserReader{users: map[string]models.User{"prof-1": {ID: "prof-1", Role: models.RoleProfessor}}}
	svc := NewModuleService(&mockModuleRepo{}, periods, users, cascade, &stubScopeResolver{}, nil, zap.NewNop())

	module, err := svc.Create(context.Background(), models.Principal{UserID: "admin", Role: models.RoleAdmin}, CreateModuleRequest{
		Name: "Anatomy", Code: "ANA-01", PeriodID: "p1", ProfessorID: "prof-1", Credits: 4, MaxAbsences: 10,
	})
	require.NoError(t, err)
	assert.True(t, module.Active)
	require.NotNil(t, cascade.enrolled)
	assert.Equal(t, "ANA-01", cascade.enrolled.Code)
}

func TestModuleServiceProfessorCreatesOnlyOwnModules(t *testing.T) {
	periods := &modulePeriodReader{periods: map[string]models.Period{"p1": {ID: "p1", Active: true}}}
	users := &mockUserReader{users: map[string]models.User{"prof-2": {ID: "prof-2", Role: models.RoleProfessor}}}
	scopes := &stubScopeResolver{scope: restrictedScope([]string{"p1"}, []string{"m1"}, nil)}
	svc := NewModuleService(&mockModuleRepo{}, periods, users, &mockModuleEnroller{}, scopes, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), models.Principal{UserID: "prof-1", Role: models.RoleProfessor}, CreateModuleRequest{
		Name: "Anatomy", Code: "ANA-01", PeriodID: "p1", ProfessorID: "prof-2",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestModuleServiceProfessorCreateInForeignPeriod(t *testing.T) {
	periods := &modulePeriodReader{periods: map[string]models.Period{"p2": {ID: "p2", Active: true}}}
	users := &mockUserReader{users: map[string]models.User{"prof-1": {ID: "prof-1", Role: models.RoleProfessor}}}
	scopes := &stubScopeResolver{scope: restrictedScope([]string{"p1"}, []string{"m1"}, nil)}
	svc := NewModuleService(&mockModuleRepo{}, periods, users, &mockModuleEnroller{}, scopes, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), models.Principal{UserID: "prof-1", Role: models.RoleProfessor}, CreateModuleRequest{
		Name: "Anatomy", Code: "ANA-01", PeriodID: "p2", ProfessorID: "prof-1",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestModuleServiceCreateRejectsInactivePeriod(t *testing.T) {
	periods := &modulePeriodReader{periods: map[string]models.Period{"p1": {ID: "p1", Active: false}}}
	users := &mockUserReader{users: map[string]models.User{"prof-1": {ID: "prof-1", Role: models.RoleProfessor}}}
	svc := NewModuleService(&mockModuleRepo{}, periods, users, &mockModuleEnroller{}, &stubScopeResolver{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), models.Principal{UserID: "admin", Role: models.RoleAdmin}, CreateModuleRequest{
		Name: "Anatomy", Code: "ANA-01", PeriodID: "p1", ProfessorID: "prof-1",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestModuleServiceCreateRejectsNonProfessorOwner(t *testing.T) {
	periods := &modulePeriodReader{periods: map[string]models.Period{"p1": {ID: "p1", Active: true}}}
	users := &mockUserReader{users: map[string]models.User{"coord-1": {ID: "coord-1", Role: models.RoleCoordinator}}}
	svc := NewModuleService(&mockModuleRepo{}, periods, users, &mockModuleEnroller{}, &stubScopeResolver{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), models.Principal{UserID: "admin", Role: models.RoleAdmin}, CreateModuleRequest{
		Name: "Anatomy", Code: "ANA-01", PeriodID: "p1", ProfessorID: "coord-1",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestModuleServiceRosterOutsideScope(t *testing.T) {
	repo := &mockModuleRepo{modules: map[string]models.Module{"m2": {ID: "m2"}}}
	scopes := &stubScopeResolver{scope: restrictedScope(nil, []string{"m1"}, nil)}
	svc := NewModuleService(repo, &modulePeriodReader{}, &mockUserReader{}, &mockModuleEnroller{}, scopes, nil, zap.NewNop())

	_, err := svc.Roster(context.Background(), models.Principal{UserID: "prof-1", Role: models.RoleProfessor}, "m2")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestModuleServiceUpdatePatchesFields(t *testing.T) {
	repo := &mockModuleRepo{modules: map[string]models.Module{"m1": {ID: "m1", Name: "Anatomy"}}}
	scopes := &stubScopeResolver{scope: restrictedScope(nil, []string{"m1"}, nil)}
	svc := NewModuleService(repo, &modulePeriodReader{}, &mockUserReader{}, &mockModuleEnroller{}, scopes, nil, zap.NewNop())

	credits := 6
	_, err := svc.Update(context.Background(), models.Principal{UserID: "prof-1", Role: models.RoleProfessor}, "m1", UpdateModuleRequest{Credits: &credits})
	require.NoError(t, err)
	require.Contains(t, repo.patched, "m1")
	assert.Equal(t, 6, *repo.patched["m1"].Credits)
	assert.Nil(t, repo.patched["m1"].Name)
}

func TestModuleServiceListFiltersByPeriod(t *testing.T) {
	repo := &mockModuleRepo{modules: map[string]models.Module{
		"m1": {ID: "m1", PeriodID: "p1"},
		"m2": {ID: "m2", PeriodID: "p2"},
	}}
	svc := NewModuleService(repo, &modulePeriodReader{}, &mockUserReader{}, &mockModuleEnroller{}, &stubScopeResolver{}, nil, zap.NewNop())

	modules, err := svc.List(context.Background(), models.Principal{UserID: "admin", Role: models.RoleAdmin}, "p1")
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "m1", modules[0].ID)
}
