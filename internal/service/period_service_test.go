package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tbsouza/academic-api/internal/models"
	appErrors "github.com/tbsouza/academic-api/pkg/errors"
)

type mockPeriodRepo struct {
	periods map[string]models.Period
	created *models.Period
	patched map[string]models.PeriodPatch
	deleted []string
}

func (m *mockPeriodRepo) FindByID(ctx context.Context, id string) (*models.Period, error) {
	if p, ok := m.periods[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPeriodRepo) FindDetailByID(ctx context.Context, id string) (*models.PeriodDetail, error) {
	if p, ok := m.periods[id]; ok {
		return &models.PeriodDetail{Period: p}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPeriodRepo) List(ctx context.Context, periodIDs []string, unrestricted bool) ([]models.PeriodDetail, error) {
	var out []models.PeriodDetail
	if unrestricted {
		for _, p := range m.periods {
			out = append(out, models.PeriodDetail{Period: p})
		}
		return out, nil
	}
	for _, id := range periodIDs {
		if p, ok := m.periods[id]; ok {
			out = append(out, models.PeriodDetail{Period: p})
		}
	}
	return out, nil
}

func (m *mockPeriodRepo) Create(ctx context.Context, period *models.Period) error {
	if m.periods == nil {
		m.periods = make(map[string]models.Period)
	}
	if period.ID == "" {
		period.ID = "new-period"
	}
	m.periods[period.ID] = *period
	m.created = period
	return nil
}

func (m *mockPeriodRepo) Update(ctx context.Context, id string, patch models.PeriodPatch) error {
	if m.patched == nil {
		m.patched = make(map[string]models.PeriodPatch)
	}
	m.patched[id] = patch
	return nil
}

func (m *mockPeriodRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.periods[id]; !ok {
		return false, nil
	}
	delete(m.periods, id)
	m.deleted = append(m.deleted, id)
	return true, nil
}

type mockUserReader struct {
	users map[string]models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func periodWindow() (time.Time, time.Time) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 6, 0)
}

func TestPeriodServiceCreateAsAdmin(t *testing.T) {
	repo := &mockPeriodRepo{}
	users := &mockUserReader{users: map[string]models.User{"coord-1": {ID: "coord-1", Role: models.RoleCoordinator}}}
	svc := NewPeriodService(repo, users, &stubScopeResolver{}, nil, zap.NewNop())

	start, end := periodWindow()
	period, err := svc.Create(context.Background(), models.Principal{UserID: "admin", Role: models.RoleAdmin}, CreatePeriodRequest{
		Name: "2026.1", CoordinatorID: "coord-1", StartDate: start, EndDate: end,
	})
	require.NoError(t, err)
	assert.True(t, period.Active)
	assert.Equal(t, "coord-1", period.CoordinatorID)
}

func TestPeriodServiceCoordinatorCreatesOnlyOwnPeriods(t *testing.T) {
	repo := &mockPeriodRepo{}
	users := &mockUserReader{users: map[string]models.User{"coord-2": {ID: "coord-2", Role: models.RoleCoordinator}}}
	svc := NewPeriodService(repo, users, &stubScopeResolver{}, nil, zap.NewNop())

	start, end := periodWindow()
	_, err := svc.Create(context.Background(), models.Principal{UserID: "coord-1", Role: models.RoleCoordinator}, CreatePeriodRequest{
		Name: "2026.1", CoordinatorID: "coord-2", StartDate: start, EndDate: end,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Nil(t, repo.created)
}

func TestPeriodServiceCreateRejectsInvertedDates(t *testing.T) {
	svc := NewPeriodService(&mockPeriodRepo{}, &mockUserReader{}, &stubScopeResolver{}, nil, zap.NewNop())

	start, end := periodWindow()
	_, err := svc.Create(context.Background(), models.Principal{UserID: "admin", Role: models.RoleAdmin}, CreatePeriodRequest{
		Name: "2026.1", CoordinatorID: "coord-1", StartDate: end, EndDate: start,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestPeriodServiceCreateRejectsProfessorOwner(t *testing.T) {
	users := &mockUserReader{users: map[string]models.User{"prof-1": {ID: "prof-1", Role: models.RoleProfessor}}}
	svc := NewPeriodService(&mockPeriodRepo{}, users, &stubScopeResolver{}, nil, zap.NewNop())

	start, end := periodWindow()
	_, err := svc.Create(context.Background(), models.Principal{UserID: "admin", Role: models.RoleAdmin}, CreatePeriodRequest{
		Name: "2026.1", CoordinatorID: "prof-1", StartDate: start, EndDate: end,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestPeriodServiceProfessorCannotUpdate(t *testing.T) {
	repo := &mockPeriodRepo{periods: map[string]models.Period{"p1": {ID: "p1", Name: "2026.1"}}}
	scopes := &stubScopeResolver{scope: restrictedScope([]string{"p1"}, nil, nil)}
	svc := NewPeriodService(repo, &mockUserReader{}, scopes, nil, zap.NewNop())

	name := "renamed"
	_, err := svc.Update(context.Background(), models.Principal{UserID: "prof-1", Role: models.RoleProfessor}, "p1", UpdatePeriodRequest{Name: &name})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Empty(t, repo.patched)
}

func TestPeriodServiceUpdateWithinScope(t *testing.T) {
	repo := &mockPeriodRepo{periods: map[string]models.Period{"p1": {ID: "p1", Name: "2026.1", Active: true}}}
	scopes := &stubScopeResolver{scope: restrictedScope([]string{"p1"}, nil, nil)}
	svc := NewPeriodService(repo, &mockUserReader{}, scopes, nil, zap.NewNop())

	active := false
	_, err := svc.Update(context.Background(), models.Principal{UserID: "coord-1", Role: models.RoleCoordinator}, "p1", UpdatePeriodRequest{Active: &active})
	require.NoError(t, err)
	require.Contains(t, repo.patched, "p1")
	assert.NotNil(t, repo.patched["p1"].Active)
}

func TestPeriodServiceDeleteOutsideScope(t *testing.T) {
	repo := &mockPeriodRepo{periods: map[string]models.Period{"p2": {ID: "p2"}}}
	scopes := &stubScopeResolver{scope: restrictedScope([]string{"p1"}, nil, nil)}
	svc := NewPeriodService(repo, &mockUserReader{}, scopes, nil, zap.NewNop())

	err := svc.Delete(context.Background(), models.Principal{UserID: "coord-1", Role: models.RoleCoordinator}, "p2")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestPeriodServiceDeleteMissing(t *testing.T) {
	svc := NewPeriodService(&mockPeriodRepo{}, &mockUserReader{}, &stubScopeResolver{}, nil, zap.NewNop())

	err := svc.Delete(context.Background(), models.Principal{UserID: "admin", Role: models.RoleAdmin}, "ghost")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestPeriodServiceListScoped(t *testing.T) {
	repo := &mockPeriodRepo{periods: map[string]models.Period{
		"p1": {ID: "p1"},
		"p2": {ID: "p2"},
	}}
	scopes := &stubScopeResolver{scope: restrictedScope([]string{"p1"}, nil, nil)}
	svc := NewPeriodService(repo, &mockUserReader{}, scopes, nil, zap.NewNop())

	periods, err := svc.List(context.Background(), models.Principal{UserID: "coord-1", Role: models.RoleCoordinator})
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, "p1", periods[0].ID)
}
