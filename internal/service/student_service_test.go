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

type mockStudentRepo struct {
	students map[string]models.Student
	rows     map[string][]models.StudentModuleRow
	patched  map[string]models.StudentPatch
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindByNumber(ctx context.Context, number string) (*models.Student, error) {
	for _, s := range m.students {
		if s.StudentNumber == number {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter, studentIDs []string, unrestricted bool) ([]models.Student, int, error) {
	var out []models.Student
	for id, s := range m.students {
		if filter.PeriodID != "" && s.PeriodID != filter.PeriodID {
			continue
		}
		if unrestricted {
			out = append(out, s)
			continue
		}
		for _, allowed := range studentIDs {
			if id == allowed {
				out = append(out, s)
				break
			}
		}
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) ModuleRows(ctx context.Context, studentID string) ([]models.StudentModuleRow, error) {
	return m.rows[studentID], nil
}

func (m *mockStudentRepo) Update(ctx context.Context, id string, patch models.StudentPatch) error {
	if m.patched == nil {
		m.patched = make(map[string]models.StudentPatch)
	}
	m.patched[id] = patch
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.students[id]; !ok {
		return false, nil
	}
	delete(m.students, id)
	return true, nil
}

type mockStudentEnroller struct {
	enrolled  *models.Student
	principal models.Principal
}

func (m *mockStudentEnroller) EnrollStudent(ctx context.Context, student *models.Student, principal models.Principal) error {
	if student.ID == "" {
		student.ID = "new-student"
	}
	m.enrolled = student
	m.principal = principal
	return nil
}

func intPtr(v int) *int { return &v }

func TestStudentServiceCreateRunsCascade(t *testing.T) {
	cascade := &mockStudentEnroller{}
	periods := &modulePeriodReader{periods: map[string]models.Period{"p1": {ID: "p1", Active: true}}}
	svc := NewStudentService(&mockStudentRepo{}, periods, cascade, &stubScopeResolver{}, nil, zap.NewNop())

	principal := models.Principal{UserID: "admin", Role: models.RoleAdmin}
	student, err := svc.Create(context.Background(), principal, CreateStudentRequest{
		StudentNumber:    "2024001",
		FullName:         "Ana Souza",
		PeriodID:         "p1",
		EnrolledAt:       time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		CertificateCount: intPtr(0),
	})
	require.NoError(t, err)
	assert.True(t, student.Active)
	require.NotNil(t, cascade.enrolled)
	assert.Equal(t, principal, cascade.principal)
}

func TestStudentServiceCreateOutsideScope(t *testing.T) {
	scopes := &stubScopeResolver{scope: restrictedScope([]string{"p1"}, nil, nil)}
	svc := NewStudentService(&mockStudentRepo{}, &modulePeriodReader{}, &mockStudentEnroller{}, scopes, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), models.Principal{UserID: "coord-1", Role: models.RoleCoordinator}, CreateStudentRequest{
		StudentNumber:    "2024001",
		FullName:         "Ana Souza",
		PeriodID:         "p2",
		EnrolledAt:       time.Now(),
		CertificateCount: intPtr(0),
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestStudentServiceCreateRejectsInactivePeriod(t *testing.T) {
	periods := &modulePeriodReader{periods: map[string]models.Period{"p1": {ID: "p1", Active: false}}}
	svc := NewStudentService(&mockStudentRepo{}, periods, &mockStudentEnroller{}, &stubScopeResolver{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), models.Principal{UserID: "admin", Role: models.RoleAdmin}, CreateStudentRequest{
		StudentNumber:    "2024001",
		FullName:         "Ana Souza",
		PeriodID:         "p1",
		EnrolledAt:       time.Now(),
		CertificateCount: intPtr(0),
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestStudentServiceGetWithModuleRows(t *testing.T) {
	repo := &mockStudentRepo{
		students: map[string]models.Student{"s1": {ID: "s1", FullName: "Ana Souza"}},
		rows: map[string][]models.StudentModuleRow{"s1": {
			{EnrollmentID: "e1", ModuleID: "m1", FinalGrade: 8},
			{EnrollmentID: "e2", ModuleID: "m2", FinalGrade: 6.5},
		}},
	}
	svc := NewStudentService(repo, &modulePeriodReader{}, &mockStudentEnroller{}, &stubScopeResolver{}, nil, zap.NewNop())

	detail, err := svc.Get(context.Background(), models.Principal{UserID: "admin", Role: models.RoleAdmin}, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", detail.FullName)
	assert.Len(t, detail.Modules, 2)
}

func TestStudentServiceGetOutsideScope(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"s2": {ID: "s2"}}}
	scopes := &stubScopeResolver{scope: restrictedScope(nil, nil, []string{"s1"})}
	svc := NewStudentService(repo, &modulePeriodReader{}, &mockStudentEnroller{}, scopes, nil, zap.NewNop())

	_, err := svc.Get(context.Background(), models.Principal{UserID: "prof-1", Role: models.RoleProfessor}, "s2")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestStudentServiceUpdateKeepsNumberImmutable(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"s1": {ID: "s1", StudentNumber: "2024001"}}}
	svc := NewStudentService(repo, &modulePeriodReader{}, &mockStudentEnroller{}, &stubScopeResolver{}, nil, zap.NewNop())

	name := "Ana S. Souza"
	_, err := svc.Update(context.Background(), models.Principal{UserID: "admin", Role: models.RoleAdmin}, "s1", UpdateStudentRequest{FullName: &name})
	require.NoError(t, err)
	require.Contains(t, repo.patched, "s1")
	assert.Equal(t, "Ana S. Souza", *repo.patched["s1"].FullName)
	assert.Nil(t, repo.patched["s1"].Email)
}

func TestStudentServiceSearchScoped(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1", PeriodID: "p1"},
		"s2": {ID: "s2", PeriodID: "p1"},
		"s3": {ID: "s3", PeriodID: "p2"},
	}}
	scopes := &stubScopeResolver{scope: restrictedScope(nil, nil, []string{"s1", "s2"})}
	svc := NewStudentService(repo, &modulePeriodReader{}, &mockStudentEnroller{}, scopes, nil, zap.NewNop())

	students, pagination, err := svc.Search(context.Background(), models.Principal{UserID: "prof-1", Role: models.RoleProfessor}, models.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestStudentServiceDeleteMissing(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, &modulePeriodReader{}, &mockStudentEnroller{}, &stubScopeResolver{}, nil, zap.NewNop())

	err := svc.Delete(context.Background(), models.Principal{UserID: "admin", Role: models.RoleAdmin}, "ghost")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
