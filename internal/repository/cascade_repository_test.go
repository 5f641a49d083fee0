package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbsouza/academic-api/internal/models"
	appErrors "github.com/tbsouza/academic-api/pkg/errors"
)

func newCascadeRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCascadeRepositoryCreateStudentEnrollsAndGrades(t *testing.T) {
	db, mock, cleanup := newCascadeRepoMock(t)
	defer cleanup()
	repo := NewCascadeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(0, 1))
	// one enrollment and one grade per module
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO grades").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO grades").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	student := &models.Student{StudentNumber: "2024001", FullName: "Ana Souza", PeriodID: "p1", Active: true}
	err := repo.CreateStudent(context.Background(), student, []string{"m1", "m2"})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCascadeRepositoryCreateStudentSkipsGradeForExistingEnrollment(t *testing.T) {
	db, mock, cleanup := newCascadeRepoMock(t)
	defer cleanup()
	repo := NewCascadeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(0, 1))
	// conflict absorbed: zero rows affected, so no grade insert follows
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	student := &models.Student{StudentNumber: "2024001", PeriodID: "p1", Active: true}
	err := repo.CreateStudent(context.Background(), student, []string{"m1"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCascadeRepositoryCreateStudentDuplicateNumberRollsBack(t *testing.T) {
	db, mock, cleanup := newCascadeRepoMock(t)
	defer cleanup()
	repo := NewCascadeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "students_student_number_key"})
	mock.ExpectRollback()

	student := &models.Student{StudentNumber: "2024001", PeriodID: "p1", Active: true}
	err := repo.CreateStudent(context.Background(), student, []string{"m1"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "student number already registered", appErr.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCascadeRepositoryCreateStudentEnrollmentFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newCascadeRepoMock(t)
	defer cleanup()
	repo := NewCascadeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "enrollments_module_id_fkey"})
	mock.ExpectRollback()

	student := &models.Student{StudentNumber: "2024001", PeriodID: "p1", Active: true}
	err := repo.CreateStudent(context.Background(), student, []string{"m1"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCascadeRepositoryCreateModuleEnrollsStudents(t *testing.T) {
	db, mock, cleanup := newCascadeRepoMock(t)
	defer cleanup()
	repo := NewCascadeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO modules").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO grades").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO grades").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	module := &models.Module{Name: "Anatomy", Code: "ANA-01", PeriodID: "p1", ProfessorID: "prof-1", Active: true}
	err := repo.CreateModule(context.Background(), module, []string{"s1", "s2"})
	require.NoError(t, err)
	assert.NotEmpty(t, module.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCascadeRepositoryCreateModuleDuplicateCodeRollsBack(t *testing.T) {
	db, mock, cleanup := newCascadeRepoMock(t)
	defer cleanup()
	repo := NewCascadeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO modules").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "modules_period_code_key"})
	mock.ExpectRollback()

	module := &models.Module{Name: "Anatomy", Code: "ANA-01", PeriodID: "p1", ProfessorID: "prof-1", Active: true}
	err := repo.CreateModule(context.Background(), module, []string{"s1"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
