package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tbsouza/academic-api/internal/models"
)

// CascadeRepository owns the transactional creation of students and
// modules together with their enrollment and grade fan-out. Enrollment
// inserts are insert-if-absent on the (student_id, module_id) unique key,
// so concurrent cascades targeting the same pair both succeed with at most
// one physical row. Any failure rolls back the whole creation.
type CascadeRepository struct {
	db *sqlx.DB
}

// NewCascadeRepository constructs the repository.
func NewCascadeRepository(db *sqlx.DB) *CascadeRepository {
	return &CascadeRepository{db: db}
}

const insertEnrollmentQuery = `INSERT INTO enrollments (id, student_id, module_id, status, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (student_id, module_id) DO NOTHING`

const insertGradeQuery = `INSERT INTO grades (id, enrollment_id, tutor_grade, regular_grade, makeup_grade, final_grade, absences, created_at, updated_at)
        VALUES ($1, $2, 0, 0, 0, 0, 0, $3, $3)
        ON CONFLICT (enrollment_id) DO NOTHING`

// CreateStudent inserts the student and enrolls it, with a zero-valued
// grade per enrollment, into each of the given modules in one transaction.
func (r *CascadeRepository) CreateStudent(ctx context.Context, student *models.Student, moduleIDs []string) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student cascade: %w", err)
	}

	const insertStudent = `INSERT INTO students (id, student_number, full_name, email, period_id, enrolled_at, certificate_count, referral, notes, active, created_at, updated_at)
        VALUES (:id, :student_number, :full_name, :email, :period_id, :enrolled_at, :certificate_count, :referral, :notes, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertStudent, student); err != nil {
		tx.Rollback() //nolint:errcheck
		return wrapStorageErr(err, "create student")
	}

	if err := enrollPairs(ctx, tx, student.ID, moduleIDs); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit student cascade: %w", err)
	}
	return nil
}

// CreateModule inserts the module and enrolls each of the given students,
// with a zero-valued grade per enrollment, in one transaction.
func (r *CascadeRepository) CreateModule(ctx context.Context, module *models.Module, studentIDs []string) error {
	if module.ID == "" {
		module.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	module.CreatedAt = now
	module.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin module cascade: %w", err)
	}

	const insertModule = `INSERT INTO modules (id, name, code, period_id, professor_id, credits, max_absences, active, created_at, updated_at)
        VALUES (:id, :name, :code, :period_id, :professor_id, :credits, :max_absences, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertModule, module); err != nil {
		tx.Rollback() //nolint:errcheck
		return wrapStorageErr(err, "create module")
	}

	for _, studentID := range studentIDs {
		if err := enrollPairs(ctx, tx, studentID, []string{module.ID}); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit module cascade: %w", err)
	}
	return nil
}

// enrollPairs inserts the missing (student, module) enrollments and a zero
// grade for each row actually created. Pairs that already exist are
// silently absorbed.
func enrollPairs(ctx context.Context, tx *sqlx.Tx, studentID string, moduleIDs []string) error {
	now := time.Now().UTC()
	for _, moduleID := range moduleIDs {
		enrollmentID := uuid.NewString()
		res, err := tx.ExecContext(ctx, insertEnrollmentQuery, enrollmentID, studentID, moduleID, models.EnrollmentStatusActive, now)
		if err != nil {
			return wrapStorageErr(err, "create enrollment")
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return wrapStorageErr(err, "create enrollment")
		}
		if affected == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, insertGradeQuery, uuid.NewString(), enrollmentID, now); err != nil {
			return wrapStorageErr(err, "create grade")
		}
	}
	return nil
}
