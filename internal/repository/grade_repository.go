package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tbsouza/academic-api/internal/models"
)

// GradeRepository handles grade persistence.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// FindByEnrollmentID returns the grade record of an enrollment.
func (r *GradeRepository) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Grade, error) {
	const query = `SELECT id, enrollment_id, tutor_grade, regular_grade, makeup_grade, final_grade, absences, created_at, updated_at
        FROM grades WHERE enrollment_id = $1`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, enrollmentID); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Upsert writes a full grade row, creating it when the enrollment has no
// grade yet.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, enrollment_id, tutor_grade, regular_grade, makeup_grade, final_grade, absences, created_at, updated_at)
        VALUES (:id, :enrollment_id, :tutor_grade, :regular_grade, :makeup_grade, :final_grade, :absences, :created_at, :updated_at)
        ON CONFLICT (enrollment_id)
        DO UPDATE SET tutor_grade = EXCLUDED.tutor_grade, regular_grade = EXCLUDED.regular_grade,
            makeup_grade = EXCLUDED.makeup_grade, final_grade = EXCLUDED.final_grade,
            absences = EXCLUDED.absences, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}

// SetAbsencesForStudentModules overwrites the absence count uniformly on
// every grade of the student's enrollments within the given modules, and
// returns how many rows changed.
func (r *GradeRepository) SetAbsencesForStudentModules(ctx context.Context, studentID string, moduleIDs []string, absences int) (int, error) {
	if len(moduleIDs) == 0 {
		return 0, nil
	}
	const query = `UPDATE grades g SET absences = $3, updated_at = NOW()
        FROM enrollments e
        WHERE g.enrollment_id = e.id AND e.student_id = $1 AND e.module_id = ANY($2)`
	res, err := r.db.ExecContext(ctx, query, studentID, pq.Array(moduleIDs), absences)
	if err != nil {
		return 0, fmt.Errorf("set absences: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("set absences: %w", err)
	}
	return int(affected), nil
}
