package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tbsouza/academic-api/internal/models"
)

// EnrollmentRepository reads enrollments. Rows are written only by the
// cascade and removed only by cascading deletes.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentDetailQuery = `SELECT e.id, e.student_id, e.module_id, e.status, e.created_at,
        s.full_name AS student_name, s.student_number,
        m.name AS module_name, m.code AS module_code, m.period_id, m.professor_id
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN modules m ON m.id = e.module_id`

// FindDetailByID returns an enrollment with the module and student context
// needed for scope decisions.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := enrollmentDetailQuery + " WHERE e.id = $1"
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindDetailByPair returns the enrollment linking a student and a module.
func (r *EnrollmentRepository) FindDetailByPair(ctx context.Context, studentID, moduleID string) (*models.EnrollmentDetail, error) {
	query := enrollmentDetailQuery + " WHERE e.student_id = $1 AND e.module_id = $2"
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, studentID, moduleID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByStudent returns all enrollments of a student with module context.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailQuery + " WHERE e.student_id = $1 ORDER BY m.code ASC"
	var details []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &details, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return details, nil
}

// CountByPeriod counts enrollments whose student and module both belong to
// the period.
func (r *EnrollmentRepository) CountByPeriod(ctx context.Context, periodID string) (int, error) {
	const query = `SELECT COUNT(*)
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN modules m ON m.id = e.module_id
        WHERE s.period_id = $1 AND m.period_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, periodID); err != nil {
		return 0, fmt.Errorf("count period enrollments: %w", err)
	}
	return total, nil
}
