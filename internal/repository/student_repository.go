package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tbsouza/academic-api/internal/models"
)

// StudentRepository handles persistence of students. Creation goes through
// CascadeRepository so the enrollment invariant holds.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, student_number, full_name, email, period_id, enrolled_at, certificate_count, referral, notes, active, created_at, updated_at`

// FindByID returns a student by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByNumber returns a student by its unique student number.
func (r *StudentRepository) FindByNumber(ctx context.Context, number string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE student_number = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, number); err != nil {
		return nil, err
	}
	return &student, nil
}

// List returns students matching the filter, restricted to the given
// student IDs unless unrestricted.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter, studentIDs []string, unrestricted bool) ([]models.Student, int, error) {
	base := "FROM students WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !unrestricted {
		if len(studentIDs) == 0 {
			return []models.Student{}, 0, nil
		}
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(studentIDs))
	}
	if filter.StudentNumber != "" {
		conditions = append(conditions, fmt.Sprintf("student_number = $%d", len(args)+1))
		args = append(args, filter.StudentNumber)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("full_name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY full_name ASC LIMIT %d OFFSET %d", studentColumns, base+clause, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ActiveIDsByPeriod returns IDs of active students in a period, as input
// for the module-creation cascade.
func (r *StudentRepository) ActiveIDsByPeriod(ctx context.Context, periodID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM students WHERE period_id = $1 AND active = TRUE", periodID); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return ids, nil
}

// ModuleRows returns the student's per-module grade breakdown.
func (r *StudentRepository) ModuleRows(ctx context.Context, studentID string) ([]models.StudentModuleRow, error) {
	const query = `SELECT e.id AS enrollment_id, m.id AS module_id, m.name AS module_name, m.code AS module_code,
        g.tutor_grade, g.regular_grade, g.makeup_grade, g.final_grade, g.absences
        FROM enrollments e
        JOIN modules m ON m.id = e.module_id
        JOIN grades g ON g.enrollment_id = e.id
        WHERE e.student_id = $1
        ORDER BY m.code ASC`
	var rows []models.StudentModuleRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list student modules: %w", err)
	}
	return rows, nil
}

// Update applies the non-nil fields of the patch. The statement is fixed;
// omitted fields keep their stored value.
func (r *StudentRepository) Update(ctx context.Context, id string, patch models.StudentPatch) error {
	const query = `UPDATE students SET
        full_name = COALESCE($2, full_name),
        email = COALESCE($3, email),
        enrolled_at = COALESCE($4, enrolled_at),
        certificate_count = COALESCE($5, certificate_count),
        referral = COALESCE($6, referral),
        notes = COALESCE($7, notes),
        active = COALESCE($8, active),
        updated_at = NOW()
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id,
		patch.FullName, patch.Email, patch.EnrolledAt, patch.CertificateCount,
		patch.Referral, patch.Notes, patch.Active); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student; enrollments and grades follow through the
// cascading foreign keys.
func (r *StudentRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	return affected > 0, nil
}
