package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tbsouza/academic-api/internal/models"
)

// ModuleRepository handles persistence of modules. Creation goes through
// CascadeRepository so the enrollment invariant holds.
type ModuleRepository struct {
	db *sqlx.DB
}

// NewModuleRepository constructs the repository.
func NewModuleRepository(db *sqlx.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

const moduleColumns = `id, name, code, period_id, professor_id, credits, max_absences, active, created_at, updated_at`

// FindByID returns a module by its ID.
func (r *ModuleRepository) FindByID(ctx context.Context, id string) (*models.Module, error) {
	query := fmt.Sprintf("SELECT %s FROM modules WHERE id = $1", moduleColumns)
	var module models.Module
	if err := r.db.GetContext(ctx, &module, query, id); err != nil {
		return nil, err
	}
	return &module, nil
}

// FindDetailByID returns a module with professor and period names.
func (r *ModuleRepository) FindDetailByID(ctx context.Context, id string) (*models.ModuleDetail, error) {
	const query = `SELECT m.id, m.name, m.code, m.period_id, m.professor_id, m.credits, m.max_absences, m.active, m.created_at, m.updated_at,
        u.full_name AS professor_name, p.name AS period_name
        FROM modules m
        JOIN users u ON u.id = m.professor_id
        JOIN periods p ON p.id = m.period_id
        WHERE m.id = $1`
	var detail models.ModuleDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns modules restricted to the provided IDs unless unrestricted.
func (r *ModuleRepository) List(ctx context.Context, moduleIDs []string, unrestricted bool, periodID string) ([]models.ModuleDetail, error) {
	query := `SELECT m.id, m.name, m.code, m.period_id, m.professor_id, m.credits, m.max_absences, m.active, m.created_at, m.updated_at,
        u.full_name AS professor_name, p.name AS period_name
        FROM modules m
        JOIN users u ON u.id = m.professor_id
        JOIN periods p ON p.id = m.period_id
        WHERE 1=1`
	var args []interface{}
	if !unrestricted {
		if len(moduleIDs) == 0 {
			return []models.ModuleDetail{}, nil
		}
		query += fmt.Sprintf(" AND m.id = ANY($%d)", len(args)+1)
		args = append(args, pq.Array(moduleIDs))
	}
	if periodID != "" {
		query += fmt.Sprintf(" AND m.period_id = $%d", len(args)+1)
		args = append(args, periodID)
	}
	query += " ORDER BY m.code ASC"

	var modules []models.ModuleDetail
	if err := r.db.SelectContext(ctx, &modules, query, args...); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}

// ActiveByPeriod returns active modules of a period, as input for the
// student-creation cascade.
func (r *ModuleRepository) ActiveByPeriod(ctx context.Context, periodID string) ([]models.Module, error) {
	query := fmt.Sprintf("SELECT %s FROM modules WHERE period_id = $1 AND active = TRUE", moduleColumns)
	var modules []models.Module
	if err := r.db.SelectContext(ctx, &modules, query, periodID); err != nil {
		return nil, fmt.Errorf("list active modules: %w", err)
	}
	return modules, nil
}

// Roster returns the module's grade sheet, one row per enrolled student.
func (r *ModuleRepository) Roster(ctx context.Context, moduleID string) ([]models.ModuleRosterRow, error) {
	const query = `SELECT e.id AS enrollment_id, s.id AS student_id, s.student_number, s.full_name AS student_name,
        g.tutor_grade, g.regular_grade, g.makeup_grade, g.final_grade, g.absences
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN grades g ON g.enrollment_id = e.id
        WHERE e.module_id = $1
        ORDER BY s.full_name ASC`
	var rows []models.ModuleRosterRow
	if err := r.db.SelectContext(ctx, &rows, query, moduleID); err != nil {
		return nil, fmt.Errorf("list module roster: %w", err)
	}
	return rows, nil
}

// Update applies the non-nil fields of the patch.
func (r *ModuleRepository) Update(ctx context.Context, id string, patch models.ModulePatch) error {
	const query = `UPDATE modules SET
        name = COALESCE($2, name),
        credits = COALESCE($3, credits),
        max_absences = COALESCE($4, max_absences),
        active = COALESCE($5, active),
        updated_at = NOW()
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, patch.Name, patch.Credits, patch.MaxAbsences, patch.Active); err != nil {
		return fmt.Errorf("update module: %w", err)
	}
	return nil
}

// Delete removes a module; enrollments and grades follow through the
// cascading foreign keys.
func (r *ModuleRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM modules WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete module: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete module: %w", err)
	}
	return affected > 0, nil
}
