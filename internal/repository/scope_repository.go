package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ScopeRepository answers the ownership queries behind access scopes.
type ScopeRepository struct {
	db *sqlx.DB
}

// NewScopeRepository constructs the repository.
func NewScopeRepository(db *sqlx.DB) *ScopeRepository {
	return &ScopeRepository{db: db}
}

// PeriodIDsByCoordinator returns periods owned by the coordinator.
func (r *ScopeRepository) PeriodIDsByCoordinator(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM periods WHERE coordinator_id = $1", userID); err != nil {
		return nil, fmt.Errorf("scope periods: %w", err)
	}
	return ids, nil
}

// ModuleIDsByPeriods returns modules belonging to the periods.
func (r *ScopeRepository) ModuleIDsByPeriods(ctx context.Context, periodIDs []string) ([]string, error) {
	if len(periodIDs) == 0 {
		return nil, nil
	}
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM modules WHERE period_id = ANY($1)", pq.Array(periodIDs)); err != nil {
		return nil, fmt.Errorf("scope modules: %w", err)
	}
	return ids, nil
}

// StudentIDsByPeriods returns students belonging to the periods.
func (r *ScopeRepository) StudentIDsByPeriods(ctx context.Context, periodIDs []string) ([]string, error) {
	if len(periodIDs) == 0 {
		return nil, nil
	}
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM students WHERE period_id = ANY($1)", pq.Array(periodIDs)); err != nil {
		return nil, fmt.Errorf("scope students: %w", err)
	}
	return ids, nil
}

// ModuleIDsByProfessor returns modules taught by the professor.
func (r *ScopeRepository) ModuleIDsByProfessor(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM modules WHERE professor_id = $1", userID); err != nil {
		return nil, fmt.Errorf("scope professor modules: %w", err)
	}
	return ids, nil
}

// StudentIDsByModules returns students reachable through an enrollment
// into one of the modules.
func (r *ScopeRepository) StudentIDsByModules(ctx context.Context, moduleIDs []string) ([]string, error) {
	if len(moduleIDs) == 0 {
		return nil, nil
	}
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT DISTINCT student_id FROM enrollments WHERE module_id = ANY($1)", pq.Array(moduleIDs)); err != nil {
		return nil, fmt.Errorf("scope enrolled students: %w", err)
	}
	return ids, nil
}

// PeriodIDsByModules returns the periods the modules belong to. Professors
// see these as read-through metadata only.
func (r *ScopeRepository) PeriodIDsByModules(ctx context.Context, moduleIDs []string) ([]string, error) {
	if len(moduleIDs) == 0 {
		return nil, nil
	}
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT DISTINCT period_id FROM modules WHERE id = ANY($1)", pq.Array(moduleIDs)); err != nil {
		return nil, fmt.Errorf("scope module periods: %w", err)
	}
	return ids, nil
}
