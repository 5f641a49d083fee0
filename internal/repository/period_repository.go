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

// PeriodRepository handles persistence of academic periods.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs the repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// FindByID returns a period by its ID.
func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*models.Period, error) {
	const query = `SELECT id, name, coordinator_id, start_date, end_date, active, created_at, updated_at FROM periods WHERE id = $1`
	var period models.Period
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// FindDetailByID returns a period together with its coordinator's name.
func (r *PeriodRepository) FindDetailByID(ctx context.Context, id string) (*models.PeriodDetail, error) {
	const query = `SELECT p.id, p.name, p.coordinator_id, p.start_date, p.end_date, p.active, p.created_at, p.updated_at,
        u.full_name AS coordinator_name
        FROM periods p
        JOIN users u ON u.id = p.coordinator_id
        WHERE p.id = $1`
	var detail models.PeriodDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns periods restricted to the provided IDs. An empty slice with
// unrestricted=false yields no rows.
func (r *PeriodRepository) List(ctx context.Context, periodIDs []string, unrestricted bool) ([]models.PeriodDetail, error) {
	query := `SELECT p.id, p.name, p.coordinator_id, p.start_date, p.end_date, p.active, p.created_at, p.updated_at,
        u.full_name AS coordinator_name
        FROM periods p
        JOIN users u ON u.id = p.coordinator_id`
	var args []interface{}
	if !unrestricted {
		if len(periodIDs) == 0 {
			return []models.PeriodDetail{}, nil
		}
		query += " WHERE p.id = ANY($1)"
		args = append(args, pq.Array(periodIDs))
	}
	query += " ORDER BY p.start_date DESC"

	var periods []models.PeriodDetail
	if err := r.db.SelectContext(ctx, &periods, query, args...); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

// Create persists a new period record.
func (r *PeriodRepository) Create(ctx context.Context, period *models.Period) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	period.CreatedAt = now
	period.UpdatedAt = now
	const query = `INSERT INTO periods (id, name, coordinator_id, start_date, end_date, active, created_at, updated_at)
        VALUES (:id, :name, :coordinator_id, :start_date, :end_date, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return wrapStorageErr(err, "create period")
	}
	return nil
}

// Update applies the non-nil fields of the patch. The statement is fixed;
// omitted fields keep their stored value.
func (r *PeriodRepository) Update(ctx context.Context, id string, patch models.PeriodPatch) error {
	const query = `UPDATE periods SET
        name = COALESCE($2, name),
        start_date = COALESCE($3, start_date),
        end_date = COALESCE($4, end_date),
        active = COALESCE($5, active),
        updated_at = NOW()
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, patch.Name, patch.StartDate, patch.EndDate, patch.Active); err != nil {
		return wrapStorageErr(err, "update period")
	}
	return nil
}

// Delete removes a period; students and modules (and their enrollments and
// grades) follow through the cascading foreign keys.
func (r *PeriodRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM periods WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete period: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete period: %w", err)
	}
	return affected > 0, nil
}
