package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tbsouza/academic-api/internal/models"
)

// DashboardRepository computes reporting aggregates over grades.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// PeriodSummary aggregates headline numbers for one period. Grades count
// as graded once a final grade has been recorded; passThreshold splits
// passed from failed among those.
func (r *DashboardRepository) PeriodSummary(ctx context.Context, periodID string, passThreshold float64) (*models.PeriodSummary, error) {
	const query = `SELECT p.id AS period_id, p.name AS period_name,
        (SELECT COUNT(*) FROM students s WHERE s.period_id = p.id AND s.active = TRUE) AS student_count,
        (SELECT COUNT(*) FROM modules m WHERE m.period_id = p.id AND m.active = TRUE) AS module_count,
        COUNT(g.id) FILTER (WHERE g.final_grade > 0) AS graded_count,
        COUNT(g.id) FILTER (WHERE g.final_grade >= $2) AS passed_count,
        COALESCE(AVG(g.final_grade) FILTER (WHERE g.final_grade > 0), 0) AS average_final,
        COALESCE(SUM(g.absences), 0) AS total_absences
        FROM periods p
        LEFT JOIN students s ON s.period_id = p.id
        LEFT JOIN enrollments e ON e.student_id = s.id
        LEFT JOIN grades g ON g.enrollment_id = e.id
        WHERE p.id = $1
        GROUP BY p.id, p.name`
	var summary models.PeriodSummary
	if err := r.db.GetContext(ctx, &summary, query, periodID, passThreshold); err != nil {
		return nil, fmt.Errorf("period summary: %w", err)
	}
	if summary.GradedCount > 0 {
		summary.PassRate = float64(summary.PassedCount) / float64(summary.GradedCount)
	}
	return &summary, nil
}
