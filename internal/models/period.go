package models

import "time"

// Period models an academic term owned by a single coordinator.
type Period struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	CoordinatorID string    `db:"coordinator_id" json:"coordinator_id"`
	StartDate     time.Time `db:"start_date" json:"start_date"`
	EndDate       time.Time `db:"end_date" json:"end_date"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// PeriodDetail enriches Period with its coordinator's name.
type PeriodDetail struct {
	Period
	CoordinatorName string `db:"coordinator_name" json:"coordinator_name"`
}
