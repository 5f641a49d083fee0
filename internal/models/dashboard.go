package models

// PeriodSummary aggregates headline numbers for one period's dashboard.
type PeriodSummary struct {
	PeriodID      string  `db:"period_id" json:"period_id"`
	PeriodName    string  `db:"period_name" json:"period_name"`
	StudentCount  int     `db:"student_count" json:"student_count"`
	ModuleCount   int     `db:"module_count" json:"module_count"`
	GradedCount   int     `db:"graded_count" json:"graded_count"`
	PassedCount   int     `db:"passed_count" json:"passed_count"`
	PassRate      float64 `json:"pass_rate"`
	AverageFinal  float64 `db:"average_final" json:"average_final"`
	TotalAbsences int     `db:"total_absences" json:"total_absences"`
}
