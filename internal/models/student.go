package models

import "time"

// Student represents a learner registered within an academic period.
type Student struct {
	ID               string    `db:"id" json:"id"`
	StudentNumber    string    `db:"student_number" json:"student_number"`
	FullName         string    `db:"full_name" json:"full_name"`
	Email            string    `db:"email" json:"email"`
	PeriodID         string    `db:"period_id" json:"period_id"`
	EnrolledAt       time.Time `db:"enrolled_at" json:"enrolled_at"`
	CertificateCount int       `db:"certificate_count" json:"certificate_count"`
	Referral         string    `db:"referral" json:"referral"`
	Notes            string    `db:"notes" json:"notes"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	StudentNumber string
	Search        string
	PeriodID      string
	Active        *bool
	Page          int
	PageSize      int
}

// StudentModuleRow is one line of a student's per-module grade breakdown.
type StudentModuleRow struct {
	EnrollmentID string  `db:"enrollment_id" json:"enrollment_id"`
	ModuleID     string  `db:"module_id" json:"module_id"`
	ModuleName   string  `db:"module_name" json:"module_name"`
	ModuleCode   string  `db:"module_code" json:"module_code"`
	TutorGrade   float64 `db:"tutor_grade" json:"tutor_grade"`
	RegularGrade float64 `db:"regular_grade" json:"regular_grade"`
	MakeupGrade  float64 `db:"makeup_grade" json:"makeup_grade"`
	FinalGrade   float64 `db:"final_grade" json:"final_grade"`
	Absences     int     `db:"absences" json:"absences"`
}

// StudentDetail combines a student record with its module grade rows.
type StudentDetail struct {
	Student
	Modules []StudentModuleRow `json:"modules"`
}
