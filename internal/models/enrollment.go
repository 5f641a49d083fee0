package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusDropped   EnrollmentStatus = "DROPPED"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
)

// Enrollment links one student to one module within their shared period.
// Rows are created only by the enrollment cascade and removed only by the
// storage layer's cascading deletes; no handler creates one directly.
type Enrollment struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	ModuleID  string           `db:"module_id" json:"module_id"`
	Status    EnrollmentStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// EnrollmentDetail enriches Enrollment with student and module context.
type EnrollmentDetail struct {
	Enrollment
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
	ModuleName    string `db:"module_name" json:"module_name"`
	ModuleCode    string `db:"module_code" json:"module_code"`
	PeriodID      string `db:"period_id" json:"period_id"`
	ProfessorID   string `db:"professor_id" json:"professor_id"`
}
