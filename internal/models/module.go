package models

import "time"

// Module is a course offering within a period, taught by one professor.
type Module struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Code        string    `db:"code" json:"code"`
	PeriodID    string    `db:"period_id" json:"period_id"`
	ProfessorID string    `db:"professor_id" json:"professor_id"`
	Credits     int       `db:"credits" json:"credits"`
	MaxAbsences int       `db:"max_absences" json:"max_absences"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ModuleDetail enriches Module with professor and period names.
type ModuleDetail struct {
	Module
	ProfessorName string `db:"professor_name" json:"professor_name"`
	PeriodName    string `db:"period_name" json:"period_name"`
}

// ModuleRosterRow is one student line of a module's grade sheet.
type ModuleRosterRow struct {
	EnrollmentID  string  `db:"enrollment_id" json:"enrollment_id"`
	StudentID     string  `db:"student_id" json:"student_id"`
	StudentNumber string  `db:"student_number" json:"student_number"`
	StudentName   string  `db:"student_name" json:"student_name"`
	TutorGrade    float64 `db:"tutor_grade" json:"tutor_grade"`
	RegularGrade  float64 `db:"regular_grade" json:"regular_grade"`
	MakeupGrade   float64 `db:"makeup_grade" json:"makeup_grade"`
	FinalGrade    float64 `db:"final_grade" json:"final_grade"`
	Absences      int     `db:"absences" json:"absences"`
}
