package models

import "time"

// Grade holds the numeric scores and absence count for one enrollment.
// Exactly one row exists per enrollment, created zero-valued together with
// it by the cascade.
type Grade struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	TutorGrade   float64   `db:"tutor_grade" json:"tutor_grade"`
	RegularGrade float64   `db:"regular_grade" json:"regular_grade"`
	MakeupGrade  float64   `db:"makeup_grade" json:"makeup_grade"`
	FinalGrade   float64   `db:"final_grade" json:"final_grade"`
	Absences     int       `db:"absences" json:"absences"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
