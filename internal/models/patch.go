package models

import "time"

// Patch types carry partial updates: only non-nil fields are applied.
// They replace ad hoc per-field statement assembly with a fixed schema.

// PeriodPatch is a partial update of a period.
type PeriodPatch struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
	Active    *bool
}

// StudentPatch is a partial update of a student record.
type StudentPatch struct {
	FullName         *string
	Email            *string
	EnrolledAt       *time.Time
	CertificateCount *int
	Referral         *string
	Notes            *string
	Active           *bool
}

// ModulePatch is a partial update of a module.
type ModulePatch struct {
	Name        *string
	Credits     *int
	MaxAbsences *int
	Active      *bool
}
