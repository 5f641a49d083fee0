package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	appErrors "github.com/tbsouza/academic-api/pkg/errors"
)

// uniqueViolation is the PostgreSQL error code for unique constraint hits.
const uniqueViolation = "23505"

// constraintMessages maps schema constraint names to the field-level
// messages surfaced on conflicts.
var constraintMessages = map[string]string{
	"users_username_key":             "username already taken",
	"users_email_key":                "email already registered",
	"periods_name_key":               "a period with this name already exists",
	"students_student_number_key":    "student number already registered",
	"modules_period_code_key":        "a module with this code already exists in the period",
	"enrollments_student_module_key": "student already enrolled in module",
	"grades_enrollment_key":          "grade record already exists for enrollment",
}

// UniqueViolation extracts the violated constraint from a storage error.
// It returns a human-readable message and true when the error is a
// PostgreSQL unique violation.
func UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return "", false
	}
	if string(pqErr.Code) != uniqueViolation {
		return "", false
	}
	if msg, ok := constraintMessages[pqErr.Constraint]; ok {
		return msg, true
	}
	return "duplicate value violates a uniqueness rule", true
}

// wrapStorageErr normalises a write failure: unique violations become
// typed conflicts naming the field, anything else keeps the operation
// context for logging.
func wrapStorageErr(err error, op string) error {
	if msg, ok := UniqueViolation(err); ok {
		return appErrors.Clone(appErrors.ErrConflict, msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}
