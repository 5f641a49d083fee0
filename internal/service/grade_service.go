package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tbsouza/academic-api/internal/models"
	appErrors "github.com/tbsouza/academic-api/pkg/errors"
)

// PassThreshold is the final grade at or above which an enrollment counts
// as passed in dashboard aggregates. The grade policy itself never rejects
// grades below it.
const PassThreshold = 7.0

type gradeRepository interface {
	FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Grade, error)
	Upsert(ctx context.Context, grade *models.Grade) error
	SetAbsencesForStudentModules(ctx context.Context, studentID string, moduleIDs []string, absences int) (int, error)
}

type enrollmentReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	FindDetailByPair(ctx context.Context, studentID, moduleID string) (*models.EnrollmentDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
}

type scopeResolver interface {
	Resolve(ctx context.Context, principal models.Principal) (*models.AccessScope, error)
}

// UpdateGradeRequest is a partial grade update. Only non-nil fields are
// applied; the final grade is always recomputed, never taken from the
// caller.
type UpdateGradeRequest struct {
	TutorGrade   *float64 `json:"tutor_grade" validate:"omitempty,gte=0,lte=10"`
	RegularGrade *float64 `json:"regular_grade" validate:"omitempty,gte=0,lte=10"`
	MakeupGrade  *float64 `json:"makeup_grade" validate:"omitempty,gte=0,lte=10"`
	Absences     *int     `json:"absences" validate:"omitempty,gte=0"`
}

// SetAbsencesRequest is the bulk absence overwrite payload.
type SetAbsencesRequest struct {
	Absences *int `json:"absences" validate:"required,gte=0"`
}

// GradeService applies the grading policy to enrollments.
type GradeService struct {
	repo        gradeRepository
	enrollments enrollmentReader
	scopes      scopeResolver
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(repo gradeRepository, enrollments enrollmentReader, scopes scopeResolver, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, enrollments: enrollments, scopes: scopes, validator: validate, logger: logger}
}

// FinalGrade computes the stored final grade. A makeup attempt counts only
// when taken: the better of the two exams wins, otherwise the regular exam
// stands alone.
func FinalGrade(regular, makeup float64) float64 {
	if makeup > 0 && makeup > regular {
		return makeup
	}
	return regular
}

// Update applies a partial grade update to an enrollment and recomputes
// the final grade. The grade row should exist from the enrollment cascade;
// a missing one is created defensively.
func (s *GradeService) Update(ctx context.Context, principal models.Principal, enrollmentID string, req UpdateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	enrollment, err := s.enrollments.FindDetailByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsModule(enrollment.ModuleID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment outside your scope")
	}

	grade, err := s.repo.FindByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
		}
		grade = &models.Grade{EnrollmentID: enrollmentID}
	}

	if req.TutorGrade != nil {
		grade.TutorGrade = *req.TutorGrade
	}
	if req.RegularGrade != nil {
		grade.RegularGrade = *req.RegularGrade
	}
	if req.MakeupGrade != nil {
		grade.MakeupGrade = *req.MakeupGrade
	}
	if req.Absences != nil {
		grade.Absences = *req.Absences
	}
	grade.FinalGrade = FinalGrade(grade.RegularGrade, grade.MakeupGrade)

	if err := s.repo.Upsert(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade")
	}

	s.logger.Info("grade updated",
		zap.String("enrollment_id", enrollmentID),
		zap.Float64("final_grade", grade.FinalGrade))
	return grade, nil
}

// GetByPair returns the grade data for a (student, module) pair within the
// principal's scope.
func (s *GradeService) GetByPair(ctx context.Context, principal models.Principal, studentID, moduleID string) (*models.Grade, error) {
	enrollment, err := s.enrollments.FindDetailByPair(ctx, studentID, moduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsModule(enrollment.ModuleID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment outside your scope")
	}

	grade, err := s.repo.FindByEnrollmentID(ctx, enrollment.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	return grade, nil
}

// SetAbsences overwrites the absence count uniformly on all of the
// student's grades within the principal's writable modules. Professors
// reach only their own modules; per-module counts recorded earlier are
// deliberately overwritten. Returns the number of grade rows written.
func (s *GradeService) SetAbsences(ctx context.Context, principal models.Principal, studentID string, req SetAbsencesRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absences payload")
	}

	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return 0, err
	}
	if !scope.AllowsStudent(studentID) {
		return 0, appErrors.Clone(appErrors.ErrForbidden, "student outside your scope")
	}

	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	moduleIDs := make([]string, 0, len(enrollments))
	for _, enrollment := range enrollments {
		if scope.AllowsModule(enrollment.ModuleID) {
			moduleIDs = append(moduleIDs, enrollment.ModuleID)
		}
	}

	updated, err := s.repo.SetAbsencesForStudentModules(ctx, studentID, moduleIDs, *req.Absences)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set absences")
	}

	s.logger.Info("absences set",
		zap.String("student_id", studentID),
		zap.Int("absences", *req.Absences),
		zap.Int("grades_updated", updated))
	return updated, nil
}
