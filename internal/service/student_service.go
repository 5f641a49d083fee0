package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tbsouza/academic-api/internal/models"
	appErrors "github.com/tbsouza/academic-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByNumber(ctx context.Context, number string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter, studentIDs []string, unrestricted bool) ([]models.Student, int, error)
	ModuleRows(ctx context.Context, studentID string) ([]models.StudentModuleRow, error)
	Update(ctx context.Context, id string, patch models.StudentPatch) error
	Delete(ctx context.Context, id string) (bool, error)
}

type periodReader interface {
	FindByID(ctx context.Context, id string) (*models.Period, error)
}

type studentEnroller interface {
	EnrollStudent(ctx context.Context, student *models.Student, principal models.Principal) error
}

// CreateStudentRequest describes student creation.
type CreateStudentRequest struct {
	StudentNumber    string    `json:"student_number" validate:"required"`
	FullName         string    `json:"full_name" validate:"required"`
	Email            string    `json:"email" validate:"omitempty,email"`
	PeriodID         string    `json:"period_id" validate:"required"`
	EnrolledAt       time.Time `json:"enrolled_at" validate:"required"`
	CertificateCount *int      `json:"certificate_count" validate:"required,gte=0"`
	Referral         string    `json:"referral"`
	Notes            string    `json:"notes"`
}

// UpdateStudentRequest is a partial student update. The student number and
// period binding are immutable.
type UpdateStudentRequest struct {
	FullName         *string    `json:"full_name" validate:"omitempty,min=1"`
	Email            *string    `json:"email" validate:"omitempty,email"`
	EnrolledAt       *time.Time `json:"enrolled_at"`
	CertificateCount *int       `json:"certificate_count" validate:"omitempty,gte=0"`
	Referral         *string    `json:"referral"`
	Notes            *string    `json:"notes"`
	Active           *bool      `json:"active"`
}

// StudentService orchestrates student mutations: scope check, enrollment
// cascade, persistence.
type StudentService struct {
	repo      studentRepository
	periods   periodReader
	cascade   studentEnroller
	scopes    scopeResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, periods periodReader, cascade studentEnroller, scopes scopeResolver, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, periods: periods, cascade: cascade, scopes: scopes, validator: validate, logger: logger}
}

// Search lists students within scope, optionally filtered by student
// number or a name search term.
func (s *StudentService) Search(ctx context.Context, principal models.Principal, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(scope.StudentIDs))
	for id := range scope.StudentIDs {
		ids = append(ids, id)
	}
	students, total, err := s.repo.List(ctx, filter, ids, scope.Unrestricted)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns a student with its per-module grade rows.
func (s *StudentService) Get(ctx context.Context, principal models.Principal, id string) (*models.StudentDetail, error) {
	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsStudent(id) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student outside your scope")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	rows, err := s.repo.ModuleRows(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student modules")
	}
	return &models.StudentDetail{Student: *student, Modules: rows}, nil
}

// Create adds a student to a period and enrolls it into the period's
// active modules through the cascade. Professors enroll only into their
// own modules of the period.
func (s *StudentService) Create(ctx context.Context, principal models.Principal, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsPeriod(req.PeriodID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "period outside your scope")
	}

	period, err := s.periods.FindByID(ctx, req.PeriodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	if !period.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "period is inactive")
	}

	student := &models.Student{
		StudentNumber:    req.StudentNumber,
		FullName:         req.FullName,
		Email:            req.Email,
		PeriodID:         req.PeriodID,
		EnrolledAt:       req.EnrolledAt,
		CertificateCount: *req.CertificateCount,
		Referral:         req.Referral,
		Notes:            req.Notes,
		Active:           true,
	}
	if err := s.cascade.EnrollStudent(ctx, student, principal); err != nil {
		return nil, err
	}
	return student, nil
}

// Update applies a partial update to a student within scope.
func (s *StudentService) Update(ctx context.Context, principal models.Principal, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsStudent(id) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student outside your scope")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	patch := models.StudentPatch{
		FullName:         req.FullName,
		Email:            req.Email,
		EnrolledAt:       req.EnrolledAt,
		CertificateCount: req.CertificateCount,
		Referral:         req.Referral,
		Notes:            req.Notes,
		Active:           req.Active,
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Delete removes a student; enrollments and grades go with it through the
// storage cascades.
func (s *StudentService) Delete(ctx context.Context, principal models.Principal, id string) error {
	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return err
	}
	if !scope.AllowsStudent(id) {
		return appErrors.Clone(appErrors.ErrForbidden, "student outside your scope")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}
