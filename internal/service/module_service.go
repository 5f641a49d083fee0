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

type moduleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Module, error)
	FindDetailByID(ctx context.Context, id string) (*models.ModuleDetail, error)
	List(ctx context.Context, moduleIDs []string, unrestricted bool, periodID string) ([]models.ModuleDetail, error)
	Roster(ctx context.Context, moduleID string) ([]models.ModuleRosterRow, error)
	Update(ctx context.Context, id string, patch models.ModulePatch) error
	Delete(ctx context.Context, id string) (bool, error)
}

type moduleEnroller interface {
	EnrollModule(ctx context.Context, module *models.Module) error
}

// CreateModuleRequest describes module creation.
type CreateModuleRequest struct {
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code" validate:"required"`
	PeriodID    string `json:"period_id" validate:"required"`
	ProfessorID string `json:"professor_id" validate:"required"`
	Credits     int    `json:"credits" validate:"gte=0"`
	MaxAbsences int    `json:"max_absences" validate:"gte=0"`
}

// UpdateModuleRequest is a partial module update. Code, period and
// professor bindings are immutable.
type UpdateModuleRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Credits     *int    `json:"credits" validate:"omitempty,gte=0"`
	MaxAbsences *int    `json:"max_absences" validate:"omitempty,gte=0"`
	Active      *bool   `json:"active"`
}

// ModuleService orchestrates module mutations: scope check, enrollment
// cascade, persistence.
type ModuleService struct {
	repo      moduleRepository
	periods   periodReader
	users     userReader
	cascade   moduleEnroller
	scopes    scopeResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewModuleService constructs ModuleService.
func NewModuleService(repo moduleRepository, periods periodReader, users userReader, cascade moduleEnroller, scopes scopeResolver, validate *validator.Validate, logger *zap.Logger) *ModuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModuleService{repo: repo, periods: periods, users: users, cascade: cascade, scopes: scopes, validator: validate, logger: logger}
}

// List returns modules within scope, optionally restricted to one period.
func (s *ModuleService) List(ctx context.Context, principal models.Principal, periodID string) ([]models.ModuleDetail, error) {
	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	modules, err := s.repo.List(ctx, scope.ModuleIDList(), scope.Unrestricted, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list modules")
	}
	return modules, nil
}

// Roster returns the module grade sheet for a module within scope.
func (s *ModuleService) Roster(ctx context.Context, principal models.Principal, moduleID string) ([]models.ModuleRosterRow, error) {
	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsModule(moduleID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "module outside your scope")
	}
	if _, err := s.repo.FindByID(ctx, moduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}
	rows, err := s.repo.Roster(ctx, moduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module roster")
	}
	return rows, nil
}

// Create adds a module to a period and enrolls every active student of
// that period into it through the cascade. Coordinators create modules in
// their periods; professors create modules they will own themselves.
func (s *ModuleService) Create(ctx context.Context, principal models.Principal, req CreateModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module payload")
	}

	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}

	switch principal.Role {
	case models.RoleAdmin:
	case models.RoleCoordinator:
		if !scope.AllowsPeriod(req.PeriodID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "period outside your scope")
		}
	case models.RoleProfessor:
		if req.ProfessorID != principal.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "professors may only create their own modules")
		}
		if !scope.AllowsPeriod(req.PeriodID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "period outside your scope")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not create modules")
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

	professor, err := s.users.FindByID(ctx, req.ProfessorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	if professor.Role != models.RoleProfessor {
		return nil, appErrors.Clone(appErrors.ErrValidation, "owner must be a professor")
	}

	module := &models.Module{
		Name:        req.Name,
		Code:        req.Code,
		PeriodID:    req.PeriodID,
		ProfessorID: req.ProfessorID,
		Credits:     req.Credits,
		MaxAbsences: req.MaxAbsences,
		Active:      true,
	}
	if err := s.cascade.EnrollModule(ctx, module); err != nil {
		return nil, err
	}
	return module, nil
}

// Update applies a partial update to a module within scope.
func (s *ModuleService) Update(ctx context.Context, principal models.Principal, id string, req UpdateModuleRequest) (*models.ModuleDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module payload")
	}

	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsModule(id) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "module outside your scope")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}

	patch := models.ModulePatch{Name: req.Name, Credits: req.Credits, MaxAbsences: req.MaxAbsences, Active: req.Active}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update module")
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}
	return detail, nil
}

// Delete removes a module; enrollments and grades go with it through the
// storage cascades.
func (s *ModuleService) Delete(ctx context.Context, principal models.Principal, id string) error {
	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return err
	}
	if !scope.AllowsModule(id) {
		return appErrors.Clone(appErrors.ErrForbidden, "module outside your scope")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete module")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "module not found")
	}

	s.logger.Info("module deleted", zap.String("module_id", id))
	return nil
}
