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

type periodRepository interface {
	FindByID(ctx context.Context, id string) (*models.Period, error)
	FindDetailByID(ctx context.Context, id string) (*models.PeriodDetail, error)
	List(ctx context.Context, periodIDs []string, unrestricted bool) ([]models.PeriodDetail, error)
	Create(ctx context.Context, period *models.Period) error
	Update(ctx context.Context, id string, patch models.PeriodPatch) error
	Delete(ctx context.Context, id string) (bool, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreatePeriodRequest describes period creation.
type CreatePeriodRequest struct {
	Name          string    `json:"name" validate:"required"`
	CoordinatorID string    `json:"coordinator_id" validate:"required"`
	StartDate     time.Time `json:"start_date" validate:"required"`
	EndDate       time.Time `json:"end_date" validate:"required"`
}

// UpdatePeriodRequest is a partial period update.
type UpdatePeriodRequest struct {
	Name      *string    `json:"name" validate:"omitempty,min=1"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Active    *bool      `json:"active"`
}

// PeriodService orchestrates period mutations under the access scope.
type PeriodService struct {
	repo      periodRepository
	users     userReader
	scopes    scopeResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService constructs PeriodService.
func NewPeriodService(repo periodRepository, users userReader, scopes scopeResolver, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, users: users, scopes: scopes, validator: validate, logger: logger}
}

// List returns the periods within the principal's scope.
func (s *PeriodService) List(ctx context.Context, principal models.Principal) ([]models.PeriodDetail, error) {
	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(scope.PeriodIDs))
	for id := range scope.PeriodIDs {
		ids = append(ids, id)
	}
	periods, err := s.repo.List(ctx, ids, scope.Unrestricted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	return periods, nil
}

// Get returns one period within scope.
func (s *PeriodService) Get(ctx context.Context, principal models.Principal, id string) (*models.PeriodDetail, error) {
	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsPeriod(id) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "period outside your scope")
	}
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return detail, nil
}

// Create adds a period. Admins may create for any coordinator;
// coordinators only for themselves.
func (s *PeriodService) Create(ctx context.Context, principal models.Principal, req CreatePeriodRequest) (*models.Period, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}

	switch principal.Role {
	case models.RoleAdmin:
	case models.RoleCoordinator:
		if req.CoordinatorID != principal.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "coordinators may only create their own periods")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not create periods")
	}

	coordinator, err := s.users.FindByID(ctx, req.CoordinatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coordinator not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coordinator")
	}
	if coordinator.Role != models.RoleCoordinator && coordinator.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "owner must be a coordinator")
	}

	period := &models.Period{
		Name:          req.Name,
		CoordinatorID: req.CoordinatorID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Active:        true,
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, translateCascadeError(err)
	}

	s.logger.Info("period created", zap.String("period_id", period.ID), zap.String("name", period.Name))
	return period, nil
}

// Update applies a partial update to a period within scope.
func (s *PeriodService) Update(ctx context.Context, principal models.Principal, id string, req UpdatePeriodRequest) (*models.PeriodDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}

	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	if principal.Role == models.RoleProfessor || !scope.AllowsPeriod(id) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "period outside your scope")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}

	patch := models.PeriodPatch{Name: req.Name, StartDate: req.StartDate, EndDate: req.EndDate, Active: req.Active}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, translateCascadeError(err)
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return detail, nil
}

// Delete removes a period and, through storage cascades, its students,
// modules, enrollments and grades.
func (s *PeriodService) Delete(ctx context.Context, principal models.Principal, id string) error {
	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return err
	}
	if principal.Role == models.RoleProfessor || !scope.AllowsPeriod(id) {
		return appErrors.Clone(appErrors.ErrForbidden, "period outside your scope")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete period")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "period not found")
	}

	s.logger.Info("period deleted", zap.String("period_id", id))
	return nil
}
