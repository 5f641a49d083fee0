package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tbsouza/academic-api/internal/models"
	appErrors "github.com/tbsouza/academic-api/pkg/errors"
)

type scopeRepository interface {
	PeriodIDsByCoordinator(ctx context.Context, userID string) ([]string, error)
	ModuleIDsByPeriods(ctx context.Context, periodIDs []string) ([]string, error)
	StudentIDsByPeriods(ctx context.Context, periodIDs []string) ([]string, error)
	ModuleIDsByProfessor(ctx context.Context, userID string) ([]string, error)
	StudentIDsByModules(ctx context.Context, moduleIDs []string) ([]string, error)
	PeriodIDsByModules(ctx context.Context, moduleIDs []string) ([]string, error)
}

// ScopeService resolves the set of periods, modules and students a
// principal may read or write. Every mutation consults it before touching
// storage.
type ScopeService struct {
	repo   scopeRepository
	logger *zap.Logger
}

// NewScopeService constructs ScopeService.
func NewScopeService(repo scopeRepository, logger *zap.Logger) *ScopeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScopeService{repo: repo, logger: logger}
}

// Resolve computes the principal's access scope. Admins are unrestricted;
// coordinators own periods and everything in them; professors own their
// modules, the students enrolled in them, and see the periods of those
// modules as read-through metadata.
func (s *ScopeService) Resolve(ctx context.Context, principal models.Principal) (*models.AccessScope, error) {
	switch principal.Role {
	case models.RoleAdmin:
		return &models.AccessScope{Unrestricted: true}, nil
	case models.RoleCoordinator:
		return s.resolveCoordinator(ctx, principal.UserID)
	case models.RoleProfessor:
		return s.resolveProfessor(ctx, principal.UserID)
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
}

func (s *ScopeService) resolveCoordinator(ctx context.Context, userID string) (*models.AccessScope, error) {
	scope := models.NewAccessScope()

	periodIDs, err := s.repo.PeriodIDsByCoordinator(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve scope")
	}
	for _, id := range periodIDs {
		scope.PeriodIDs[id] = struct{}{}
	}

	moduleIDs, err := s.repo.ModuleIDsByPeriods(ctx, periodIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve scope")
	}
	for _, id := range moduleIDs {
		scope.ModuleIDs[id] = struct{}{}
	}

	studentIDs, err := s.repo.StudentIDsByPeriods(ctx, periodIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve scope")
	}
	for _, id := range studentIDs {
		scope.StudentIDs[id] = struct{}{}
	}

	return scope, nil
}

func (s *ScopeService) resolveProfessor(ctx context.Context, userID string) (*models.AccessScope, error) {
	scope := models.NewAccessScope()

	moduleIDs, err := s.repo.ModuleIDsByProfessor(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve scope")
	}
	for _, id := range moduleIDs {
		scope.ModuleIDs[id] = struct{}{}
	}

	studentIDs, err := s.repo.StudentIDsByModules(ctx, moduleIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve scope")
	}
	for _, id := range studentIDs {
		scope.StudentIDs[id] = struct{}{}
	}

	periodIDs, err := s.repo.PeriodIDsByModules(ctx, moduleIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve scope")
	}
	for _, id := range periodIDs {
		scope.PeriodIDs[id] = struct{}{}
	}

	return scope, nil
}
