package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tbsouza/academic-api/internal/models"
	appErrors "github.com/tbsouza/academic-api/pkg/errors"
)

type summaryRepository interface {
	PeriodSummary(ctx context.Context, periodID string, passThreshold float64) (*models.PeriodSummary, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardService composes reporting aggregates per period. Results are
// cached with a short TTL; pass/fail splits use the policy threshold but
// grades below it are never rejected anywhere.
type DashboardService struct {
	repo   summaryRepository
	cache  summaryCache
	scopes scopeResolver
	ttl    time.Duration
	logger *zap.Logger
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(repo summaryRepository, cache summaryCache, scopes scopeResolver, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, scopes: scopes, ttl: ttl, logger: logger}
}

// PeriodSummary returns the period dashboard for a period within scope.
func (s *DashboardService) PeriodSummary(ctx context.Context, principal models.Principal, periodID string) (*models.PeriodSummary, error) {
	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsPeriod(periodID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "period outside your scope")
	}

	key := fmt.Sprintf("dashboard:period:%s", periodID)
	if s.cache != nil {
		var cached models.PeriodSummary
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	summary, err := s.repo.PeriodSummary(ctx, periodID, PassThreshold)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build period summary")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}
