package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tbsouza/academic-api/internal/models"
	appErrors "github.com/tbsouza/academic-api/pkg/errors"
)

type cascadeRepository interface {
	CreateStudent(ctx context.Context, student *models.Student, moduleIDs []string) error
	CreateModule(ctx context.Context, module *models.Module, studentIDs []string) error
}

type activeModuleLister interface {
	ActiveByPeriod(ctx context.Context, periodID string) ([]models.Module, error)
}

type activeStudentLister interface {
	ActiveIDsByPeriod(ctx context.Context, periodID string) ([]string, error)
}

// CascadeService keeps the enrollment invariant: every active student of a
// period is enrolled, with a grade record, in every active module of that
// period. It plans the enrollment fan-out for each creation and hands the
// whole batch to the cascade repository as one transaction.
type CascadeService struct {
	repo     cascadeRepository
	modules  activeModuleLister
	students activeStudentLister
	logger   *zap.Logger
}

// NewCascadeService constructs CascadeService.
func NewCascadeService(repo cascadeRepository, modules activeModuleLister, students activeStudentLister, logger *zap.Logger) *CascadeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CascadeService{repo: repo, modules: modules, students: students, logger: logger}
}

// EnrollStudent inserts the student and enrolls it into the active modules
// of its period. When the creating principal is a professor the fan-out is
// restricted to that professor's own modules, so a professor cannot enroll
// a student into a peer's module.
func (s *CascadeService) EnrollStudent(ctx context.Context, student *models.Student, principal models.Principal) error {
	modules, err := s.modules.ActiveByPeriod(ctx, student.PeriodID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period modules")
	}

	moduleIDs := make([]string, 0, len(modules))
	for _, module := range modules {
		if principal.Role == models.RoleProfessor && module.ProfessorID != principal.UserID {
			continue
		}
		moduleIDs = append(moduleIDs, module.ID)
	}

	if err := s.repo.CreateStudent(ctx, student, moduleIDs); err != nil {
		return translateCascadeError(err)
	}

	s.logger.Info("student enrolled",
		zap.String("student_id", student.ID),
		zap.String("period_id", student.PeriodID),
		zap.Int("modules", len(moduleIDs)))
	return nil
}

// EnrollModule inserts the module and enrolls every active student of its
// period into it.
func (s *CascadeService) EnrollModule(ctx context.Context, module *models.Module) error {
	studentIDs, err := s.students.ActiveIDsByPeriod(ctx, module.PeriodID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period students")
	}

	if err := s.repo.CreateModule(ctx, module, studentIDs); err != nil {
		return translateCascadeError(err)
	}

	s.logger.Info("module enrolled",
		zap.String("module_id", module.ID),
		zap.String("period_id", module.PeriodID),
		zap.Int("students", len(studentIDs)))
	return nil
}
