package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tbsouza/academic-api/internal/models"
	appErrors "github.com/tbsouza/academic-api/pkg/errors"
	"github.com/tbsouza/academic-api/pkg/export"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

// Supported export formats.
const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type rosterReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.ModuleDetail, error)
	Roster(ctx context.Context, moduleID string) ([]models.ModuleRosterRow, error)
}

type tableRenderer interface {
	Render(table export.Table) ([]byte, error)
}

// ExportResult carries the rendered grade sheet and response metadata.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders module grade sheets as CSV or PDF downloads.
type ExportService struct {
	modules rosterReader
	scopes  scopeResolver
	csv     tableRenderer
	pdf     tableRenderer
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(modules rosterReader, scopes scopeResolver, csv, pdf tableRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{modules: modules, scopes: scopes, csv: csv, pdf: pdf, logger: logger}
}

// GradeSheet renders the grade sheet for one module within the caller's scope.
func (s *ExportService) GradeSheet(ctx context.Context, principal models.Principal, moduleID string, format ExportFormat) (*ExportResult, error) {
	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsModule(moduleID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "module outside your scope")
	}

	module, err := s.modules.FindDetailByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}

	rows, err := s.modules.Roster(ctx, moduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	table := buildGradeSheetTable(module, rows)

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(table)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(table)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render grade sheet")
	}

	s.logger.Info("grade sheet exported",
		zap.String("module_id", moduleID),
		zap.String("format", string(format)),
		zap.Int("rows", len(rows)))

	filename := fmt.Sprintf("grade-sheet-%s-%s.%s",
		strings.ToLower(module.Code),
		time.Now().UTC().Format("20060102"),
		format)
	return &ExportResult{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

func buildGradeSheetTable(module *models.ModuleDetail, rows []models.ModuleRosterRow) export.Table {
	table := export.Table{
		Title:   fmt.Sprintf("%s - %s grade sheet", module.Code, module.Name),
		Columns: []string{"Student Number", "Student Name", "Tutor", "Regular", "Makeup", "Final", "Absences"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, []string{
			row.StudentNumber,
			row.StudentName,
			formatGrade(row.TutorGrade),
			formatGrade(row.RegularGrade),
			formatGrade(row.MakeupGrade),
			formatGrade(row.FinalGrade),
			strconv.Itoa(row.Absences),
		})
	}
	return table
}

func formatGrade(value float64) string {
	return strconv.FormatFloat(value, 'f', 1, 64)
}
