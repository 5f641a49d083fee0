package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbsouza/academic-api/internal/service"
	"github.com/tbsouza/academic-api/pkg/response"
)

// ExportHandler streams rendered grade sheets.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// GradeSheet godoc
// @Summary Download the module grade sheet
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Module ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /modules/{id}/export [get]
func (h *ExportHandler) GradeSheet(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	result, err := h.exports.GradeSheet(c.Request.Context(), principalFromContext(c), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
