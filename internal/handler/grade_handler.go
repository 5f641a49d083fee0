package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbsouza/academic-api/internal/service"
	appErrors "github.com/tbsouza/academic-api/pkg/errors"
	"github.com/tbsouza/academic-api/pkg/response"
)

// GradeHandler exposes grade endpoints.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// Get godoc
// @Summary Get the grade record for a student/module pair
// @Tags Grades
// @Produce json
// @Param studentId query string true "Student ID"
// @Param moduleId query string true "Module ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) Get(c *gin.Context) {
	studentID := c.Query("studentId")
	moduleID := c.Query("moduleId")
	if studentID == "" || moduleID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId and moduleId are required"))
		return
	}

	grade, err := h.grades.GetByPair(c.Request.Context(), principalFromContext(c), studentID, moduleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// Update godoc
// @Summary Update the grade record of one enrollment
// @Description Applies only the supplied fields and recomputes the final grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Param payload body service.UpdateGradeRequest true "Partial grade payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{enrollmentId}/grade [patch]
func (h *GradeHandler) Update(c *gin.Context) {
	var req service.UpdateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.grades.Update(c.Request.Context(), principalFromContext(c), c.Param("enrollmentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// SetAbsences godoc
// @Summary Overwrite the absence count across a student's modules
// @Description Sets the same absence total on every grade record of the student within the caller's scope
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.SetAbsencesRequest true "Absence payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/absences [put]
func (h *GradeHandler) SetAbsences(c *gin.Context) {
	var req service.SetAbsencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	updated, err := h.grades.SetAbsences(c.Request.Context(), principalFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": updated}, nil)
}
