package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbsouza/academic-api/internal/service"
	"github.com/tbsouza/academic-api/pkg/response"
)

// DashboardHandler exposes reporting endpoints.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// PeriodSummary godoc
// @Summary Get the period dashboard
// @Description Aggregated counts, pass rate and average final grade for one period
// @Tags Dashboard
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /periods/{id}/dashboard [get]
func (h *DashboardHandler) PeriodSummary(c *gin.Context) {
	summary, err := h.dashboard.PeriodSummary(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
