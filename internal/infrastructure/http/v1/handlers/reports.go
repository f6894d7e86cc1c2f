package handlers

import (
	"github.com/gin-gonic/gin"

	"orderdesk/internal/domain/reports"
	"orderdesk/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Outstanding handles GET /reports/outstanding
func (h *ReportsHandler) Outstanding(c *gin.Context) {
	var q dto.OutstandingQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	report, err := h.service.OutstandingBalances(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// Profit handles GET /reports/profit
func (h *ReportsHandler) Profit(c *gin.Context) {
	var q dto.ProfitQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	report, err := h.service.ProfitByPeriod(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}
