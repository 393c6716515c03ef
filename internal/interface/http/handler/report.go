package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/library/internal/application/report"
	"github.com/xiebiao/library/pkg/response"
)

// ReportHandler 报表HTTP处理器
type ReportHandler struct {
	reportService *report.Service
}

// NewReportHandler 创建报表处理器
func NewReportHandler(reportService *report.Service) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Inventory 馆藏报表
// @Summary      馆藏报表
// @Description  每本图书的馆藏、可借、借出数量及合计
// @Tags         报表
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=report.InventoryReport}
// @Router       /api/v1/reports/inventory [get]
func (h *ReportHandler) Inventory(c *gin.Context) {
	r, err := h.reportService.Inventory(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, r)
}

// Overdue 逾期报表
// @Summary      逾期报表
// @Description  逾期借阅明细及预估罚金合计
// @Tags         报表
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=report.OverdueReport}
// @Router       /api/v1/reports/overdue [get]
func (h *ReportHandler) Overdue(c *gin.Context) {
	r, err := h.reportService.Overdue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, r)
}
