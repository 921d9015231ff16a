package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"p4-dashboard/internal/dto"
	"p4-dashboard/internal/report"
	"p4-dashboard/internal/service"
	"p4-dashboard/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportRecommendations 导出未参训名单；?npsn= 时只导出一所学校
// GET /api/v1/export/recommendations
func (h *ExportHandler) ExportRecommendations(c *gin.Context) {
	var req dto.FilterQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Parameter tidak valid")
		return
	}
	q, ok := bindRecordQuery(c, &req)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportRecommendations(c.Request.Context(), c.Query("npsn"), q.Filter)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	h.sendXLSX(c, buf, filename)
}

// ExportRecap 导出达成情况
// GET /api/v1/export/recap
func (h *ExportHandler) ExportRecap(c *gin.Context) {
	var req dto.RecapRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Parameter tidak valid")
		return
	}
	q, ok := bindRecordQuery(c, &req.FilterQuery)
	if !ok {
		return
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = string(report.DefaultCategory)
	}

	buf, filename, err := h.exportSvc.ExportRecap(c.Request.Context(), category, q)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	h.sendXLSX(c, buf, filename)
}

// ExportRecords 导出筛选后的参训记录
// GET /api/v1/export/records
func (h *ExportHandler) ExportRecords(c *gin.Context) {
	var req dto.FilterQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Parameter tidak valid")
		return
	}
	q, ok := bindRecordQuery(c, &req)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportRecords(c.Request.Context(), q)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	h.sendXLSX(c, buf, filename)
}

func (h *ExportHandler) sendXLSX(c *gin.Context, buf *bytes.Buffer, filename string) {
	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, response.XLSXContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRosterUnavailable):
		response.Error(c, http.StatusConflict, 14001, "Data Dapodik tidak tersedia")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleDataError(c, err)
	}
}
