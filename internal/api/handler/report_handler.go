package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"p4-dashboard/internal/dto"
	"p4-dashboard/internal/report"
	"p4-dashboard/internal/service"
	"p4-dashboard/pkg/response"
)

// ReportHandler 达成情况与未参训名单 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// ListSchools 学校参考表（推荐页的学校选择器）
// GET /api/v1/schools
func (h *ReportHandler) ListSchools(c *gin.Context) {
	schools, err := h.reportSvc.Schools(c.Request.Context())
	if err != nil {
		handleDataError(c, err)
		return
	}
	response.OK(c, schools)
}

// Recap 达成情况（Rekap Pencapaian），未指定类别时为 Tendik
// GET /api/v1/recap
func (h *ReportHandler) Recap(c *gin.Context) {
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

	recap, err := h.reportSvc.Recap(c.Request.Context(), category, q)
	if err != nil {
		handleDataError(c, err)
		return
	}
	response.OK(c, recap)
}

// gapSummary 分页列表之外的汇总字段
type gapSummary struct {
	Status       report.GapStatus `json:"status"`
	RosterCount  int              `json:"jumlah_dapodik"`
	CoveredCount int              `json:"jumlah_sudah_pelatihan"`
}

// Recommendations 全量未参训名单（分页）；名册不可用时 status 为 roster_unavailable
// GET /api/v1/recommendations
func (h *ReportHandler) Recommendations(c *gin.Context) {
	var req dto.RecommendationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Parameter tidak valid")
		return
	}
	q, ok := bindRecordQuery(c, &req.FilterQuery)
	if !ok {
		return
	}

	gaps, err := h.reportSvc.Gaps(c.Request.Context(), q.Filter)
	if err != nil {
		handleDataError(c, err)
		return
	}
	response.OKPage(c, dto.Paginate(gaps.Entries, &req.PaginationRequest), len(gaps.Entries),
		req.GetPage(), req.GetPageSize(), gapSummary{
			Status:       gaps.Status,
			RosterCount:  gaps.RosterCount,
			CoveredCount: gaps.CoveredCount,
		})
}

// SchoolRecommendation 单校未参训名单
// GET /api/v1/recommendations/schools/:npsn
func (h *ReportHandler) SchoolRecommendation(c *gin.Context) {
	var req dto.FilterQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Parameter tidak valid")
		return
	}
	q, ok := bindRecordQuery(c, &req)
	if !ok {
		return
	}

	gap, err := h.reportSvc.SchoolGap(c.Request.Context(), c.Param("npsn"), q.Filter)
	if err != nil {
		handleDataError(c, err)
		return
	}
	response.OK(c, gap)
}
