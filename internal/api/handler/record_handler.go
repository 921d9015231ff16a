package handler

import (
	"github.com/gin-gonic/gin"

	"p4-dashboard/internal/dto"
	"p4-dashboard/internal/service"
	"p4-dashboard/pkg/response"
)

// RecordHandler 参训数据页 HTTP 处理器
type RecordHandler struct {
	reportSvc  service.ReportService
	datasetSvc service.DatasetService
}

// NewRecordHandler 创建 RecordHandler
func NewRecordHandler(reportSvc service.ReportService, datasetSvc service.DatasetService) *RecordHandler {
	return &RecordHandler{reportSvc: reportSvc, datasetSvc: datasetSvc}
}

// ListRecords 筛选 + 检索后的参训记录（分页），附带同口径汇总
// GET /api/v1/records
func (h *RecordHandler) ListRecords(c *gin.Context) {
	var req dto.RecordListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Parameter tidak valid")
		return
	}
	q, ok := bindRecordQuery(c, &req.FilterQuery)
	if !ok {
		return
	}

	recs, err := h.reportSvc.Records(c.Request.Context(), q)
	if err != nil {
		handleDataError(c, err)
		return
	}

	page := dto.Paginate(recs, &req.PaginationRequest)
	list := make([]dto.RecordResponse, 0, len(page))
	for i := range page {
		list = append(list, dto.NewRecordResponse(&page[i]))
	}
	response.OKPage(c, list, len(recs), req.GetPage(), req.GetPageSize(), nil)
}

// Summary 数据页汇总（Kesimpulan）
// GET /api/v1/records/summary
func (h *RecordHandler) Summary(c *gin.Context) {
	var req dto.FilterQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Parameter tidak valid")
		return
	}
	q, ok := bindRecordQuery(c, &req)
	if !ok {
		return
	}

	sum, err := h.reportSvc.Summary(c.Request.Context(), q)
	if err != nil {
		handleDataError(c, err)
		return
	}
	response.OK(c, sum)
}

// Options 各筛选字段的可选值
// GET /api/v1/records/options
func (h *RecordHandler) Options(c *gin.Context) {
	opts, err := h.reportSvc.Options(c.Request.Context())
	if err != nil {
		handleDataError(c, err)
		return
	}
	response.OK(c, dto.OptionsResponse(opts))
}

// Refresh 显式刷新：失效指定类别（?sheet= 可重复）或全部缓存
// POST /api/v1/records/refresh
func (h *RecordHandler) Refresh(c *gin.Context) {
	keys, err := h.datasetSvc.Invalidate(c.Request.Context(), c.QueryArray("sheet")...)
	if err != nil {
		handleDataError(c, err)
		return
	}
	response.OK(c, dto.RefreshResponse{Invalidated: keys})
}
