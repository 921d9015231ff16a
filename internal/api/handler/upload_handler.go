package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"p4-dashboard/internal/dto"
	"p4-dashboard/internal/service"
	"p4-dashboard/pkg/response"
)

// UploadHandler 上传模块 HTTP 处理器
type UploadHandler struct {
	uploadSvc service.UploadService
	maxBytes  int64
}

// NewUploadHandler 创建 UploadHandler；maxBytes 为单个文件的大小上限
func NewUploadHandler(uploadSvc service.UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploadSvc: uploadSvc, maxBytes: maxBytes}
}

// Upload 上传 csv / xlsx 并追加到对应类别工作表；dry_run=true 时只返回对齐后的预览
// POST /api/v1/uploads  (multipart: file, category, dry_run)
func (h *UploadHandler) Upload(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var req dto.UploadRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "Kategori wajib diisi")
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 13005, "File wajib diunggah")
		return
	}
	if fh.Size > h.maxBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005,
			fmt.Sprintf("Ukuran file melebihi %d MB", h.maxBytes>>20))
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 13003, "File tidak dapat dibaca")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		response.BadRequest(c, 13003, "File tidak dapat dibaca")
		return
	}

	result, err := h.uploadSvc.Upload(c.Request.Context(), &service.UploadInput{
		Category:   req.Category,
		Filename:   fh.Filename,
		Data:       data,
		DryRun:     req.DryRun,
		UploadedBy: username,
	})
	if err != nil {
		h.handleUploadError(c, err)
		return
	}

	if result.DryRun {
		response.OK(c, result)
		return
	}
	response.Created(c, result)
}

// ListLogs 上传审计日志
// GET /api/v1/uploads
func (h *UploadHandler) ListLogs(c *gin.Context) {
	var req dto.UploadLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Parameter tidak valid")
		return
	}

	logs, total, err := h.uploadSvc.ListLogs(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, logs, int(total), req.GetPage(), req.GetPageSize(), nil)
}

func (h *UploadHandler) handleUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnsupportedFile):
		response.BadRequest(c, 13001, "Hanya file .csv atau .xlsx yang didukung")
	case errors.Is(err, service.ErrEmptyUpload):
		response.BadRequest(c, 13002, "File tidak berisi data")
	case errors.Is(err, service.ErrUploadParse):
		response.BadRequest(c, 13003, "File tidak dapat dibaca")
	default:
		if mce, ok := service.IsDataShapeError(err); ok {
			response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 13004,
				"Kolom berikut tidak ditemukan di file: "+strings.Join(mce.Columns, ", "),
				gin.H{"table": mce.Table, "columns": mce.Columns})
			return
		}
		handleDataError(c, err)
	}
}
