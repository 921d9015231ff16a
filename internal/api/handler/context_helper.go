package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"p4-dashboard/internal/dto"
	"p4-dashboard/internal/report"
	"p4-dashboard/internal/service"
	apperrors "p4-dashboard/pkg/errors"
	"p4-dashboard/pkg/jwt"
	"p4-dashboard/pkg/response"
)

// 上下文键，由 middleware.JWTAuth 写入
const (
	ContextUsername = "username"
	ContextClaims   = "claims"
)

// MustGetUsername 从 Gin 上下文中安全提取当前操作员用户名。
// 如果 JWT 中间件未正确注入，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUsername(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextUsername)
	if !exists {
		response.Unauthorized(c, 10002, "Belum login")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "Belum login")
		return "", false
	}
	return s, true
}

// MustGetClaims 提取完整的 Token Claims（注销时需要 jti 与过期时间）
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(ContextClaims)
	claims, ok := v.(*jwt.Claims)
	if !exists || !ok || claims == nil {
		response.Unauthorized(c, 10002, "Belum login")
		return nil, false
	}
	return claims, true
}

// bindRecordQuery 把筛选查询参数转换为 RecordQuery；失败时写入 400
func bindRecordQuery(c *gin.Context, q *dto.FilterQuery) (service.RecordQuery, bool) {
	filter, search, err := q.Spec()
	if err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "Format tanggal tidak valid", err.Error())
		return service.RecordQuery{}, false
	}
	return service.RecordQuery{Filter: filter, Search: search}, true
}

// handleDataError 数据读取类错误的统一映射
func handleDataError(c *gin.Context, err error) {
	var mce *report.MissingColumnsError
	switch {
	case errors.As(err, &mce):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 12004, "Kolom wajib tidak ditemukan", gin.H{
			"table":   mce.Table,
			"columns": mce.Columns,
		})
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		response.BadGateway(c, 12001, "Gagal membaca data dari Google Sheets")
	case errors.Is(err, service.ErrUnknownCategory):
		response.BadRequest(c, 12002, "Kategori tidak dikenal")
	case errors.Is(err, service.ErrUnknownSheet):
		response.BadRequest(c, 12005, "Sheet tidak termasuk kategori pelatihan")
	case errors.Is(err, service.ErrSchoolNotFound):
		response.NotFound(c, 12003, "Sekolah tidak ditemukan")
	default:
		response.InternalError(c)
	}
}
