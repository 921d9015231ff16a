package dto

// ── 上传模块 DTO ──

// UploadRequest multipart 表单中除文件外的字段
type UploadRequest struct {
	Category string `form:"category" binding:"required,max=64"`
	DryRun   bool   `form:"dry_run"`
}

// UploadResponse 上传结果；DryRun 时 Rows 为按工作表表头对齐后的预览
type UploadResponse struct {
	UploadID string     `json:"upload_id,omitempty"`
	Category string     `json:"category"`
	Filename string     `json:"filename"`
	RowCount int        `json:"row_count"`
	DryRun   bool       `json:"dry_run"`
	Header   []string   `json:"header"`
	Rows     [][]string `json:"rows,omitempty"`
}

// UploadLogListRequest 上传审计日志查询
type UploadLogListRequest struct {
	PaginationRequest
	Category string `form:"category" binding:"omitempty,max=64"`
	Status   string `form:"status"   binding:"omitempty,oneof=success failed"`
}
