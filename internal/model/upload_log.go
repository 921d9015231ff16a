package model

import "time"

// 上传审计状态
const (
	UploadStatusSuccess = "success"
	UploadStatusFailed  = "failed"
)

// UploadLog 上传审计表 — 对应 upload_logs
type UploadLog struct {
	UploadID   string    `gorm:"type:uuid;primaryKey"                       json:"upload_id"`
	Category   string    `gorm:"type:varchar(50);not null"                  json:"category"`
	Filename   string    `gorm:"type:varchar(255);not null"                 json:"filename"`
	RowCount   int       `gorm:"not null;default:0"                         json:"row_count"`
	UploadedBy string    `gorm:"type:varchar(100);not null"                 json:"uploaded_by"`
	Status     string    `gorm:"type:varchar(20);not null"                  json:"status"`
	Message    string    `gorm:"type:text"                                  json:"message,omitempty"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"         json:"created_at"`
}

// TableName 指定表名
func (UploadLog) TableName() string { return "upload_logs" }
