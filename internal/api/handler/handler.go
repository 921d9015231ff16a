package handler

import "p4-dashboard/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth    *AuthHandler
	Record  *RecordHandler
	Report  *ReportHandler
	Upload  *UploadHandler
	Export  *ExportHandler
	Session *SessionHandler
	Health  *HealthHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, uploadMaxBytes int64, checks map[string]HealthCheck) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(svc.Auth),
		Record:  NewRecordHandler(svc.Report, svc.Dataset),
		Report:  NewReportHandler(svc.Report),
		Upload:  NewUploadHandler(svc.Upload, uploadMaxBytes),
		Export:  NewExportHandler(svc.Export),
		Session: NewSessionHandler(svc.Session),
		Health:  NewHealthHandler(checks),
	}
}
