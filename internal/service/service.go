package service

import (
	"go.uber.org/zap"

	"p4-dashboard/config"
	"p4-dashboard/internal/cache"
	"p4-dashboard/internal/repository"
	"p4-dashboard/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth    AuthService
	Dataset DatasetService
	Report  ReportService
	Upload  UploadService
	Export  ExportService
	Session SessionService
}

// NewService 创建 Service 聚合
//
// kv 同时承载表缓存与会话；blacklist 通常为 Redis，Redis 不可用时由调用方换成 NewStoreBlacklist(kv)
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	kv cache.Store,
	blacklist TokenBlacklist,
	jwtMgr *jwt.Manager,
	logger *zap.Logger,
) *Service {
	tables := cache.New(kv, cfg.Cache.TTL, logger)
	dataset := NewDatasetService(cfg, repo, tables, logger)
	reports := NewReportService(dataset, logger)

	return &Service{
		Auth:    NewAuthService(&cfg.Auth, jwtMgr, blacklist, logger),
		Dataset: dataset,
		Report:  reports,
		Upload:  NewUploadService(repo, dataset, logger),
		Export:  NewExportService(reports, logger),
		Session: NewSessionService(kv, cfg.Auth.AccessTokenTTL, logger),
	}
}
