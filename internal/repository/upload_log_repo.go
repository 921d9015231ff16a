package repository

import (
	"context"

	"gorm.io/gorm"

	"p4-dashboard/internal/model"
)

// UploadLogFilter 审计日志查询条件
type UploadLogFilter struct {
	Category string
	Status   string
	Offset   int
	Limit    int
}

// UploadLogRepository 上传审计数据访问接口
type UploadLogRepository interface {
	Create(ctx context.Context, log *model.UploadLog) error
	List(ctx context.Context, filter UploadLogFilter) ([]model.UploadLog, int64, error)
}

// uploadLogRepo UploadLogRepository 的 GORM 实现
type uploadLogRepo struct {
	db *gorm.DB
}

// NewUploadLogRepo 创建 UploadLogRepository 实例
func NewUploadLogRepo(db *gorm.DB) UploadLogRepository {
	return &uploadLogRepo{db: db}
}

func (r *uploadLogRepo) Create(ctx context.Context, log *model.UploadLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *uploadLogRepo) List(ctx context.Context, filter UploadLogFilter) ([]model.UploadLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.UploadLog{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []model.UploadLog
	err := query.
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&logs).Error
	return logs, total, err
}
