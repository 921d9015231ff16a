package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Sheets    SheetRepository
	UploadLog UploadLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(store TableStore, db *gorm.DB) *Repository {
	return &Repository{
		Sheets:    NewSheetRepo(store),
		UploadLog: NewUploadLogRepo(db),
	}
}
