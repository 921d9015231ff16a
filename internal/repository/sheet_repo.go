package repository

import (
	"context"
	"fmt"
	"time"

	"p4-dashboard/internal/report"
	apperrors "p4-dashboard/pkg/errors"
	"p4-dashboard/pkg/metrics"
	"p4-dashboard/pkg/sheets"
)

// TableStore 外部表格存储（*sheets.Client 实现）
type TableStore interface {
	ReadAll(ctx context.Context, sheet string) (*sheets.Table, error)
	Replace(ctx context.Context, sheet string, header []string, rows [][]string) error
	Append(ctx context.Context, sheet string, rows [][]string) error
}

// SheetRepository 工作表数据访问接口
// 所有错误都包装了 apperrors.ErrStoreUnavailable，不做重试
type SheetRepository interface {
	Read(ctx context.Context, sheet string) (report.RawTable, error)
	// Append 追加数据行；工作表为空时改为写入 header + rows
	Append(ctx context.Context, sheet string, header []string, rows [][]string) error
}

// sheetRepo SheetRepository 的 Google Sheets 实现
type sheetRepo struct {
	store TableStore
}

// NewSheetRepo 创建 SheetRepository 实例
func NewSheetRepo(store TableStore) SheetRepository {
	return &sheetRepo{store: store}
}

func (r *sheetRepo) Read(ctx context.Context, sheet string) (report.RawTable, error) {
	start := time.Now()
	t, err := r.store.ReadAll(ctx, sheet)
	metrics.SheetLoadLatency.WithLabelValues(sheet).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SheetLoads.WithLabelValues(sheet, metrics.ResultError).Inc()
		return report.RawTable{}, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	metrics.SheetLoads.WithLabelValues(sheet, metrics.ResultOK).Inc()
	return report.RawTable{Name: sheet, Header: t.Header, Rows: t.Rows}, nil
}

func (r *sheetRepo) Append(ctx context.Context, sheet string, header []string, rows [][]string) error {
	existing, err := r.store.ReadAll(ctx, sheet)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	if len(existing.Header) == 0 {
		err = r.store.Replace(ctx, sheet, header, rows)
	} else {
		err = r.store.Append(ctx, sheet, rows)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return nil
}
