package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"p4-dashboard/config"
	"p4-dashboard/internal/cache"
	"p4-dashboard/internal/model"
	"p4-dashboard/internal/report"
	"p4-dashboard/internal/repository"
)

// ── 数据集模块业务错误 ──

var (
	ErrUnknownSheet      = errors.New("工作表不在配置的类别中")
	ErrRosterUnavailable = errors.New("名册不可用")
)

// DatasetService 载入并缓存规范化后的各张表
//
// 设计说明：
//   - 各类别工作表并行读取，合并后去重
//   - 每张表单独缓存，上传成功后只失效对应类别与合并结果
//   - 缓存只是加速，读失败时错误原样上抛，不影响已缓存的数据
type DatasetService interface {
	// Records 全部类别合并、去重后的参训记录
	Records(ctx context.Context) ([]model.ParticipationRecord, error)
	Schools(ctx context.Context) ([]model.SchoolTarget, error)
	// Roster 名册为空或读取失败时返回 ErrRosterUnavailable
	Roster(ctx context.Context) ([]model.RosterEntry, error)
	// IsCategory 是否为配置的参训类别工作表
	IsCategory(sheet string) bool
	// Invalidate 失效指定类别（为空时失效全部）的缓存，返回被失效的键
	Invalidate(ctx context.Context, sheets ...string) ([]string, error)
	Categories() []string
	Levels() *report.Levels
}

type datasetService struct {
	cfg        *config.SheetsConfig
	repo       *repository.Repository
	tables     *cache.TableCache
	normalizer *report.Normalizer
	logger     *zap.Logger
}

// NewDatasetService 创建 DatasetService 实例
func NewDatasetService(
	cfg *config.Config,
	repo *repository.Repository,
	tables *cache.TableCache,
	logger *zap.Logger,
) DatasetService {
	levels := report.NewLevels(cfg.Report.LevelAliases, cfg.Report.LevelOrder)
	return &datasetService{
		cfg:        &cfg.Sheets,
		repo:       repo,
		tables:     tables,
		normalizer: report.NewNormalizer(levels),
		logger:     logger,
	}
}

func (s *datasetService) Categories() []string {
	return append([]string(nil), s.cfg.ParticipationSheets...)
}

func (s *datasetService) Levels() *report.Levels {
	return s.normalizer.Levels()
}

func (s *datasetService) IsCategory(sheet string) bool {
	for _, c := range s.cfg.ParticipationSheets {
		if c == sheet {
			return true
		}
	}
	return false
}

func (s *datasetService) Records(ctx context.Context) ([]model.ParticipationRecord, error) {
	return cache.GetOrLoad(ctx, s.tables, cache.KeyDataset, s.loadRecords)
}

func (s *datasetService) loadRecords(ctx context.Context) ([]model.ParticipationRecord, error) {
	parts := make([][]model.ParticipationRecord, len(s.cfg.ParticipationSheets))

	g, gctx := errgroup.WithContext(ctx)
	for i, sheet := range s.cfg.ParticipationSheets {
		g.Go(func() error {
			recs, err := cache.GetOrLoad(gctx, s.tables, cache.SheetKey(sheet), func(ctx context.Context) ([]model.ParticipationRecord, error) {
				raw, err := s.repo.Sheets.Read(ctx, sheet)
				if err != nil {
					return nil, err
				}
				return s.normalizer.Participation(raw), nil
			})
			if err != nil {
				s.logger.Error("读取参训工作表失败", zap.String("sheet", sheet), zap.Error(err))
				return err
			}
			parts[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, p := range parts {
		total += len(p)
	}
	all := make([]model.ParticipationRecord, 0, total)
	for _, p := range parts {
		all = append(all, p...)
	}
	deduped := report.Dedupe(all)
	s.logger.Info("参训数据已载入",
		zap.Int("rows", total),
		zap.Int("deduped", len(deduped)),
	)
	return deduped, nil
}

func (s *datasetService) Schools(ctx context.Context) ([]model.SchoolTarget, error) {
	return cache.GetOrLoad(ctx, s.tables, cache.KeySchools, func(ctx context.Context) ([]model.SchoolTarget, error) {
		raw, err := s.repo.Sheets.Read(ctx, s.cfg.SchoolSheet)
		if err != nil {
			s.logger.Error("读取学校参考表失败", zap.Error(err))
			return nil, err
		}
		return s.normalizer.Schools(raw)
	})
}

func (s *datasetService) Roster(ctx context.Context) ([]model.RosterEntry, error) {
	roster, err := cache.GetOrLoad(ctx, s.tables, cache.KeyRoster, func(ctx context.Context) ([]model.RosterEntry, error) {
		raw, err := s.repo.Sheets.Read(ctx, s.cfg.RosterSheet)
		if err != nil {
			return nil, err
		}
		return s.normalizer.Roster(raw)
	})
	if err != nil {
		s.logger.Warn("名册不可用", zap.String("sheet", s.cfg.RosterSheet), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRosterUnavailable, err)
	}
	if len(roster) == 0 {
		return nil, ErrRosterUnavailable
	}
	return roster, nil
}

func (s *datasetService) Invalidate(ctx context.Context, sheets ...string) ([]string, error) {
	var keys []string
	if len(sheets) == 0 {
		for _, sheet := range s.cfg.ParticipationSheets {
			keys = append(keys, cache.SheetKey(sheet))
		}
		keys = append(keys, cache.KeySchools, cache.KeyRoster)
	} else {
		for _, sheet := range sheets {
			if !s.IsCategory(sheet) {
				return nil, ErrUnknownSheet
			}
			keys = append(keys, cache.SheetKey(sheet))
		}
	}
	keys = append(keys, cache.KeyDataset)

	if err := s.tables.Invalidate(ctx, keys...); err != nil {
		return nil, fmt.Errorf("缓存失效失败: %w", err)
	}
	return keys, nil
}
