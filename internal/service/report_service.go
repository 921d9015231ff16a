package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"p4-dashboard/internal/model"
	"p4-dashboard/internal/report"
)

// ── 报表模块业务错误 ──

var (
	ErrUnknownCategory = errors.New("未知的培训类别")
	ErrSchoolNotFound  = errors.New("学校不存在")
)

// RecordQuery 参训记录查询条件
type RecordQuery struct {
	Filter report.FilterSpec
	Search report.SearchSpec
}

// ReportService 仪表盘各页面的只读报表
type ReportService interface {
	// Records 筛选 + 检索后的参训记录，保持原始顺序
	Records(ctx context.Context, q RecordQuery) ([]model.ParticipationRecord, error)
	Summary(ctx context.Context, q RecordQuery) (report.Summary, error)
	Options(ctx context.Context) (map[report.Field][]string, error)
	// Recap 指定类别的达成情况；筛选条件先作用于记录，再限定为该类别
	Recap(ctx context.Context, category string, q RecordQuery) (*report.Recap, error)
	// Gaps 名册中尚未参训的人员；筛选条件只作用于已参训集合
	Gaps(ctx context.Context, filter report.FilterSpec) (*report.GapReport, error)
	SchoolGap(ctx context.Context, npsn string, filter report.FilterSpec) (*report.SchoolGap, error)
	Schools(ctx context.Context) ([]model.SchoolTarget, error)
}

type reportService struct {
	data   DatasetService
	logger *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(data DatasetService, logger *zap.Logger) ReportService {
	return &reportService{data: data, logger: logger}
}

func (s *reportService) Records(ctx context.Context, q RecordQuery) ([]model.ParticipationRecord, error) {
	recs, err := s.data.Records(ctx)
	if err != nil {
		return nil, err
	}
	return report.Apply(recs, q.Filter.CanonicalLevels(s.data.Levels()), q.Search), nil
}

func (s *reportService) Summary(ctx context.Context, q RecordQuery) (report.Summary, error) {
	recs, err := s.Records(ctx, q)
	if err != nil {
		return report.Summary{}, err
	}
	return report.Summarize(recs), nil
}

func (s *reportService) Options(ctx context.Context) (map[report.Field][]string, error) {
	recs, err := s.data.Records(ctx)
	if err != nil {
		return nil, err
	}
	return report.Options(recs, s.data.Levels()), nil
}

func (s *reportService) Recap(ctx context.Context, category string, q RecordQuery) (*report.Recap, error) {
	cat, ok := report.ParseCategory(category)
	if !ok {
		return nil, ErrUnknownCategory
	}

	schools, err := s.data.Schools(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.Records(ctx, q)
	if err != nil {
		return nil, err
	}

	inCategory := make([]model.ParticipationRecord, 0, len(recs))
	for _, r := range recs {
		if c, ok := report.ParseCategory(r.Category); ok && c == cat {
			inCategory = append(inCategory, r)
		}
	}

	recap := report.Aggregate(inCategory, report.ResolveTargets(schools, cat, s.data.Levels()))
	return &recap, nil
}

// roster 名册不可用时返回 nil，由 Gap 计算报告 roster_unavailable
func (s *reportService) roster(ctx context.Context) ([]model.RosterEntry, error) {
	roster, err := s.data.Roster(ctx)
	if errors.Is(err, ErrRosterUnavailable) {
		return nil, nil
	}
	return roster, err
}

func (s *reportService) Gaps(ctx context.Context, filter report.FilterSpec) (*report.GapReport, error) {
	roster, err := s.roster(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.data.Records(ctx)
	if err != nil {
		return nil, err
	}
	schools, err := s.schoolsForJoin(ctx)
	if err != nil {
		return nil, err
	}

	gaps := report.ResolveGaps(roster, report.Filter(recs, filter.CanonicalLevels(s.data.Levels())), schools)
	return &gaps, nil
}

func (s *reportService) SchoolGap(ctx context.Context, npsn string, filter report.FilterSpec) (*report.SchoolGap, error) {
	if report.CanonicalNPSN(npsn) == "" {
		return nil, ErrSchoolNotFound
	}
	roster, err := s.roster(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.data.Records(ctx)
	if err != nil {
		return nil, err
	}
	schools, err := s.schoolsForJoin(ctx)
	if err != nil {
		return nil, err
	}

	gap := report.ResolveSchoolGap(npsn, roster, report.Filter(recs, filter.CanonicalLevels(s.data.Levels())), schools)
	return &gap, nil
}

// schoolsForJoin 学校名只是左连接补充信息，参考表缺列时不阻断未参训名单
func (s *reportService) schoolsForJoin(ctx context.Context) ([]model.SchoolTarget, error) {
	schools, err := s.data.Schools(ctx)
	var mce *report.MissingColumnsError
	if errors.As(err, &mce) {
		s.logger.Warn("学校参考表缺少必需列，学校名留空", zap.Strings("columns", mce.Columns))
		return nil, nil
	}
	return schools, err
}

func (s *reportService) Schools(ctx context.Context) ([]model.SchoolTarget, error) {
	schools, err := s.data.Schools(ctx)
	if err != nil {
		return nil, err
	}
	out := append([]model.SchoolTarget(nil), schools...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
