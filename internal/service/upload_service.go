package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"p4-dashboard/internal/dto"
	"p4-dashboard/internal/model"
	"p4-dashboard/internal/report"
	"p4-dashboard/internal/repository"
	"p4-dashboard/pkg/metrics"
)

// UploadInput 一次上传
type UploadInput struct {
	Category   string
	Filename   string
	Data       []byte
	DryRun     bool
	UploadedBy string
}

// UploadService 上传业务接口
//
// 流程：
//  1. 解析文件（csv 默认分号分隔，xlsx 取第一个工作表）
//  2. 列集合校验：必需列 ∪ 目标工作表现有列（不含 NO），缺任何一列整体拒绝，不写入
//  3. 按目标表头对齐，NO 续编，TANGGAL 统一为 2006-01-02
//  4. 追加写入 → 失效缓存 → 写审计日志
type UploadService interface {
	Upload(ctx context.Context, in *UploadInput) (*dto.UploadResponse, error)
	ListLogs(ctx context.Context, req *dto.UploadLogListRequest) ([]model.UploadLog, int64, error)
}

type uploadService struct {
	repo   *repository.Repository
	data   DatasetService
	logger *zap.Logger
	now    func() time.Time
}

// NewUploadService 创建 UploadService 实例
func NewUploadService(repo *repository.Repository, data DatasetService, logger *zap.Logger) UploadService {
	return &uploadService{repo: repo, data: data, logger: logger, now: time.Now}
}

func (s *uploadService) Upload(ctx context.Context, in *UploadInput) (*dto.UploadResponse, error) {
	if !s.data.IsCategory(in.Category) {
		return nil, ErrUnknownSheet
	}

	resp, err := s.upload(ctx, in)
	switch {
	case in.DryRun:
		// 预览不写审计
	case err != nil:
		metrics.Uploads.WithLabelValues(in.Category, model.UploadStatusFailed).Inc()
		s.audit(ctx, in, uuid.New().String(), 0, model.UploadStatusFailed, err.Error())
	default:
		metrics.Uploads.WithLabelValues(in.Category, model.UploadStatusSuccess).Inc()
		metrics.UploadedRows.WithLabelValues(in.Category).Add(float64(resp.RowCount))
		s.audit(ctx, in, resp.UploadID, resp.RowCount, model.UploadStatusSuccess, "")
	}
	return resp, err
}

func (s *uploadService) upload(ctx context.Context, in *UploadInput) (*dto.UploadResponse, error) {
	// 1. 解析文件
	raw, err := parseUpload(in.Filename, in.Data)
	if err != nil {
		return nil, err
	}

	// 2. 读取目标工作表的现有表头与行数
	existing, err := s.repo.Sheets.Read(ctx, in.Category)
	if err != nil {
		s.logger.Error("读取目标工作表失败", zap.String("sheet", in.Category), zap.Error(err))
		return nil, err
	}

	// 3. 列集合校验
	if missing := report.MissingColumns(raw.Header, requiredColumns(existing.Header)); len(missing) > 0 {
		s.logger.Warn("上传文件缺少必需列",
			zap.String("filename", in.Filename),
			zap.Strings("missing", missing),
		)
		return nil, &report.MissingColumnsError{Table: in.Filename, Columns: missing}
	}

	// 4. 对齐到目标表头
	header := existing.Header
	if len(header) == 0 {
		header = uploadHeader(raw.Header)
	}
	rows := alignRows(header, raw, existingDataRows(existing))
	if len(rows) == 0 {
		return nil, ErrEmptyUpload
	}

	resp := &dto.UploadResponse{
		Category: in.Category,
		Filename: in.Filename,
		RowCount: len(rows),
		DryRun:   in.DryRun,
		Header:   header,
	}
	if in.DryRun {
		resp.Rows = rows
		return resp, nil
	}

	// 5. 写入
	if err := s.repo.Sheets.Append(ctx, in.Category, header, rows); err != nil {
		s.logger.Error("写入工作表失败", zap.String("sheet", in.Category), zap.Error(err))
		return nil, err
	}
	resp.UploadID = uuid.New().String()

	// 6. 失效缓存；失败只记录日志，下次刷新时仍会重新加载
	if _, err := s.data.Invalidate(ctx, in.Category); err != nil {
		s.logger.Warn("上传后失效缓存失败", zap.String("sheet", in.Category), zap.Error(err))
	}

	s.logger.Info("上传成功",
		zap.String("upload_id", resp.UploadID),
		zap.String("sheet", in.Category),
		zap.Int("rows", resp.RowCount),
		zap.String("uploaded_by", in.UploadedBy),
	)
	return resp, nil
}

func (s *uploadService) audit(ctx context.Context, in *UploadInput, id string, rows int, status, message string) {
	log := &model.UploadLog{
		UploadID:   id,
		Category:   in.Category,
		Filename:   in.Filename,
		RowCount:   rows,
		UploadedBy: in.UploadedBy,
		Status:     status,
		Message:    message,
		CreatedAt:  s.now(),
	}
	if err := s.repo.UploadLog.Create(ctx, log); err != nil {
		s.logger.Error("写入上传审计日志失败", zap.String("upload_id", id), zap.Error(err))
	}
}

func (s *uploadService) ListLogs(ctx context.Context, req *dto.UploadLogListRequest) ([]model.UploadLog, int64, error) {
	logs, total, err := s.repo.UploadLog.List(ctx, repository.UploadLogFilter{
		Category: req.Category,
		Status:   req.Status,
		Offset:   req.GetOffset(),
		Limit:    req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("查询上传审计日志失败", zap.Error(err))
		return nil, 0, err
	}
	return logs, total, nil
}

// ── 对齐规则 ──

// requiredColumns 必需列 ∪ 目标工作表现有列（不含 NO 与空列名）
func requiredColumns(sheetHeader []string) []string {
	required := append([]string(nil), report.RequiredUploadColumns...)
	seen := make(map[string]struct{}, len(required)+len(sheetHeader))
	for _, c := range required {
		seen[c] = struct{}{}
	}
	for _, h := range sheetHeader {
		key := report.ParticipationColumnKey(h)
		if key == "" || key == report.ColNo {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		required = append(required, key)
	}
	return required
}

// uploadHeader 目标工作表为空时使用的表头：NO + 上传文件的列（规范列名）
func uploadHeader(raw []string) []string {
	header := []string{report.ColNo}
	seen := map[string]struct{}{report.ColNo: {}}
	for _, h := range raw {
		key := report.ParticipationColumnKey(h)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		header = append(header, key)
	}
	return header
}

// existingDataRows 现有非空数据行数，用于 NO 续编
func existingDataRows(t report.RawTable) int {
	n := 0
	for _, row := range t.Rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				n++
				break
			}
		}
	}
	return n
}

// alignRows 按目标表头重排上传行；跳过空行
func alignRows(header []string, raw report.RawTable, startNo int) [][]string {
	src := make(map[string]int, len(raw.Header))
	for i, h := range raw.Header {
		key := report.ParticipationColumnKey(h)
		if _, dup := src[key]; !dup && key != "" {
			src[key] = i
		}
	}

	var out [][]string
	no := startNo
	for _, row := range raw.Rows {
		blank := true
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				blank = false
				break
			}
		}
		if blank {
			continue
		}
		no++

		aligned := make([]string, len(header))
		for j, h := range header {
			key := report.ParticipationColumnKey(h)
			if key == report.ColNo {
				aligned[j] = strconv.Itoa(no)
				continue
			}
			i, ok := src[key]
			if !ok || i >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[i])
			if key == report.ColDate {
				if d, ok := report.ParseDate(v); ok {
					v = report.FormatDate(d)
				}
			}
			aligned[j] = v
		}
		out = append(out, aligned)
	}
	return out
}

// IsDataShapeError 是否为缺列等数据形状错误
func IsDataShapeError(err error) (*report.MissingColumnsError, bool) {
	var mce *report.MissingColumnsError
	if errors.As(err, &mce) {
		return mce, true
	}
	return nil, false
}
