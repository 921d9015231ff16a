package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"p4-dashboard/internal/report"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// 导出工作表名
const (
	SheetRecommendation = "Rekomendasi"
	SheetRecapByPerson  = "Per Peserta"
	SheetRecapBySchool  = "Per Sekolah"
	SheetRecords        = "Data"
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - 未参训名单：一个工作表，列为 NAMA_SEKOLAH / NPSN / NAMA_PESERTA
//   - 达成情况：按人数、按学校各一个工作表，末行为 TOTAL
//   - 参训记录：规范列顺序（STATUS_SEKOLAH 紧跟 ASAL_SEKOLAH），不含 NO
type ExportService interface {
	// ExportRecommendations npsn 为空时导出全部学校
	ExportRecommendations(ctx context.Context, npsn string, filter report.FilterSpec) (*bytes.Buffer, string, error)
	ExportRecap(ctx context.Context, category string, q RecordQuery) (*bytes.Buffer, string, error)
	ExportRecords(ctx context.Context, q RecordQuery) (*bytes.Buffer, string, error)
}

type exportService struct {
	reports ReportService
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(reports ReportService, logger *zap.Logger) ExportService {
	return &exportService{reports: reports, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportRecommendations — 未参训名单
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportRecommendations(ctx context.Context, npsn string, filter report.FilterSpec) (*bytes.Buffer, string, error) {
	header := []string{report.ColRefSchoolName, report.ColNPSN, report.ColName}
	var rows [][]interface{}

	if npsn != "" {
		gap, err := s.reports.SchoolGap(ctx, npsn, filter)
		if err != nil {
			return nil, "", err
		}
		if gap.Status == report.GapRosterUnavailable {
			return nil, "", ErrRosterUnavailable
		}
		for _, name := range gap.Remaining {
			rows = append(rows, []interface{}{gap.SchoolName, gap.NPSN, name})
		}
	} else {
		gaps, err := s.reports.Gaps(ctx, filter)
		if err != nil {
			return nil, "", err
		}
		if gaps.Status == report.GapRosterUnavailable {
			return nil, "", ErrRosterUnavailable
		}
		for _, e := range gaps.Entries {
			rows = append(rows, []interface{}{e.SchoolName, e.NPSN, e.Name})
		}
	}

	buf, err := s.build([]sheetData{{name: SheetRecommendation, header: header, rows: rows}})
	if err != nil {
		return nil, "", err
	}
	name := "Rekomendasi"
	if npsn != "" {
		name += "_" + report.CanonicalNPSN(npsn)
	}
	return buf, s.filename(name), nil
}

// ═══════════════════════════════════════════════════════════
// ExportRecap — 达成情况
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportRecap(ctx context.Context, category string, q RecordQuery) (*bytes.Buffer, string, error) {
	recap, err := s.reports.Recap(ctx, category, q)
	if err != nil {
		return nil, "", err
	}

	header := []string{report.ColLevel, "TARGET", "TERCAPAI", "PERSENTASE", "KEKURANGAN"}
	toRows := func(rows []report.AchievementRow, total report.AchievementRow) [][]interface{} {
		out := make([][]interface{}, 0, len(rows)+1)
		for _, r := range append(append([]report.AchievementRow(nil), rows...), total) {
			out = append(out, []interface{}{r.Level, r.Target, r.Achieved, r.Percent, r.Shortfall})
		}
		return out
	}

	buf, err := s.build([]sheetData{
		{name: SheetRecapByPerson, header: header, rows: toRows(recap.ByParticipant, recap.ParticipantTotal)},
		{name: SheetRecapBySchool, header: header, rows: toRows(recap.BySchool, recap.SchoolTotal)},
	})
	if err != nil {
		return nil, "", err
	}
	return buf, s.filename("Rekap_" + string(recap.Category)), nil
}

// ═══════════════════════════════════════════════════════════
// ExportRecords — 参训记录
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportRecords(ctx context.Context, q RecordQuery) (*bytes.Buffer, string, error) {
	recs, err := s.reports.Records(ctx, q)
	if err != nil {
		return nil, "", err
	}

	header := append(append([]string(nil), report.ParticipationColumns...), report.ColCategory)
	rows := make([][]interface{}, 0, len(recs))
	for i := range recs {
		r := &recs[i]
		rows = append(rows, []interface{}{
			r.Name, r.NPSN, r.SchoolName, r.SchoolStatus, r.Level,
			r.District, r.TrainingName, r.TrainingType, report.FormatDate(r.Date), r.Category,
		})
	}

	buf, err := s.build([]sheetData{{name: SheetRecords, header: header, rows: rows}})
	if err != nil {
		return nil, "", err
	}
	return buf, s.filename("Data_Peserta"), nil
}

// ── 工作簿生成 ──

type sheetData struct {
	name   string
	header []string
	rows   [][]interface{}
}

func (s *exportService) build(sheets []sheetData) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, sh := range sheets {
		if i == 0 {
			// 复用默认工作表，避免留下空的 Sheet1
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return nil, s.fail(err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return nil, s.fail(err)
		}

		if err := f.SetSheetRow(sh.name, "A1", &sh.header); err != nil {
			return nil, s.fail(err)
		}
		last, _ := excelize.CoordinatesToCellName(len(sh.header), 1)
		_ = f.SetCellStyle(sh.name, "A1", last, headerStyle)

		for r, row := range sh.rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(sh.name, cell, &row); err != nil {
				return nil, s.fail(err)
			}
		}

		lastCol, _ := excelize.ColumnNumberToName(len(sh.header))
		_ = f.SetColWidth(sh.name, "A", lastCol, 22)
		_ = f.SetPanes(sh.name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	}
	f.SetActiveSheet(0)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, s.fail(err)
	}
	return buf, nil
}

func (s *exportService) fail(err error) error {
	s.logger.Error("写入 Excel 失败", zap.Error(err))
	return fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
}

func (s *exportService) filename(base string) string {
	return fmt.Sprintf("%s_%s.xlsx", base, s.now().Format("20060102"))
}
