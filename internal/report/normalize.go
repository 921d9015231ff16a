package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"p4-dashboard/internal/model"
)

// RawTable 外部存储返回的原始表：首行为表头，其余为字符串单元格
type RawTable struct {
	Name   string     `json:"name"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Normalizer 记录规范化器
type Normalizer struct {
	levels *Levels
}

// NewNormalizer 创建规范化器；levels 为 nil 时使用默认口径
func NewNormalizer(levels *Levels) *Normalizer {
	if levels == nil {
		levels = DefaultLevels()
	}
	return &Normalizer{levels: levels}
}

// Levels 返回当前使用的 JENJANG 口径
func (n *Normalizer) Levels() *Levels { return n.levels }

// Participation 把一个或多个类别工作表合并为规范化的参与记录序列。
// 每条记录的 Category 取自来源表名，与表内 PELATIHAN 列无关。
func (n *Normalizer) Participation(tables ...RawTable) []model.ParticipationRecord {
	total := 0
	for _, t := range tables {
		total += len(t.Rows)
	}
	out := make([]model.ParticipationRecord, 0, total)

	for _, t := range tables {
		idx := indexColumns(t.Header, participationAliases)
		for _, row := range t.Rows {
			if blankRow(row) {
				continue
			}
			date, _ := ParseDate(idx.cell(row, ColDate))
			out = append(out, model.ParticipationRecord{
				Name:         collapseSpaces(idx.cell(row, ColName)),
				NPSN:         CanonicalNPSN(idx.cell(row, ColNPSN)),
				SchoolName:   collapseSpaces(idx.cell(row, ColSchoolName)),
				SchoolStatus: orUnknown(idx.cell(row, ColSchoolStatus)),
				Level:        n.levels.Canonical(idx.cell(row, ColLevel)),
				District:     orUnknown(idx.cell(row, ColDistrict)),
				TrainingName: collapseSpaces(idx.cell(row, ColTrainingName)),
				TrainingType: orUnknown(idx.cell(row, ColTrainingType)),
				Date:         date,
				Category:     t.Name,
			})
		}
	}
	return out
}

// ToRawTable 按规范列顺序渲染记录；对结果再次规范化不会改变记录
func ToRawTable(name string, records []model.ParticipationRecord) RawTable {
	header := append([]string(nil), ParticipationColumns...)
	rows := make([][]string, 0, len(records))
	for i := range records {
		r := &records[i]
		rows = append(rows, []string{
			r.Name, r.NPSN, r.SchoolName, r.SchoolStatus, r.Level,
			r.District, r.TrainingName, r.TrainingType, FormatDate(r.Date),
		})
	}
	return RawTable{Name: name, Header: header, Rows: rows}
}

// Dedupe 按自然键 (姓名, NPSN, 培训名称, 日期) 去重，保留首次出现
func Dedupe(records []model.ParticipationRecord) []model.ParticipationRecord {
	type key struct {
		name, npsn, training string
		date                 time.Time
	}
	seen := make(map[key]struct{}, len(records))
	out := make([]model.ParticipationRecord, 0, len(records))
	for _, r := range records {
		k := key{NameKey(r.Name), r.NPSN, strings.ToUpper(r.TrainingName), r.Date}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Schools 规范化学校参考表。缺少 NPSN / JENJANG 列时返回 *MissingColumnsError；
// 同一 NPSN 只保留第一条，编制人数无法解析时按 0 处理。
func (n *Normalizer) Schools(t RawTable) ([]model.SchoolTarget, error) {
	idx := indexColumns(t.Header, schoolAliases)
	if missing := idx.missing([]string{ColNPSN, ColLevel}); len(missing) > 0 {
		return nil, &MissingColumnsError{Table: t.Name, Columns: missing}
	}

	seen := make(map[string]struct{}, len(t.Rows))
	out := make([]model.SchoolTarget, 0, len(t.Rows))
	for _, row := range t.Rows {
		if blankRow(row) {
			continue
		}
		npsn := CanonicalNPSN(idx.cell(row, ColNPSN))
		if npsn != "" {
			if _, dup := seen[npsn]; dup {
				continue
			}
			seen[npsn] = struct{}{}
		}
		out = append(out, model.SchoolTarget{
			NPSN:              npsn,
			Name:              collapseSpaces(idx.cell(row, ColRefSchoolName)),
			Level:             n.levels.Canonical(idx.cell(row, ColLevel)),
			District:          collapseSpaces(idx.cell(row, ColDistrict)),
			Regency:           collapseSpaces(idx.cell(row, ColRegency)),
			Status:            collapseSpaces(idx.cell(row, ColStatus)),
			PrincipalCount:    ParseCount(idx.cell(row, ColPrincipal)),
			SupportStaffCount: ParseCount(idx.cell(row, ColSupportStaff)),
			TeacherCount:      ParseCount(idx.cell(row, ColTeacher)),
		})
	}
	return out, nil
}

// Roster 规范化 Dapodik 名册；姓名为空的行被丢弃
func (n *Normalizer) Roster(t RawTable) ([]model.RosterEntry, error) {
	idx := indexColumns(t.Header, rosterAliases)
	if missing := idx.missing([]string{ColNPSN, ColRosterName}); len(missing) > 0 {
		return nil, &MissingColumnsError{Table: t.Name, Columns: missing}
	}

	out := make([]model.RosterEntry, 0, len(t.Rows))
	for _, row := range t.Rows {
		name := collapseSpaces(idx.cell(row, ColRosterName))
		if name == "" {
			continue
		}
		out = append(out, model.RosterEntry{
			NPSN: CanonicalNPSN(idx.cell(row, ColNPSN)),
			Name: name,
		})
	}
	return out, nil
}

// ── 单元格解析 ──

// CanonicalNPSN 把 NPSN 统一为字符串形式：去掉文本前缀、数值渲染产生的 ".0"
// 和科学计数法；"0" 或空值视为未知学校，返回空串
func CanonicalNPSN(raw string) string {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "'"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
			s = strconv.FormatFloat(f, 'f', 0, 64)
		}
	}
	if head, tail, ok := strings.Cut(s, "."); ok && strings.Trim(tail, "0") == "" && isDigits(head) {
		s = head
	}
	if strings.Trim(s, "0") == "" {
		return ""
	}
	return s
}

// ParseCount 解析编制人数；空值、负数或无法解析时返回 0
func ParseCount(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return max(n, 0)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return int(f)
	}
	return 0
}

// 日-月-年优先；ISO 形式无歧义，放在后面兜底
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2-1-2006 15:04:05",
	"2006-1-2",
	"2006/1/2",
	"2006-1-2 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2 January 2006",
	"2 Jan 2006",
}

var indonesianMonths = strings.NewReplacer(
	"Januari", "January", "Februari", "February", "Maret", "March",
	"Mei", "May", "Juni", "June", "Juli", "July", "Agustus", "August",
	"Oktober", "October", "Desember", "December", "Agu", "Aug",
	"Okt", "Oct", "Des", "Dec",
)

// 表格序列日期的合理区间（约 1954 ~ 2119 年），避免把普通数字误判为日期
const (
	minSerialDate = 20000
	maxSerialDate = 80000
)

// ParseDate 按"日在前"的约定解析日期，返回当天 00:00 UTC。
// 无法解析时返回零值与 false，不会报错。
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < minSerialDate || f > maxSerialDate {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, false
		}
		return dateOnly(t), true
	}

	s = indonesianMonths.Replace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

// FormatDate 渲染为 2006-01-02；无效日期返回空串
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func orUnknown(s string) string {
	s = collapseSpaces(s)
	if s == "" {
		return UnknownValue
	}
	return s
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
