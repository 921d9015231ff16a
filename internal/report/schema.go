// Package report 实现仪表盘的纯计算核心：
// 记录规范化、筛选、目标口径、达成率汇总与未参训名单。
// 本包不做任何 I/O，也不记录日志；坏数据只降级，不报错。
package report

import (
	"fmt"
	"sort"
	"strings"
)

// UnknownValue 可选分类列缺失或为空时的填充值
const UnknownValue = "Tidak Diketahui"

// ── 参与记录列 ──

const (
	ColNo            = "NO"
	ColName          = "NAMA_PESERTA"
	ColNPSN          = "NPSN"
	ColSchoolName    = "ASAL_SEKOLAH"
	ColSchoolStatus  = "STATUS_SEKOLAH"
	ColLevel         = "JENJANG"
	ColDistrict      = "KECAMATAN"
	ColTrainingName  = "NAMA_PELATIHAN"
	ColTrainingType  = "PELATIHAN"
	ColDate          = "TANGGAL"
	ColCategory      = "KATEGORI"
	ColRosterName    = "NAMA"
	ColRefSchoolName = "NAMA_SEKOLAH"
	ColRegency       = "KOTA"
	ColStatus        = "STATUS"
	ColPrincipal     = "JUMLAH_KEPSEK"
	ColSupportStaff  = "JUMLAH_TENDIK"
	ColTeacher       = "JUMLAH_GURU"
)

// ParticipationColumns 参与记录的规范列顺序（不含 NO）
var ParticipationColumns = []string{
	ColName, ColNPSN, ColSchoolName, ColSchoolStatus, ColLevel,
	ColDistrict, ColTrainingName, ColTrainingType, ColDate,
}

// RequiredUploadColumns 任一类别上传文件都必须包含的列
var RequiredUploadColumns = []string{
	ColName, ColNPSN, ColSchoolName, ColLevel, ColTrainingName, ColDate,
}

// 各表的列名别名（已知拼写错误或同义列名 → 规范列名）
var (
	participationAliases = map[string]string{
		"STASUS_SEKOLAH": ColSchoolStatus,
		"NAMA":           ColName,
	}
	schoolAliases = map[string]string{
		"ASAL_SEKOLAH":   ColRefSchoolName,
		"KEPALA_SEKOLAH": ColPrincipal,
		"JUMLAH_KS":      ColPrincipal,
		"TENDIK":         ColSupportStaff,
		"GURU":           ColTeacher,
		"PTK":            ColTeacher,
		"KABUPATEN":      ColRegency,
		"KOTA_KABUPATEN": ColRegency,
		"STATUS_SEKOLAH": ColStatus,
		"STASUS_SEKOLAH": ColStatus,
	}
	rosterAliases = map[string]string{
		"NAMA_LENGKAP": ColRosterName,
		"NAMA_PTK":     ColRosterName,
		"NAMA_PESERTA": ColRosterName,
	}
)

// ColumnKey 把原始列名转换为比较键：去首尾空白、转大写，
// 内部空白与连字符折叠为单个下划线
func ColumnKey(raw string) string {
	fields := strings.FieldsFunc(strings.ToUpper(strings.TrimSpace(raw)), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '-' || r == '_' || r == '\n' || r == '\r'
	})
	return strings.Join(fields, "_")
}

// ParticipationColumnKey 参与记录表的列名键（含别名归并）
func ParticipationColumnKey(raw string) string {
	return aliasKey(raw, participationAliases)
}

func aliasKey(raw string, aliases map[string]string) string {
	key := ColumnKey(raw)
	if canonical, ok := aliases[key]; ok {
		return canonical
	}
	return key
}

// columnIndex 列名键 → 列下标；重复列只保留第一次出现的位置
type columnIndex map[string]int

func indexColumns(header []string, aliases map[string]string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		key := aliasKey(h, aliases)
		if key == "" {
			continue
		}
		if _, dup := idx[key]; dup {
			continue
		}
		idx[key] = i
	}
	return idx
}

func (c columnIndex) has(col string) bool {
	_, ok := c[col]
	return ok
}

// cell 取单元格并去空白；列不存在或行过短时返回空串
func (c columnIndex) cell(row []string, col string) string {
	i, ok := c[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columnIndex) missing(required []string) []string {
	var out []string
	for _, col := range required {
		if !c.has(col) {
			out = append(out, col)
		}
	}
	return out
}

// MissingColumns 返回 header 中缺失的 required 列（按参与记录表口径比较）
func MissingColumns(header []string, required []string) []string {
	return indexColumns(header, participationAliases).missing(required)
}

// MissingColumnsError 数据形状错误：表缺少必需列
type MissingColumnsError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s 缺少必需列: %s", e.Table, strings.Join(e.Columns, ", "))
}

// ── JENJANG 口径 ──

// Levels JENJANG 的别名归并与固定展示顺序
type Levels struct {
	aliases map[string]string
	rank    map[string]int
}

// DefaultLevelOrder 默认的 JENJANG 展示顺序
var DefaultLevelOrder = []string{"PAUD", "SD", "SMP", "SMA", "SMK", "PKBM", "SLB"}

// NewLevels 创建 JENJANG 口径；aliases 的键与值均按大写比较
func NewLevels(aliases map[string]string, order []string) *Levels {
	l := &Levels{
		aliases: make(map[string]string, len(aliases)),
		rank:    make(map[string]int, len(order)),
	}
	for k, v := range aliases {
		l.aliases[strings.ToUpper(strings.TrimSpace(k))] = strings.ToUpper(strings.TrimSpace(v))
	}
	for i, lvl := range order {
		l.rank[strings.ToUpper(strings.TrimSpace(lvl))] = i
	}
	return l
}

// DefaultLevels 使用默认顺序与 PAUD 别名
func DefaultLevels() *Levels {
	return NewLevels(map[string]string{"TK": "PAUD", "KB": "PAUD", "TPA": "PAUD", "SPS": "PAUD"}, DefaultLevelOrder)
}

// Canonical 返回规范 JENJANG；空值保持为空
func (l *Levels) Canonical(raw string) string {
	lvl := strings.Join(strings.Fields(strings.ToUpper(raw)), " ")
	if lvl == "" {
		return ""
	}
	if canonical, ok := l.aliases[lvl]; ok {
		return canonical
	}
	return lvl
}

// Sort 按固定顺序原地排序；不在顺序表中的排在最后并按字母序
func (l *Levels) Sort(levels []string) {
	sort.SliceStable(levels, func(i, j int) bool {
		ri, iKnown := l.rank[levels[i]]
		rj, jKnown := l.rank[levels[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return levels[i] < levels[j]
		}
	})
}
