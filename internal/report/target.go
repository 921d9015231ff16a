package report

import (
	"strings"

	"p4-dashboard/internal/model"
)

// TargetCategory 培训类别，决定目标人数口径
type TargetCategory string

const (
	CategoryPendidik TargetCategory = "Pendidik"
	CategoryTendik   TargetCategory = "Tendik"
	CategoryKejuruan TargetCategory = "Kejuruan"
)

// SpecialNeedsLevel 特殊教育学校；非 Pendidik 类别不计入目标
const SpecialNeedsLevel = "SLB"

// ParseCategory 大小写不敏感地解析类别
func ParseCategory(s string) (TargetCategory, bool) {
	for _, c := range []TargetCategory{CategoryPendidik, CategoryTendik, CategoryKejuruan} {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, true
		}
	}
	return "", false
}

// Targets 按 JENJANG 汇总的目标
// 某 JENJANG 没有任何计入行时不会出现在两个 map 中，调用方按 0 处理。
type Targets struct {
	Category     TargetCategory `json:"category"`
	Participants map[string]int `json:"participants"`
	Schools      map[string]int `json:"schools"`
	// Levels 报表展示的 JENJANG 全集：参考表中所有非空 JENJANG（含被排除的 SLB），按固定顺序
	Levels []string `json:"levels"`

	order *Levels
}

// ParticipantTarget 目标人数，缺省为 0
func (t Targets) ParticipantTarget(level string) int { return t.Participants[level] }

// SchoolTarget 目标学校数，缺省为 0
func (t Targets) SchoolTarget(level string) int { return t.Schools[level] }

// headcount 单校目标人数：Pendidik 取教师数，其余类别取校长数 + 教辅人员数
func headcount(s *model.SchoolTarget, category TargetCategory) int {
	if category == CategoryPendidik {
		return s.TeacherCount
	}
	return s.PrincipalCount + s.SupportStaffCount
}

// ResolveTargets 根据学校参考表与类别计算各 JENJANG 的目标人数与目标学校数
func ResolveTargets(schools []model.SchoolTarget, category TargetCategory, levels *Levels) Targets {
	if levels == nil {
		levels = DefaultLevels()
	}
	t := Targets{
		Category:     category,
		Participants: make(map[string]int),
		Schools:      make(map[string]int),
		order:        levels,
	}

	domain := make(map[string]struct{})
	for i := range schools {
		s := &schools[i]
		if s.Level == "" {
			continue
		}
		domain[s.Level] = struct{}{}
		if category != CategoryPendidik && s.Level == SpecialNeedsLevel {
			continue
		}
		t.Participants[s.Level] += headcount(s, category)
		t.Schools[s.Level]++
	}

	t.Levels = make([]string, 0, len(domain))
	for lvl := range domain {
		t.Levels = append(t.Levels, lvl)
	}
	levels.Sort(t.Levels)
	return t
}
