package report

import (
	"math"
	"strings"

	"p4-dashboard/internal/model"
)

// TotalLevel 合计行的 JENJANG 标签
const TotalLevel = "TOTAL"

// AchievementRow 达成情况表中的一行
type AchievementRow struct {
	Level     string  `json:"jenjang"`
	Target    int     `json:"target"`
	Achieved  int     `json:"tercapai"`
	Percent   float64 `json:"persentase"`
	Shortfall int     `json:"kekurangan"`
}

// NewAchievementRow 计算百分比与缺口
func NewAchievementRow(level string, target, achieved int) AchievementRow {
	return AchievementRow{
		Level:     level,
		Target:    target,
		Achieved:  achieved,
		Percent:   Percent(achieved, target),
		Shortfall: Shortfall(target, achieved),
	}
}

// Percent 达成百分比，封顶 100，保留两位小数；目标为 0 时返回 0
func Percent(achieved, target int) float64 {
	if target <= 0 || achieved <= 0 {
		return 0
	}
	p := float64(achieved) / float64(target) * 100
	if p > 100 {
		p = 100
	}
	return math.Round(p*100) / 100
}

// Shortfall 缺口 = max(0, 目标 - 达成)
func Shortfall(target, achieved int) int {
	return max(target-achieved, 0)
}

// Recap 达成情况汇总（Rekap Pencapaian）：按人数与按学校两张并列表
type Recap struct {
	Category         TargetCategory   `json:"category"`
	ByParticipant    []AchievementRow `json:"per_peserta"`
	BySchool         []AchievementRow `json:"per_sekolah"`
	ParticipantTotal AchievementRow   `json:"total_peserta"`
	SchoolTotal      AchievementRow   `json:"total_sekolah"`
}

// Aggregate 按 JENJANG 统计去重人数与去重学校数并与目标对比。
// 输出覆盖 targets.Levels 与记录中出现过的每一个 JENJANG：
// 达成为 0 或目标为 0（如被排除的 SLB）时也保留该行。
func Aggregate(records []model.ParticipationRecord, targets Targets) Recap {
	participants := make(map[string]map[string]struct{})
	schools := make(map[string]map[string]struct{})

	for i := range records {
		r := &records[i]
		if r.Level == "" {
			continue
		}
		if name := NameKey(r.Name); name != "" {
			addKey(participants, r.Level, r.NPSN+"|"+name)
		}
		if key := SchoolKey(r); key != "" {
			addKey(schools, r.Level, key)
		}
	}

	levels := reportLevels(targets, participants, schools)
	recap := Recap{
		Category:      targets.Category,
		ByParticipant: make([]AchievementRow, 0, len(levels)),
		BySchool:      make([]AchievementRow, 0, len(levels)),
	}
	var pTarget, pAchieved, sTarget, sAchieved int
	for _, lvl := range levels {
		pt, pa := targets.ParticipantTarget(lvl), len(participants[lvl])
		st, sa := targets.SchoolTarget(lvl), len(schools[lvl])
		recap.ByParticipant = append(recap.ByParticipant, NewAchievementRow(lvl, pt, pa))
		recap.BySchool = append(recap.BySchool, NewAchievementRow(lvl, st, sa))
		pTarget, pAchieved = pTarget+pt, pAchieved+pa
		sTarget, sAchieved = sTarget+st, sAchieved+sa
	}
	recap.ParticipantTotal = NewAchievementRow(TotalLevel, pTarget, pAchieved)
	recap.SchoolTotal = NewAchievementRow(TotalLevel, sTarget, sAchieved)
	return recap
}

func reportLevels(targets Targets, sets ...map[string]map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(targets.Levels))
	out := make([]string, 0, len(targets.Levels))
	for _, lvl := range targets.Levels {
		if _, ok := seen[lvl]; !ok {
			seen[lvl] = struct{}{}
			out = append(out, lvl)
		}
	}
	for _, m := range sets {
		for lvl := range m {
			if _, ok := seen[lvl]; !ok {
				seen[lvl] = struct{}{}
				out = append(out, lvl)
			}
		}
	}
	order := targets.order
	if order == nil {
		order = DefaultLevels()
	}
	order.Sort(out)
	return out
}

// SchoolKey 学校去重键：优先 NPSN，NPSN 未知时退化为学校名；两者皆空返回空串
func SchoolKey(r *model.ParticipationRecord) string {
	if r.HasSchoolID() {
		return r.NPSN
	}
	if name := strings.ToUpper(collapseSpaces(r.SchoolName)); name != "" {
		return "NAMA:" + name
	}
	return ""
}

func addKey(m map[string]map[string]struct{}, level, key string) {
	set, ok := m[level]
	if !ok {
		set = make(map[string]struct{})
		m[level] = set
	}
	set[key] = struct{}{}
}
