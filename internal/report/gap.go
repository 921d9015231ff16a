package report

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"p4-dashboard/internal/model"
)

// GapStatus 未参训名单的结果状态
type GapStatus string

const (
	// GapRosterUnavailable 名册表为空或无法读取，不能与"已全部覆盖"混淆
	GapRosterUnavailable GapStatus = "roster_unavailable"
	// GapNoRosterData 名册存在，但所选学校没有任何名册数据
	GapNoRosterData GapStatus = "no_roster_data"
	GapFullyCovered GapStatus = "fully_covered"
	GapHasGaps      GapStatus = "has_gaps"
)

// GapEntry 一名尚未参训的人员
type GapEntry struct {
	NPSN       string `json:"npsn"`
	SchoolName string `json:"nama_sekolah"`
	Name       string `json:"nama_peserta"`
}

// GapReport 全量未参训名单
type GapReport struct {
	Status       GapStatus  `json:"status"`
	RosterCount  int        `json:"jumlah_dapodik"`
	CoveredCount int        `json:"jumlah_sudah_pelatihan"`
	Entries      []GapEntry `json:"belum_pelatihan"`
}

// SchoolGap 单校未参训名单
type SchoolGap struct {
	Status       GapStatus `json:"status"`
	NPSN         string    `json:"npsn"`
	SchoolName   string    `json:"nama_sekolah"`
	RosterCount  int       `json:"jumlah_dapodik"`
	TrainedCount int       `json:"jumlah_peserta_pelatihan"`
	CoveredCount int       `json:"jumlah_sudah_pelatihan"`
	Remaining    []string  `json:"belum_pelatihan"`
}

// NameKey 姓名比较键：NFC 规范化、去首尾空白、折叠内部空白并转大写。
// 只做规范化，不做模糊匹配。
func NameKey(name string) string {
	return strings.ToUpper(collapseSpaces(norm.NFC.String(name)))
}

type personKey struct {
	npsn, name string
}

// trainedSet 已参训集合；学校不明（NPSN 为空）的记录不参与按学校的比对
func trainedSet(trained []model.ParticipationRecord) map[personKey]struct{} {
	set := make(map[personKey]struct{}, len(trained))
	for i := range trained {
		r := &trained[i]
		if !r.HasSchoolID() {
			continue
		}
		if name := NameKey(r.Name); name != "" {
			set[personKey{r.NPSN, name}] = struct{}{}
		}
	}
	return set
}

func schoolNames(schools []model.SchoolTarget) map[string]string {
	names := make(map[string]string, len(schools))
	for _, s := range schools {
		if s.NPSN == "" {
			continue
		}
		if _, ok := names[s.NPSN]; !ok {
			names[s.NPSN] = s.Name
		}
	}
	return names
}

// ResolveGaps 计算名册 − 已参训（按 (NPSN, 姓名键) 精确匹配）。
// 结果按名册首次出现的顺序输出，重复的名册条目只计一次；
// 学校名从参考表左连接，找不到时留空而不是丢弃该行。
func ResolveGaps(roster []model.RosterEntry, trained []model.ParticipationRecord, schools []model.SchoolTarget) GapReport {
	if len(roster) == 0 {
		return GapReport{Status: GapRosterUnavailable, Entries: []GapEntry{}}
	}

	done := trainedSet(trained)
	names := schoolNames(schools)
	seen := make(map[personKey]struct{}, len(roster))

	rep := GapReport{Entries: make([]GapEntry, 0)}
	for _, e := range roster {
		k := personKey{e.NPSN, NameKey(e.Name)}
		if k.npsn == "" || k.name == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rep.RosterCount++

		if _, ok := done[k]; ok {
			rep.CoveredCount++
			continue
		}
		rep.Entries = append(rep.Entries, GapEntry{NPSN: e.NPSN, SchoolName: names[e.NPSN], Name: e.Name})
	}

	rep.Status = GapFullyCovered
	if len(rep.Entries) > 0 {
		rep.Status = GapHasGaps
	}
	return rep
}

// ResolveSchoolGap 单校版本：额外给出名册人数与已参训人数，
// 并区分"名册整体不可用"、"该校无名册数据"、"已全部覆盖"与"仍有 n 人未参训"。
func ResolveSchoolGap(npsn string, roster []model.RosterEntry, trained []model.ParticipationRecord, schools []model.SchoolTarget) SchoolGap {
	npsn = CanonicalNPSN(npsn)
	gap := SchoolGap{NPSN: npsn, SchoolName: schoolNames(schools)[npsn], Remaining: []string{}}

	trainedNames := make(map[string]struct{})
	for i := range trained {
		r := &trained[i]
		if npsn == "" || r.NPSN != npsn {
			continue
		}
		if name := NameKey(r.Name); name != "" {
			trainedNames[name] = struct{}{}
		}
	}
	gap.TrainedCount = len(trainedNames)

	if len(roster) == 0 {
		gap.Status = GapRosterUnavailable
		return gap
	}

	seen := make(map[string]struct{})
	for _, e := range roster {
		if npsn == "" || e.NPSN != npsn {
			continue
		}
		name := NameKey(e.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		gap.RosterCount++
		if _, ok := trainedNames[name]; ok {
			gap.CoveredCount++
			continue
		}
		gap.Remaining = append(gap.Remaining, e.Name)
	}

	switch {
	case gap.RosterCount == 0:
		gap.Status = GapNoRosterData
	case len(gap.Remaining) == 0:
		gap.Status = GapFullyCovered
	default:
		gap.Status = GapHasGaps
	}
	return gap
}
