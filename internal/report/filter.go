package report

import (
	"sort"
	"strings"
	"time"

	"p4-dashboard/internal/model"
)

// Field 可多选筛选的字段
type Field string

const (
	FieldLevel        Field = ColLevel
	FieldDistrict     Field = ColDistrict
	FieldTrainingName Field = ColTrainingName
	FieldTrainingType Field = ColTrainingType
	FieldSchoolStatus Field = ColSchoolStatus
	FieldCategory     Field = ColCategory
)

// FilterFields 全部可筛选字段（界面按此顺序展示）
var FilterFields = []Field{
	FieldLevel, FieldDistrict, FieldTrainingName, FieldTrainingType, FieldSchoolStatus, FieldCategory,
}

// Value 取记录在该字段上的值
func (f Field) Value(r *model.ParticipationRecord) string {
	switch f {
	case FieldLevel:
		return r.Level
	case FieldDistrict:
		return r.District
	case FieldTrainingName:
		return r.TrainingName
	case FieldTrainingType:
		return r.TrainingType
	case FieldSchoolStatus:
		return r.SchoolStatus
	case FieldCategory:
		return r.Category
	}
	return ""
}

// FilterSpec 结构化筛选条件：
// 字段之间为 AND，同一字段内多个取值为 OR；空集合表示该字段不限制。
// 日期区间只有起止两端都给出时才生效，两端均包含。
type FilterSpec struct {
	Sets  map[Field][]string `json:"sets,omitempty"`
	Start *time.Time         `json:"start,omitempty"`
	End   *time.Time         `json:"end,omitempty"`
}

// DateActive 日期区间是否生效
func (s FilterSpec) DateActive() bool {
	return s.Start != nil && s.End != nil
}

// Active 是否存在任何生效的条件
func (s FilterSpec) Active() bool {
	for _, vals := range s.Sets {
		if len(vals) > 0 {
			return true
		}
	}
	return s.DateActive()
}

// With 返回追加了某字段取值的副本，原条件不变
func (s FilterSpec) With(field Field, values ...string) FilterSpec {
	sets := make(map[Field][]string, len(s.Sets)+1)
	for f, v := range s.Sets {
		sets[f] = append([]string(nil), v...)
	}
	sets[field] = append(sets[field], values...)
	s.Sets = sets
	return s
}

// CanonicalLevels 返回 JENJANG 取值按 levels 规范化后的副本（大小写、别名），原条件不变
func (s FilterSpec) CanonicalLevels(levels *Levels) FilterSpec {
	vals := s.Sets[FieldLevel]
	if len(vals) == 0 {
		return s
	}
	sets := make(map[Field][]string, len(s.Sets))
	for f, v := range s.Sets {
		sets[f] = v
	}
	canonical := make([]string, 0, len(vals))
	for _, v := range vals {
		if c := levels.Canonical(v); c != "" {
			canonical = append(canonical, c)
		}
	}
	sets[FieldLevel] = canonical
	s.Sets = sets
	return s
}

// SearchSpec 结构化筛选之后的自由文本检索，大小写不敏感的子串匹配
type SearchSpec struct {
	Name   string `json:"name,omitempty"`
	School string `json:"school,omitempty"`
}

// Active 是否有检索词
func (s SearchSpec) Active() bool {
	return strings.TrimSpace(s.Name) != "" || strings.TrimSpace(s.School) != ""
}

// Filter 按结构化条件筛选；纯函数，保持输入顺序
func Filter(records []model.ParticipationRecord, spec FilterSpec) []model.ParticipationRecord {
	type compiled struct {
		field  Field
		values map[string]struct{}
	}
	var sets []compiled
	for _, f := range FilterFields {
		vals := spec.Sets[f]
		if len(vals) == 0 {
			continue
		}
		m := make(map[string]struct{}, len(vals))
		for _, v := range vals {
			m[v] = struct{}{}
		}
		sets = append(sets, compiled{field: f, values: m})
	}

	var start, end time.Time
	dateActive := spec.DateActive()
	if dateActive {
		start, end = dateOnly(*spec.Start), dateOnly(*spec.End)
		if end.Before(start) {
			start, end = end, start
		}
	}

	out := make([]model.ParticipationRecord, 0, len(records))
	for i := range records {
		r := &records[i]
		ok := true
		for _, c := range sets {
			if _, hit := c.values[c.field.Value(r)]; !hit {
				ok = false
				break
			}
		}
		if ok && dateActive {
			if !r.HasDate() || r.Date.Before(start) || r.Date.After(end) {
				ok = false
			}
		}
		if ok {
			out = append(out, *r)
		}
	}
	return out
}

// Search 在姓名与学校名上做子串检索，两项同时给出时需同时满足
func Search(records []model.ParticipationRecord, search SearchSpec) []model.ParticipationRecord {
	name := strings.ToLower(strings.TrimSpace(search.Name))
	school := strings.ToLower(strings.TrimSpace(search.School))

	out := make([]model.ParticipationRecord, 0, len(records))
	for _, r := range records {
		if name != "" && !strings.Contains(strings.ToLower(r.Name), name) {
			continue
		}
		if school != "" && !strings.Contains(strings.ToLower(r.SchoolName), school) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Apply 先结构化筛选，再做文本检索
func Apply(records []model.ParticipationRecord, spec FilterSpec, search SearchSpec) []model.ParticipationRecord {
	return Search(Filter(records, spec), search)
}

// Options 各筛选字段的可选值；JENJANG 按固定口径排序，其余按字母序
func Options(records []model.ParticipationRecord, levels *Levels) map[Field][]string {
	seen := make(map[Field]map[string]struct{}, len(FilterFields))
	for _, f := range FilterFields {
		seen[f] = make(map[string]struct{})
	}
	for i := range records {
		for _, f := range FilterFields {
			if v := f.Value(&records[i]); v != "" {
				seen[f][v] = struct{}{}
			}
		}
	}

	out := make(map[Field][]string, len(FilterFields))
	for f, set := range seen {
		vals := make([]string, 0, len(set))
		for v := range set {
			vals = append(vals, v)
		}
		if f == FieldLevel && levels != nil {
			levels.Sort(vals)
		} else {
			sort.Strings(vals)
		}
		out[f] = vals
	}
	return out
}

// Summary 数据页底部的汇总（Kesimpulan）
type Summary struct {
	UniqueParticipants int `json:"jumlah_peserta_unik"`
	TotalParticipants  int `json:"jumlah_total_peserta"`
	UniqueSchools      int `json:"jumlah_sekolah"`
	UniqueTrainings    int `json:"jumlah_pelatihan"`
}

// Summarize 统计去重人数、总人次、学校数与培训数；空值不计入
func Summarize(records []model.ParticipationRecord) Summary {
	names := make(map[string]struct{})
	schools := make(map[string]struct{})
	trainings := make(map[string]struct{})
	var s Summary
	for _, r := range records {
		if r.Name != "" {
			s.TotalParticipants++
			names[r.Name] = struct{}{}
		}
		if r.SchoolName != "" {
			schools[r.SchoolName] = struct{}{}
		}
		if r.TrainingName != "" {
			trainings[r.TrainingName] = struct{}{}
		}
	}
	s.UniqueParticipants = len(names)
	s.UniqueSchools = len(schools)
	s.UniqueTrainings = len(trainings)
	return s
}
