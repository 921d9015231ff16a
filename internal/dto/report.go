package dto

import (
	"fmt"
	"strings"
	"time"

	"p4-dashboard/internal/model"
	"p4-dashboard/internal/report"
)

// ── 报表模块 DTO ──

// DateLayout 查询参数与导出中的日期格式
const DateLayout = "2006-01-02"

// FilterQuery 筛选与检索查询参数；多选字段可重复出现
type FilterQuery struct {
	Jenjang       []string `form:"jenjang"`
	Kecamatan     []string `form:"kecamatan"`
	NamaPelatihan []string `form:"nama_pelatihan"`
	Pelatihan     []string `form:"pelatihan"`
	StatusSekolah []string `form:"status_sekolah"`
	Kategori      []string `form:"kategori"`
	StartDate     string   `form:"start_date" binding:"omitempty,max=10"`
	EndDate       string   `form:"end_date"   binding:"omitempty,max=10"`
	Nama          string   `form:"nama"       binding:"omitempty,max=100"`
	Sekolah       string   `form:"sekolah"    binding:"omitempty,max=100"`
}

// Spec 转换为筛选条件；日期格式错误时返回错误，只给出一端时该区间不生效
func (q *FilterQuery) Spec() (report.FilterSpec, report.SearchSpec, error) {
	spec := report.FilterSpec{Sets: map[report.Field][]string{}}
	for field, vals := range map[report.Field][]string{
		report.FieldLevel:        q.Jenjang,
		report.FieldDistrict:     q.Kecamatan,
		report.FieldTrainingName: q.NamaPelatihan,
		report.FieldTrainingType: q.Pelatihan,
		report.FieldSchoolStatus: q.StatusSekolah,
		report.FieldCategory:     q.Kategori,
	} {
		if cleaned := nonBlank(vals); len(cleaned) > 0 {
			spec.Sets[field] = cleaned
		}
	}

	var err error
	if spec.Start, err = parseDateParam("start_date", q.StartDate); err != nil {
		return spec, report.SearchSpec{}, err
	}
	if spec.End, err = parseDateParam("end_date", q.EndDate); err != nil {
		return spec, report.SearchSpec{}, err
	}

	return spec, report.SearchSpec{Name: q.Nama, School: q.Sekolah}, nil
}

func parseDateParam(name, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("%s 格式应为 YYYY-MM-DD: %q", name, v)
	}
	return &t, nil
}

func nonBlank(vals []string) []string {
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// RecordListRequest 参训记录列表查询
type RecordListRequest struct {
	FilterQuery
	PaginationRequest
}

// RecapRequest 达成情况查询
type RecapRequest struct {
	FilterQuery
	Category string `form:"category" binding:"omitempty,max=32"`
}

// RecommendationRequest 未参训名单查询
type RecommendationRequest struct {
	FilterQuery
	PaginationRequest
}

// RecordResponse 参训记录（列表与导出共用的展示形态）
type RecordResponse struct {
	Name         string `json:"nama_peserta"`
	NPSN         string `json:"npsn"`
	SchoolName   string `json:"asal_sekolah"`
	SchoolStatus string `json:"status_sekolah"`
	Level        string `json:"jenjang"`
	District     string `json:"kecamatan"`
	TrainingName string `json:"nama_pelatihan"`
	TrainingType string `json:"pelatihan"`
	Date         string `json:"tanggal"`
	Category     string `json:"kategori"`
}

// NewRecordResponse 转换记录；无效日期输出为空串
func NewRecordResponse(r *model.ParticipationRecord) RecordResponse {
	return RecordResponse{
		Name:         r.Name,
		NPSN:         r.NPSN,
		SchoolName:   r.SchoolName,
		SchoolStatus: r.SchoolStatus,
		Level:        r.Level,
		District:     r.District,
		TrainingName: r.TrainingName,
		TrainingType: r.TrainingType,
		Date:         report.FormatDate(r.Date),
		Category:     r.Category,
	}
}

// OptionsResponse 各筛选字段的可选值
type OptionsResponse map[report.Field][]string

// RefreshResponse 缓存刷新结果
type RefreshResponse struct {
	Invalidated []string `json:"invalidated"`
}
