package model

import "time"

// ParticipationRecord 培训参与记录 — 对应各类别工作表（Tendik / Pendidik / Kejuruan）中的一行
type ParticipationRecord struct {
	Name         string    `json:"nama_peserta"`   // NAMA_PESERTA
	NPSN         string    `json:"npsn"`           // 已规范化，空串表示学校未知
	SchoolName   string    `json:"asal_sekolah"`   // ASAL_SEKOLAH
	SchoolStatus string    `json:"status_sekolah"` // STATUS_SEKOLAH（可选列）
	Level        string    `json:"jenjang"`        // JENJANG（已做别名归并）
	District     string    `json:"kecamatan"`      // KECAMATAN
	TrainingName string    `json:"nama_pelatihan"` // NAMA_PELATIHAN
	TrainingType string    `json:"pelatihan"`      // PELATIHAN（表内字段，与来源类别无关）
	Date         time.Time `json:"tanggal"`        // 零值表示日期无法解析
	Category     string    `json:"kategori"`       // 来源工作表名
}

// HasDate 日期是否有效
func (r *ParticipationRecord) HasDate() bool { return !r.Date.IsZero() }

// HasSchoolID NPSN 是否可用于按学校聚合
func (r *ParticipationRecord) HasSchoolID() bool { return r.NPSN != "" }
