package model

// SchoolTarget 学校基础数据 — 对应学校参考工作表，含编制人数
type SchoolTarget struct {
	NPSN              string `json:"npsn"`
	Name              string `json:"nama_sekolah"`
	Level             string `json:"jenjang"`
	District          string `json:"kecamatan"`
	Regency           string `json:"kota"`
	Status            string `json:"status"`
	PrincipalCount    int    `json:"jumlah_kepsek"`
	SupportStaffCount int    `json:"jumlah_tendik"`
	TeacherCount      int    `json:"jumlah_guru"`
}
