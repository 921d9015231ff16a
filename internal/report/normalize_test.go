package report

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func tendikTable() RawTable {
	return RawTable{
		Name:   "Tendik",
		Header: []string{"NO", " nama peserta ", "NPSN", "Asal Sekolah", "STASUS_SEKOLAH", "JENJANG", "KECAMATAN", "NAMA_PELATIHAN", "PELATIHAN", "TANGGAL", "NPSN"},
		Rows: [][]string{
			{"1", "  Ani   Lestari ", "20100123.0", "SDN 01", "Negeri", "sd", "Koja", "Literasi", "Tendik", "15/01/2024", "999"},
			{"2", "Budi", "0", "TK Melati", "", "TK", "", "Numerasi", "", "bukan tanggal"},
			{"", "", "", "", "", "", "", "", "", ""},
			{"3", "Cici", "2.0100124E7", "SMP 2", "Swasta", "SMP", "Cilincing", "Literasi", "Tendik", "45292"},
		},
	}
}

func TestNormalizer_Participation(t *testing.T) {
	n := NewNormalizer(nil)
	recs := n.Participation(tendikTable())

	if len(recs) != 3 {
		t.Fatalf("期望 3 条记录（空行被跳过），实际 %d", len(recs))
	}

	ani := recs[0]
	if ani.Name != "Ani Lestari" {
		t.Errorf("期望姓名折叠空白为 'Ani Lestari'，实际 %q", ani.Name)
	}
	if ani.NPSN != "20100123" {
		t.Errorf("期望 NPSN=20100123（重复列取第一列），实际 %q", ani.NPSN)
	}
	if ani.SchoolStatus != "Negeri" {
		t.Errorf("期望 STASUS_SEKOLAH 别名映射到 STATUS_SEKOLAH，实际 %q", ani.SchoolStatus)
	}
	if ani.Level != "SD" {
		t.Errorf("期望 JENJANG 转大写为 SD，实际 %q", ani.Level)
	}
	if want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC); !ani.Date.Equal(want) {
		t.Errorf("期望日期按日在前解析为 %v，实际 %v", want, ani.Date)
	}
	if ani.Category != "Tendik" {
		t.Errorf("期望来源类别 Tendik，实际 %q", ani.Category)
	}

	budi := recs[1]
	if budi.HasSchoolID() {
		t.Errorf("NPSN=0 应视为未知学校，实际 %q", budi.NPSN)
	}
	if budi.Level != "PAUD" {
		t.Errorf("期望 TK 归并为 PAUD，实际 %q", budi.Level)
	}
	if budi.HasDate() {
		t.Error("无法解析的日期应为无效日期")
	}
	if budi.SchoolStatus != UnknownValue || budi.District != UnknownValue || budi.TrainingType != UnknownValue {
		t.Errorf("空的可选列应填充为 %q，实际 %+v", UnknownValue, budi)
	}

	cici := recs[2]
	if cici.NPSN != "20100124" {
		t.Errorf("期望科学计数法 NPSN 还原为 20100124，实际 %q", cici.NPSN)
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !cici.Date.Equal(want) {
		t.Errorf("期望表格序列日期 45292 解析为 2024-01-01，实际 %v", cici.Date)
	}
}

func TestNormalizer_SynthesizesAbsentOptionalColumns(t *testing.T) {
	n := NewNormalizer(nil)
	recs := n.Participation(RawTable{
		Name:   "Pendidik",
		Header: []string{"NAMA_PESERTA", "NPSN", "ASAL_SEKOLAH", "JENJANG", "NAMA_PELATIHAN", "TANGGAL"},
		Rows:   [][]string{{"Dewi", "123", "SMA 1", "SMA", "Coding", "2024-03-05"}},
	})
	if len(recs) != 1 {
		t.Fatalf("期望 1 条记录，实际 %d", len(recs))
	}
	if recs[0].SchoolStatus != UnknownValue {
		t.Errorf("缺失的 STATUS_SEKOLAH 列应合成为 %q，实际 %q", UnknownValue, recs[0].SchoolStatus)
	}
	if recs[0].District != UnknownValue {
		t.Errorf("缺失的 KECAMATAN 列应合成为 %q，实际 %q", UnknownValue, recs[0].District)
	}
}

func TestNormalizer_Idempotent(t *testing.T) {
	n := NewNormalizer(nil)
	first := n.Participation(tendikTable())

	again := n.Participation(ToRawTable("Tendik", first))
	if !reflect.DeepEqual(first, again) {
		t.Errorf("对已规范化数据再次规范化应无变化\n第一次: %+v\n第二次: %+v", first, again)
	}
}

func TestDedupe(t *testing.T) {
	n := NewNormalizer(nil)
	recs := n.Participation(RawTable{
		Name:   "Tendik",
		Header: []string{"NAMA_PESERTA", "NPSN", "NAMA_PELATIHAN", "TANGGAL", "JENJANG"},
		Rows: [][]string{
			{"Ani", "1", "Literasi", "01/02/2024", "SD"},
			{"ani ", "1", "LITERASI", "1/2/2024", "SD"},
			{"Ani", "1", "Literasi", "02/02/2024", "SD"},
		},
	})
	out := Dedupe(recs)
	if len(out) != 2 {
		t.Fatalf("期望去重后 2 条，实际 %d", len(out))
	}
	if out[0].Name != "Ani" {
		t.Errorf("去重应保留首次出现的记录，实际 %q", out[0].Name)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"03/04/2024", "2024-04-03", true},
		{"3-4-2024", "2024-04-03", true},
		{"03.04.2024", "2024-04-03", true},
		{"2024-04-03", "2024-04-03", true},
		{"2024-04-03 10:00:00", "2024-04-03", true},
		{"03/04/2024 08:30", "2024-04-03", true},
		{"12 Maret 2024", "2024-03-12", true},
		{"17 Agustus 2024", "2024-08-17", true},
		{"45292", "2024-01-01", true},
		{"2024", "", false},
		{"", "", false},
		{"besok", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseDate(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseDate(%q) ok 期望 %v，实际 %v", tc.in, tc.ok, ok)
			continue
		}
		if FormatDate(got) != tc.want {
			t.Errorf("ParseDate(%q) 期望 %q，实际 %q", tc.in, tc.want, FormatDate(got))
		}
	}
}

func TestCanonicalNPSN(t *testing.T) {
	cases := map[string]string{
		"20100123":     "20100123",
		" 20100123.0 ": "20100123",
		"'00123":       "00123",
		"2.0100123E7":  "20100123",
		"0":            "",
		"000":          "",
		"":             "",
		"P9999":        "P9999",
	}
	for in, want := range cases {
		if got := CanonicalNPSN(in); got != want {
			t.Errorf("CanonicalNPSN(%q) 期望 %q，实际 %q", in, want, got)
		}
	}
}

func TestNormalizer_Schools(t *testing.T) {
	n := NewNormalizer(nil)
	schools, err := n.Schools(RawTable{
		Name:   "Sekolah",
		Header: []string{"NPSN", "NAMA SEKOLAH", "JENJANG", "KEPALA SEKOLAH", "JUMLAH_TENDIK", "JUMLAH_GURU"},
		Rows: [][]string{
			{"1", "SDN 1", "SD", "1", "3", "12"},
			{"1", "SDN 1 duplikat", "SD", "9", "9", "9"},
			{"2", "KB Ceria", "kb", "x", "-2", "4.0"},
		},
	})
	if err != nil {
		t.Fatalf("Schools 应成功: %v", err)
	}
	if len(schools) != 2 {
		t.Fatalf("重复 NPSN 应只保留第一条，期望 2，实际 %d", len(schools))
	}
	if schools[0].Name != "SDN 1" || schools[0].PrincipalCount != 1 || schools[0].SupportStaffCount != 3 || schools[0].TeacherCount != 12 {
		t.Errorf("第一所学校解析错误: %+v", schools[0])
	}
	if schools[1].Level != "PAUD" {
		t.Errorf("期望 KB 归并为 PAUD，实际 %q", schools[1].Level)
	}
	if schools[1].PrincipalCount != 0 || schools[1].SupportStaffCount != 0 || schools[1].TeacherCount != 4 {
		t.Errorf("无法解析或负数的人数应按 0 处理: %+v", schools[1])
	}
}

func TestNormalizer_Schools_MissingColumns(t *testing.T) {
	n := NewNormalizer(nil)
	_, err := n.Schools(RawTable{Name: "Sekolah", Header: []string{"NAMA_SEKOLAH"}})

	var mce *MissingColumnsError
	if !errors.As(err, &mce) {
		t.Fatalf("期望 *MissingColumnsError，实际 %v", err)
	}
	if !reflect.DeepEqual(mce.Columns, []string{ColNPSN, ColLevel}) {
		t.Errorf("期望缺少 NPSN、JENJANG，实际 %v", mce.Columns)
	}
}

func TestNormalizer_Roster(t *testing.T) {
	n := NewNormalizer(nil)
	roster, err := n.Roster(RawTable{
		Name:   "Dapodik",
		Header: []string{"npsn", "Nama Lengkap"},
		Rows:   [][]string{{"1", " Ani "}, {"1", ""}, {"2.0", "Cici"}},
	})
	if err != nil {
		t.Fatalf("Roster 应成功: %v", err)
	}
	want := []struct{ npsn, name string }{{"1", "Ani"}, {"2", "Cici"}}
	if len(roster) != len(want) {
		t.Fatalf("期望 %d 条，实际 %d", len(want), len(roster))
	}
	for i, w := range want {
		if roster[i].NPSN != w.npsn || roster[i].Name != w.name {
			t.Errorf("第 %d 条期望 %v，实际 %+v", i, w, roster[i])
		}
	}
}

func TestMissingColumns(t *testing.T) {
	header := []string{"nama peserta", "Asal Sekolah", "JENJANG", "NAMA_PELATIHAN", "TANGGAL"}
	missing := MissingColumns(header, RequiredUploadColumns)
	if !reflect.DeepEqual(missing, []string{ColNPSN}) {
		t.Errorf("期望只缺少 NPSN，实际 %v", missing)
	}
}

func TestLevels_Sort(t *testing.T) {
	lv := DefaultLevels()
	got := []string{"SLB", "ZZZ", "SD", "PAUD", "AAA", "SMK"}
	lv.Sort(got)
	want := []string{"PAUD", "SD", "SMK", "SLB", "AAA", "ZZZ"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v，实际 %v", want, got)
	}
}
