package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"p4-dashboard/internal/dto"
	"p4-dashboard/internal/model"
	"p4-dashboard/internal/report"
	apperrors "p4-dashboard/pkg/errors"
)

const uploadCSV = "NAMA_PESERTA;NPSN;ASAL_SEKOLAH;STATUS_SEKOLAH;JENJANG;KECAMATAN;NAMA_PELATIHAN;PELATIHAN;TANGGAL\n" +
	"Eko;10001;SD NEGERI 1;NEGERI;SD;KOTA;Literasi;Daring;15/03/2024\n" +
	";;;;;;;;\n" +
	"Fajar;20001;SMP NEGERI 1;NEGERI;SMP;DESA;Numerasi;Luring;2024-03-16\n"

func TestUploadService_Upload_AppendsAndInvalidates(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()

	// 先载入一次，确认上传后缓存被失效
	before, _ := st.dataset.Records(ctx)

	resp, err := st.uploads.Upload(ctx, &UploadInput{
		Category:   "Tendik",
		Filename:   "tendik.csv",
		Data:       []byte(uploadCSV),
		UploadedBy: "admin",
	})
	if err != nil {
		t.Fatalf("Upload 应成功: %v", err)
	}
	if resp.RowCount != 2 || resp.UploadID == "" {
		t.Errorf("响应不符: %+v", resp)
	}

	rows := st.sheets.tables["Tendik"].Rows
	if len(rows) != 5 {
		t.Fatalf("期望 5 行，实际 %d", len(rows))
	}
	// NO 续编，日期统一格式
	if rows[3][0] != "4" || rows[4][0] != "5" {
		t.Errorf("NO 应续编为 4、5，实际 %q %q", rows[3][0], rows[4][0])
	}
	if rows[3][9] != "2024-03-15" {
		t.Errorf("TANGGAL 应规范为 2024-03-15，实际 %q", rows[3][9])
	}

	after, _ := st.dataset.Records(ctx)
	if len(after) != len(before)+2 {
		t.Errorf("上传后应读到新数据，之前 %d 之后 %d", len(before), len(after))
	}

	if len(st.logs.logs) != 1 || st.logs.logs[0].Status != model.UploadStatusSuccess || st.logs.logs[0].RowCount != 2 {
		t.Errorf("审计日志不符: %+v", st.logs.logs)
	}
}

func TestUploadService_Upload_MissingColumnRejected(t *testing.T) {
	st := newTestStack(t)

	// 缺少 KECAMATAN：目标工作表已有该列，整体拒绝
	csv := "NAMA_PESERTA;NPSN;ASAL_SEKOLAH;STATUS_SEKOLAH;JENJANG;NAMA_PELATIHAN;PELATIHAN;TANGGAL\n" +
		"Eko;10001;SD NEGERI 1;NEGERI;SD;Literasi;Daring;15/03/2024\n"

	_, err := st.uploads.Upload(context.Background(), &UploadInput{
		Category: "Tendik", Filename: "kurang.csv", Data: []byte(csv), UploadedBy: "admin",
	})
	mce, ok := IsDataShapeError(err)
	if !ok {
		t.Fatalf("期望 MissingColumnsError，实际: %v", err)
	}
	if len(mce.Columns) != 1 || mce.Columns[0] != report.ColDistrict {
		t.Errorf("缺失列不符: %v", mce.Columns)
	}
	if st.sheets.appends != 0 || len(st.sheets.tables["Tendik"].Rows) != 3 {
		t.Error("缺列时不应写入任何行")
	}
	if len(st.logs.logs) != 1 || st.logs.logs[0].Status != model.UploadStatusFailed {
		t.Errorf("应记录失败审计: %+v", st.logs.logs)
	}
}

func TestUploadService_Upload_MissingNPSNRejected(t *testing.T) {
	st := newTestStack(t)

	csv := "NAMA_PESERTA;ASAL_SEKOLAH;STATUS_SEKOLAH;JENJANG;KECAMATAN;NAMA_PELATIHAN;PELATIHAN;TANGGAL\n" +
		"Eko;SD NEGERI 1;NEGERI;SD;KOTA;Literasi;Daring;15/03/2024\n"

	_, err := st.uploads.Upload(context.Background(), &UploadInput{
		Category: "Tendik", Filename: "tanpa_npsn.csv", Data: []byte(csv), UploadedBy: "admin",
	})
	mce, ok := IsDataShapeError(err)
	if !ok {
		t.Fatalf("期望 MissingColumnsError，实际: %v", err)
	}
	if len(mce.Columns) != 1 || mce.Columns[0] != report.ColNPSN {
		t.Errorf("错误应指出 NPSN，实际 %v", mce.Columns)
	}
	if st.sheets.appends != 0 || len(st.sheets.tables["Tendik"].Rows) != 3 {
		t.Error("缺少 NPSN 时不应写入任何行")
	}
}

func TestUploadService_Upload_DryRun(t *testing.T) {
	st := newTestStack(t)

	resp, err := st.uploads.Upload(context.Background(), &UploadInput{
		Category: "Tendik", Filename: "tendik.csv", Data: []byte(uploadCSV), DryRun: true,
	})
	if err != nil {
		t.Fatalf("DryRun 应成功: %v", err)
	}
	if len(resp.Rows) != 2 || resp.UploadID != "" {
		t.Errorf("预览响应不符: %+v", resp)
	}
	if st.sheets.appends != 0 || len(st.logs.logs) != 0 {
		t.Error("预览不应写入工作表或审计日志")
	}
}

func TestUploadService_Upload_EmptySheetGetsHeader(t *testing.T) {
	st := newTestStack(t)
	st.sheets.tables["Kejuruan"] = report.RawTable{}

	_, err := st.uploads.Upload(context.Background(), &UploadInput{
		Category: "Kejuruan", Filename: "smk.csv", Data: []byte(uploadCSV), UploadedBy: "admin",
	})
	if err != nil {
		t.Fatalf("Upload 应成功: %v", err)
	}
	got := st.sheets.tables["Kejuruan"]
	if len(got.Header) == 0 || got.Header[0] != report.ColNo {
		t.Errorf("空工作表应写入 NO + 上传列作为表头，实际 %v", got.Header)
	}
	if len(got.Rows) != 2 || got.Rows[0][0] != "1" {
		t.Errorf("NO 应从 1 开始，实际 %v", got.Rows)
	}
}

func TestUploadService_Upload_XLSX(t *testing.T) {
	st := newTestStack(t)

	f := excelize.NewFile()
	header := []interface{}{"Nama Peserta", "NPSN", "Asal Sekolah", "Status Sekolah", "Jenjang", "Kecamatan", "Nama Pelatihan", "Pelatihan", "Tanggal"}
	row := []interface{}{"Eko", "10001", "SD NEGERI 1", "NEGERI", "SD", "KOTA", "Literasi", "Daring", "2024-03-15"}
	_ = f.SetSheetRow("Sheet1", "A1", &header)
	_ = f.SetSheetRow("Sheet1", "A2", &row)
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		t.Fatalf("生成 xlsx 失败: %v", err)
	}
	_ = f.Close()

	resp, err := st.uploads.Upload(context.Background(), &UploadInput{
		Category: "Tendik", Filename: "TENDIK.XLSX", Data: buf.Bytes(), DryRun: true,
	})
	if err != nil {
		t.Fatalf("xlsx 上传应成功: %v", err)
	}
	if resp.RowCount != 1 || resp.Rows[0][1] != "Eko" {
		t.Errorf("xlsx 解析结果不符: %+v", resp.Rows)
	}
}

func TestUploadService_Upload_Errors(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()

	if _, err := st.uploads.Upload(ctx, &UploadInput{Category: "Dapodik", Filename: "a.csv", Data: []byte(uploadCSV)}); !errors.Is(err, ErrUnknownSheet) {
		t.Errorf("非类别工作表期望 ErrUnknownSheet，实际: %v", err)
	}
	if _, err := st.uploads.Upload(ctx, &UploadInput{Category: "Tendik", Filename: "a.pdf", Data: []byte("x")}); !errors.Is(err, ErrUnsupportedFile) {
		t.Errorf("期望 ErrUnsupportedFile，实际: %v", err)
	}
	headerOnly := strings.SplitN(uploadCSV, "\n", 2)[0] + "\n"
	if _, err := st.uploads.Upload(ctx, &UploadInput{Category: "Tendik", Filename: "a.csv", Data: []byte(headerOnly)}); !errors.Is(err, ErrEmptyUpload) {
		t.Errorf("期望 ErrEmptyUpload，实际: %v", err)
	}

	st.sheets.fail["Tendik"] = storeDown("Tendik")
	if _, err := st.uploads.Upload(ctx, &UploadInput{Category: "Tendik", Filename: "a.csv", Data: []byte(uploadCSV)}); !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Errorf("期望 ErrStoreUnavailable，实际: %v", err)
	}
}

func TestParseUpload_CommaAndBOM(t *testing.T) {
	raw, err := parseUpload("x.csv", []byte("\ufeffNAMA_PESERTA,NPSN\nAni,10001\n"))
	if err != nil {
		t.Fatalf("parseUpload 应成功: %v", err)
	}
	if raw.Header[0] != "NAMA_PESERTA" || len(raw.Rows) != 1 || raw.Rows[0][1] != "10001" {
		t.Errorf("解析结果不符: %+v", raw)
	}
}

func TestUploadService_ListLogs(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	_, _ = st.uploads.Upload(ctx, &UploadInput{Category: "Tendik", Filename: "a.csv", Data: []byte(uploadCSV), UploadedBy: "admin"})
	_, _ = st.uploads.Upload(ctx, &UploadInput{Category: "Pendidik", Filename: "b.pdf", Data: []byte("x"), UploadedBy: "admin"})

	logs, total, err := st.uploads.ListLogs(ctx, &dto.UploadLogListRequest{Status: model.UploadStatusFailed})
	if err != nil {
		t.Fatalf("ListLogs 应成功: %v", err)
	}
	if total != 1 || logs[0].Category != "Pendidik" {
		t.Errorf("筛选结果不符: total=%d logs=%+v", total, logs)
	}
}
