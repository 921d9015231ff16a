package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"p4-dashboard/config"
	"p4-dashboard/internal/cache"
	"p4-dashboard/internal/model"
	"p4-dashboard/internal/report"
	"p4-dashboard/internal/repository"
	apperrors "p4-dashboard/pkg/errors"
)

// ── Mock SheetRepository ──

type mockSheetRepo struct {
	mu      sync.Mutex
	tables  map[string]report.RawTable
	fail    map[string]error
	reads   map[string]int
	appends int
}

func newMockSheetRepo() *mockSheetRepo {
	return &mockSheetRepo{
		tables: make(map[string]report.RawTable),
		fail:   make(map[string]error),
		reads:  make(map[string]int),
	}
}

func (m *mockSheetRepo) Read(_ context.Context, sheet string) (report.RawTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads[sheet]++
	if err := m.fail[sheet]; err != nil {
		return report.RawTable{}, err
	}
	t := m.tables[sheet]
	return report.RawTable{
		Name:   sheet,
		Header: append([]string(nil), t.Header...),
		Rows:   append([][]string(nil), t.Rows...),
	}, nil
}

func (m *mockSheetRepo) Append(_ context.Context, sheet string, header []string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[sheet]; err != nil {
		return err
	}
	m.appends++
	t := m.tables[sheet]
	if len(t.Header) == 0 {
		t.Header = header
	}
	t.Rows = append(t.Rows, rows...)
	m.tables[sheet] = t
	return nil
}

func (m *mockSheetRepo) readCount(sheet string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[sheet]
}

// ── Mock UploadLogRepository ──

type mockUploadLogRepo struct {
	mu   sync.Mutex
	logs []model.UploadLog
}

func newMockUploadLogRepo() *mockUploadLogRepo {
	return &mockUploadLogRepo{}
}

func (m *mockUploadLogRepo) Create(_ context.Context, log *model.UploadLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockUploadLogRepo) List(_ context.Context, filter repository.UploadLogFilter) ([]model.UploadLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []model.UploadLog
	// 倒序：最近的在前
	for i := len(m.logs) - 1; i >= 0; i-- {
		l := m.logs[i]
		if filter.Category != "" && l.Category != filter.Category {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		matched = append(matched, l)
	}
	total := int64(len(matched))
	if filter.Offset > len(matched) {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], total, nil
}

// ── 测试数据 ──

var errSheetDown = errors.New("sheets 503")

var participationHeader = []string{
	"NO", "NAMA_PESERTA", "NPSN", "ASAL_SEKOLAH", "STATUS_SEKOLAH", "JENJANG",
	"KECAMATAN", "NAMA_PELATIHAN", "PELATIHAN", "TANGGAL",
}

// seedSheets 三所学校、两个类别的参训数据与一份名册：
//
//	Tendik:   Ani、Budi（10001），Citra（10002）
//	Pendidik: Dewi（20001）
//	名册:     Ani、Budi、Eko（10001），Dewi、Fajar（20001）
func seedSheets(m *mockSheetRepo) {
	m.tables["Sekolah"] = report.RawTable{
		Header: []string{"NPSN", "NAMA_SEKOLAH", "JENJANG", "KECAMATAN", "JUMLAH_KEPSEK", "JUMLAH_TENDIK", "JUMLAH_GURU"},
		Rows: [][]string{
			{"10001", "SD NEGERI 1", "SD", "KOTA", "1", "2", "10"},
			{"10002", "SD NEGERI 2", "SD", "KOTA", "1", "1", "8"},
			{"20001", "SMP NEGERI 1", "SMP", "DESA", "1", "4", "20"},
		},
	}
	m.tables["Tendik"] = report.RawTable{
		Header: participationHeader,
		Rows: [][]string{
			{"1", "Ani", "10001", "SD NEGERI 1", "NEGERI", "SD", "KOTA", "Literasi", "Daring", "2024-01-10"},
			{"2", "Budi", "10001", "SD NEGERI 1", "NEGERI", "SD", "KOTA", "Literasi", "Daring", "2024-01-10"},
			{"3", "Citra", "10002", "SD NEGERI 2", "SWASTA", "SD", "KOTA", "Numerasi", "Luring", "2024-02-05"},
		},
	}
	m.tables["Pendidik"] = report.RawTable{
		Header: participationHeader,
		Rows: [][]string{
			{"1", "Dewi", "20001", "SMP NEGERI 1", "NEGERI", "SMP", "DESA", "Numerasi", "Luring", "2024-03-01"},
		},
	}
	m.tables["Kejuruan"] = report.RawTable{Header: participationHeader}
	m.tables["Dapodik"] = report.RawTable{
		Header: []string{"NPSN", "NAMA"},
		Rows: [][]string{
			{"10001", "Ani"},
			{"10001", "Budi"},
			{"10001", "Eko"},
			{"20001", "Dewi"},
			{"20001", "Fajar"},
		},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret-key-for-unit-tests",
			AccessTokenTTL: time.Hour,
			Username:       "admin",
		},
		Sheets: config.SheetsConfig{
			ParticipationSheets: []string{"Tendik", "Pendidik", "Kejuruan"},
			SchoolSheet:         "Sekolah",
			RosterSheet:         "Dapodik",
		},
		Report: config.ReportConfig{
			LevelAliases: map[string]string{"TK": "PAUD"},
			LevelOrder:   []string{"PAUD", "SD", "SMP", "SMA", "SMK", "SLB"},
		},
		Cache: config.CacheConfig{TTL: time.Minute},
	}
}

// testStack 服务层测试用的完整依赖
type testStack struct {
	sheets  *mockSheetRepo
	logs    *mockUploadLogRepo
	store   *cache.MemoryStore
	dataset DatasetService
	reports ReportService
	uploads UploadService
	exports ExportService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	sheets := newMockSheetRepo()
	seedSheets(sheets)
	logs := newMockUploadLogRepo()
	repo := &repository.Repository{Sheets: sheets, UploadLog: logs}

	logger := zap.NewNop()
	store := cache.NewMemoryStore()
	dataset := NewDatasetService(testConfig(), repo, cache.New(store, time.Minute, logger), logger)
	reports := NewReportService(dataset, logger)
	return &testStack{
		sheets:  sheets,
		logs:    logs,
		store:   store,
		dataset: dataset,
		reports: reports,
		uploads: NewUploadService(repo, dataset, logger),
		exports: NewExportService(reports, logger),
	}
}

// storeDown 模拟 Sheets 不可用
func storeDown(sheet string) error {
	return errors.Join(apperrors.ErrStoreUnavailable, errSheetDown, errors.New(sheet))
}
