package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwtv5 "github.com/golang-jwt/jwt/v5"

	"p4-dashboard/internal/dto"
	"p4-dashboard/internal/model"
	"p4-dashboard/internal/report"
	"p4-dashboard/internal/service"
	apperrors "p4-dashboard/pkg/errors"
	"p4-dashboard/pkg/jwt"
	"p4-dashboard/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult *dto.TokenResponse
	loginErr    error
	logoutErr   error
	loggedOut   *jwt.Claims
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Logout(_ context.Context, claims *jwt.Claims) error {
	m.loggedOut = claims
	return m.logoutErr
}
func (m *mockAuthService) Authenticate(_ context.Context, _ string) (*jwt.Claims, error) {
	return nil, jwt.ErrTokenInvalid
}

// ── Mock ReportService ──

type mockReportService struct {
	records   []model.ParticipationRecord
	summary   report.Summary
	options   map[report.Field][]string
	recap     *report.Recap
	gaps      *report.GapReport
	schoolGap *report.SchoolGap
	schools   []model.SchoolTarget
	err       error

	lastQuery    service.RecordQuery
	lastCategory string
}

func (m *mockReportService) Records(_ context.Context, q service.RecordQuery) ([]model.ParticipationRecord, error) {
	m.lastQuery = q
	return m.records, m.err
}
func (m *mockReportService) Summary(_ context.Context, q service.RecordQuery) (report.Summary, error) {
	m.lastQuery = q
	return m.summary, m.err
}
func (m *mockReportService) Options(_ context.Context) (map[report.Field][]string, error) {
	return m.options, m.err
}
func (m *mockReportService) Recap(_ context.Context, category string, q service.RecordQuery) (*report.Recap, error) {
	m.lastCategory, m.lastQuery = category, q
	return m.recap, m.err
}
func (m *mockReportService) Gaps(_ context.Context, filter report.FilterSpec) (*report.GapReport, error) {
	m.lastQuery.Filter = filter
	return m.gaps, m.err
}
func (m *mockReportService) SchoolGap(_ context.Context, _ string, _ report.FilterSpec) (*report.SchoolGap, error) {
	return m.schoolGap, m.err
}
func (m *mockReportService) Schools(_ context.Context) ([]model.SchoolTarget, error) {
	return m.schools, m.err
}

// ── Mock DatasetService ──

type mockDatasetService struct {
	service.DatasetService
	invalidated []string
	err         error
}

func (m *mockDatasetService) Invalidate(_ context.Context, sheets ...string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.invalidated = sheets
	return append(sheets, "dataset"), nil
}

// ── Mock UploadService ──

type mockUploadService struct {
	result *dto.UploadResponse
	err    error
	input  *service.UploadInput
	logs   []model.UploadLog
}

func (m *mockUploadService) Upload(_ context.Context, in *service.UploadInput) (*dto.UploadResponse, error) {
	m.input = in
	return m.result, m.err
}
func (m *mockUploadService) ListLogs(_ context.Context, _ *dto.UploadLogListRequest) ([]model.UploadLog, int64, error) {
	return m.logs, int64(len(m.logs)), m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportRecommendations(_ context.Context, _ string, _ report.FilterSpec) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportRecap(_ context.Context, _ string, _ service.RecordQuery) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportRecords(_ context.Context, _ service.RecordQuery) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock SessionService ──

type mockSessionService struct {
	saved map[string]report.Session
}

func (m *mockSessionService) Get(_ context.Context, username string) (report.Session, error) {
	if s, ok := m.saved[username]; ok {
		return s, nil
	}
	return report.DefaultSession(), nil
}
func (m *mockSessionService) Save(_ context.Context, username string, s report.Session) (report.Session, error) {
	s.Sanitize()
	m.saved[username] = s
	return s, nil
}
func (m *mockSessionService) Reset(_ context.Context, username string) (report.Session, error) {
	delete(m.saved, username)
	return report.DefaultSession(), nil
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

// withAuth 模拟 JWTAuth 中间件注入的上下文
func withAuth(c *gin.Context) {
	c.Set(ContextUsername, "admin")
	c.Set(ContextClaims, &jwt.Claims{
		Username:  "admin",
		TokenType: jwt.TokenTypeAccess,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        "test-jti",
			ExpiresAt: jwtv5.NewNumericDate(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)),
		},
	})
}

// serve 注册单个路由并执行请求；auth 为 true 时先注入登录信息
func serve(method, path, target string, body io.Reader, contentType string, auth bool, h gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	handlers := []gin.HandlerFunc{h}
	if auth {
		handlers = append([]gin.HandlerFunc{withAuth}, handlers...)
	}
	r.Handle(method, path, handlers...)

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// parseData 把响应中的 data 解码到 v
func parseData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	if err := json.Unmarshal(resp.Data, v); err != nil {
		t.Fatalf("无法解码 data: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{loginResult: &dto.TokenResponse{AccessToken: "tok", TokenType: "Bearer", ExpiresIn: 3600}}
	h := NewAuthHandler(mock)

	w := serve("POST", "/auth/login", "/auth/login",
		jsonBody(dto.LoginRequest{Username: "admin", Password: "rahasia"}), "application/json", false, h.Login)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var tok dto.TokenResponse
	parseData(t, w, &tok)
	if tok.AccessToken != "tok" {
		t.Errorf("expected access token tok, got %s", tok.AccessToken)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := serve("POST", "/auth/login", "/auth/login",
		bytes.NewReader([]byte("invalid json")), "application/json", false, h.Login)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	w := serve("POST", "/auth/login", "/auth/login",
		jsonBody(dto.LoginRequest{Username: "admin", Password: "salah"}), "application/json", false, h.Login)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11001 {
		t.Errorf("expected code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	w := serve("POST", "/auth/logout", "/auth/logout", nil, "", true, h.Logout)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.loggedOut == nil || mock.loggedOut.ID != "test-jti" {
		t.Errorf("expected claims with jti test-jti to be revoked, got %+v", mock.loggedOut)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := serve("GET", "/auth/me", "/auth/me", nil, "", true, h.Me)
	var me dto.MeResponse
	parseData(t, w, &me)
	if me.Username != "admin" || me.ExpiresAt != "2030-01-01T00:00:00Z" {
		t.Errorf("unexpected me response: %+v", me)
	}

	w = serve("GET", "/auth/me", "/auth/me", nil, "", false, h.Me)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without auth, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// RecordHandler Tests
// ═══════════════════════════════════════════════════════════

func sampleRecords(n int) []model.ParticipationRecord {
	out := make([]model.ParticipationRecord, n)
	for i := range out {
		out[i] = model.ParticipationRecord{
			Name:     "Peserta",
			NPSN:     "10001",
			Level:    "SD",
			Date:     time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			Category: "Tendik",
		}
	}
	return out
}

func TestRecordHandler_ListRecords_PaginatesAndFilters(t *testing.T) {
	mock := &mockReportService{records: sampleRecords(5)}
	h := NewRecordHandler(mock, &mockDatasetService{})

	w := serve("GET", "/records",
		"/records?jenjang=SD&jenjang=SMP&start_date=2024-01-01&end_date=2024-12-31&nama=ani&page=2&page_size=2",
		nil, "", true, h.ListRecords)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var page struct {
		List       []dto.RecordResponse `json:"list"`
		Pagination response.Pagination  `json:"pagination"`
	}
	parseData(t, w, &page)
	if len(page.List) != 2 || page.Pagination.Total != 5 || page.Pagination.TotalPages != 3 {
		t.Errorf("unexpected page: %+v", page.Pagination)
	}
	if page.List[0].Date != "2024-01-10" {
		t.Errorf("expected date 2024-01-10, got %s", page.List[0].Date)
	}

	q := mock.lastQuery
	if got := q.Filter.Sets[report.FieldLevel]; len(got) != 2 {
		t.Errorf("expected 2 jenjang values, got %v", got)
	}
	if !q.Filter.DateActive() || q.Search.Name != "ani" {
		t.Errorf("unexpected query: %+v", q)
	}
}

func TestRecordHandler_ListRecords_BadDate(t *testing.T) {
	h := NewRecordHandler(&mockReportService{}, &mockDatasetService{})

	w := serve("GET", "/records", "/records?start_date=10-01-2024", nil, "", true, h.ListRecords)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRecordHandler_ListRecords_StoreUnavailable(t *testing.T) {
	mock := &mockReportService{err: apperrors.ErrStoreUnavailable}
	h := NewRecordHandler(mock, &mockDatasetService{})

	w := serve("GET", "/records", "/records", nil, "", true, h.ListRecords)
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 12001 {
		t.Errorf("expected code 12001, got %d", resp.Code)
	}
}

func TestRecordHandler_ListRecords_MissingColumns(t *testing.T) {
	mock := &mockReportService{err: &report.MissingColumnsError{Table: "Sekolah", Columns: []string{"NPSN"}}}
	h := NewRecordHandler(mock, &mockDatasetService{})

	w := serve("GET", "/records", "/records", nil, "", true, h.ListRecords)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
	resp := parseResponse(w)
	details, _ := resp.Details.(map[string]interface{})
	if details["table"] != "Sekolah" {
		t.Errorf("expected details to name the table, got %v", resp.Details)
	}
}

func TestRecordHandler_Summary(t *testing.T) {
	mock := &mockReportService{summary: report.Summary{UniqueParticipants: 3, TotalParticipants: 4}}
	h := NewRecordHandler(mock, &mockDatasetService{})

	w := serve("GET", "/records/summary", "/records/summary?kategori=Tendik", nil, "", true, h.Summary)
	var sum report.Summary
	parseData(t, w, &sum)
	if sum.UniqueParticipants != 3 || sum.TotalParticipants != 4 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if got := mock.lastQuery.Filter.Sets[report.FieldCategory]; len(got) != 1 || got[0] != "Tendik" {
		t.Errorf("expected kategori filter, got %v", got)
	}
}

func TestRecordHandler_Refresh(t *testing.T) {
	ds := &mockDatasetService{}
	h := NewRecordHandler(&mockReportService{}, ds)

	w := serve("POST", "/records/refresh", "/records/refresh?sheet=Tendik", nil, "", true, h.Refresh)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(ds.invalidated) != 1 || ds.invalidated[0] != "Tendik" {
		t.Errorf("expected Tendik to be invalidated, got %v", ds.invalidated)
	}

	h = NewRecordHandler(&mockReportService{}, &mockDatasetService{err: service.ErrUnknownSheet})
	w = serve("POST", "/records/refresh", "/records/refresh?sheet=Dapodik", nil, "", true, h.Refresh)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ReportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestReportHandler_Recap_DefaultCategory(t *testing.T) {
	mock := &mockReportService{recap: &report.Recap{Category: report.CategoryTendik}}
	h := NewReportHandler(mock)

	w := serve("GET", "/recap", "/recap", nil, "", true, h.Recap)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastCategory != "Tendik" {
		t.Errorf("expected default category Tendik, got %q", mock.lastCategory)
	}
}

func TestReportHandler_Recap_UnknownCategory(t *testing.T) {
	h := NewReportHandler(&mockReportService{err: service.ErrUnknownCategory})

	w := serve("GET", "/recap", "/recap?category=Guru", nil, "", true, h.Recap)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestReportHandler_Recommendations_RosterUnavailable(t *testing.T) {
	mock := &mockReportService{gaps: &report.GapReport{Status: report.GapRosterUnavailable, Entries: []report.GapEntry{}}}
	h := NewReportHandler(mock)

	w := serve("GET", "/recommendations", "/recommendations", nil, "", true, h.Recommendations)
	if w.Code != http.StatusOK {
		t.Fatalf("roster unavailable is a status, not an error; got %d", w.Code)
	}
	var page struct {
		Extra gapSummary `json:"extra"`
	}
	parseData(t, w, &page)
	if page.Extra.Status != report.GapRosterUnavailable {
		t.Errorf("expected roster_unavailable, got %s", page.Extra.Status)
	}
}

func TestReportHandler_SchoolRecommendation(t *testing.T) {
	mock := &mockReportService{schoolGap: &report.SchoolGap{Status: report.GapHasGaps, NPSN: "20001", Remaining: []string{"Fajar"}}}
	h := NewReportHandler(mock)

	w := serve("GET", "/recommendations/schools/:npsn", "/recommendations/schools/20001", nil, "", true, h.SchoolRecommendation)
	var gap report.SchoolGap
	parseData(t, w, &gap)
	if gap.NPSN != "20001" || len(gap.Remaining) != 1 {
		t.Errorf("unexpected gap: %+v", gap)
	}

	h = NewReportHandler(&mockReportService{err: service.ErrSchoolNotFound})
	w = serve("GET", "/recommendations/schools/:npsn", "/recommendations/schools/0", nil, "", true, h.SchoolRecommendation)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// UploadHandler Tests
// ═══════════════════════════════════════════════════════════

func multipartUpload(t *testing.T, fields map[string]string, filename string, content []byte) (io.Reader, string) {
	t.Helper()
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("创建表单文件失败: %v", err)
		}
		_, _ = fw.Write(content)
	}
	_ = mw.Close()
	return body, mw.FormDataContentType()
}

func TestUploadHandler_Upload_Success(t *testing.T) {
	mock := &mockUploadService{result: &dto.UploadResponse{UploadID: "u-1", Category: "Tendik", RowCount: 2}}
	h := NewUploadHandler(mock, 1<<20)

	body, ct := multipartUpload(t, map[string]string{"category": "Tendik"}, "tendik.csv", []byte("a;b\n1;2\n"))
	w := serve("POST", "/uploads", "/uploads", body, ct, true, h.Upload)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if mock.input.UploadedBy != "admin" || mock.input.Filename != "tendik.csv" || string(mock.input.Data) != "a;b\n1;2\n" {
		t.Errorf("unexpected upload input: %+v", mock.input)
	}
}

func TestUploadHandler_Upload_DryRun(t *testing.T) {
	mock := &mockUploadService{result: &dto.UploadResponse{Category: "Tendik", DryRun: true}}
	h := NewUploadHandler(mock, 1<<20)

	body, ct := multipartUpload(t, map[string]string{"category": "Tendik", "dry_run": "true"}, "t.csv", []byte("x"))
	w := serve("POST", "/uploads", "/uploads", body, ct, true, h.Upload)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for dry run, got %d", w.Code)
	}
	if !mock.input.DryRun {
		t.Error("expected dry_run to be passed through")
	}
}

func TestUploadHandler_Upload_MissingColumns(t *testing.T) {
	mock := &mockUploadService{err: &report.MissingColumnsError{Table: "t.csv", Columns: []string{"KECAMATAN"}}}
	h := NewUploadHandler(mock, 1<<20)

	body, ct := multipartUpload(t, map[string]string{"category": "Tendik"}, "t.csv", []byte("x"))
	w := serve("POST", "/uploads", "/uploads", body, ct, true, h.Upload)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 13004 {
		t.Errorf("expected code 13004, got %d", resp.Code)
	}
}

func TestUploadHandler_Upload_Validation(t *testing.T) {
	h := NewUploadHandler(&mockUploadService{}, 4)

	body, ct := multipartUpload(t, map[string]string{}, "t.csv", []byte("x"))
	if w := serve("POST", "/uploads", "/uploads", body, ct, true, h.Upload); w.Code != http.StatusBadRequest {
		t.Errorf("missing category: expected 400, got %d", w.Code)
	}

	body, ct = multipartUpload(t, map[string]string{"category": "Tendik"}, "", nil)
	if w := serve("POST", "/uploads", "/uploads", body, ct, true, h.Upload); w.Code != http.StatusBadRequest {
		t.Errorf("missing file: expected 400, got %d", w.Code)
	}

	body, ct = multipartUpload(t, map[string]string{"category": "Tendik"}, "t.csv", []byte("too large"))
	if w := serve("POST", "/uploads", "/uploads", body, ct, true, h.Upload); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized file: expected 413, got %d", w.Code)
	}
}

func TestUploadHandler_Upload_UnsupportedFile(t *testing.T) {
	h := NewUploadHandler(&mockUploadService{err: service.ErrUnsupportedFile}, 1<<20)

	body, ct := multipartUpload(t, map[string]string{"category": "Tendik"}, "t.pdf", []byte("x"))
	w := serve("POST", "/uploads", "/uploads", body, ct, true, h.Upload)
	if resp := parseResponse(w); w.Code != http.StatusBadRequest || resp.Code != 13001 {
		t.Errorf("expected 400/13001, got %d/%d", w.Code, resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportRecommendations_Success(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("PKfake"), filename: "Rekomendasi_20240501.xlsx"}
	h := NewExportHandler(mock)

	w := serve("GET", "/export/recommendations", "/export/recommendations", nil, "", true, h.ExportRecommendations)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != response.XLSXContentType {
		t.Errorf("unexpected content type %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename*=UTF-8''Rekomendasi_20240501.xlsx" {
		t.Errorf("unexpected content disposition %s", cd)
	}
}

func TestExportHandler_RosterUnavailable(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrRosterUnavailable})

	w := serve("GET", "/export/recommendations", "/export/recommendations", nil, "", true, h.ExportRecommendations)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestExportHandler_GenerateFail(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: errors.Join(service.ErrExportGenerateFail, errors.New("disk"))})

	w := serve("GET", "/export/records", "/export/records", nil, "", true, h.ExportRecords)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// SessionHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSessionHandler_SaveGetReset(t *testing.T) {
	mock := &mockSessionService{saved: map[string]report.Session{}}
	h := NewSessionHandler(mock)

	w := serve("PUT", "/session", "/session",
		jsonBody(report.Session{Page: report.PageRecap, Category: "kejuruan", PageSize: 20}), "application/json", true, h.Save)
	var saved report.Session
	parseData(t, w, &saved)
	if saved.Category != report.CategoryKejuruan || saved.Page != report.PageRecap {
		t.Errorf("unexpected saved session: %+v", saved)
	}

	w = serve("GET", "/session", "/session", nil, "", true, h.Get)
	var got report.Session
	parseData(t, w, &got)
	if got.Page != report.PageRecap {
		t.Errorf("expected saved page, got %+v", got)
	}

	w = serve("DELETE", "/session", "/session", nil, "", true, h.Reset)
	parseData(t, w, &got)
	if got.Page != report.DefaultPage {
		t.Errorf("expected default page after reset, got %+v", got)
	}
}

// ═══════════════════════════════════════════════════════════
// HealthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(map[string]HealthCheck{
		"redis": func(context.Context) error { return nil },
	})
	if w := serve("GET", "/health", "/health", nil, "", false, h.Health); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	h = NewHealthHandler(map[string]HealthCheck{
		"database": func(context.Context) error { return errors.New("connection refused") },
	})
	if w := serve("GET", "/health", "/health", nil, "", false, h.Health); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}
