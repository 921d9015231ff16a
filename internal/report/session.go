package report

// Page 仪表盘当前所在页面
type Page string

const (
	PageData           Page = "data"
	PageRecap          Page = "rekap"
	PageRecommendation Page = "rekomendasi"
	PageUpload         Page = "upload"
)

// 会话默认值
const (
	DefaultPage     = PageData
	DefaultCategory = CategoryTendik
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Session 单个操作员的界面状态：当前页面、筛选条件、检索词、
// 达成率类别与推荐页选中的学校。通过 Reset 恢复默认值。
type Session struct {
	Page       Page           `json:"page"`
	Filter     FilterSpec     `json:"filter"`
	Search     SearchSpec     `json:"search"`
	Category   TargetCategory `json:"category"`
	SchoolNPSN string         `json:"school_npsn,omitempty"`
	PageSize   int            `json:"page_size"`
}

// DefaultSession 返回带默认值的会话
func DefaultSession() Session {
	return Session{
		Page:     DefaultPage,
		Category: DefaultCategory,
		PageSize: DefaultPageSize,
	}
}

// Reset 恢复为默认值
func (s *Session) Reset() {
	*s = DefaultSession()
}

// Sanitize 修正越界或未知的取值
func (s *Session) Sanitize() {
	switch s.Page {
	case PageData, PageRecap, PageRecommendation, PageUpload:
	default:
		s.Page = DefaultPage
	}
	if c, ok := ParseCategory(string(s.Category)); ok {
		s.Category = c
	} else {
		s.Category = DefaultCategory
	}
	if s.PageSize <= 0 {
		s.PageSize = DefaultPageSize
	}
	if s.PageSize > MaxPageSize {
		s.PageSize = MaxPageSize
	}
	s.SchoolNPSN = CanonicalNPSN(s.SchoolNPSN)
}
