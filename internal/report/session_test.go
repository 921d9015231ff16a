package report

import "testing"

func TestSession_Sanitize(t *testing.T) {
	s := Session{Page: "tidak-ada", Category: "kejuruan", PageSize: 10000, SchoolNPSN: " 20100123.0 "}
	s.Sanitize()

	if s.Page != DefaultPage {
		t.Errorf("未知页面应回退为 %q，实际 %q", DefaultPage, s.Page)
	}
	if s.Category != CategoryKejuruan {
		t.Errorf("类别应规范化为 Kejuruan，实际 %q", s.Category)
	}
	if s.PageSize != MaxPageSize {
		t.Errorf("分页大小应封顶为 %d，实际 %d", MaxPageSize, s.PageSize)
	}
	if s.SchoolNPSN != "20100123" {
		t.Errorf("NPSN 应规范化，实际 %q", s.SchoolNPSN)
	}

	s = Session{Category: "x"}
	s.Sanitize()
	if s.Category != DefaultCategory || s.PageSize != DefaultPageSize {
		t.Errorf("非法取值应回退为默认值，实际 %+v", s)
	}
}

func TestSession_Reset(t *testing.T) {
	s := Session{Page: PageRecap, Category: CategoryPendidik, SchoolNPSN: "1", PageSize: 20}
	s.Filter = s.Filter.With(FieldLevel, "SD")
	s.Search.Name = "ani"

	s.Reset()
	if s.Page != DefaultPage || s.Category != DefaultCategory || s.PageSize != DefaultPageSize {
		t.Errorf("Reset 后应为默认值，实际 %+v", s)
	}
	if s.Filter.Active() || s.Search.Active() || s.SchoolNPSN != "" {
		t.Errorf("Reset 应清空筛选与检索，实际 %+v", s)
	}
}
