package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/jobtrack/app/store"
	storeEnums "github.com/umputun/jobtrack/app/store/enums"
	"github.com/umputun/jobtrack/app/store/persistence"
	"github.com/umputun/jobtrack/app/view"
	"github.com/umputun/jobtrack/app/web/enums"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(store.Params{Slot: persistence.NewMemorySlot(), Repeater: repeater.New(&strategy.Once{})})
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Store == nil {
		cfg.Store = newTestStore(t)
	}
	srv, err := New(cfg)
	require.NoError(t, err)
	srv.now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }
	return srv
}

// testClient sends requests to the handler keeping cookies between calls, like a browser
type testClient struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func newTestClient(t *testing.T, h http.Handler) *testClient {
	return &testClient{t: t, h: h, cookies: map[string]*http.Cookie{}}
}

func (c *testClient) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	return c.do(req)
}

func (c *testClient) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return c.do(req)
}

func (c *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *testClient) cookie(name string) string {
	if ck, ok := c.cookies[name]; ok {
		return ck.Value
	}
	return ""
}

// rowOrder returns company names in the order they appear in the table html
func rowOrder(body string, companies ...string) []string {
	type pos struct {
		name string
		idx  int
	}
	var found []pos
	for _, c := range companies {
		if i := strings.Index(body, `value="`+c+`"`); i >= 0 {
			found = append(found, pos{c, i})
		}
	}
	for i := range found {
		for j := i + 1; j < len(found); j++ {
			if found[j].idx < found[i].idx {
				found[i], found[j] = found[j], found[i]
			}
		}
	}
	res := make([]string, 0, len(found))
	for _, f := range found {
		res = append(res, f.name)
	}
	return res
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	srv, err := New(Config{Store: newTestStore(t)})
	require.NoError(t, err)
	assert.NotNil(t, srv.templates["base.html"])
	assert.NotNil(t, srv.templates["partials/app.html"])
	assert.NotNil(t, srv.templates["login"])
	assert.Equal(t, 7*24*time.Hour, srv.loginTTL)
}

func TestServer_Dashboard(t *testing.T) {
	st := newTestStore(t)
	st.AddRole("Backend")
	st.AddJob(store.JobData{CompanyName: "Acme", Role: "Backend", Desirability: 4})
	srv := newTestServer(t, Config{Store: st, Version: "v1.2.3-abc-20250101"})

	rec := newTestClient(t, srv.routes()).get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Job Tracker</title>")
	assert.Contains(t, body, `id="app"`)
	assert.Contains(t, body, `value="Acme"`)
	assert.Contains(t, body, "Backend")
	assert.Contains(t, body, "jobtrack v1.2.3")
	assert.Contains(t, body, `data-theme="dark"`)
	assert.Contains(t, body, "Company Name")
	assert.NotContains(t, body, "Logout")
}

func TestServer_BaseURL(t *testing.T) {
	srv := newTestServer(t, Config{BaseURL: "/jobs"})
	c := newTestClient(t, srv.handler())

	rec := c.get("/jobs")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/jobs/", rec.Header().Get("Location"))

	rec = c.get("/jobs/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/jobs/static/app.css"`)
	assert.Contains(t, rec.Body.String(), `hx-post="/jobs/api/search"`)

	rec = c.post("/jobs/api/theme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/jobs/", c.cookies[cookieTheme].Path)
}

func TestServer_Static(t *testing.T) {
	srv := newTestServer(t, Config{})
	c := newTestClient(t, srv.routes())

	rec := c.get("/static/app.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/layout")

	rec = c.get("/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestServer_viewState(t *testing.T) {
	srv := newTestServer(t, Config{})

	t.Run("no cookies", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		assert.Equal(t, view.State{}, srv.viewState(req))
	})

	t.Run("round trip", func(t *testing.T) {
		st := view.State{
			Filter:    view.Filter{Roles: []string{"Back end", "QA;ops"}, Search: "react, go"},
			Sort:      view.Sort{Column: store.ColumnSalaryMin, Direction: storeEnums.SortDirectionDesc},
			Selection: view.NewSelection("id-1", "id-2"),
		}
		rec := httptest.NewRecorder()
		srv.saveViewState(rec, st)
		for _, ck := range rec.Result().Cookies() {
			assert.NotEqual(t, "selected", ck.Name, "selection is sent by the page, not kept in cookies")
		}

		req := httptest.NewRequest(http.MethodGet, "/?selected=id-1&selected=id-2&selected=id-1", http.NoBody)
		for _, ck := range rec.Result().Cookies() {
			req.AddCookie(ck)
		}
		assert.Equal(t, st, srv.viewState(req))
	})

	t.Run("broken cookies ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.AddCookie(&http.Cookie{Name: cookieSort, Value: "nope:asc"})
		req.AddCookie(&http.Cookie{Name: cookieFilter, Value: "%zz"})
		assert.Equal(t, view.State{}, srv.viewState(req))
	})
}

func TestServer_getTheme(t *testing.T) {
	srv := newTestServer(t, Config{})
	tests := []struct {
		cookie string
		want   enums.Theme
	}{
		{"", enums.ThemeDark},
		{"light", enums.ThemeLight},
		{"dark", enums.ThemeDark},
		{"purple", enums.ThemeDark},
	}
	for _, tt := range tests {
		t.Run(tt.cookie, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: cookieTheme, Value: tt.cookie})
			}
			assert.Equal(t, tt.want, srv.getTheme(req))
		})
	}
}

func TestServer_cell(t *testing.T) {
	srv := newTestServer(t, Config{})
	lo, hi := 150000, 120000
	job := store.Job{ID: "a/b", CompanyName: "Acme", Desirability: 2, SalaryMin: &lo, SalaryMax: &hi,
		Role: "Gone", Keywords: []string{"go", "k8s"}, Progress: storeEnums.ProgressOffer,
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}

	c := srv.cell(job, store.ColumnSalaryMin, nil)
	assert.Equal(t, "$150,000", c.Value)
	assert.False(t, c.Warn)
	assert.Equal(t, "/api/jobs/a%2Fb/cell", c.Action)

	c = srv.cell(job, store.ColumnSalaryMax, nil)
	assert.Equal(t, "$120,000", c.Value)
	assert.True(t, c.Warn, "max below min is flagged")

	c = srv.cell(job, store.ColumnDesirability, nil)
	assert.Equal(t, "2", c.Value)
	require.Len(t, c.Options, 5)
	assert.Equal(t, option{Value: "3", Label: "★★★"}, c.Options[2])

	c = srv.cell(job, store.ColumnRole, []string{"Backend"})
	assert.Equal(t, []option{{"Gone", "Gone"}, {"Backend", "Backend"}}, c.Options, "deleted role stays selectable")

	c = srv.cell(job, store.ColumnKeywords, nil)
	assert.Equal(t, "go, k8s", c.Value)
	assert.Empty(t, c.Options)

	c = srv.cell(job, store.ColumnCreatedAt, nil)
	assert.Empty(t, c.Action, "read-only")
	assert.NotEmpty(t, c.Display)

	c = srv.cell(store.Job{}, store.ColumnSalaryMin, nil)
	assert.Empty(t, c.Value)
}

func TestSortMark(t *testing.T) {
	st := view.Sort{Column: store.ColumnRole, Direction: storeEnums.SortDirectionAsc}
	assert.Equal(t, "▲", sortMark(st, store.ColumnRole))
	assert.Empty(t, sortMark(st, store.ColumnLink))
	st.Direction = storeEnums.SortDirectionDesc
	assert.Equal(t, "▼", sortMark(st, store.ColumnRole))
	assert.Empty(t, sortMark(view.Sort{}, store.ColumnRole))
}

func TestShortVersion(t *testing.T) {
	tests := []struct{ in, want string }{
		{"v1.7.0-abc1234-20241225", "v1.7.0"},
		{"v1.7.0", "v1.7.0"},
		{"", ""},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shortVersion(tt.in))
	}
}

func TestServer_salary(t *testing.T) {
	srv := newTestServer(t, Config{})
	v := 1234567
	assert.Equal(t, "$1,234,567", srv.salary(&v))
	assert.Equal(t, "-", srv.salary(nil))
}
