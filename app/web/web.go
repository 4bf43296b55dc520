// Package web implements the web server for the job tracker: the HTMX table UI, the JSON API
// and the optional password gate
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/didip/tollbooth/v8"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/umputun/jobtrack/app/store"
	storeEnums "github.com/umputun/jobtrack/app/store/enums"
	"github.com/umputun/jobtrack/app/view"
	"github.com/umputun/jobtrack/app/web/enums"
)

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// cookie names for transient per-browser state
const (
	cookieFilter   = "filter"
	cookieSort     = "sort"
	cookieTheme    = "theme"
)

// Store defines the tracker operations used by the web server
type Store interface {
	Snapshot() store.Data
	AddRole(name string) bool
	UpdateRole(oldName, newName string) bool
	DeleteRole(name string) bool
	AddJob(data store.JobData) store.Job
	UpdateJob(id string, updates ...store.JobUpdate) bool
	DeleteJobs(ids []string) int
	UpdateTableLayout(layout []store.Column)
	UpdateMinDesiredSalary(v int)
	Export(format storeEnums.Format) (string, error)
	Import(text string, format storeEnums.Format) error
}

// Server represents the web server
type Server struct {
	store          Store
	templates      map[string]*template.Template
	baseURL        string // base URL path for reverse proxy (e.g., /jobs), empty for root
	version        string
	passwordHash   string                      // bcrypt hash for the login form and basic auth
	loginTTL       time.Duration               // auth cookie lifetime
	csrfProtection *http.CrossOriginProtection // csrf protection for POST endpoints
	printer        *message.Printer            // number formatting for salaries
	now            func() time.Time
}

// Config holds server configuration
type Config struct {
	Store        Store
	BaseURL      string // base URL path for reverse proxy (e.g., /jobs), empty for root
	Version      string
	PasswordHash string        // bcrypt hash for auth (empty to disable)
	LoginTTL     time.Duration // auth cookie lifetime, defaults to 7 days if not set
}

// TemplateData holds data for templates
type TemplateData struct {
	BaseURL          string
	Theme            enums.Theme
	AuthEnabled      bool
	Version          string // application version (short form)
	FullVersion      string
	CurrentYear      int
	Roles            []string
	MinDesiredSalary int
	Table            view.Table
	Filter           view.Filter
	Sort             view.Sort
	ProgressNames    []string
	Ratings          []int
	Error            string // shown as an error toast
	Notice           string // shown as an info toast
}

// New creates a new web server
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("web server initialization failed: store is required")
	}

	loginTTL := cfg.LoginTTL
	if loginTTL == 0 {
		loginTTL = 7 * 24 * time.Hour
	}

	s := &Server{
		store:          cfg.Store,
		baseURL:        cfg.BaseURL,
		version:        cfg.Version,
		passwordHash:   cfg.PasswordHash,
		loginTTL:       loginTTL,
		csrfProtection: http.NewCrossOriginProtection(),
		printer:        message.NewPrinter(language.English),
		now:            time.Now,
	}

	templates, err := s.parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("web server initialization failed: failed to parse HTML templates: %w", err)
	}
	s.templates = templates
	return s, nil
}

// Run starts the web server and blocks until ctx is canceled
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// handler returns the http.Handler with base URL wrapping applied
func (s *Server) handler() http.Handler {
	routes := s.routes()
	if s.baseURL == "" {
		return routes
	}

	mux := http.NewServeMux()
	// base URL without trailing slash redirects to the one with it
	mux.HandleFunc(s.baseURL, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.baseURL+"/", http.StatusMovedPermanently)
	})
	mux.Handle(s.baseURL+"/", http.StripPrefix(s.baseURL, routes))
	return mux
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("jobtrack", "umputun", s.version),
		rest.Ping,
		rest.SizeLimit(4*1024*1024), // imports can be large
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	// auth middleware must be set before any routes are defined
	if s.passwordHash != "" {
		log.Printf("[INFO] authentication enabled for web UI")
		router.Use(s.authMiddleware)
		router.HandleFunc("GET /login", s.handleLoginForm)
		router.With(s.csrfProtection.Handler, tollbooth.HTTPMiddleware(loginLimiter)).HandleFunc("POST /login", s.handleLogin)
		router.HandleFunc("GET /logout", s.handleLogout)
	}

	router.HandleFunc("GET /{$}", s.handleDashboard)

	// HTMX endpoints, each returns the re-rendered app partial
	router.Mount("/api").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.Use(s.csrfProtection.Handler)

		api.HandleFunc("GET /jobs", s.handleAppPartial)
		api.HandleFunc("POST /jobs", s.handleCreateJob)
		api.HandleFunc("POST /jobs/delete-selected", s.handleDeleteSelected)
		api.HandleFunc("POST /jobs/{id}/cell", s.handleCellEdit)
		api.HandleFunc("POST /jobs/{id}/delete", s.handleDeleteJob)
		api.HandleFunc("POST /select-all", s.handleSelectAll)
		api.HandleFunc("POST /select", s.handleSelect)
		api.HandleFunc("POST /sort/{column}", s.handleSortToggle)
		api.HandleFunc("POST /layout", s.handleLayout)
		api.HandleFunc("POST /search", s.handleSearch)
		api.HandleFunc("POST /filters/clear", s.handleClearFilters)
		api.HandleFunc("POST /roles", s.handleAddRole)
		api.HandleFunc("POST /roles/rename", s.handleRenameRole)
		api.HandleFunc("POST /roles/delete", s.handleDeleteRole)
		api.HandleFunc("POST /roles/filter", s.handleRoleFilter)
		api.HandleFunc("POST /salary", s.handleMinSalary)
		api.HandleFunc("POST /theme", s.handleThemeToggle)
	})

	// JSON API for CLI/programmatic access
	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.Use(s.csrfProtection.Handler)
		api.HandleFunc("GET /export", s.handleAPIExport)
		api.HandleFunc("POST /import", s.handleAPIImport)
		api.HandleFunc("GET /jobs", s.handleAPIJobs)
		api.HandleFunc("GET /schema", s.handleAPISchema)
	})

	fsys, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Printf("[ERROR] failed to create static file system: %v", err)
		router.Handle("GET /static/", http.FileServer(http.FS(staticFS)))
	} else {
		router.HandleFiles("/static/", http.FS(fsys))
	}

	return router
}

// render renders a template
func (s *Server) render(w http.ResponseWriter, status int, page, tmplName string, data any) {
	tmpl, ok := s.templates[page]
	if !ok {
		log.Printf("[WARN] template %s not found", page)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, tmplName, data); err != nil {
		log.Printf("[WARN] failed to execute template: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write response: %v", err)
	}
}

// parseTemplates parses all templates
func (s *Server) parseTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)

	funcMap := template.FuncMap{
		"url":       s.url,
		"salary":    s.salary,
		"field":     fieldValue,
		"cell":      s.cell,
		"label":     func(c store.Column) string { return c.Label() },
		"sortMark":  sortMark,
		"hasRole":   func(roles []string, r string) bool { return slices.Contains(roles, r) },
		"roleCount": func(counts map[string]int, r string) int { return counts[r] },
		"jobPath":   func(id, suffix string) string { return s.url("/api/jobs/" + url.PathEscape(id) + suffix) },
		"sortPath":  func(c store.Column) string { return s.url("/api/sort/" + string(c)) },
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templatesFS,
		"templates/base.html", "templates/dashboard.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base template: %w", err)
	}
	templates["base.html"] = base

	// partials separately for HTMX requests
	partials, err := template.New("app.html").Funcs(funcMap).ParseFS(templatesFS, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse partials: %w", err)
	}
	templates["partials/app.html"] = partials

	// login template is standalone, doesn't use base
	login, err := template.New("login.html").Funcs(funcMap).ParseFS(templatesFS, "templates/login.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse login template: %w", err)
	}
	templates["login"] = login

	return templates, nil
}

// viewState restores the transient UI state from cookies, broken cookies are ignored.
// Row selection isn't kept in cookies, the page sends the selected ids with every request.
func (s *Server) viewState(r *http.Request) view.State {
	st := view.State{}

	if c, err := r.Cookie(cookieFilter); err == nil && c.Value != "" {
		vals, err := url.ParseQuery(c.Value)
		if err != nil {
			log.Printf("[WARN] invalid filter cookie %q: %v", c.Value, err)
		} else {
			st.Filter = view.Filter{Roles: vals["role"], Search: vals.Get("q")}
		}
	}

	if c, err := r.Cookie(cookieSort); err == nil {
		sort, err := view.ParseSort(c.Value)
		if err != nil {
			log.Printf("[WARN] invalid sort cookie %q: %v", c.Value, err)
		}
		st.Sort = sort
	}

	if err := r.ParseForm(); err != nil {
		log.Printf("[WARN] can't parse form for selection: %v", err)
		return st
	}
	st.Selection = view.NewSelection(r.Form["selected"]...)
	return st
}

// saveViewState writes the transient UI state back to cookies
func (s *Server) saveViewState(w http.ResponseWriter, st view.State) {
	filter := url.Values{}
	if len(st.Filter.Roles) > 0 {
		filter["role"] = st.Filter.Roles
	}
	if st.Filter.Search != "" {
		filter.Set("q", st.Filter.Search)
	}
	s.setCookie(w, cookieFilter, filter.Encode())
	s.setCookie(w, cookieSort, st.Sort.String())
}

// setCookie sets a long-living UI state cookie, empty value removes it
func (s *Server) setCookie(w http.ResponseWriter, name, value string) {
	maxAge := 365 * 24 * 60 * 60 // 1 year
	if value == "" {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     s.cookiePath(),
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) getTheme(r *http.Request) enums.Theme {
	cookie, err := r.Cookie(cookieTheme)
	if err != nil {
		return enums.ThemeDark // default to dark when no cookie
	}
	theme, err := enums.ParseTheme(cookie.Value)
	if err != nil {
		log.Printf("[WARN] invalid theme %q: %v", cookie.Value, err)
		return enums.ThemeDark
	}
	return theme
}

// newTemplateData makes TemplateData for the given store snapshot and view state
func (s *Server) newTemplateData(r *http.Request, data store.Data, st view.State) TemplateData {
	return TemplateData{
		BaseURL:          s.baseURL,
		Theme:            s.getTheme(r),
		AuthEnabled:      s.passwordHash != "",
		Version:          shortVersion(s.version),
		FullVersion:      s.version,
		CurrentYear:      s.now().Year(),
		Roles:            data.Roles,
		MinDesiredSalary: data.MinDesiredSalary,
		Table:            view.Build(data, st),
		Filter:           st.Filter,
		Sort:             st.Sort,
		ProgressNames:    storeEnums.ProgressNames,
		Ratings:          []int{1, 2, 3, 4, 5},
	}
}

// template helper functions

// salary formats a salary with thousand separators, "-" for no value
func (s *Server) salary(v *int) string {
	if v == nil {
		return "-"
	}
	return s.printer.Sprintf("$%d", *v)
}

// option is a select option of an editable cell
type option struct {
	Value string
	Label string
}

// cellView is what the cell template needs to render one editable table cell
type cellView struct {
	Column  store.Column
	Value   string   // current value as editable text
	Display string   // read-only text for cells without Action
	Warn    bool     // value is suspicious, i.e. max salary below min salary
	Options []option // select options, empty for free text
	Action  string   // edit commit url
}

// cell makes the view of a job field for the table, roles are the known roles for the role select
func (s *Server) cell(j store.Job, c store.Column, roles []string) cellView {
	res := cellView{Column: c, Value: fieldValue(j, c), Action: s.url("/api/jobs/" + url.PathEscape(j.ID) + "/cell")}
	switch c {
	case store.ColumnSalaryMin:
		res.Value = s.salaryInput(j.SalaryMin)
	case store.ColumnSalaryMax:
		res.Value = s.salaryInput(j.SalaryMax)
		res.Warn = j.SalaryInverted()
	case store.ColumnDesirability:
		for i := 1; i <= 5; i++ {
			res.Options = append(res.Options, option{Value: strconv.Itoa(i), Label: strings.Repeat("★", i)})
		}
	case store.ColumnProgress:
		for _, p := range storeEnums.ProgressNames {
			res.Options = append(res.Options, option{Value: p, Label: p})
		}
	case store.ColumnRole:
		if !slices.Contains(roles, j.Role) {
			// keep the current value selectable even if the role was deleted
			res.Options = append(res.Options, option{Value: j.Role, Label: j.Role})
		}
		for _, r := range roles {
			res.Options = append(res.Options, option{Value: r, Label: r})
		}
	case store.ColumnCreatedAt:
		res.Action = ""
		res.Display = j.CreatedAt.Local().Format("2006-01-02")
	}
	return res
}

// salaryInput is the formatted salary for an input, blank for no value
func (s *Server) salaryInput(v *int) string {
	if v == nil {
		return ""
	}
	return s.salary(v)
}

// fieldValue returns the editable text of a job field
func fieldValue(j store.Job, c store.Column) string {
	switch c {
	case store.ColumnCompanyName:
		return j.CompanyName
	case store.ColumnLink:
		return j.Link
	case store.ColumnDesirability:
		return strconv.Itoa(j.Desirability)
	case store.ColumnSalaryMin:
		return optInt(j.SalaryMin)
	case store.ColumnSalaryMax:
		return optInt(j.SalaryMax)
	case store.ColumnRole:
		return j.Role
	case store.ColumnKeywords:
		return strings.Join(j.Keywords, ", ")
	case store.ColumnProgress:
		return j.Progress.String()
	case store.ColumnCreatedAt:
		return j.CreatedAt.Format(time.RFC3339)
	}
	return ""
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// sortMark returns the header arrow for the column
func sortMark(st view.Sort, c store.Column) string {
	dir, ok := st.DirectionFor(c)
	if !ok {
		return ""
	}
	if dir == storeEnums.SortDirectionDesc {
		return "▼"
	}
	return "▲"
}

// url prepends the base URL to a path for reverse proxy support
func (s *Server) url(path string) string {
	return s.baseURL + path
}

// cookiePath returns the cookie path with base URL support
func (s *Server) cookiePath() string {
	if s.baseURL == "" {
		return "/"
	}
	return s.baseURL + "/"
}

// shortVersion extracts a short version string from full version
// for version like "v1.7.0-abc1234-20241225", returns "v1.7.0"
func shortVersion(fullVer string) string {
	if fullVer == "" || fullVer == "unknown" {
		return fullVer
	}
	if idx := strings.Index(fullVer, "-"); idx > 0 {
		return fullVer[:idx]
	}
	return fullVer
}
