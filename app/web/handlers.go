package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/jobtrack/app/store"
	storeEnums "github.com/umputun/jobtrack/app/store/enums"
	"github.com/umputun/jobtrack/app/view"
	"github.com/umputun/jobtrack/app/web/enums"
)

const defaultDesirability = 3

// toast is a one-off message shown after an action
type toast struct {
	err    string
	notice string
}

// handleDashboard renders the main page
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	st := s.viewState(r)
	data := s.newTemplateData(r, s.store.Snapshot(), st)
	s.render(w, http.StatusOK, "base.html", "base", data)
}

// handleAppPartial returns the app partial (sidebar and table) for HTMX refresh
func (s *Server) handleAppPartial(w http.ResponseWriter, r *http.Request) {
	s.renderApp(w, r, s.viewState(r), toast{})
}

// renderApp saves the view state and renders the app partial.
// Responses carrying an error use 422, the page swaps it in and shows the error toast.
func (s *Server) renderApp(w http.ResponseWriter, r *http.Request, st view.State, t toast) {
	data := s.newTemplateData(r, s.store.Snapshot(), st)
	data.Error, data.Notice = t.err, t.notice
	s.saveViewState(w, st)

	status := http.StatusOK
	if t.err != "" {
		status = http.StatusUnprocessableEntity
	}
	s.render(w, status, "partials/app.html", "app", data)
}

// handleCreateJob adds a job from the new-row form
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	st := s.viewState(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	roles := s.store.Snapshot().Roles
	if len(roles) == 0 {
		s.renderApp(w, r, st, toast{err: "Please add at least one role before creating a job entry"})
		return
	}

	jd, err := jobDataFromForm(r, roles[0])
	if err != nil {
		s.renderApp(w, r, st, toast{err: err.Error()})
		return
	}

	job := s.store.AddJob(jd)
	log.Printf("[INFO] job %s added, company %q", job.ID, job.CompanyName)
	s.renderApp(w, r, st, toast{notice: "Job application added"})
}

// jobDataFromForm makes new job data from the form values, blank role means defaultRole
func jobDataFromForm(r *http.Request, defaultRole string) (store.JobData, error) {
	res := store.JobData{
		CompanyName:  strings.TrimSpace(r.FormValue("companyName")),
		Link:         strings.TrimSpace(r.FormValue("link")),
		Desirability: defaultDesirability,
		Role:         r.FormValue("role"),
		Keywords:     store.SplitKeywords(r.FormValue("keywords")),
		Progress:     storeEnums.ProgressProspecting,
	}
	if res.CompanyName == "" {
		return store.JobData{}, fmt.Errorf("company name is required")
	}
	if res.Role == "" {
		res.Role = defaultRole
	}

	if v := strings.TrimSpace(r.FormValue("desirability")); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return store.JobData{}, fmt.Errorf("invalid desirability %q", v)
		}
		res.Desirability = d
	}

	var err error
	if res.SalaryMin, err = store.ParseSalary(r.FormValue("salaryMin")); err != nil {
		return store.JobData{}, err
	}
	if res.SalaryMax, err = store.ParseSalary(r.FormValue("salaryMax")); err != nil {
		return store.JobData{}, err
	}

	if v := r.FormValue("progress"); v != "" {
		p, err := storeEnums.ParseProgress(v)
		if err != nil {
			return store.JobData{}, fmt.Errorf("invalid progress %q", v)
		}
		res.Progress = p
	}
	return res, nil
}

// handleCellEdit commits an inline cell edit
func (s *Server) handleCellEdit(w http.ResponseWriter, r *http.Request) {
	st := s.viewState(r)
	id := r.PathValue("id")
	field := store.Column(r.FormValue("field"))

	upd, err := store.ParseJobUpdate(field, r.FormValue("value"))
	if err != nil {
		log.Printf("[DEBUG] rejected edit of %s for job %s: %v", field, id, err)
		s.renderApp(w, r, st, toast{err: err.Error()})
		return
	}
	if !s.store.UpdateJob(id, upd) {
		s.renderApp(w, r, st, toast{err: "job not found"})
		return
	}
	s.renderApp(w, r, st, toast{})
}

// handleDeleteJob deletes a single job
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if n := s.store.DeleteJobs([]string{id}); n > 0 {
		log.Printf("[INFO] job %s deleted", id)
	}
	s.renderApp(w, r, s.viewState(r), toast{})
}

// handleDeleteSelected deletes all selected jobs and clears the selection
func (s *Server) handleDeleteSelected(w http.ResponseWriter, r *http.Request) {
	st := s.viewState(r)
	n := s.store.DeleteJobs(st.Selection.IDs())
	st.Selection = st.Selection.Clear()
	log.Printf("[INFO] %d selected jobs deleted", n)
	s.renderApp(w, r, st, toast{notice: fmt.Sprintf("%d job(s) deleted", n)})
}

// handleSelect renders the selection sent by the page after a row checkbox change
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	s.renderApp(w, r, s.viewState(r), toast{})
}

// handleSelectAll selects every visible row, or clears the selection if all are already selected
func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	st := s.viewState(r)
	visible := view.Build(s.store.Snapshot(), st).Jobs
	st.Selection = st.Selection.ToggleAll(view.IDs(visible))
	s.renderApp(w, r, st, toast{})
}

// handleSortToggle cycles the sort on a header click
func (s *Server) handleSortToggle(w http.ResponseWriter, r *http.Request) {
	col := store.Column(r.PathValue("column"))
	if !col.Known() {
		http.Error(w, "unknown column", http.StatusBadRequest)
		return
	}
	st := s.viewState(r)
	st.Sort = st.Sort.Toggle(col)
	s.renderApp(w, r, st, toast{})
}

// handleLayout moves a dragged column header to the drop target position
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	dragged, target := store.Column(r.FormValue("dragged")), store.Column(r.FormValue("target"))
	layout, changed := view.Reorder(s.store.Snapshot().TableLayout, dragged, target)
	if changed {
		s.store.UpdateTableLayout(layout)
		log.Printf("[DEBUG] column %s moved to %s", dragged, target)
	}
	s.renderApp(w, r, s.viewState(r), toast{})
}

// handleSearch sets the search text
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	st := s.viewState(r)
	st.Filter.Search = r.FormValue("search")
	s.renderApp(w, r, st, toast{})
}

// handleClearFilters drops role selection and search
func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	st := s.viewState(r)
	st.Filter = view.Filter{}
	s.renderApp(w, r, st, toast{notice: "Filters cleared"})
}

// handleAddRole adds a role
func (s *Server) handleAddRole(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("role"))
	if name != "" && s.store.AddRole(name) {
		log.Printf("[INFO] role %q added", name)
	}
	s.renderApp(w, r, s.viewState(r), toast{})
}

// handleRenameRole renames a role, jobs and the role filter follow the new name
func (s *Server) handleRenameRole(w http.ResponseWriter, r *http.Request) {
	st := s.viewState(r)
	oldName, newName := r.FormValue("old"), strings.TrimSpace(r.FormValue("new"))
	if s.store.UpdateRole(oldName, newName) {
		log.Printf("[INFO] role %q renamed to %q", oldName, newName)
		if st.Filter.HasRole(oldName) {
			st.Filter = st.Filter.ToggleRole(oldName).ToggleRole(newName)
		}
	}
	s.renderApp(w, r, st, toast{})
}

// handleDeleteRole removes a role, jobs keep their role value
func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	st := s.viewState(r)
	name := r.FormValue("role")
	if s.store.DeleteRole(name) {
		log.Printf("[INFO] role %q deleted", name)
		if st.Filter.HasRole(name) {
			st.Filter = st.Filter.ToggleRole(name)
		}
	}
	s.renderApp(w, r, st, toast{})
}

// handleRoleFilter toggles a role in the role filter
func (s *Server) handleRoleFilter(w http.ResponseWriter, r *http.Request) {
	st := s.viewState(r)
	st.Filter = st.Filter.ToggleRole(r.FormValue("role"))
	s.renderApp(w, r, st, toast{})
}

// handleMinSalary sets min desired salary, blank means zero
func (s *Server) handleMinSalary(w http.ResponseWriter, r *http.Request) {
	st := s.viewState(r)
	v, err := store.ParseSalary(r.FormValue("salary"))
	if err != nil {
		s.renderApp(w, r, st, toast{err: err.Error()})
		return
	}
	salary := 0
	if v != nil {
		salary = *v
	}
	s.store.UpdateMinDesiredSalary(salary)
	s.renderApp(w, r, st, toast{})
}

// handleThemeToggle switches light and dark themes
func (s *Server) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	nextTheme := enums.ThemeLight
	if s.getTheme(r) == enums.ThemeLight {
		nextTheme = enums.ThemeDark
	}
	s.setCookie(w, cookieTheme, nextTheme.String())

	// trigger full page refresh for theme change
	w.Header().Set("HX-Refresh", "true")
	w.WriteHeader(http.StatusOK)
}
