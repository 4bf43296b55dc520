package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/jobtrack/app/store"
	storeEnums "github.com/umputun/jobtrack/app/store/enums"
	"github.com/umputun/jobtrack/app/view"
)

// APIJobsResponse is the JSON response for /api/v1/jobs
type APIJobsResponse struct {
	Jobs     []store.Job `json:"jobs"`
	Total    int         `json:"total"`
	Filtered int         `json:"filtered"`
}

// APIImportResponse is the JSON response for a successful import
type APIImportResponse struct {
	Status string `json:"status"`
	Roles  int    `json:"roles"`
	Jobs   int    `json:"jobs"`
}

// handleAPIExport downloads the whole store as a dated json or yaml file
func (s *Server) handleAPIExport(w http.ResponseWriter, r *http.Request) {
	format := storeEnums.FormatJson
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := storeEnums.ParseFormat(v)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "unsupported format")
			return
		}
		format = f
	}

	text, err := s.store.Export(format)
	if err != nil {
		log.Printf("[ERROR] failed to export store: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "failed to export")
		return
	}

	contentType := "application/json"
	if format == storeEnums.FormatYaml {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", store.ExportFileName(s.now(), format)))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, text); err != nil {
		log.Printf("[WARN] failed to write export: %v", err)
	}
}

// handleAPIImport replaces the store with an uploaded export. Accepts a multipart "file" field
// or the raw request body. HTMX requests get the app partial back, others get JSON.
func (s *Server) handleAPIImport(w http.ResponseWriter, r *http.Request) {
	isHTMX := r.Header.Get("HX-Request") == "true"
	fail := func(status int, msg string) {
		if isHTMX {
			s.renderApp(w, r, s.viewState(r), toast{err: msg})
			return
		}
		s.writeJSONError(w, status, msg)
	}

	text, fileName, err := readImport(r)
	if err != nil {
		fail(http.StatusBadRequest, err.Error())
		return
	}

	format, err := importFormat(r.URL.Query().Get("format"), fileName)
	if err != nil {
		fail(http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.Import(text, format); err != nil {
		if errors.Is(err, store.ErrImportInvalid) {
			fail(http.StatusBadRequest, fmt.Sprintf("import rejected: %v", err))
			return
		}
		log.Printf("[ERROR] failed to import: %v", err)
		fail(http.StatusInternalServerError, "failed to import")
		return
	}

	data := s.store.Snapshot()
	if isHTMX {
		st := s.viewState(r)
		st.Selection = st.Selection.Clear()
		s.renderApp(w, r, st, toast{notice: fmt.Sprintf("Imported %d jobs", len(data.Jobs))})
		return
	}
	s.writeJSON(w, http.StatusOK, APIImportResponse{Status: "ok", Roles: len(data.Roles), Jobs: len(data.Jobs)})
}

// readImport returns the uploaded text and the file name if it came as a multipart upload
func readImport(r *http.Request) (text, fileName string, err error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, hdr, err := r.FormFile("file")
		if err != nil {
			return "", "", fmt.Errorf("no file uploaded: %w", err)
		}
		defer file.Close()
		body, err := io.ReadAll(file)
		if err != nil {
			return "", "", fmt.Errorf("failed to read uploaded file: %w", err)
		}
		return string(body), hdr.Filename, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to read request body: %w", err)
	}
	return string(body), "", nil
}

// importFormat picks the format from the explicit value or the uploaded file extension, json by default
func importFormat(explicit, fileName string) (storeEnums.Format, error) {
	if explicit != "" {
		f, err := storeEnums.ParseFormat(explicit)
		if err != nil {
			return storeEnums.Format{}, fmt.Errorf("unsupported format %q", explicit)
		}
		return f, nil
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".yaml", ".yml":
		return storeEnums.FormatYaml, nil
	default:
		return storeEnums.FormatJson, nil
	}
}

// handleAPIJobs returns filtered and sorted jobs.
// Query: search, role (repeatable), sort (column), dir (asc|desc, asc by default).
func (s *Server) handleAPIJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	st := view.State{Filter: view.Filter{Roles: q["role"], Search: q.Get("search")}}

	if col := q.Get("sort"); col != "" {
		dir := q.Get("dir")
		if dir == "" {
			dir = storeEnums.SortDirectionAsc.String()
		}
		sort, err := view.ParseSort(col + ":" + dir)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		st.Sort = sort
	}

	data := s.store.Snapshot()
	jobs := view.Build(data, st).Jobs
	s.writeJSON(w, http.StatusOK, APIJobsResponse{Jobs: jobs, Total: len(data.Jobs), Filtered: len(jobs)})
}

// handleAPISchema returns JSON schema of the export format
func (s *Server) handleAPISchema(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, store.Schema())
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[WARN] failed to encode JSON error response: %v", err)
	}
}
