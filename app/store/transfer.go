package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"
	"gopkg.in/yaml.v3"

	"github.com/umputun/jobtrack/app/store/enums"
)

// ErrImportInvalid is returned when imported text is not a valid store
var ErrImportInvalid = errors.New("invalid import data")

// importData mirrors Data with pointers to detect missing top-level fields
type importData struct {
	Roles            *[]string `json:"roles" yaml:"roles"`
	Jobs             *[]Job    `json:"jobs" yaml:"jobs"`
	TableLayout      *[]Column `json:"tableLayout" yaml:"tableLayout"`
	MinDesiredSalary *int      `json:"minDesiredSalary" yaml:"minDesiredSalary"`
}

// ExportFileName makes a dated name for an export file, i.e. job-tracker-2025-01-31.json
func ExportFileName(t time.Time, format enums.Format) string {
	return fmt.Sprintf("job-tracker-%s.%s", t.Format("2006-01-02"), format.String())
}

// Export serializes the whole store as pretty-printed text
func (s *Store) Export(format enums.Format) (string, error) {
	data := s.Snapshot()

	switch format {
	case enums.FormatYaml:
		buf := bytes.Buffer{}
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return "", fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("failed to finish yaml: %w", err)
		}
		return buf.String(), nil
	default:
		res, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode json: %w", err)
		}
		return string(res), nil
	}
}

// Import replaces the whole store with parsed text. The text must have roles, jobs and tableLayout,
// and every field must be valid, otherwise the store is left untouched.
func (s *Store) Import(text string, format enums.Format) error {
	data, err := parseImport([]byte(text), format)
	if err != nil {
		log.Printf("[WARN] import rejected: %v", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.persist()
	log.Printf("[INFO] imported %d roles, %d jobs", len(data.Roles), len(data.Jobs))
	return nil
}

func parseImport(text []byte, format enums.Format) (Data, error) {
	var raw importData
	switch format {
	case enums.FormatYaml:
		if err := yaml.Unmarshal(text, &raw); err != nil {
			return Data{}, fmt.Errorf("%w: %w", ErrImportInvalid, err)
		}
	default:
		if err := json.Unmarshal(text, &raw); err != nil {
			return Data{}, fmt.Errorf("%w: %w", ErrImportInvalid, err)
		}
	}

	if raw.Roles == nil || raw.Jobs == nil || raw.TableLayout == nil {
		return Data{}, fmt.Errorf("%w: roles, jobs and tableLayout are required", ErrImportInvalid)
	}

	data := Data{Roles: *raw.Roles, Jobs: *raw.Jobs, TableLayout: *raw.TableLayout}
	if raw.MinDesiredSalary != nil {
		data.MinDesiredSalary = *raw.MinDesiredSalary
	}
	normalize(&data)

	if err := validate(data); err != nil {
		return Data{}, fmt.Errorf("%w: %w", ErrImportInvalid, err)
	}
	return data, nil
}

// validate checks every field of the imported data
func validate(d Data) error {
	if d.MinDesiredSalary < 0 {
		return fmt.Errorf("minDesiredSalary %d is negative", d.MinDesiredSalary)
	}

	roles := make(map[string]bool, len(d.Roles))
	for i, r := range d.Roles {
		if r == "" {
			return fmt.Errorf("role %d is empty", i+1)
		}
		if roles[r] {
			return fmt.Errorf("duplicate role %q", r)
		}
		roles[r] = true
	}

	if !IsPermutation(d.TableLayout) {
		return fmt.Errorf("tableLayout %v is not a permutation of %v", d.TableLayout, defaultLayout)
	}

	ids := make(map[string]bool, len(d.Jobs))
	for i, j := range d.Jobs {
		if err := validateJob(j); err != nil {
			return fmt.Errorf("job %d: %w", i+1, err)
		}
		if ids[j.ID] {
			return fmt.Errorf("job %d: duplicate id %q", i+1, j.ID)
		}
		ids[j.ID] = true
	}
	return nil
}

func validateJob(j Job) error {
	switch {
	case j.ID == "":
		return errors.New("id is required")
	case j.CreatedAt.IsZero():
		return errors.New("createdAt is required")
	case j.CompanyName == "":
		return errors.New("companyName is required")
	case j.Desirability < minDesirability || j.Desirability > maxDesirability:
		return fmt.Errorf("desirability %d out of range %d..%d", j.Desirability, minDesirability, maxDesirability)
	case j.SalaryMin != nil && *j.SalaryMin < 0:
		return fmt.Errorf("salaryMin %d is negative", *j.SalaryMin)
	case j.SalaryMax != nil && *j.SalaryMax < 0:
		return fmt.Errorf("salaryMax %d is negative", *j.SalaryMax)
	case j.Progress == (enums.Progress{}):
		return errors.New("progress is required")
	}
	return nil
}
