package store

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/umputun/jobtrack/app/store/enums"
)

const (
	minDesirability = 1
	maxDesirability = 5
)

// ErrUnknownField is returned for columns that can't be edited
var ErrUnknownField = errors.New("unknown or read-only field")

// ErrInvalidValue is returned when a cell value can't be converted to the field type
var ErrInvalidValue = errors.New("invalid value")

var keywordsSplitRe = regexp.MustCompile(`[,\s]+`)

// Job is a single tracked job application
type Job struct {
	ID           string         `json:"id" yaml:"id"`
	CreatedAt    time.Time      `json:"createdAt" yaml:"createdAt"`
	CompanyName  string         `json:"companyName" yaml:"companyName"`
	Link         string         `json:"link" yaml:"link"`
	Desirability int            `json:"desirability" yaml:"desirability"`
	SalaryMin    *int           `json:"salaryMin" yaml:"salaryMin"`
	SalaryMax    *int           `json:"salaryMax" yaml:"salaryMax"`
	Role         string         `json:"role" yaml:"role"`
	Keywords     []string       `json:"keywords" yaml:"keywords"`
	Progress     enums.Progress `json:"progress" yaml:"progress"`
}

// JobData is everything needed to create a job, id and creation time are assigned by the store
type JobData struct {
	CompanyName  string
	Link         string
	Desirability int
	SalaryMin    *int
	SalaryMax    *int
	Role         string
	Keywords     []string
	Progress     enums.Progress
}

// SalaryInverted reports min salary above max salary. Such jobs are kept as is and only flagged.
func (j Job) SalaryInverted() bool {
	return j.SalaryMin != nil && j.SalaryMax != nil && *j.SalaryMax < *j.SalaryMin
}

// clone makes a deep copy, nothing is shared with the original
func (j Job) clone() Job {
	res := j
	res.Keywords = append([]string{}, j.Keywords...)
	if j.SalaryMin != nil {
		v := *j.SalaryMin
		res.SalaryMin = &v
	}
	if j.SalaryMax != nil {
		v := *j.SalaryMax
		res.SalaryMax = &v
	}
	return res
}

// JobUpdate changes a single field of a job
type JobUpdate func(j *Job)

// WithCompanyName sets company name
func WithCompanyName(name string) JobUpdate {
	return func(j *Job) { j.CompanyName = name }
}

// WithLink sets link
func WithLink(link string) JobUpdate {
	return func(j *Job) { j.Link = link }
}

// WithDesirability sets desirability clamped to 1..5
func WithDesirability(v int) JobUpdate {
	return func(j *Job) { j.Desirability = ClampDesirability(v) }
}

// WithSalaryMin sets min salary, nil clears it
func WithSalaryMin(v *int) JobUpdate {
	return func(j *Job) { j.SalaryMin = copyInt(v) }
}

// WithSalaryMax sets max salary, nil clears it
func WithSalaryMax(v *int) JobUpdate {
	return func(j *Job) { j.SalaryMax = copyInt(v) }
}

// WithRole sets role
func WithRole(role string) JobUpdate {
	return func(j *Job) { j.Role = role }
}

// WithKeywords replaces keywords
func WithKeywords(kw []string) JobUpdate {
	return func(j *Job) { j.Keywords = append([]string{}, kw...) }
}

// WithProgress sets progress
func WithProgress(p enums.Progress) JobUpdate {
	return func(j *Job) { j.Progress = p }
}

// ParseJobUpdate makes an update from a column id and the raw text typed into the table cell.
// Empty salary clears the value, keywords are split on commas and spaces.
func ParseJobUpdate(col Column, raw string) (JobUpdate, error) {
	switch col {
	case ColumnCompanyName:
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, fmt.Errorf("%w: company name is required", ErrInvalidValue)
		}
		return WithCompanyName(name), nil
	case ColumnLink:
		return WithLink(strings.TrimSpace(raw)), nil
	case ColumnDesirability:
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: desirability %q: %w", ErrInvalidValue, raw, err)
		}
		return WithDesirability(v), nil
	case ColumnSalaryMin, ColumnSalaryMax:
		v, err := ParseSalary(raw)
		if err != nil {
			return nil, err
		}
		if col == ColumnSalaryMin {
			return WithSalaryMin(v), nil
		}
		return WithSalaryMax(v), nil
	case ColumnRole:
		return WithRole(raw), nil
	case ColumnKeywords:
		return WithKeywords(SplitKeywords(raw)), nil
	case ColumnProgress:
		p, err := enums.ParseProgress(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return WithProgress(p), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, col)
	}
}

// ParseSalary converts user input to a salary, blank input means no salary
func ParseSalary(raw string) (*int, error) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer(",", "", "$", "", "_", "").Replace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: salary %q: %w", ErrInvalidValue, raw, err)
	}
	if v < 0 {
		return nil, fmt.Errorf("%w: salary %q is negative", ErrInvalidValue, raw)
	}
	return &v, nil
}

// SplitKeywords splits comma or space separated tags, dropping empty ones
func SplitKeywords(raw string) []string {
	res := []string{}
	for _, kw := range keywordsSplitRe.Split(raw, -1) {
		if kw != "" {
			res = append(res, kw)
		}
	}
	return res
}

// ClampDesirability forces v into 1..5
func ClampDesirability(v int) int {
	return min(max(v, minDesirability), maxDesirability)
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	res := *v
	return &res
}
