// Package view derives what the job table shows from the store state and transient UI state:
// role and search filters, column sort, column drag-reorder and row selection.
// Nothing here mutates the store, callers pass the results back through store methods.
package view

import (
	"slices"
	"strings"

	"github.com/umputun/jobtrack/app/store"
)

// Filter is the transient role selection and search text
type Filter struct {
	Roles  []string
	Search string
}

// IsEmpty reports whether the filter lets every job through
func (f Filter) IsEmpty() bool {
	return len(f.Roles) == 0 && strings.TrimSpace(f.Search) == ""
}

// HasRole reports whether the role is selected
func (f Filter) HasRole(role string) bool {
	return slices.Contains(f.Roles, role)
}

// ToggleRole adds the role to the selection or removes it if already selected
func (f Filter) ToggleRole(role string) Filter {
	res := Filter{Search: f.Search}
	if f.HasRole(role) {
		res.Roles = slices.DeleteFunc(slices.Clone(f.Roles), func(r string) bool { return r == role })
		return res
	}
	res.Roles = append(slices.Clone(f.Roles), role)
	return res
}

// Apply returns jobs passing both the role filter and the search, keeping their order.
// Empty role selection and blank search both mean no filtering.
func (f Filter) Apply(jobs []store.Job) []store.Job {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	filtered := make([]store.Job, 0, len(jobs))
	for _, job := range jobs {
		if len(f.Roles) > 0 && !f.HasRole(job.Role) {
			continue
		}
		if search != "" && !matchSearch(job, search) {
			continue
		}
		filtered = append(filtered, job)
	}
	return filtered
}

// matchSearch checks company, role and every keyword for a case-insensitive substring
func matchSearch(job store.Job, lowerTerm string) bool {
	if strings.Contains(strings.ToLower(job.CompanyName), lowerTerm) {
		return true
	}
	if strings.Contains(strings.ToLower(job.Role), lowerTerm) {
		return true
	}
	return slices.ContainsFunc(job.Keywords, func(kw string) bool {
		return strings.Contains(strings.ToLower(kw), lowerTerm)
	})
}

// RoleCounts returns the number of jobs per role
func RoleCounts(jobs []store.Job) map[string]int {
	res := make(map[string]int)
	for _, j := range jobs {
		res[j.Role]++
	}
	return res
}
